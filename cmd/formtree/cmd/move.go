package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
)

var moveFlags struct {
	kind            string
	target          string
	directive       string
	continueOnError bool
	out             outputFormat
}

type moveItemView struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Status string `json:"status" yaml:"status"`
	Rank   int    `json:"rank,omitempty" yaml:"rank,omitempty"`
	Code   string `json:"code,omitempty" yaml:"code,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type moveReportView struct {
	BatchID string         `json:"batch_id" yaml:"batch_id"`
	Moved   int            `json:"moved" yaml:"moved"`
	Failed  int            `json:"failed" yaml:"failed"`
	Skipped int            `json:"skipped" yaml:"skipped"`
	Items   []moveItemView `json:"items" yaml:"items"`
}

var moveCmd = &cobra.Command{
	Use:   "move <id>...",
	Short: "Drop one or more nodes above, below or on top of a target",
	Long: `Move nodes relative to a target. Each id is moved in its own transaction, in
the order given.

Legal drops:
  form     above|below form
  section  above|below section, on_top form
  question above|below question, on_top section or form
  option   above|below option, on_top question

Examples:
  formtree move --kind section 01J... --target 01K... --directive above
  formtree move --kind question 01J... 01H... --target 01S... --directive on_top`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := mtree.ParseKind(moveFlags.kind)
		if err != nil {
			return err
		}
		directive, err := parseDirective(moveFlags.directive)
		if err != nil {
			return err
		}
		targetID, err := parseID("target", moveFlags.target)
		if err != nil {
			return err
		}
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		reqs := make([]movable.RelocateRequest, len(ids))
		for i, id := range ids {
			reqs[i] = movable.RelocateRequest{NodeID: id, Kind: kind, TargetID: targetID, Directive: directive}
		}
		report := a.engine.RelocateBatch(cmd.Context(), reqs, movable.BatchOptions{ContinueOnError: moveFlags.continueOnError})

		view := moveReportView{
			BatchID: report.BatchID.String(),
			Moved:   report.Moved(),
			Failed:  report.Failed(),
			Skipped: report.Skipped(),
		}
		for _, it := range report.Items {
			item := moveItemView{NodeID: it.Request.NodeID.String(), Status: string(it.Status)}
			if it.Result != nil {
				item.Rank = it.Result.Node.Rank
			}
			if it.Err != nil {
				e := errmap.Classify(it.Err)
				item.Code = string(e.Code)
				item.Error = errmap.Friendly(it.Err)
			}
			view.Items = append(view.Items, item)
		}

		written, err := moveFlags.out.write(cmd.OutOrStdout(), view)
		if err != nil {
			return err
		}
		if !written {
			w := cmd.OutOrStdout()
			for _, it := range view.Items {
				switch it.Status {
				case string(movable.BatchMoved):
					fmt.Fprintf(w, "%s moved to rank %d\n", it.NodeID, it.Rank)
				case string(movable.BatchFailed):
					fmt.Fprintf(w, "%s failed: %s\n", it.NodeID, it.Error)
				default:
					fmt.Fprintf(w, "%s skipped\n", it.NodeID)
				}
			}
		}
		return report.FirstError()
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().StringVar(&moveFlags.kind, "kind", "", "kind of the moved nodes: form, section, question or option")
	moveCmd.Flags().StringVar(&moveFlags.target, "target", "", "id of the drop target")
	moveCmd.Flags().StringVar(&moveFlags.directive, "directive", "on_top", "above, below or on_top")
	moveCmd.Flags().BoolVar(&moveFlags.continueOnError, "continue-on-error", false, "keep moving after a failed id")
	moveFlags.out.register(moveCmd)
	_ = moveCmd.MarkFlagRequired("kind")
	_ = moveCmd.MarkFlagRequired("target")
}
