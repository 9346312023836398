package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
)

var deleteKind string

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a node with everything under it and close the gap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := mtree.ParseKind(deleteKind)
		if err != nil {
			return err
		}
		id, err := parseID("id", args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var res movable.CompactionResult
		switch kind {
		case mtree.KindContainer:
			res, err = a.forms.Delete(cmd.Context(), id)
		case mtree.KindGroup:
			res, err = a.sections.Delete(cmd.Context(), id)
		case mtree.KindItem:
			res, err = a.questions.Delete(cmd.Context(), id)
		default:
			res, err = a.options.Delete(cmd.Context(), id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %q, %d siblings renumbered\n", kind, res.Deleted.Title, len(res.Updated))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringVar(&deleteKind, "kind", "", "form, section, question or option")
	_ = deleteCmd.MarkFlagRequired("kind")
}
