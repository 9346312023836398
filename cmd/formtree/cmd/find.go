package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/fuzzyfinder"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

var findFlags struct {
	kind  string
	limit int
	out   outputFormat
}

type findMatchView struct {
	ID       string `json:"id" yaml:"id"`
	Kind     string `json:"kind" yaml:"kind"`
	Title    string `json:"title" yaml:"title"`
	Rank     int    `json:"rank" yaml:"rank"`
	Distance int    `json:"distance" yaml:"distance"`
}

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Fuzzy search node titles to look up ids",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := mtree.KindUnspecified
		if findFlags.kind != "" {
			k, err := mtree.ParseKind(findFlags.kind)
			if err != nil {
				return err
			}
			kind = k
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		nodes, err := a.reader.Nodes(cmd.Context())
		if err != nil {
			return err
		}
		matches := fuzzyfinder.FindNodes(nodes, kind, strings.Join(args, " "))
		if findFlags.limit > 0 && len(matches) > findFlags.limit {
			matches = matches[:findFlags.limit]
		}

		views := make([]findMatchView, len(matches))
		for i, m := range matches {
			views[i] = findMatchView{
				ID:       m.Node.ID.String(),
				Kind:     m.Node.Kind.String(),
				Title:    m.Node.Title,
				Rank:     m.Node.Rank,
				Distance: m.Distance,
			}
		}
		written, err := findFlags.out.write(cmd.OutOrStdout(), views)
		if err != nil || written {
			return err
		}
		for _, v := range views {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", v.ID, v.Kind, v.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().StringVar(&findFlags.kind, "kind", "", "only match this kind")
	findCmd.Flags().IntVar(&findFlags.limit, "limit", 10, "maximum matches, 0 for all")
	findFlags.out.register(findCmd)
}
