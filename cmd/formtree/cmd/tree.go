package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/stree"
)

var treeFlags struct {
	root string
	out  outputFormat
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the forms with their content in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var nodes []stree.TreeNode
		if treeFlags.root != "" {
			id, err := parseID("root", treeFlags.root)
			if err != nil {
				return err
			}
			sub, err := a.reader.Subtree(cmd.Context(), id)
			if err != nil {
				return err
			}
			nodes = []stree.TreeNode{sub}
		} else {
			nodes, err = a.reader.Tree(cmd.Context())
			if err != nil {
				return err
			}
		}

		if nodes == nil {
			nodes = []stree.TreeNode{}
		}
		written, err := treeFlags.out.write(cmd.OutOrStdout(), nodes)
		if err != nil || written {
			return err
		}
		printTree(cmd.OutOrStdout(), nodes, 0)
		return nil
	},
}

func printTree(w io.Writer, nodes []stree.TreeNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%d. %s [%s %s]\n", strings.Repeat("  ", depth), n.Rank, n.Title, n.Kind, n.ID)
		printTree(w, n.Children, depth+1)
	}
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().StringVar(&treeFlags.root, "root", "", "print only this node and its descendants")
	treeFlags.out.register(treeCmd)
}
