package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/stree"
)

var checkOut outputFormat

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every sibling scope holds ranks 1..n",
	Long: `Verify reads every scope and reports the ones whose ranks are not 1..n or
whose questions do not have exactly one parent. Nothing is repaired.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := stree.Verify(cmd.Context(), a.db, logger)
		if err != nil {
			return err
		}
		written, err := checkOut.write(cmd.OutOrStdout(), report)
		if err != nil {
			return err
		}
		if !written {
			if report.OK() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d scopes ok\n", report.Scopes)
			}
			for _, v := range report.Violations {
				fmt.Fprintln(cmd.OutOrStdout(), v.Error)
			}
		}
		if !report.OK() {
			return fmt.Errorf("%w: %d of %d scopes", movable.ErrRankIntegrity, len(report.Violations), report.Scopes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkOut.register(checkCmd)
}
