package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/adversary/internal/diff"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show a unified diff between two strategy versions",
	Example: `  adversary diff --previous .adversary-checkpoints/round-1.md --current .adversary-checkpoints/round-2.md`,
	Args:    cobra.NoArgs,
	RunE:    runDiff,
}

var (
	diffPrevious string
	diffCurrent  string
)

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVar(&diffPrevious, "previous", "", "previous version file")
	diffCmd.Flags().StringVar(&diffCurrent, "current", "", "current version file")
	_ = diffCmd.MarkFlagRequired("previous")
	_ = diffCmd.MarkFlagRequired("current")
}

func runDiff(cmd *cobra.Command, args []string) error {
	d, err := diff.Files(diffPrevious, diffCurrent)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if d == "" {
		fmt.Fprintln(out, diff.NoDifferences)
		return nil
	}
	fmt.Fprint(out, colorizeDiff(d))
	return nil
}
