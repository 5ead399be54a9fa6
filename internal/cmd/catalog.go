package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/adversary/internal/prompt"
	"github.com/Iron-Ham/adversary/internal/util"
)

var focusAreasCmd = &cobra.Command{
	Use:   "focus-areas",
	Short: "List the built-in focus areas for --focus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Available focus areas (--focus):"))
		fmt.Fprintln(out)
		for _, e := range prompt.FocusAreas() {
			// the block opens with "**CRITICAL FOCUS: TITLE**"
			title := strings.Trim(util.FirstLine(e.Text), "*")
			title = strings.TrimPrefix(title, "CRITICAL FOCUS: ")
			fmt.Fprintf(out, "  %s %s\n", headerStyle.Render(util.PadRight(e.Name, 15)), title)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, mutedStyle.Render("Any other value is accepted and asks critics to prioritize that concern."))
		return nil
	},
}

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the built-in critic personas for --persona",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Available personas (--persona):"))
		fmt.Fprintln(out)
		for _, e := range prompt.Personas() {
			fmt.Fprintf(out, "  %s %s\n", headerStyle.Render(util.PadRight(e.Name, 15)), util.TruncateString(util.FirstLine(e.Text), 70))
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, mutedStyle.Render("Any other value is used as a free-form reviewer identity."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(focusAreasCmd)
	rootCmd.AddCommand(personasCmd)
}
