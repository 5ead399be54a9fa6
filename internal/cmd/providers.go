package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/adversary/internal/ai"
	"github.com/Iron-Ham/adversary/internal/config"
	"github.com/Iron-Ham/adversary/internal/util"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers and whether their API keys are set",
	Long: `List supported providers, where each API key comes from and example models.

Keys are read from the environment and from keys.json in the config
directory. An environment variable wins over the file.`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	keys, err := config.LoadKeys(config.KeysFile(), nil)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", warningStyle.Render("Warning:"), err)
	}

	fmt.Fprintln(out, titleStyle.Render("Supported providers:"))
	fmt.Fprintln(out)
	for _, p := range ai.Providers() {
		fmt.Fprintf(out, "  %s %s %s\n",
			util.PadRight(p.DisplayName, 10),
			util.PadRight(keyStatus(keys.Source(p.KeyEnv)), 12),
			mutedStyle.Render(p.KeyEnv))
		fmt.Fprintf(out, "    models: %s\n", strings.Join(p.Models, ", "))
	}

	fmt.Fprintln(out)
	state := "not found"
	if keys.FileExists {
		state = "found"
	}
	fmt.Fprintf(out, "Keys file: %s (%s)\n", keys.Path, state)
	return nil
}

func keyStatus(src config.KeySource) string {
	switch src {
	case config.SourceConfig:
		return agreeStyle.Render("[config]")
	case config.SourceEnv:
		return agreeStyle.Render("[env]")
	default:
		return errorStyle.Render("[not set]")
	}
}
