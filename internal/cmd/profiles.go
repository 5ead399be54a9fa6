package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/adversary/internal/profile"
	"github.com/Iron-Ham/adversary/internal/util"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List saved profiles",
	Long:  `List saved critique profiles. Use one with 'adversary critique --profile <name>'.`,
	Args:  cobra.NoArgs,
	RunE:  runProfiles,
}

var saveProfileCmd = &cobra.Command{
	Use:   "save-profile <name>",
	Short: "Save critique settings as a named profile",
	Example: `  adversary save-profile board-review --models gpt-5.2,claude-opus-4-5 --persona board-member --focus risks`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSaveProfile,
}

var (
	profileModels         []string
	profileFocus          string
	profilePersona        string
	profileContext        []string
	profilePreserveIntent bool
)

func init() {
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(saveProfileCmd)

	f := saveProfileCmd.Flags()
	f.StringSliceVarP(&profileModels, profile.FlagModels, "m", nil, "comma-separated models")
	f.StringVarP(&profileFocus, profile.FlagFocus, "f", "", "focus area")
	f.StringVar(&profilePersona, profile.FlagPersona, "", "critic persona")
	f.StringArrayVarP(&profileContext, profile.FlagContext, "c", nil, "additional context file (repeatable)")
	f.BoolVar(&profilePreserveIntent, profile.FlagPreserveIntent, false, "require justification for any removal or substantial change")
}

func runProfiles(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	store := profile.NewStore(a.cfg.ProfilesDir())
	entries, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No profiles found in %s\n", store.Dir())
		fmt.Fprintln(out, "Run 'adversary save-profile <name> --models ...' to create one.")
		return nil
	}

	fmt.Fprintln(out, titleStyle.Render("Saved profiles:"))
	fmt.Fprintln(out)
	for _, e := range entries {
		if e.Err != nil {
			fmt.Fprintf(out, "  %s %s\n", util.PadRight(e.Name, 20), errorStyle.Render("invalid: "+util.TruncateString(e.Err.Error(), 60)))
			continue
		}
		fmt.Fprintf(out, "  %s\n", headerStyle.Render(e.Name))
		p := e.Profile
		if len(p.Models) > 0 {
			fmt.Fprintf(out, "    models:  %s\n", strings.Join(p.Models, ", "))
		}
		if p.Focus != "" {
			fmt.Fprintf(out, "    focus:   %s\n", p.Focus)
		}
		if p.Persona != "" {
			fmt.Fprintf(out, "    persona: %s\n", p.Persona)
		}
		if len(p.Context) > 0 {
			fmt.Fprintf(out, "    context: %s\n", strings.Join(p.Context, ", "))
		}
		if p.PreserveIntent {
			fmt.Fprintln(out, "    preserve-intent")
		}
	}
	return nil
}

func runSaveProfile(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	p := &profile.Profile{
		Name:           args[0],
		Models:         cleanModels(profileModels),
		Focus:          profileFocus,
		Persona:        profilePersona,
		Context:        profileContext,
		PreserveIntent: profilePreserveIntent,
	}
	path, err := profile.NewStore(a.cfg.ProfilesDir()).Save(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' saved to %s\n", p.Name, path)
	return nil
}
