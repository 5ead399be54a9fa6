package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/session"
	"github.com/Iron-Ham/adversary/internal/util"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved critique sessions",
	Long:  `Commands for listing, inspecting and deleting critique sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Long: `List saved sessions, most recently updated first:
- Session ID
- Next round number
- Models
- Lock status (whether a critique is running on it)`,
	Args: cobra.NoArgs,
	RunE: runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's settings, history and current strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Long: `Delete a saved session. Checkpoint files are left in place.
A session that a running critique holds the lock on cannot be deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsDelete,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	mgr, closeFn, err := a.sessionManager()
	defer closeFn()
	if err != nil {
		return err
	}

	sessions, err := mgr.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, util.Rule(70))
	fmt.Fprintln(out, titleStyle.Render("Sessions"))
	fmt.Fprintln(out, util.Rule(70))

	if len(sessions) == 0 {
		fmt.Fprintln(out, "\nNo sessions found.")
		fmt.Fprintln(out, "Run 'adversary critique --session <id>' to create one.")
		return nil
	}

	fmt.Fprintf(out, "\nFound %d session(s):\n\n", len(sessions))
	for _, s := range sessions {
		status := "unlocked"
		if lock, locked := session.IsLocked(a.cfg.SessionDir(), s.ID); locked {
			status = warningStyle.Render(fmt.Sprintf("LOCKED (PID %d)", lock.PID))
		}
		fmt.Fprintf(out, "  Session: %s\n", headerStyle.Render(s.ID))
		fmt.Fprintf(out, "    Round:   %d\n", s.Round)
		fmt.Fprintf(out, "    Models:  %s\n", strings.Join(s.Models, ", "))
		fmt.Fprintf(out, "    Updated: %s\n", s.UpdatedAt.Local().Format(time.RFC822))
		fmt.Fprintf(out, "    Status:  %s\n\n", status)
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	mgr, closeFn, err := a.sessionManager()
	defer closeFn()
	if err != nil {
		return err
	}

	s, err := mgr.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Session "+s.ID))
	fmt.Fprintf(out, "  Next round:      %d\n", s.Round)
	fmt.Fprintf(out, "  Models:          %s\n", strings.Join(s.Models, ", "))
	if s.Focus != "" {
		fmt.Fprintf(out, "  Focus:           %s\n", s.Focus)
	}
	if s.Persona != "" {
		fmt.Fprintf(out, "  Persona:         %s\n", s.Persona)
	}
	fmt.Fprintf(out, "  Preserve intent: %v\n", s.PreserveIntent)
	fmt.Fprintf(out, "  Created:         %s\n", s.CreatedAt.Local().Format(time.RFC822))
	fmt.Fprintf(out, "  Updated:         %s\n", s.UpdatedAt.Local().Format(time.RFC822))

	if len(s.History) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("History"))
		for _, h := range s.History {
			verdict := "critiqued"
			if h.AllAgreed {
				verdict = agreeStyle.Render("all agreed")
			}
			fmt.Fprintf(out, "  Round %d: %s\n", h.Round, verdict)
			for _, m := range h.Models {
				switch {
				case m.Error != "":
					fmt.Fprintf(out, "    %s %s\n", util.PadRight(m.Model, 28), errorStyle.Render("error: "+util.TruncateString(m.Error, 60)))
				case m.Agreed:
					fmt.Fprintf(out, "    %s agreed\n", util.PadRight(m.Model, 28))
				default:
					fmt.Fprintf(out, "    %s critiqued\n", util.PadRight(m.Model, 28))
				}
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Current strategy"))
	fmt.Fprintln(out, s.Spec)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	id := args[0]
	if err := session.ValidateID(id); err != nil {
		return err
	}
	if lock, locked := session.IsLocked(a.cfg.SessionDir(), id); locked {
		return fmt.Errorf("session %s is in use by PID %d: %w", id, lock.PID, errors.ErrSessionLocked)
	}

	mgr, closeFn, err := a.sessionManager()
	defer closeFn()
	if err != nil {
		return err
	}
	if err := mgr.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
	return nil
}
