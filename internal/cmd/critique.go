package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/adversary/internal/ai"
	"github.com/Iron-Ham/adversary/internal/config"
	"github.com/Iron-Ham/adversary/internal/critic"
	"github.com/Iron-Ham/adversary/internal/debate"
	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/event"
	"github.com/Iron-Ham/adversary/internal/logging"
	"github.com/Iron-Ham/adversary/internal/profile"
	"github.com/Iron-Ham/adversary/internal/prompt"
	"github.com/Iron-Ham/adversary/internal/session"
)

var critiqueCmd = &cobra.Command{
	Use:   "critique",
	Short: "Run one review round over a strategy read from stdin",
	Long: `Run one review round: the strategy read from stdin is sent to every model
at once. Each model replies with [AGREE] or with a critique and a revised
strategy between [SPEC] and [/SPEC].

With --session the round is recorded so the next invocation can continue
with the revised strategy (--resume, or --session with the same id).`,
	Example: `  cat strategy.md | adversary critique --models gpt-5.2,claude-opus-4-5
  cat strategy.md | adversary critique --focus risks --persona skeptic --session q3-plan
  adversary critique --resume q3-plan --json`,
	Args: cobra.NoArgs,
	RunE: runCritique,
}

var (
	critiqueModels         []string
	critiqueRound          int
	critiqueJSON           bool
	critiquePress          bool
	critiqueFocus          string
	critiquePersona        string
	critiqueContext        []string
	critiqueProfile        string
	critiquePreserveIntent bool
	critiqueSession        string
	critiqueResume         string
	critiqueShowCost       bool
)

// completer is what critique needs from the provider layer.
type completer interface {
	ai.Completer
	Check(models []string) error
}

// newCompleter builds the provider router. Tests replace it.
var newCompleter = func(cfg *config.Config, keys *config.Keys) completer {
	return ai.NewRouter(cfg.RouterConfig(keys))
}

func init() {
	rootCmd.AddCommand(critiqueCmd)

	f := critiqueCmd.Flags()
	f.StringSliceVarP(&critiqueModels, profile.FlagModels, "m", nil, "comma-separated models, e.g. gpt-5.2,gemini/gemini-2.5-flash,xai/grok-3 (default from config)")
	f.IntVarP(&critiqueRound, "round", "r", 1, "current round number")
	f.BoolVarP(&critiqueJSON, "json", "j", false, "output as JSON")
	f.BoolVarP(&critiquePress, "press", "p", false, "press models to confirm they read the full strategy")
	f.StringVarP(&critiqueFocus, profile.FlagFocus, "f", "", "focus area (see 'adversary focus-areas')")
	f.StringVar(&critiquePersona, profile.FlagPersona, "", "critic persona (see 'adversary personas')")
	f.StringArrayVarP(&critiqueContext, profile.FlagContext, "c", nil, "additional context file (repeatable)")
	f.StringVar(&critiqueProfile, "profile", "", "load settings from a saved profile")
	f.BoolVar(&critiquePreserveIntent, profile.FlagPreserveIntent, false, "require justification for any removal or substantial change")
	f.StringVarP(&critiqueSession, "session", "s", "", "session id: create it, or continue it if it exists")
	f.StringVar(&critiqueResume, "resume", "", "resume an existing session by id")
	f.BoolVar(&critiqueShowCost, "show-cost", false, "print the cost summary (to stderr with --json)")

	critiqueCmd.MarkFlagsMutuallyExclusive("session", "resume")
}

// critiqueRun is the fully resolved input of one round.
type critiqueRun struct {
	artifact string
	round    int
	settings profile.Settings
	sess     *session.Session
}

func runCritique(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	stderr := cmd.ErrOrStderr()

	keys, err := config.LoadKeys(config.KeysFile(), nil)
	if err != nil {
		fmt.Fprintf(stderr, "%s %v\n", warningStyle.Render("Warning:"), err)
	}

	settings, err := critiqueSettings(cmd, a.cfg)
	if err != nil {
		return err
	}

	var (
		mgr     *session.Manager
		closeFn = func() {}
	)
	if critiqueSession != "" || critiqueResume != "" {
		mgr, closeFn, err = a.sessionManager()
		if err != nil {
			return err
		}
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := resolveRun(ctx, cmd, mgr, settings)
	if err != nil {
		return err
	}
	if len(run.settings.Models) == 0 {
		return errors.NewConfigError("no models specified", errors.ErrInvalidConfig).WithField(profile.FlagModels)
	}

	warnUnknownTags(stderr, run.settings)

	client := newCompleter(a.cfg, keys)
	if err := client.Check(run.settings.Models); err != nil {
		return err
	}

	// config is settled; only now is a new session written
	if run.sess == nil && critiqueSession != "" {
		run.sess, err = mgr.Create(ctx, session.Params{
			ID:             critiqueSession,
			Spec:           run.artifact,
			Round:          run.round,
			Models:         run.settings.Models,
			Focus:          run.settings.Focus,
			Persona:        run.settings.Persona,
			PreserveIntent: run.settings.PreserveIntent,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Session '%s' created\n", run.sess.ID)
	}

	if run.sess != nil {
		lock, err := session.AcquireLock(a.cfg.SessionDir(), run.sess.ID, a.logger)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
	}

	bus := event.NewBus(a.logger)
	subscribeProgress(bus, stderr)
	traceEvents(bus, a.logger)

	inv := critic.NewInvoker(client, a.cfg.CriticConfig(), critic.WithBus(bus), critic.WithLogger(a.logger))
	orch := debate.NewOrchestrator(inv,
		debate.WithPrices(a.cfg.PriceTable()),
		debate.WithBus(bus),
		debate.WithLogger(a.logger),
	)

	mode := prompt.ModeReview
	if critiquePress {
		mode = prompt.ModePress
	}
	fmt.Fprintln(stderr, callingLine(run.settings, mode))

	round := orch.RunRound(ctx, debate.RoundRequest{
		Critics:        run.settings.Models,
		Artifact:       run.artifact,
		Number:         run.round,
		Mode:           mode,
		Focus:          run.settings.Focus,
		Persona:        run.settings.Persona,
		Context:        prompt.LoadContext(run.settings.Context),
		PreserveIntent: run.settings.PreserveIntent,
	})
	if ctx.Err() != nil {
		return fmt.Errorf("critique interrupted: %w", ctx.Err())
	}
	if err := round.Failure(); err != nil {
		fmt.Fprintf(stderr, "%s %v\n", warningStyle.Render("Warning:"), err)
	}

	sessionID := ""
	if run.sess != nil {
		sessionID = run.sess.ID
		cp := session.NewCheckpointWriter(a.cfg.CheckpointDir(), sessionID)
		path, err := cp.Write(round.Number, round.Input)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Checkpoint saved: %s\n", path)

		if err := mgr.Persist(ctx, run.sess, round); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	costs := orch.Ledger().Snapshot()
	if critiqueJSON {
		if err := writeJSONReport(out, round, run.settings, sessionID, costs); err != nil {
			return err
		}
		if critiqueShowCost {
			fmt.Fprintln(stderr, costs.String())
		}
		return nil
	}
	writeTextReport(out, round)
	fmt.Fprintln(out, costs.String())
	return nil
}

// critiqueSettings merges flags, config defaults and the --profile bundle.
// warnUnknownTags flags focus and persona tags without a dedicated prompt
// block. They still run with a generic block.
func warnUnknownTags(w io.Writer, s profile.Settings) {
	if s.Focus != "" && !prompt.IsKnownFocus(s.Focus) {
		fmt.Fprintf(w, "%s unknown focus area %q; using a generic focus block (see 'adversary focus-areas')\n", warningStyle.Render("Warning:"), s.Focus)
	}
	if s.Persona != "" && !prompt.IsKnownPersona(s.Persona) {
		fmt.Fprintf(w, "%s unknown persona %q; using a generic persona (see 'adversary personas')\n", warningStyle.Render("Warning:"), s.Persona)
	}
}

func critiqueSettings(cmd *cobra.Command, cfg *config.Config) (profile.Settings, error) {
	flags := cmd.Flags()
	s := profile.Settings{
		Models:         cfg.Debate.Models,
		Focus:          critiqueFocus,
		Persona:        critiquePersona,
		Context:        critiqueContext,
		PreserveIntent: critiquePreserveIntent,
	}
	if flags.Changed(profile.FlagModels) {
		s.Models = cleanModels(critiqueModels)
	}

	if critiqueProfile != "" {
		p, err := profile.NewStore(cfg.ProfilesDir()).Load(critiqueProfile)
		if err != nil {
			return s, err
		}
		s = p.Apply(s, flags.Changed)
	}
	return s, nil
}

// resolveRun determines the artifact, round and settings, either from a
// stored session or from stdin and the flags.
func resolveRun(ctx context.Context, cmd *cobra.Command, mgr *session.Manager, settings profile.Settings) (*critiqueRun, error) {
	id := critiqueResume
	if id == "" && critiqueSession != "" {
		exists, err := mgr.Exists(ctx, critiqueSession)
		if err != nil {
			return nil, err
		}
		if exists {
			id = critiqueSession
		}
	}

	if id != "" {
		sess, err := mgr.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		resolved := sess.Resolve(session.Settings{
			Models:         settings.Models,
			Focus:          settings.Focus,
			Persona:        settings.Persona,
			PreserveIntent: settings.PreserveIntent,
		})
		fmt.Fprintf(cmd.ErrOrStderr(), "Resuming session '%s' at round %d\n", sess.ID, sess.Round)
		return &critiqueRun{
			artifact: sess.Spec,
			round:    sess.Round,
			sess:     sess,
			settings: profile.Settings{
				Models:         resolved.Models,
				Focus:          resolved.Focus,
				Persona:        resolved.Persona,
				Context:        settings.Context,
				PreserveIntent: resolved.PreserveIntent,
			},
		}, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy from stdin: %w", err)
	}
	artifact := strings.TrimSpace(string(data))
	if artifact == "" {
		return nil, fmt.Errorf("no strategy provided via stdin: %w", errors.ErrInvalidInput)
	}
	if critiqueRound < 1 {
		return nil, fmt.Errorf("--round must be at least 1: %w", errors.ErrInvalidInput)
	}
	return &critiqueRun{artifact: artifact, round: critiqueRound, settings: settings}, nil
}

func cleanModels(models []string) []string {
	var out []string
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func callingLine(s profile.Settings, mode prompt.Mode) string {
	verb := "critiquing"
	if mode == prompt.ModePress {
		verb = "pressing for confirmation"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Calling %d model(s) (%s)", len(s.Models), verb)
	if s.Focus != "" {
		fmt.Fprintf(&b, " (focus: %s)", s.Focus)
	}
	if s.Persona != "" {
		fmt.Fprintf(&b, " (persona: %s)", s.Persona)
	}
	if s.PreserveIntent {
		b.WriteString(" (preserve-intent)")
	}
	fmt.Fprintf(&b, ": %s...", strings.Join(s.Models, ", "))
	return b.String()
}

// syncWriter serializes writes from concurrently running critics.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// traceEvents records every event in the debug log.
func traceEvents(bus *event.Bus, logger *logging.Logger) {
	logger = logging.OrNop(logger)
	bus.SubscribeAll(func(e event.Event) {
		logger.Debug("event", "type", e.EventType(), "at", e.Timestamp())
	})
}

// subscribeProgress reports critic events on w as they happen.
func subscribeProgress(bus *event.Bus, out io.Writer) {
	w := &syncWriter{w: out}
	bus.Subscribe(event.TypeCriticRetrying, func(e event.Event) {
		ev := e.(event.CriticRetryingEvent)
		fmt.Fprintf(w, "%s %s failed (attempt %d/%d), retrying in %s: %v\n",
			mutedStyle.Render("Retry:"), ev.Critic, ev.Attempt, ev.MaxAttempts, ev.Delay, ev.Err)
	})
	bus.Subscribe(event.TypeCriticFailed, func(e event.Event) {
		ev := e.(event.CriticFailedEvent)
		fmt.Fprintf(w, "%s %s returned error: %v\n", warningStyle.Render("Warning:"), ev.Critic, ev.Err)
	})
	bus.Subscribe(event.TypeCriticMalformed, func(e event.Event) {
		ev := e.(event.CriticMalformedEvent)
		fmt.Fprintf(w, "%s %s replied without [AGREE] or a [SPEC] block\n", warningStyle.Render("Warning:"), ev.Critic)
	})
}
