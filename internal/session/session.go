package session

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/adversary/internal/debate"
	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/logging"
)

// Session is the persisted state of a multi-round critique.
type Session struct {
	ID string `json:"session_id"`
	// Spec is the artifact the next round will review.
	Spec string `json:"spec"`
	// Round is the number of the next round to run.
	Round          int            `json:"round"`
	Models         []string       `json:"models"`
	Focus          string         `json:"focus,omitempty"`
	Persona        string         `json:"persona,omitempty"`
	PreserveIntent bool           `json:"preserve_intent"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	History        []HistoryEntry `json:"history"`
}

// HistoryEntry records the outcome of one persisted round.
type HistoryEntry struct {
	Round     int       `json:"round"`
	AllAgreed bool      `json:"all_agreed"`
	Models    []Outcome `json:"models"`
}

// Outcome is one critic's verdict within a HistoryEntry.
type Outcome struct {
	Model  string `json:"model"`
	Agreed bool   `json:"agreed"`
	Error  string `json:"error,omitempty"`
}

// Settings are the run settings a resumed session can supply.
type Settings struct {
	Models         []string
	Focus          string
	Persona        string
	PreserveIntent bool
}

// Resolve merges the session's settings over overrides: every field the
// session sets wins, and overrides fill only what the session leaves unset.
func (s *Session) Resolve(overrides Settings) Settings {
	out := overrides
	if len(s.Models) > 0 {
		out.Models = slices.Clone(s.Models)
	}
	if s.Focus != "" {
		out.Focus = s.Focus
	}
	if s.Persona != "" {
		out.Persona = s.Persona
	}
	if s.PreserveIntent {
		out.PreserveIntent = true
	}
	return out
}

// Params describe a session to create.
type Params struct {
	// ID is generated when empty.
	ID   string
	Spec string
	// Round is the first round to run; 1 when zero.
	Round          int
	Models         []string
	Focus          string
	Persona        string
	PreserveIntent bool
}

// Summary is one row of a session listing.
type Summary struct {
	ID        string    `json:"session_id"`
	Round     int       `json:"round"`
	Models    []string  `json:"models"`
	UpdatedAt time.Time `json:"updated_at"`
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateID reports whether id can be used as a session key. Ids must
// start with a letter or digit and contain only letters, digits, dots,
// underscores and hyphens.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return errors.NewSessionError(fmt.Sprintf("invalid session id %q", id), errors.ErrInvalidSessionID).WithSessionID(id)
	}
	return nil
}

// Manager creates, loads and advances sessions over a Store.
type Manager struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrNop(m.logger)
	return m
}

// Create stores a new session. It never overwrites: an id that is already
// taken fails with errors.ErrSessionExists.
func (m *Manager) Create(ctx context.Context, p Params) (*Session, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	round := p.Round
	if round < 1 {
		round = 1
	}

	ts := m.now().UTC()
	s := &Session{
		ID:             id,
		Spec:           p.Spec,
		Round:          round,
		Models:         slices.Clone(p.Models),
		Focus:          p.Focus,
		Persona:        p.Persona,
		PreserveIntent: p.PreserveIntent,
		CreatedAt:      ts,
		UpdatedAt:      ts,
		History:        []HistoryEntry{},
	}
	data, err := encode(s)
	if err != nil {
		return nil, errors.NewSessionError("failed to encode session", err).WithSessionID(id)
	}

	if err := m.store.Insert(ctx, id, data); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, errors.NewSessionError("failed to create session", errors.ErrSessionExists).WithSessionID(id)
		}
		return nil, errors.NewSessionError("failed to create session", err).WithSessionID(id)
	}
	m.logger.WithSession(id).Info("session created", "round", round, "models", len(s.Models))
	return s, nil
}

// Load reads a session. A missing record fails with errors.ErrSessionNotFound
// and an unreadable one with errors.ErrSessionCorrupted.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errors.NewSessionError("failed to load session", errors.ErrSessionNotFound).WithSessionID(id)
		}
		return nil, errors.NewSessionError("failed to load session", err).WithSessionID(id)
	}

	s, err := decode(data)
	if err != nil {
		m.logger.WithSession(id).Error("corrupt session record", "error", err)
		return nil, errors.NewSessionError(err.Error(), errors.ErrSessionCorrupted).WithSessionID(id)
	}
	if s.ID != id {
		return nil, errors.NewSessionError(fmt.Sprintf("record holds session %q", s.ID), errors.ErrSessionCorrupted).WithSessionID(id)
	}
	return s, nil
}

// Exists reports whether a session record is stored under id.
func (m *Manager) Exists(ctx context.Context, id string) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, err
	}
	if _, err := m.store.Get(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Persist records a completed round: it appends one history entry,
// advances Round to round.Number+1 and Spec to the round's next artifact,
// and writes the full snapshot. s is updated only if the write succeeds.
func (m *Manager) Persist(ctx context.Context, s *Session, round *debate.Round) error {
	if round.Number != s.Round {
		return errors.NewSessionError(
			fmt.Sprintf("round %d does not follow session round %d", round.Number, s.Round),
			errors.ErrInvalidInput,
		).WithSessionID(s.ID)
	}

	next := *s
	next.History = append(slices.Clone(s.History), historyEntry(round))
	next.Round = round.Number + 1
	next.Spec = round.Next
	next.UpdatedAt = m.now().UTC()

	data, err := encode(&next)
	if err != nil {
		return errors.NewSessionError("failed to encode session", err).WithSessionID(s.ID)
	}
	if err := m.store.Put(ctx, s.ID, data); err != nil {
		return errors.NewSessionError("failed to persist session", err).WithSessionID(s.ID)
	}

	*s = next
	m.logger.WithSession(s.ID).Info("session persisted",
		"round", round.Number,
		"all_agreed", round.Converged,
		"next_round", s.Round,
	)
	return nil
}

// List summarizes every readable session, most recently updated first.
// Corrupt records are skipped.
func (m *Manager) List(ctx context.Context) ([]Summary, error) {
	keys, err := m.store.Keys(ctx)
	if err != nil {
		return nil, errors.NewSessionError("failed to list sessions", err)
	}

	summaries := make([]Summary, 0, len(keys))
	for _, key := range keys {
		data, err := m.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, errors.NewSessionError("failed to list sessions", err)
		}
		s, err := decode(data)
		if err != nil {
			m.logger.WithSession(key).Warn("skipping corrupt session record", "error", err)
			continue
		}
		summaries = append(summaries, Summary{
			ID:        s.ID,
			Round:     s.Round,
			Models:    s.Models,
			UpdatedAt: s.UpdatedAt,
		})
	}

	slices.SortStableFunc(summaries, func(a, b Summary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return summaries, nil
}

// Delete removes a session record.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errors.NewSessionError("failed to delete session", errors.ErrSessionNotFound).WithSessionID(id)
		}
		return errors.NewSessionError("failed to delete session", err).WithSessionID(id)
	}
	m.logger.WithSession(id).Info("session deleted")
	return nil
}

func historyEntry(round *debate.Round) HistoryEntry {
	entry := HistoryEntry{
		Round:     round.Number,
		AllAgreed: round.Converged,
		Models:    make([]Outcome, 0, len(round.Responses)),
	}
	for _, resp := range round.Responses {
		o := Outcome{Model: resp.Critic, Agreed: resp.Agreed}
		if resp.Err != nil {
			o.Error = resp.Err.Error()
		}
		entry.Models = append(entry.Models, o)
	}
	return entry
}

func encode(s *Session) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session record: %w", err)
	}
	if s.ID == "" || s.Round < 1 {
		return nil, fmt.Errorf("session record is missing required fields")
	}
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	return &s, nil
}
