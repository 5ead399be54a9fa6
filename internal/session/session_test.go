package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Iron-Ham/adversary/internal/critic"
	"github.com/Iron-Ham/adversary/internal/debate"
	"github.com/Iron-Ham/adversary/internal/errors"
)

// =============================================================================
// Test Helpers
// =============================================================================

// fakeClock returns a clock that advances one minute per call.
func fakeClock() func() time.Time {
	ts := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	return func() time.Time {
		ts = ts.Add(time.Minute)
		return ts
	}
}

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	return NewManager(store, WithClock(fakeClock()))
}

func testRound(number int, next string, responses ...critic.Response) *debate.Round {
	return &debate.Round{
		Number:    number,
		Responses: responses,
		Converged: debate.Converged(responses),
		Next:      next,
	}
}

// =============================================================================
// Create / Load
// =============================================================================

func TestManager_CreateLoad(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, store)
			ctx := context.Background()

			created, err := m.Create(ctx, Params{
				ID:             "s1",
				Spec:           "v1",
				Models:         []string{"gpt-5.2", "claude-opus-4-5"},
				Focus:          "security",
				PreserveIntent: true,
			})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if created.Round != 1 {
				t.Errorf("Round = %d, want 1", created.Round)
			}

			loaded, err := m.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if diff := cmp.Diff(created, loaded); diff != "" {
				t.Errorf("loaded session mismatch (-created +loaded):\n%s", diff)
			}
		})
	}
}

func TestManager_CreateGeneratesID(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	s, err := m.Create(context.Background(), Params{Spec: "v1", Models: []string{"gpt-5.2"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := ValidateID(s.ID); err != nil || len(s.ID) != 36 {
		t.Errorf("generated id %q is not a uuid: %v", s.ID, err)
	}
}

func TestManager_CreateExisting(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, store)
			ctx := context.Background()
			if _, err := m.Create(ctx, Params{ID: "s1", Spec: "v1"}); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			_, err := m.Create(ctx, Params{ID: "s1", Spec: "other"})
			if !errors.Is(err, errors.ErrSessionExists) {
				t.Fatalf("Create error = %v, want ErrSessionExists", err)
			}
			loaded, _ := m.Load(ctx, "s1")
			if loaded.Spec != "v1" {
				t.Errorf("existing session was overwritten: spec = %q", loaded.Spec)
			}
		})
	}
}

func TestManager_LoadMissing(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	_, err := m.Load(context.Background(), "nope")
	if !errors.Is(err, errors.ErrSessionNotFound) {
		t.Fatalf("Load error = %v, want ErrSessionNotFound", err)
	}
	if errors.ExitCode(err) != errors.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", errors.ExitCode(err), errors.ExitConfig)
	}
}

func TestManager_LoadCorrupted(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"missing id", `{"spec":"x","round":1}`},
		{"zero round", `{"session_id":"s1","spec":"x","round":0}`},
		{"other id", `{"session_id":"s2","spec":"x","round":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			_ = store.Put(context.Background(), "s1", []byte(tt.data))

			_, err := newTestManager(t, store).Load(context.Background(), "s1")
			if !errors.Is(err, errors.ErrSessionCorrupted) {
				t.Errorf("Load error = %v, want ErrSessionCorrupted", err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"s1", true},
		{"my-session_2.v1", true},
		{"2f1c9a4e-1d2b-4c3d-8e9f-0a1b2c3d4e5f", true},
		{"", false},
		{"../etc/passwd", false},
		{".hidden", false},
		{"a/b", false},
		{"has space", false},
	}
	for _, tt := range tests {
		err := ValidateID(tt.id)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateID(%q) = %v, want valid=%v", tt.id, err, tt.valid)
		}
		if err != nil && !errors.Is(err, errors.ErrInvalidSessionID) {
			t.Errorf("ValidateID(%q) error does not wrap ErrInvalidSessionID", tt.id)
		}
	}
}

// =============================================================================
// Persist
// =============================================================================

func TestManager_PersistRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, store)
			ctx := context.Background()

			s, err := m.Create(ctx, Params{ID: "s1", Spec: "v1", Models: []string{"critic1", "critic2"}})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			round := testRound(1, "v2",
				critic.Response{Critic: "critic1", Agreed: true},
				critic.Response{Critic: "critic2", Extracted: "v2"},
			)
			if err := m.Persist(ctx, s, round); err != nil {
				t.Fatalf("Persist failed: %v", err)
			}

			loaded, err := m.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.Round != 2 || loaded.Spec != "v2" || len(loaded.History) != 1 {
				t.Fatalf("loaded round=%d spec=%q history=%d, want 2, v2, 1",
					loaded.Round, loaded.Spec, len(loaded.History))
			}
			want := HistoryEntry{
				Round:     1,
				AllAgreed: false,
				Models: []Outcome{
					{Model: "critic1", Agreed: true},
					{Model: "critic2", Agreed: false},
				},
			}
			if diff := cmp.Diff(want, loaded.History[0]); diff != "" {
				t.Errorf("history entry mismatch (-want +got):\n%s", diff)
			}
			if !loaded.UpdatedAt.After(loaded.CreatedAt) {
				t.Errorf("UpdatedAt %v not after CreatedAt %v", loaded.UpdatedAt, loaded.CreatedAt)
			}
			if diff := cmp.Diff(s, loaded); diff != "" {
				t.Errorf("in-memory session diverged from the stored one:\n%s", diff)
			}
		})
	}
}

func TestManager_PersistRecordsErrors(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx := context.Background()
	s, _ := m.Create(ctx, Params{ID: "s1", Spec: "v1"})

	round := testRound(1, "v1", critic.Response{Critic: "gpt-5.2", Err: fmt.Errorf("rate limited")})
	if err := m.Persist(ctx, s, round); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	// an all-failed round still advances the counter
	if s.Round != 2 || s.Spec != "v1" {
		t.Errorf("round=%d spec=%q, want 2 and unchanged spec", s.Round, s.Spec)
	}
	if got := s.History[0].Models[0].Error; got != "rate limited" {
		t.Errorf("recorded error = %q", got)
	}
}

func TestManager_PersistIsMonotonic(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx := context.Background()
	s, _ := m.Create(ctx, Params{ID: "s1", Spec: "v1"})

	for n := 1; n <= 3; n++ {
		if err := m.Persist(ctx, s, testRound(n, fmt.Sprintf("v%d", n+1))); err != nil {
			t.Fatalf("Persist round %d failed: %v", n, err)
		}
	}
	if s.Round != 4 || len(s.History) != 3 {
		t.Fatalf("round=%d history=%d, want 4 and 3", s.Round, len(s.History))
	}

	err := m.Persist(ctx, s, testRound(2, "stale"))
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("out-of-order Persist error = %v, want ErrInvalidInput", err)
	}
	if s.Round != 4 || s.Spec != "v4" {
		t.Errorf("rejected Persist mutated the session: round=%d spec=%q", s.Round, s.Spec)
	}
}

func TestManager_PersistedRecordShape(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()
	s, _ := m.Create(ctx, Params{ID: "s1", Spec: "v1", Models: []string{"gpt-5.2"}})
	_ = m.Persist(ctx, s, testRound(1, "v2", critic.Response{Critic: "gpt-5.2", Agreed: true}))

	data, _ := store.Get(ctx, "s1")
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("stored record is not JSON: %v", err)
	}
	for _, key := range []string{"session_id", "spec", "round", "models", "preserve_intent", "created_at", "updated_at", "history"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("stored record lacks %q", key)
		}
	}
	if _, ok := raw["focus"]; ok {
		t.Error("unset focus should be omitted")
	}
}

// =============================================================================
// List / Delete
// =============================================================================

func TestManager_ListOrdersByRecency(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, store)
			ctx := context.Background()
			a, _ := m.Create(ctx, Params{ID: "a", Spec: "x"})
			_, _ = m.Create(ctx, Params{ID: "b", Spec: "x"})
			_, _ = m.Create(ctx, Params{ID: "c", Spec: "x"})
			// touching "a" makes it the most recent
			_ = m.Persist(ctx, a, testRound(1, "y"))

			got, err := m.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			ids := make([]string, len(got))
			for i, s := range got {
				ids[i] = s.ID
			}
			if want := []string{"a", "c", "b"}; !slices.Equal(ids, want) {
				t.Errorf("List order = %v, want %v", ids, want)
			}
			if got[0].Round != 2 {
				t.Errorf("summary round = %d, want 2", got[0].Round)
			}
		})
	}
}

func TestManager_ListSkipsCorrupt(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()
	_, _ = m.Create(ctx, Params{ID: "good", Spec: "x"})
	_ = store.Put(ctx, "bad", []byte("not json"))

	got, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "good" {
		t.Errorf("List = %+v, want only the readable session", got)
	}
}

func TestManager_Delete(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx := context.Background()
	_, _ = m.Create(ctx, Params{ID: "s1", Spec: "x"})

	if err := m.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := m.Exists(ctx, "s1"); ok {
		t.Error("session still exists after Delete")
	}
	if err := m.Delete(ctx, "s1"); !errors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("second Delete error = %v, want ErrSessionNotFound", err)
	}
}

// =============================================================================
// Resolve
// =============================================================================

func TestSession_Resolve(t *testing.T) {
	overrides := Settings{
		Models:  []string{"flag-model"},
		Focus:   "flag-focus",
		Persona: "flag-persona",
	}
	tests := []struct {
		name    string
		session Session
		want    Settings
	}{
		{
			name:    "session wins",
			session: Session{Models: []string{"m1", "m2"}, Focus: "security", Persona: "cto", PreserveIntent: true},
			want:    Settings{Models: []string{"m1", "m2"}, Focus: "security", Persona: "cto", PreserveIntent: true},
		},
		{
			name:    "overrides fill unset fields",
			session: Session{Models: []string{"m1"}},
			want:    Settings{Models: []string{"m1"}, Focus: "flag-focus", Persona: "flag-persona"},
		},
		{
			name:    "empty session",
			session: Session{},
			want:    overrides,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.session.Resolve(overrides)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
