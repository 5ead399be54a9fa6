package critic

import (
	"fmt"
	"testing"
	"time"
)

func TestAttemptMachine_Lifecycle(t *testing.T) {
	m := newAttemptMachine(3, time.Second)
	if m.state != NotStarted || m.attempts() != 0 {
		t.Fatalf("new machine: state=%s attempts=%d", m.state, m.attempts())
	}

	m.start()
	if m.state != Attempting || m.attempt != 0 {
		t.Fatalf("after start: state=%s attempt=%d", m.state, m.attempt)
	}

	boom := fmt.Errorf("boom")
	for k, want := range []time.Duration{time.Second, 2 * time.Second} {
		delay, ok := m.fail(boom, true)
		if !ok || delay != want {
			t.Fatalf("attempt %d: fail() = (%v, %v), want (%v, true)", k, delay, ok, want)
		}
		m.advance()
	}

	if _, ok := m.fail(boom, true); ok {
		t.Fatal("third failure should exhaust the budget")
	}
	if m.state != Failed || m.lastErr != boom || m.attempts() != 3 {
		t.Errorf("state=%s lastErr=%v attempts=%d", m.state, m.lastErr, m.attempts())
	}
}

func TestAttemptMachine_NonRetryable(t *testing.T) {
	m := newAttemptMachine(3, time.Second)
	m.start()
	if _, ok := m.fail(fmt.Errorf("bad key"), false); ok {
		t.Fatal("non-retryable failure should not schedule another attempt")
	}
	if m.state != Failed || m.attempts() != 1 {
		t.Errorf("state=%s attempts=%d", m.state, m.attempts())
	}
}

func TestAttemptMachine_SucceedClearsError(t *testing.T) {
	m := newAttemptMachine(3, time.Second)
	m.start()
	m.fail(fmt.Errorf("flaky"), true)
	m.advance()
	m.succeed()

	if m.state != Succeeded || m.lastErr != nil || m.attempts() != 2 {
		t.Errorf("state=%s lastErr=%v attempts=%d", m.state, m.lastErr, m.attempts())
	}

	// terminal states ignore further input
	m.fail(fmt.Errorf("late"), true)
	m.abort(fmt.Errorf("late"))
	if m.state != Succeeded {
		t.Errorf("terminal state changed to %s", m.state)
	}
}

func TestAttemptMachine_MinimumOneAttempt(t *testing.T) {
	m := newAttemptMachine(0, time.Second)
	m.start()
	if _, ok := m.fail(fmt.Errorf("x"), true); ok {
		t.Error("a zero budget still allows exactly one attempt")
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(time.Second, tt.attempt); got != tt.want {
			t.Errorf("backoff(1s, %d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		NotStarted: "not_started",
		Attempting: "attempting",
		Succeeded:  "succeeded",
		Failed:     "failed",
		State(99):  "unknown",
	} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
