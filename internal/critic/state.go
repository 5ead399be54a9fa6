package critic

import (
	"time"
)

// State is the lifecycle position of one critic invocation.
type State int

const (
	NotStarted State = iota
	Attempting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == Succeeded || s == Failed }

// attemptMachine tracks NotStarted -> Attempting(k) -> Succeeded | Failed.
// It decides transitions only; the invoker performs the calls and sleeps.
type attemptMachine struct {
	state       State
	attempt     int // 0-indexed attempt in flight while Attempting
	maxAttempts int
	baseDelay   time.Duration
	lastErr     error
}

func newAttemptMachine(maxAttempts int, baseDelay time.Duration) *attemptMachine {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &attemptMachine{state: NotStarted, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// start moves NotStarted to Attempting(0).
func (m *attemptMachine) start() {
	if m.state == NotStarted {
		m.state = Attempting
		m.attempt = 0
	}
}

// succeed records a successful attempt.
func (m *attemptMachine) succeed() {
	if m.state == Attempting {
		m.state = Succeeded
		m.lastErr = nil
	}
}

// fail records a failed attempt. When retry is allowed and attempts remain
// it returns the backoff to wait before Attempting(k+1); otherwise the
// machine moves to Failed and ok is false.
func (m *attemptMachine) fail(err error, retry bool) (delay time.Duration, ok bool) {
	if m.state != Attempting {
		return 0, false
	}
	m.lastErr = err
	if !retry || m.attempt+1 >= m.maxAttempts {
		m.state = Failed
		return 0, false
	}
	return backoff(m.baseDelay, m.attempt), true
}

// advance enters the next attempt after the backoff elapsed.
func (m *attemptMachine) advance() {
	if m.state == Attempting {
		m.attempt++
	}
}

// abort moves to Failed without another attempt, e.g. when the backoff wait
// was interrupted.
func (m *attemptMachine) abort(err error) {
	if !m.state.Terminal() {
		m.state = Failed
		m.lastErr = err
	}
}

// attempts returns how many attempts were made.
func (m *attemptMachine) attempts() int {
	if m.state == NotStarted {
		return 0
	}
	return m.attempt + 1
}

// backoff returns base * 2^attempt for a 0-indexed attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	return base << attempt
}
