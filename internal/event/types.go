package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier, e.g. "critic.failed".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Event type identifiers.
const (
	TypeCriticRetrying  = "critic.retrying"
	TypeCriticFailed    = "critic.failed"
	TypeCriticMalformed = "critic.malformed"
	TypeCriticCompleted = "critic.completed"
	TypeRoundCompleted  = "round.completed"
)

// -----------------------------------------------------------------------------
// Critic Events
// -----------------------------------------------------------------------------

// CriticRetryingEvent is emitted after a failed attempt when another attempt
// will follow.
type CriticRetryingEvent struct {
	baseEvent
	Critic      string
	Attempt     int // 1-indexed attempt that failed
	MaxAttempts int
	Delay       time.Duration
	Err         error
}

// NewCriticRetryingEvent creates a CriticRetryingEvent.
func NewCriticRetryingEvent(critic string, attempt, maxAttempts int, delay time.Duration, err error) CriticRetryingEvent {
	return CriticRetryingEvent{
		baseEvent:   newBaseEvent(TypeCriticRetrying),
		Critic:      critic,
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Err:         err,
	}
}

// CriticFailedEvent is emitted when a critic exhausted its attempts.
type CriticFailedEvent struct {
	baseEvent
	Critic   string
	Attempts int
	Err      error
}

// NewCriticFailedEvent creates a CriticFailedEvent.
func NewCriticFailedEvent(critic string, attempts int, err error) CriticFailedEvent {
	return CriticFailedEvent{
		baseEvent: newBaseEvent(TypeCriticFailed),
		Critic:    critic,
		Attempts:  attempts,
		Err:       err,
	}
}

// CriticMalformedEvent is emitted when a critique carried no markers.
type CriticMalformedEvent struct {
	baseEvent
	Critic string
}

// NewCriticMalformedEvent creates a CriticMalformedEvent.
func NewCriticMalformedEvent(critic string) CriticMalformedEvent {
	return CriticMalformedEvent{
		baseEvent: newBaseEvent(TypeCriticMalformed),
		Critic:    critic,
	}
}

// CriticCompletedEvent is emitted when a critic returned a usable reply.
type CriticCompletedEvent struct {
	baseEvent
	Critic       string
	Agreed       bool
	Revised      bool
	InputTokens  int64
	OutputTokens int64
	Cost         float64
}

// NewCriticCompletedEvent creates a CriticCompletedEvent.
func NewCriticCompletedEvent(critic string, agreed, revised bool, in, out int64, cost float64) CriticCompletedEvent {
	return CriticCompletedEvent{
		baseEvent:    newBaseEvent(TypeCriticCompleted),
		Critic:       critic,
		Agreed:       agreed,
		Revised:      revised,
		InputTokens:  in,
		OutputTokens: out,
		Cost:         cost,
	}
}

// -----------------------------------------------------------------------------
// Round Events
// -----------------------------------------------------------------------------

// RoundCompletedEvent is emitted once per round after every critic finished.
type RoundCompletedEvent struct {
	baseEvent
	Round     int
	Converged bool
	Errored   int
	Critics   int
	Cost      float64
}

// NewRoundCompletedEvent creates a RoundCompletedEvent.
func NewRoundCompletedEvent(round int, converged bool, errored, critics int, cost float64) RoundCompletedEvent {
	return RoundCompletedEvent{
		baseEvent: newBaseEvent(TypeRoundCompleted),
		Round:     round,
		Converged: converged,
		Errored:   errored,
		Critics:   critics,
		Cost:      cost,
	}
}
