// Package errors provides centralized error definitions and error handling utilities
// for adversary. It defines sentinel errors, domain-specific error types with
// context builders, and the classification helpers the CLI uses to pick exit codes.
//
// # Error Types
//
// Domain-specific errors represent failures from specific subsystems:
//   - ProviderError: a completion request failed (transport, auth, rate limit)
//   - SessionError: a session could not be created, loaded, or persisted
//   - ConfigError: configuration, profile, or API key problems (fatal, exit 2)
//
// Round-level conditions:
//   - MalformedResponseError: a critic replied without markers (warning only)
//   - RoundFailureError: every critic in a round errored (non-fatal)
//
// # Usage
//
//	err := errors.NewProviderError(errors.KindRateLimit, "openai", errBody).
//		WithModel("gpt-5.2").
//		WithStatusCode(429)
//
//	if errors.IsRetryable(err) { ... }
//	os.Exit(errors.ExitCode(err))
package errors

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Exit codes returned by the CLI.
const (
	ExitOK     = 0
	ExitError  = 1
	ExitConfig = 2
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrSessionNotFound indicates that no record exists for a session id.
	ErrSessionNotFound = New("session not found")
	// ErrSessionExists indicates that a session id is already taken.
	ErrSessionExists = New("session already exists")
	// ErrSessionCorrupted indicates that a persisted record could not be parsed.
	ErrSessionCorrupted = New("session data corrupted")
	// ErrSessionLocked indicates that another process is running a round on the session.
	ErrSessionLocked = New("session is locked")
	// ErrInvalidSessionID indicates a session id that cannot be used as a storage key.
	ErrInvalidSessionID = New("invalid session id")
)

// Configuration-related sentinel errors
var (
	// ErrProfileNotFound indicates that a named profile does not exist.
	ErrProfileNotFound = New("profile not found")
	// ErrMissingAPIKey indicates that no API key is configured for a provider.
	ErrMissingAPIKey = New("missing API key")
	// ErrUnknownProvider indicates that no backend serves a model name.
	ErrUnknownProvider = New("unknown provider")
	// ErrInvalidConfig indicates that the configuration failed validation.
	ErrInvalidConfig = New("invalid configuration")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrEmptyResponse indicates that a provider returned no content.
	ErrEmptyResponse = New("empty response")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// AdversaryError is the base interface for all typed errors in this module.
type AdversaryError interface {
	error
	Unwrap() error
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	retryable bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) IsRetryable() bool { return e.retryable }

// format renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) format(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.message == "" {
		if e.cause != nil {
			return fmt.Sprintf("%s: %v", prefix, e.cause)
		}
		return prefix
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Provider Errors
// -----------------------------------------------------------------------------

// Kind classifies a completion failure.
type Kind string

const (
	KindTransport Kind = "transport"
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
)

// ProviderError is returned by completion backends.
//
// Example:
//
//	err := errors.NewProviderError(errors.KindAuth, "anthropic", cause).WithStatusCode(401)
//	fmt.Println(err) // "auth error [provider=anthropic, status=401]: ..."
type ProviderError struct {
	baseError
	Kind       Kind
	Provider   string
	Model      string
	StatusCode int
}

// NewProviderError creates a ProviderError. Every kind is retryable; the
// invoker's attempt budget bounds how often.
func NewProviderError(kind Kind, provider string, cause error) *ProviderError {
	return &ProviderError{
		baseError: baseError{
			cause:     cause,
			retryable: true,
		},
		Kind:     kind,
		Provider: provider,
	}
}

// KindFromStatus maps an HTTP status code to a failure kind.
func KindFromStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	default:
		return KindTransport
	}
}

// WithModel adds the model name to the error context.
func (e *ProviderError) WithModel(model string) *ProviderError {
	e.Model = model
	return e
}

// WithStatusCode adds the HTTP status code to the error context.
func (e *ProviderError) WithStatusCode(code int) *ProviderError {
	e.StatusCode = code
	return e
}

// WithMessage sets a message that precedes the cause.
func (e *ProviderError) WithMessage(msg string) *ProviderError {
	e.message = msg
	return e
}

// Error returns the formatted error message.
func (e *ProviderError) Error() string {
	var parts []string
	if e.Provider != "" {
		parts = append(parts, "provider="+e.Provider)
	}
	if e.Model != "" {
		parts = append(parts, "model="+e.Model)
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	return e.format(string(e.Kind)+" error", parts)
}

// -----------------------------------------------------------------------------
// Session Errors
// -----------------------------------------------------------------------------

// SessionError represents errors related to session persistence.
//
// Example:
//
//	err := errors.NewSessionError("failed to load session", errors.ErrSessionNotFound).WithSessionID("s1")
//	fmt.Println(err) // "session error [session=s1]: failed to load session: session not found"
type SessionError struct {
	baseError
	SessionID string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message: message,
			cause:   cause,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	var parts []string
	if e.SessionID != "" {
		parts = append(parts, "session="+e.SessionID)
	}
	return e.format("session error", parts)
}

// -----------------------------------------------------------------------------
// Config Errors
// -----------------------------------------------------------------------------

// ConfigError is fatal: the operation aborts before any session state is written.
type ConfigError struct {
	baseError
	Field string
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		baseError: baseError{
			message: message,
			cause:   cause,
		},
	}
}

// WithField names the offending setting or flag.
func (e *ConfigError) WithField(field string) *ConfigError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}
	return e.format("config error", parts)
}

// -----------------------------------------------------------------------------
// Round Conditions
// -----------------------------------------------------------------------------

// MalformedResponseError marks a critique that carried neither the consensus
// marker nor a revision. It is attached to a response as a warning and is
// never retried.
type MalformedResponseError struct {
	Critic string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s provided critique but no revision markers found; response may be malformed", e.Critic)
}

// RoundFailureError reports that every critic in a round errored. The round
// still completes and the session still advances.
type RoundFailureError struct {
	Round  int
	Causes map[string]error
}

func (e *RoundFailureError) Error() string {
	critics := make([]string, 0, len(e.Causes))
	for c := range e.Causes {
		critics = append(critics, c)
	}
	slices.Sort(critics)
	return fmt.Sprintf("round %d: all %d critic(s) failed: %s", e.Round, len(critics), strings.Join(critics, ", "))
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var typed AdversaryError
	if As(err, &typed) {
		return typed.IsRetryable()
	}
	return false
}

// IsConfig reports whether err belongs to the configuration class: anything
// the user must fix before a round can run.
func IsConfig(err error) bool {
	var cfgErr *ConfigError
	if As(err, &cfgErr) {
		return true
	}
	return Is(err, ErrMissingAPIKey) ||
		Is(err, ErrProfileNotFound) ||
		Is(err, ErrUnknownProvider) ||
		Is(err, ErrInvalidConfig) ||
		Is(err, ErrSessionNotFound) ||
		Is(err, ErrSessionExists) ||
		Is(err, ErrSessionCorrupted) ||
		Is(err, ErrInvalidSessionID)
}

// ExitCode maps an error to the CLI exit status: 0 on success, 2 for missing
// keys and configuration problems, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsConfig(err):
		return ExitConfig
	default:
		return ExitError
	}
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
