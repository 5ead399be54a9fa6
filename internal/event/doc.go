// Package event provides a small synchronous pub-sub bus used to report
// progress out of the round engine without coupling it to any output format.
//
// The critic invoker and the debate orchestrator publish events; the CLI
// subscribes to print per-critic warnings, and tests subscribe to observe
// retries. A nil *Bus is valid and drops every event.
//
// # Event Types
//
//   - [CriticRetryingEvent] ("critic.retrying"): an attempt failed and a backoff delay follows
//   - [CriticFailedEvent] ("critic.failed"): every attempt failed
//   - [CriticMalformedEvent] ("critic.malformed"): a reply had neither consensus nor revision markers
//   - [CriticCompletedEvent] ("critic.completed"): a critic produced a usable reply
//   - [RoundCompletedEvent] ("round.completed"): every critic of a round has finished
//
// # Thread Safety
//
// Critics run concurrently, so Publish may be called from several goroutines
// at once. Handlers run on the publishing goroutine and must be safe for
// concurrent use. A panicking handler is recovered and does not prevent
// delivery to the remaining handlers.
package event
