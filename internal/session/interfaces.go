// Package session persists multi-round critique sessions so a later
// invocation can resume where the previous one stopped.
//
// A session record is a JSON document stored under its id in a Store.
// Three backends are provided: FileStore (one file per session),
// SQLiteStore (one row per session) and MemoryStore (tests).
//
// The Manager layers session semantics on top of a Store: creation
// without overwrite, one history entry per persisted round, listing by
// recency. Only one process is expected to drive a session at a time;
// AcquireLock makes concurrent drivers fail fast instead of racing.
package session

import (
	"context"

	"github.com/Iron-Ham/adversary/internal/errors"
)

// Store-level sentinel errors. The Manager translates them into the
// session errors of the errors package.
var (
	// ErrNotFound is returned when a key has no record.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned by Insert when the key is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// Store is a key/value store of opaque session records.
//
// Implementations must be safe for concurrent use. Keys are validated by
// the caller; a Store may assume they are valid file names.
type Store interface {
	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous record. A reader
	// never observes a partially written record.
	Put(ctx context.Context, key string, data []byte) error

	// Insert stores data under key only if no record exists yet, and
	// returns ErrAlreadyExists otherwise.
	Insert(ctx context.Context, key string, data []byte) error

	// Delete removes the record under key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// Keys returns every stored key in lexical order.
	Keys(ctx context.Context) ([]string, error)
}

// Compile-time interface checks
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
