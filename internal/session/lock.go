package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/logging"
)

// lockExt is the file extension of session lock files.
const lockExt = ".lock"

// Lock is a held single-writer lock on one session.
type Lock struct {
	SessionID string    `json:"session_id"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`

	path   string
	logger *logging.Logger
}

// LockPath returns the lock file used for sessionID under dir.
func LockPath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+lockExt)
}

// AcquireLock takes the lock for sessionID in dir. It fails with
// errors.ErrSessionLocked while another live process holds it; a lock
// left behind by a dead process is removed and taken over.
// The logger may be nil.
func AcquireLock(dir, sessionID string, logger *logging.Logger) (*Lock, error) {
	logger = logging.OrNop(logger).WithSession(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := LockPath(dir, sessionID)

	if held, err := ReadLock(path); err == nil {
		if isProcessAlive(held.PID) {
			logger.Error("failed to acquire lock", "pid", held.PID, "hostname", held.Hostname)
			return nil, lockedError(sessionID, held)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
		logger.Warn("stale lock cleaned", "old_pid", held.PID)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	lock := &Lock{
		SessionID: sessionID,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		path:      path,
		logger:    logger,
	}
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	// O_EXCL loses the race cleanly when two processes start together
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			held, _ := ReadLock(path)
			logger.Error("failed to acquire lock", "reason", "lost race")
			return nil, lockedError(sessionID, held)
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	logger.Debug("session lock acquired", "pid", lock.PID)
	return lock, nil
}

// Release removes the lock file if this process still owns it.
// Safe to call on a nil Lock and more than once.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	held, err := ReadLock(l.path)
	if err != nil || held.PID != l.PID {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	l.logger.Debug("session lock released")
	return nil
}

// ReadLock parses the lock file at path.
func ReadLock(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	lock.path = path
	return &lock, nil
}

// IsLocked reports whether a live process holds the lock for sessionID.
func IsLocked(dir, sessionID string) (*Lock, bool) {
	lock, err := ReadLock(LockPath(dir, sessionID))
	if err != nil {
		return nil, false
	}
	return lock, isProcessAlive(lock.PID)
}

func lockedError(sessionID string, held *Lock) error {
	msg := "session is in use by another process"
	if held != nil {
		msg = fmt.Sprintf("session is in use by PID %d on %s", held.PID, held.Hostname)
	}
	return errors.NewSessionError(msg, errors.ErrSessionLocked).WithSessionID(sessionID)
}

// isProcessAlive sends signal 0, which checks existence without delivering anything.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
