package session

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckpointWriter saves the artifact sent into each round as a Markdown
// file. Checkpoints are write-only: nothing reads them back.
type CheckpointWriter struct {
	dir       string
	sessionID string
}

// NewCheckpointWriter writes into dir. A non-empty sessionID prefixes
// every file name.
func NewCheckpointWriter(dir, sessionID string) *CheckpointWriter {
	return &CheckpointWriter{dir: dir, sessionID: sessionID}
}

// Path returns the checkpoint file for round.
func (w *CheckpointWriter) Path(round int) string {
	name := fmt.Sprintf("round-%d.md", round)
	if w.sessionID != "" {
		name = w.sessionID + "-" + name
	}
	return filepath.Join(w.dir, name)
}

// Write stores artifact as the input of round and returns the file path.
func (w *CheckpointWriter) Write(round int, artifact string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	path := w.Path(round)
	if err := atomicWriteFile(path, []byte(artifact), 0o644); err != nil {
		return "", fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return path, nil
}
