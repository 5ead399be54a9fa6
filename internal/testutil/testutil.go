// Package testutil provides testing utilities for adversary tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Iron-Ham/adversary/internal/ai"
)

// SetupConfigHome points XDG_CONFIG_HOME at a fresh temporary directory
// and clears every provider API key variable, so a test sees neither the
// developer's config nor their keys. Returns the adversary config
// directory inside it, which is not created.
func SetupConfigHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	for _, p := range ai.Providers() {
		t.Setenv(p.KeyEnv, "")
	}
	return filepath.Join(home, "adversary")
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", name, err)
	}
	return path
}

// ReadFile returns the contents of path, failing the test if it cannot be
// read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
