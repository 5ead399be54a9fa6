// Package diff renders unified diffs between artifact versions.
package diff

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
)

// NoDifferences is printed when two versions are identical.
const NoDifferences = "No differences found."

// Unified returns a unified diff from previous to current with three lines
// of context, or "" when the texts are identical.
func Unified(previous, current string) (string, error) {
	if previous == current {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	})
}

// Files reads both files and diffs their contents.
func Files(previousPath, currentPath string) (string, error) {
	previous, err := os.ReadFile(previousPath)
	if err != nil {
		return "", fmt.Errorf("failed to read previous version: %w", err)
	}
	current, err := os.ReadFile(currentPath)
	if err != nil {
		return "", fmt.Errorf("failed to read current version: %w", err)
	}
	return Unified(string(previous), string(current))
}
