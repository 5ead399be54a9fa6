// Package extract pulls structured pieces out of free-form critic replies.
package extract

import (
	"strings"

	"github.com/Iron-Ham/adversary/internal/util"
)

// Markers used by critics to structure their replies.
const (
	AgreeMarker    = "[AGREE]"
	RevisionBegin  = "[SPEC]"
	RevisionEnd    = "[/SPEC]"
	SummaryMaxLen  = 300
	summaryElision = "..."
)

// Between returns the trimmed text strictly between the first occurrence of
// begin and the first occurrence of end.
//
// It reports false when either marker is missing, or when the first end
// marker occurs before the first begin marker. Later repetitions of either
// marker are ignored.
func Between(text, begin, end string) (string, bool) {
	if begin == "" || end == "" {
		return "", false
	}
	start := strings.Index(text, begin)
	if start < 0 {
		return "", false
	}
	stop := strings.Index(text, end)
	if stop < 0 {
		return "", false
	}
	start += len(begin)
	if stop < start {
		return "", false
	}
	return strings.TrimSpace(text[start:stop]), true
}

// Revision extracts the revised artifact from a critic reply.
func Revision(text string) (string, bool) {
	return Between(text, RevisionBegin, RevisionEnd)
}

// Agreed reports whether a reply carries the consensus marker.
func Agreed(text string) bool {
	return strings.Contains(text, AgreeMarker)
}

// Summary returns the critique that precedes the revision block, cut to
// maxLen runes with "..." appended when longer.
func Summary(text string, maxLen int) string {
	critique := text
	if i := strings.Index(text, RevisionBegin); i > 0 {
		critique = strings.TrimSpace(text[:i])
	}
	if maxLen <= 0 || len([]rune(critique)) <= maxLen {
		return critique
	}
	return util.TruncateString(critique, maxLen+len(summaryElision))
}
