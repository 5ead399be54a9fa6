package extract

import (
	"strings"
	"testing"
)

func TestBetween(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "markers with surrounding text",
			text:   "prefix [SPEC]Revised X[/SPEC] suffix",
			want:   "Revised X",
			wantOK: true,
		},
		{
			name:   "trims whitespace",
			text:   "[SPEC]\n\n  Revised\nbody  \n[/SPEC]",
			want:   "Revised\nbody",
			wantOK: true,
		},
		{
			name: "no markers",
			text: "no markers",
		},
		{
			name: "only begin marker",
			text: "critique [SPEC] unfinished",
		},
		{
			name: "only end marker",
			text: "critique [/SPEC]",
		},
		{
			name: "end before begin fails closed",
			text: "[/SPEC] oops [SPEC] body",
		},
		{
			name: "end before begin even with a later end",
			text: "[/SPEC] early [SPEC] body [/SPEC]",
		},
		{
			name:   "repeated blocks use the first",
			text:   "[SPEC]one[/SPEC] and [SPEC]two[/SPEC]",
			want:   "one",
			wantOK: true,
		},
		{
			name:   "empty block is present but blank",
			text:   "[SPEC]   [/SPEC]",
			want:   "",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Between(tt.text, RevisionBegin, RevisionEnd)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Between() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBetween_EmptyMarkers(t *testing.T) {
	if _, ok := Between("anything", "", "]"); ok {
		t.Error("empty begin marker should be absent")
	}
	if _, ok := Between("anything", "[", ""); ok {
		t.Error("empty end marker should be absent")
	}
}

func TestAgreed(t *testing.T) {
	if !Agreed("I checked everything.\n[AGREE]\n[SPEC]x[/SPEC]") {
		t.Error("expected agreement")
	}
	if Agreed("I do not agree") {
		t.Error("plain text should not count as agreement")
	}
}

func TestSummary(t *testing.T) {
	t.Run("text before revision block", func(t *testing.T) {
		got := Summary("The diagnosis is vague.\n\n[SPEC]new[/SPEC]", SummaryMaxLen)
		if got != "The diagnosis is vague." {
			t.Errorf("Summary() = %q", got)
		}
	})

	t.Run("no revision block keeps whole reply", func(t *testing.T) {
		if got := Summary("just critique", SummaryMaxLen); got != "just critique" {
			t.Errorf("Summary() = %q", got)
		}
	})

	t.Run("long critique truncated", func(t *testing.T) {
		long := strings.Repeat("a", 400)
		got := Summary(long+"[SPEC]x[/SPEC]", SummaryMaxLen)
		if got != strings.Repeat("a", 300)+"..." {
			t.Errorf("Summary() length = %d, want 303", len(got))
		}
	})

	t.Run("revision at start keeps whole reply", func(t *testing.T) {
		text := "[SPEC]only a revision[/SPEC]"
		if got := Summary(text, SummaryMaxLen); got != text {
			t.Errorf("Summary() = %q, want %q", got, text)
		}
	})
}
