package cliche

import (
	"strings"
	"testing"
)

func testTable() Table {
	return Table{
		"business": {
			"think outside the box",
			"move the needle",
			"low hanging fruit",
		},
		"redundant": {
			"each and every",
		},
		"idiom": {
			"elephant in the room",
			"in the room", // nested inside the longer phrase on purpose
		},
	}
}

func TestSearchExactPhraseSpans(t *testing.T) {
	m := New(testTable())

	cases := []struct {
		name string
		text string
		want string
	}{
		{"plain", "we should think outside the box here", "think outside the box"},
		{"mixed case", "Think Outside The Box", "Think Outside The Box"},
		{"trailing punctuation", "let's move the needle.", "move the needle"},
		{"leading offset", "ok, each and every one of us", "each and every"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			matches := m.Search(tc.text)
			if len(matches) == 0 {
				t.Fatalf("expected a match in %q", tc.text)
			}
			got := tc.text[matches[0].Start:matches[0].End]
			if !strings.EqualFold(got, tc.want) {
				t.Fatalf("span mismatch: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestSearchEmitsNestedPhrases(t *testing.T) {
	m := New(testTable())
	matches := m.Search("the elephant in the room is obvious")
	if len(matches) != 2 {
		t.Fatalf("expected 2 overlapping matches, got %d: %+v", len(matches), matches)
	}
	phrases := map[string]bool{}
	for _, match := range matches {
		phrases[match.Phrase] = true
	}
	if !phrases["elephant in the room"] || !phrases["in the room"] {
		t.Fatalf("missing expected phrases: %+v", phrases)
	}
}

func TestDensityMonotonicUnderAppends(t *testing.T) {
	m := New(testTable())
	base := strings.Repeat("word ", 50)
	prev := m.Analyze(base).Density
	text := base
	for i := 0; i < 5; i++ {
		text += " move the needle"
		d := m.Analyze(text).Density
		if d < prev {
			t.Fatalf("density decreased after append: %f -> %f", prev, d)
		}
		prev = d
	}
}

func TestAnalyzeDensityAndRewriteFlag(t *testing.T) {
	m := New(testTable())
	// 10 tokens, 2 matches -> density 20, well over the rewrite threshold.
	a := m.Analyze("We need to think outside the box and move the needle")
	if a.TotalTokens != 11 {
		t.Fatalf("token count: got %d want 11", a.TotalTokens)
	}
	if len(a.Matches) != 2 {
		t.Fatalf("match count: got %d want 2", len(a.Matches))
	}
	if a.Density <= RewriteThreshold {
		t.Fatalf("density %f should exceed threshold %f", a.Density, RewriteThreshold)
	}
	if !a.NeedsRewrite {
		t.Fatal("expected NeedsRewrite=true")
	}
}

func TestSeverityAssignment(t *testing.T) {
	m := New(testTable())

	// Low density text: business phrases are still HIGH, redundant MEDIUM.
	text := strings.Repeat("filler ", 300) + "move the needle and each and every"
	a := m.Analyze(text)
	if a.Density > 1 {
		t.Fatalf("test setup: density %f should be <= 1", a.Density)
	}
	for _, match := range a.Matches {
		switch match.Category {
		case "business":
			if match.Severity != SeverityHigh {
				t.Fatalf("business phrase severity: got %s", match.Severity)
			}
		case "redundant":
			if match.Severity != SeverityMedium {
				t.Fatalf("redundant phrase severity: got %s", match.Severity)
			}
		}
	}
}

func TestContextWindowBounds(t *testing.T) {
	m := New(testTable())
	matches := m.Search("move the needle")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Context != "move the needle" {
		t.Fatalf("context should clamp to text bounds, got %q", matches[0].Context)
	}
}

func TestEmptyAndNoMatchTexts(t *testing.T) {
	m := New(testTable())
	if got := m.Search(""); len(got) != 0 {
		t.Fatalf("empty text produced matches: %+v", got)
	}
	a := m.Analyze("nothing interesting here at all")
	if len(a.Matches) != 0 || a.Density != 0 || a.NeedsRewrite {
		t.Fatalf("unexpected analysis for clean text: %+v", a)
	}
}

func TestDefaultTableContainsKnownPhrases(t *testing.T) {
	table, err := DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable: %v", err)
	}
	m := New(table)
	a := m.Analyze("We need to think outside the box and move the needle")
	if len(a.Matches) != 2 {
		t.Fatalf("embedded table should match both phrases, got %d", len(a.Matches))
	}
	if !a.NeedsRewrite {
		t.Fatal("expected NeedsRewrite=true from embedded table")
	}
}
