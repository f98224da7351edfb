package risk

import (
	"context"
	"errors"
	"testing"
)

func testLexicon() Lexicon {
	return Lexicon{
		"political":     {"election", "congress", "gun control"},
		"medical":       {"cancer", "cure"},
		"controversial": {"vaccine", "climate change"},
	}
}

func TestClassifyDetectors(t *testing.T) {
	c := New(Lexicon{})
	cases := []struct {
		name      string
		text      string
		claimType string
	}{
		{"absolute", "Everyone knows this is the right approach.", "absolute_statement"},
		{"attribution", "Studies show that morning routines matter.", "unsourced_attribution"},
		{"statistic", "About 87% of teams fail at this.", "unsourced_statistic"},
		{"medical", "This supplement cures cancer in weeks.", "medical_claim"},
		{"financial", "Our plan offers guaranteed returns on your money.", "financial_guarantee"},
		{"superlative", "This is the best product ever made.", "superlative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := c.Classify(context.Background(), tc.text)
			found := false
			for _, cl := range rep.FlaggedClaims {
				if cl.ClaimType == tc.claimType {
					found = true
					if tc.text[cl.Start:cl.End] != cl.Text {
						t.Fatalf("span mismatch: %q vs %q", tc.text[cl.Start:cl.End], cl.Text)
					}
				}
			}
			if !found {
				t.Fatalf("claim type %q not flagged in %q; got %+v", tc.claimType, tc.text, rep.FlaggedClaims)
			}
		})
	}
}

func TestClassifyLexiconWholeWord(t *testing.T) {
	c := New(testLexicon())
	rep := c.Classify(context.Background(), "The electioneering was intense.")
	if len(rep.SensitiveTopics) != 0 {
		t.Fatalf("substring should not match whole-word lexicon: %+v", rep.SensitiveTopics)
	}

	rep = c.Classify(context.Background(), "The Election dominated Congress this year.")
	if len(rep.SensitiveTopics) != 1 || rep.SensitiveTopics[0].Topic != "political" {
		t.Fatalf("topics: %+v", rep.SensitiveTopics)
	}
	if rep.SensitiveTopics[0].Count != 2 {
		t.Fatalf("count: got %d want 2", rep.SensitiveTopics[0].Count)
	}
}

func TestClassifyMultiWordKeyword(t *testing.T) {
	c := New(testLexicon())
	rep := c.Classify(context.Background(), "They debated gun control and climate change.")
	if len(rep.SensitiveTopics) != 2 {
		t.Fatalf("expected 2 topics, got %+v", rep.SensitiveTopics)
	}
}

func TestRiskLevels(t *testing.T) {
	c := New(testLexicon())
	cases := []struct {
		name    string
		text    string
		want    Level
		wantAck bool
	}{
		{"clean", "A plain sentence about gardening.", LevelLow, false},
		{"single topic", "We discussed the election briefly.", LevelMedium, false},
		{"two topics", "The election debate covered the vaccine rollout.", LevelHigh, true},
		{
			"many claims",
			"Everyone knows this. Studies show it works. Experts say so too. This is the best approach ever.",
			LevelHigh, true,
		},
		{"medical claim", "It cures cancer.", LevelCritical, true},
		{"financial claim", "Guaranteed returns on your investment.", LevelCritical, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := c.Classify(context.Background(), tc.text)
			if rep.RiskLevel != tc.want {
				t.Fatalf("level: got %s want %s (claims=%+v topics=%+v)",
					rep.RiskLevel, tc.want, rep.FlaggedClaims, rep.SensitiveTopics)
			}
			if rep.RequiresAcknowledgment != tc.wantAck {
				t.Fatalf("ack: got %v want %v", rep.RequiresAcknowledgment, tc.wantAck)
			}
		})
	}
}

type fakeClaimDetector struct {
	claims []FlaggedClaim
	err    error
}

func (f *fakeClaimDetector) DetectClaims(_ context.Context, _ string) ([]FlaggedClaim, error) {
	return f.claims, f.err
}

func TestClaimDetectorMerge(t *testing.T) {
	cd := &fakeClaimDetector{claims: []FlaggedClaim{
		{Text: "we will double output", ClaimType: "llm_claim", RiskType: "general"},
	}}
	c := New(Lexicon{}, WithClaimDetector(cd))
	rep := c.Classify(context.Background(), "We will double output next quarter.")
	if len(rep.FlaggedClaims) != 1 || rep.FlaggedClaims[0].ClaimType != "llm_claim" {
		t.Fatalf("claims: %+v", rep.FlaggedClaims)
	}
	if rep.RiskLevel != LevelMedium {
		t.Fatalf("level: got %s", rep.RiskLevel)
	}
	if rep.ClaimScanDegraded {
		t.Fatal("should not be degraded")
	}
}

func TestClaimDetectorDegradesOnError(t *testing.T) {
	cd := &fakeClaimDetector{err: errors.New("upstream unavailable")}
	c := New(Lexicon{}, WithClaimDetector(cd))
	rep := c.Classify(context.Background(), "Studies show this works.")
	if !rep.ClaimScanDegraded {
		t.Fatal("expected degraded flag")
	}
	if len(rep.FlaggedClaims) != 1 {
		t.Fatalf("regex claims should survive degradation: %+v", rep.FlaggedClaims)
	}
}

func TestDefaultLexiconLoads(t *testing.T) {
	lex, err := DefaultLexicon()
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range []string{"political", "medical", "financial", "legal"} {
		if len(lex[topic]) == 0 {
			t.Fatalf("topic %q missing from embedded lexicon", topic)
		}
	}
}
