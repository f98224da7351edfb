package similarity

import (
	"testing"

	"github.com/google/uuid"
)

func TestAnalyzeEmptyCorpus(t *testing.T) {
	a := New(nil)
	res := a.Analyze("Anything at all. Another sentence entirely.")
	if len(res.Hits) != 0 || res.Score != 0 {
		t.Fatalf("empty corpus should yield empty result: %+v", res)
	}
}

func TestAnalyzeExactSentenceIsNearDuplicate(t *testing.T) {
	id := uuid.New()
	a := New([]CorpusEntry{{
		SpeechID: id,
		Text:     "Thank you all for joining me on this remarkable journey today.",
	}})
	res := a.Analyze("Something unrelated first. Thank you all for joining me on this remarkable journey today.")
	if len(res.Hits) != 1 {
		t.Fatalf("hits: %+v", res.Hits)
	}
	h := res.Hits[0]
	if h.Kind != KindNearDuplicate {
		t.Fatalf("kind: got %s score %f", h.Kind, h.Score)
	}
	if h.MatchedSpeechID != id {
		t.Fatalf("matched id: got %s want %s", h.MatchedSpeechID, id)
	}
	if h.Score != 1 {
		t.Fatalf("identical fingerprints should score 1, got %f", h.Score)
	}
	if res.Score != h.Score {
		t.Fatalf("aggregate score should be max hit score")
	}
}

func TestAnalyzePhoneticRobustness(t *testing.T) {
	// Same sentence with minor transcription drift should still register.
	a := New([]CorpusEntry{{
		SpeechID: uuid.New(),
		Text:     "Our company delivered record growth across every region.",
	}})
	res := a.Analyze("Our company delivered reckord growth across every region.")
	if len(res.Hits) != 1 {
		t.Fatalf("hits: %+v", res.Hits)
	}
	if res.Hits[0].Score < SimilarThreshold {
		t.Fatalf("score below similar threshold: %f", res.Hits[0].Score)
	}
}

func TestAnalyzeUnrelatedTextNoHits(t *testing.T) {
	a := New([]CorpusEntry{{
		SpeechID: uuid.New(),
		Text:     "Quarterly revenue exceeded projections by a wide margin.",
	}})
	res := a.Analyze("The hedgehog sleeps under winter leaves.")
	if len(res.Hits) != 0 {
		t.Fatalf("unexpected hits: %+v", res.Hits)
	}
}

func TestAnalyzeBestMatchPerSentence(t *testing.T) {
	// Two corpus entries; the candidate sentence matches both but should
	// report only the stronger match.
	idExact := uuid.New()
	a := New([]CorpusEntry{
		{SpeechID: uuid.New(), Text: "We must act with courage and conviction every single day."},
		{SpeechID: idExact, Text: "We must act with courage and conviction."},
	})
	res := a.Analyze("We must act with courage and conviction.")
	if len(res.Hits) != 1 {
		t.Fatalf("expected single best hit: %+v", res.Hits)
	}
	if res.Hits[0].MatchedSpeechID != idExact {
		t.Fatalf("best match wrong entry: %+v", res.Hits[0])
	}
}

func TestHitsSortedByScore(t *testing.T) {
	a := New([]CorpusEntry{{
		SpeechID: uuid.New(),
		Text:     "Innovation drives everything we build here.",
	}})
	res := a.Analyze("Inovation drives evrything we build here. Innovation drives everything we build here.")
	if len(res.Hits) != 2 {
		t.Fatalf("hits: %+v", res.Hits)
	}
	if res.Hits[0].Score < res.Hits[1].Score {
		t.Fatalf("hits not sorted descending: %f < %f", res.Hits[0].Score, res.Hits[1].Score)
	}
}
