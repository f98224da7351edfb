// Package similarity compares candidate text against previously exported
// speech sentences using Double Metaphone phonetic fingerprints ranked by
// Jaro-Winkler similarity. It is an advisory plagiarism-style signal, not an
// exactness check: phonetic encoding makes the comparison robust to minor
// wording and transcription drift.
package similarity

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/google/uuid"
)

const (
	// NearDuplicateThreshold marks a sentence pair as near_duplicate.
	NearDuplicateThreshold = 0.85
	// SimilarThreshold marks a sentence pair as similar.
	SimilarThreshold = 0.70
)

const (
	KindNearDuplicate = "near_duplicate"
	KindSimilar       = "similar"
)

// Hit is one candidate sentence that resembles a corpus sentence.
type Hit struct {
	Span            string    `json:"span"`
	MatchedSpeechID uuid.UUID `json:"matched_speech_id"`
	Score           float64   `json:"score"`
	Kind            string    `json:"kind"`
}

// Result aggregates all hits for one text. Score is the maximum hit score,
// 0 when the corpus is empty or nothing matched.
type Result struct {
	Hits  []Hit   `json:"hits"`
	Score float64 `json:"score"`
}

// CorpusEntry is one previously exported speech to compare against.
type CorpusEntry struct {
	SpeechID uuid.UUID
	Text     string
}

type corpusSentence struct {
	speechID    uuid.UUID
	fingerprint string
}

// Analyzer holds the fingerprinted corpus. Read-only after construction;
// safe for concurrent use.
type Analyzer struct {
	sentences []corpusSentence
}

// New fingerprints every sentence of every corpus entry up front so that
// Analyze is a pure comparison pass.
func New(corpus []CorpusEntry) *Analyzer {
	a := &Analyzer{}
	for _, entry := range corpus {
		for _, s := range splitSentences(entry.Text) {
			fp := fingerprint(s)
			if fp == "" {
				continue
			}
			a.sentences = append(a.sentences, corpusSentence{
				speechID:    entry.SpeechID,
				fingerprint: fp,
			})
		}
	}
	return a
}

// Analyze compares each sentence of text against the corpus fingerprints.
// Each candidate sentence reports at most its best-scoring corpus match.
// Hits are ordered by descending score.
func (a *Analyzer) Analyze(text string) Result {
	res := Result{}
	if len(a.sentences) == 0 {
		return res
	}
	for _, s := range splitSentences(text) {
		fp := fingerprint(s)
		if fp == "" {
			continue
		}
		var best Hit
		for _, cs := range a.sentences {
			score := matchr.JaroWinkler(fp, cs.fingerprint, false)
			if score < SimilarThreshold || score <= best.Score {
				continue
			}
			best = Hit{
				Span:            s,
				MatchedSpeechID: cs.speechID,
				Score:           score,
			}
		}
		if best.Score == 0 {
			continue
		}
		if best.Score >= NearDuplicateThreshold {
			best.Kind = KindNearDuplicate
		} else {
			best.Kind = KindSimilar
		}
		res.Hits = append(res.Hits, best)
		if best.Score > res.Score {
			res.Score = best.Score
		}
	}
	sort.SliceStable(res.Hits, func(i, j int) bool {
		return res.Hits[i].Score > res.Hits[j].Score
	})
	return res
}

// fingerprint reduces a sentence to a space-joined sequence of primary Double
// Metaphone codes, one per token. Tokens with no code (digits, very short
// words) are skipped.
func fingerprint(sentence string) string {
	tokens := strings.Fields(strings.ToLower(sentence))
	codes := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.Trim(t, ",.;:()!?\"'")
		if t == "" {
			continue
		}
		p, _ := matchr.DoubleMetaphone(t)
		if p != "" {
			codes = append(codes, p)
		}
	}
	return strings.Join(codes, " ")
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
