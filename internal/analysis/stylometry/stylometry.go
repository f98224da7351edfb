// Package stylometry computes sentence/word statistics and a weighted
// distance from a speaker's target profile.
package stylometry

import (
	"math"
	"strings"
)

// Metrics are the raw statistics for one text.
type Metrics struct {
	WordCount          int     `json:"word_count"`
	SentenceCount      int     `json:"sentence_count"`
	AvgSentenceLength  float64 `json:"avg_sentence_length"`
	PunctuationDensity float64 `json:"punctuation_density"`
	ComplexityScore    float64 `json:"complexity_score"`
}

// Profile is the stylometric target for a speaker.
type Profile struct {
	AvgSentenceLength  float64 `json:"avg_sentence_length"`
	PunctuationDensity float64 `json:"punctuation_density"`
}

// Analyze splits sentences on .!? (empty segments discarded), counts words on
// whitespace, counts ,.;:() punctuation per word, and scores complexity as the
// fraction of words longer than 6 characters.
func Analyze(text string) Metrics {
	words := strings.Fields(text)
	wordCount := len(words)

	sentenceCount := 0
	for _, seg := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(seg) != "" {
			sentenceCount++
		}
	}

	punct := 0
	for _, r := range text {
		switch r {
		case ',', '.', ';', ':', '(', ')':
			punct++
		}
	}

	long := 0
	for _, w := range words {
		if len(strings.Trim(w, ",.;:()!?\"'")) > 6 {
			long++
		}
	}

	m := Metrics{
		WordCount:     wordCount,
		SentenceCount: sentenceCount,
	}
	if sentenceCount > 0 {
		m.AvgSentenceLength = float64(wordCount) / float64(sentenceCount)
	}
	if wordCount > 0 {
		m.PunctuationDensity = float64(punct) / float64(wordCount)
		m.ComplexityScore = float64(long) / float64(wordCount)
	}
	return m
}

// Distance is the weighted deviation from the target profile:
//
//	0.7 * |avgLen - target.avgLen| / target.avgLen
//	  + 0.3 * |punctDensity - 0.1| / 0.1
//
// The weighting is fixed for reproducibility across runs. Unbounded above,
// 0 at a perfect match.
func Distance(m Metrics, target Profile) float64 {
	if target.AvgSentenceLength == 0 {
		return 0
	}
	return 0.7*math.Abs(m.AvgSentenceLength-target.AvgSentenceLength)/target.AvgSentenceLength +
		0.3*math.Abs(m.PunctuationDensity-0.1)/0.1
}
