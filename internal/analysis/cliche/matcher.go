package cliche

import (
	"strings"
	"unicode"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// RewriteThreshold is the density (matches per 100 tokens) above which a text
// is flagged for rewriting.
const RewriteThreshold = 0.8

const contextWindow = 30

// Match is one detected phrase occurrence. Start/End are character offsets
// into the original text, [Start,End).
type Match struct {
	Phrase   string   `json:"phrase"`
	Category string   `json:"category"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Context  string   `json:"context"`
	Severity Severity `json:"severity"`
}

// Analysis aggregates one matcher run.
type Analysis struct {
	Matches      []Match `json:"matches"`
	TotalTokens  int     `json:"total_tokens"`
	Density      float64 `json:"density"`
	NeedsRewrite bool    `json:"needs_rewrite"`
}

type trieNode struct {
	children  map[string]*trieNode
	terminals []terminal
}

type terminal struct {
	phrase   string
	category string
	depth    int
}

// Matcher is a trie over the phrase table. Read-only after construction; safe
// for concurrent use. Always construct via New — there is no package-level
// instance.
type Matcher struct {
	root *trieNode
}

func New(table Table) *Matcher {
	root := &trieNode{children: map[string]*trieNode{}}
	for category, phrases := range table {
		for _, phrase := range phrases {
			words := strings.Fields(strings.ToLower(phrase))
			if len(words) == 0 {
				continue
			}
			node := root
			for _, w := range words {
				child, ok := node.children[w]
				if !ok {
					child = &trieNode{children: map[string]*trieNode{}}
					node.children[w] = child
				}
				node = child
			}
			node.terminals = append(node.terminals, terminal{
				phrase:   phrase,
				category: category,
				depth:    len(words),
			})
		}
	}
	return &Matcher{root: root}
}

type token struct {
	lower string
	start int
	end   int
}

// Search walks the trie from every token position and emits a match for every
// terminal reached along the walk, so a registered sub-phrase nested inside a
// longer registered phrase yields overlapping matches. That double emission is
// load-bearing: density counts each separately.
func (m *Matcher) Search(text string) []Match {
	tokens := tokenize(text)
	var matches []Match
	for i := range tokens {
		node := m.root
		for j := i; j < len(tokens); j++ {
			child, ok := node.children[tokens[j].lower]
			if !ok {
				break
			}
			node = child
			for _, t := range node.terminals {
				start := tokens[i].start
				end := tokens[j].end
				matches = append(matches, Match{
					Phrase:   t.phrase,
					Category: t.category,
					Start:    start,
					End:      end,
					Context:  contextAround(text, start, end),
				})
			}
		}
	}
	return matches
}

// Analyze runs Search and derives density, per-match severity and the rewrite
// flag. Severity needs the final density, so it is assigned after the walk.
func (m *Matcher) Analyze(text string) Analysis {
	tokens := tokenize(text)
	matches := m.Search(text)

	density := 0.0
	if len(tokens) > 0 {
		density = float64(len(matches)) / float64(len(tokens)) * 100
	}

	for i := range matches {
		matches[i].Severity = severityFor(matches[i].Category, density)
	}

	return Analysis{
		Matches:      matches,
		TotalTokens:  len(tokens),
		Density:      density,
		NeedsRewrite: density > RewriteThreshold,
	}
}

func severityFor(category string, density float64) Severity {
	switch {
	case density > 2 || category == "business":
		return SeverityHigh
	case density > 1 || category == "redundant":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// tokenize splits on whitespace and trims surrounding punctuation from each
// token so "box," still walks the trie as "box". Offsets cover the trimmed
// word, keeping text[start:end] equal to the matched phrase words.
func tokenize(text string) []token {
	var tokens []token
	i := 0
	for i < len(text) {
		for i < len(text) && isSpaceByte(text[i]) {
			i++
		}
		if i >= len(text) {
			break
		}
		start := i
		for i < len(text) && !isSpaceByte(text[i]) {
			i++
		}
		end := i

		// Trim leading/trailing punctuation.
		for start < end && !isWordByte(text[start]) {
			start++
		}
		for end > start && !isWordByte(text[end-1]) {
			end--
		}
		if start >= end {
			continue
		}
		tokens = append(tokens, token{
			lower: strings.ToLower(text[start:end]),
			start: start,
			end:   end,
		})
	}
	return tokens
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isWordByte(b byte) bool {
	r := rune(b)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || b == '\'' || b == '-' || b >= 0x80
}

func contextAround(text string, start, end int) string {
	from := start - contextWindow
	if from < 0 {
		from = 0
	}
	to := end + contextWindow
	if to > len(text) {
		to = len(text)
	}
	return text[from:to]
}
