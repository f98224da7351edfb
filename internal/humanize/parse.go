package humanize

import (
	"encoding/json"
	"strings"
)

// ParseStructured decodes a generation stage's raw text into out. It tries a
// strict unmarshal first, then retries on the contents of a fenced ```json
// block. Returns false when no usable structured result could be extracted —
// the caller decides whether that is fatal for its stage.
func ParseStructured(raw string, out any) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return false
	}
	if err := json.Unmarshal([]byte(s), out); err == nil {
		return true
	}
	if block := fencedJSON(s); block != "" {
		if err := json.Unmarshal([]byte(block), out); err == nil {
			return true
		}
	}
	return false
}

// fencedJSON extracts the body of the first ```json (or bare ```) fence.
func fencedJSON(s string) string {
	start := strings.Index(s, "```json")
	offset := len("```json")
	if start < 0 {
		start = strings.Index(s, "```")
		offset = len("```")
	}
	if start < 0 {
		return ""
	}
	rest := s[start+offset:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
