package humanize

import "testing"

func TestParseStructured(t *testing.T) {
	type payload struct {
		RewrittenText string `json:"rewritten_text"`
	}
	cases := []struct {
		name string
		raw  string
		ok   bool
		want string
	}{
		{"strict json", `{"rewritten_text":"hello"}`, true, "hello"},
		{"fenced json", "Here you go:\n```json\n{\"rewritten_text\":\"fenced\"}\n```\nDone.", true, "fenced"},
		{"bare fence", "```\n{\"rewritten_text\":\"bare\"}\n```", true, "bare"},
		{"unterminated fence", "```json\n{\"rewritten_text\":\"open\"}", true, "open"},
		{"prose only", "I could not produce JSON for this.", false, ""},
		{"empty", "", false, ""},
		{"broken json in fence", "```json\n{\"rewritten_text\":\n```", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out payload
			ok := ParseStructured(tc.raw, &out)
			if ok != tc.ok {
				t.Fatalf("ok: got %v want %v", ok, tc.ok)
			}
			if out.RewrittenText != tc.want {
				t.Fatalf("parsed: got %q want %q", out.RewrittenText, tc.want)
			}
		})
	}
}
