package prompts

// RegisterAll registers every pipeline prompt. Call once at startup before
// the orchestrator builds any prompt.
func RegisterAll() {
	RegisterSpec(Spec{
		Name:       PromptRhetoricPass,
		Version:    1,
		SchemaName: "rhetoric_pass",
		Schema:     RewriteSchema,
		System: `
You are a speechwriting editor focused on rhetorical craft.
You rewrite speech text to replace tired phrasing with vivid, concrete language
while preserving the speaker's meaning, claims, and factual content exactly.
Never add new facts, statistics, or commitments. Return JSON only.`,
		User: `
SPEECH TEXT:
{{.Text}}

DETECTED CLICHES (rework or remove each one):
{{.ClicheSummary}}

CURRENT METRICS:
{{.MetricsJSON}}

Task:
- rewritten_text: the full speech with cliches replaced by fresh, specific phrasing.
- changes: one entry per meaningful rewrite, naming the rhetorical technique used
  (e.g. anaphora, concrete_image, triadic_structure, direct_address).
- Keep paragraph structure. Do not shorten or lengthen by more than 15%.`,
		Validators: []Validator{
			RequireNonEmpty("Text", func(in Input) string { return in.Text }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptPersonaPass,
		Version:    1,
		SchemaName: "persona_pass",
		Schema:     RewriteSchema,
		System: `
You are a speechwriting editor matching text to a speaker's natural delivery style.
You adjust sentence rhythm and punctuation toward a stylometric target without
changing meaning or factual content. Return JSON only.`,
		User: `
SPEECH TEXT:
{{.Text}}

TARGET PROFILE:
- average sentence length: {{.TargetAvgSentenceLen}} words
- punctuation density: {{.TargetPunctuationDensity}} marks per word

CURRENT METRICS:
{{.MetricsJSON}}

Task:
- rewritten_text: the speech reshaped toward the target profile. Split or join
  sentences, adjust clause structure, tune punctuation.
- changes: one entry per structural adjustment, technique naming what was done
  (e.g. sentence_split, sentence_join, clause_reorder, punctuation_tune).`,
		Validators: []Validator{
			RequireNonEmpty("Text", func(in Input) string { return in.Text }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptCriticReview,
		Version:    1,
		SchemaName: "critic_review",
		Schema:     CriticReviewSchema,
		System: `
You are a speech critic. You score a draft and propose precise character-offset
edits, but you never rewrite the whole text yourself.
Scores are 0-10. Edit offsets are byte positions into the exact text you are
given; replacement substitutes text[start:end). Return JSON only.`,
		User: `
FOCUS: {{.CriticFocus}}

SPEECH TEXT:
{{.Text}}

Task:
- scores: specificity, freshness, performability, persona_fit (0-10 each).
- overall: weighted impression, 0-10.
- suggestions: span-level alternatives with confidence in [0,1] and reasoning.
- edits: only your highest-confidence concrete fixes, each with start/end
  offsets into SPEECH TEXT, replacement text, and a score in [0,1].
- feedback: 2-4 sentences of prose for the speaker.`,
		Validators: []Validator{
			RequireNonEmpty("Text", func(in Input) string { return in.Text }),
			RequireNonEmpty("CriticFocus", func(in Input) string { return in.CriticFocus }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptRefereeMerge,
		Version:    1,
		SchemaName: "referee_merge",
		Schema:     RefereeMergeSchema,
		System: `
You are the referee reconciling two critics' reviews of the same speech draft.
You decide which proposed edits to accept. You may adjust an edit's replacement
text but never its offsets. Prefer edits both critics agree on; when edits
conflict, keep the one with stronger reasoning. Return JSON only.`,
		User: `
SPEECH TEXT:
{{.Text}}

CRITIC A REVIEW:
{{.CriticAJSON}}

CRITIC B REVIEW:
{{.CriticBJSON}}

{{if .TimeBudgetSeconds}}TIME BUDGET: about {{.TimeBudgetSeconds}} seconds remain; favor the few highest-impact edits.
{{end}}
Task:
- accepted_edits: the edits to apply, each with start/end/replacement/score and
  source ("critic1" or "critic2").
- rationale: 1-3 sentences on what was kept and why.`,
		Validators: []Validator{
			RequireNonEmpty("Text", func(in Input) string { return in.Text }),
			RequireNonEmpty("CriticAJSON", func(in Input) string { return in.CriticAJSON }),
			RequireNonEmpty("CriticBJSON", func(in Input) string { return in.CriticBJSON }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptClaimScan,
		Version:    1,
		SchemaName: "claim_scan",
		Schema:     ClaimScanSchema,
		System: `
You detect checkable or liability-bearing claims in speech text.
Flag statements a fact-checker or lawyer would question: unsourced statistics,
absolute generalizations, medical or financial promises, legal assertions.
Quote each claim verbatim. Return JSON only.`,
		User: `
SPEECH TEXT:
{{.Text}}

Task:
- claims: each with the verbatim text, a short claim_type label, and risk_type
  one of general|statistical|medical|legal|financial.
- Return an empty claims array when nothing qualifies. Do not flag opinions or
  clearly rhetorical exaggeration.`,
		Validators: []Validator{
			RequireNonEmpty("Text", func(in Input) string { return in.Text }),
		},
	})
}
