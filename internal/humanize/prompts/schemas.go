package prompts

// OpenAI strict JSON schemas: every object requires all listed properties and
// sets additionalProperties=false; optionality is expressed by allowing empty
// strings/arrays.

func StringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func NumberSchema() map[string]any {
	return map[string]any{"type": "number"}
}

func IntSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func ChangeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"technique":   map[string]any{"type": "string"},
		},
		"required":             []string{"description", "technique"},
		"additionalProperties": false,
	}
}

// RewriteSchema covers both rhetoric_pass and persona_pass output.
func RewriteSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rewritten_text": map[string]any{"type": "string"},
			"changes": map[string]any{
				"type":  "array",
				"items": ChangeSchema(),
			},
		},
		"required":             []string{"rewritten_text", "changes"},
		"additionalProperties": false,
	}
}

func SuggestionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"original":     map[string]any{"type": "string"},
			"alternatives": StringArraySchema(),
			"confidence":   NumberSchema(),
			"reasoning":    map[string]any{"type": "string"},
		},
		"required":             []string{"original", "alternatives", "confidence", "reasoning"},
		"additionalProperties": false,
	}
}

func EditSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start":       IntSchema(),
			"end":         IntSchema(),
			"replacement": map[string]any{"type": "string"},
			"score":       NumberSchema(),
		},
		"required":             []string{"start", "end", "replacement", "score"},
		"additionalProperties": false,
	}
}

func CriticReviewSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"specificity":    NumberSchema(),
					"freshness":      NumberSchema(),
					"performability": NumberSchema(),
					"persona_fit":    NumberSchema(),
				},
				"required":             []string{"specificity", "freshness", "performability", "persona_fit"},
				"additionalProperties": false,
			},
			"overall": NumberSchema(),
			"suggestions": map[string]any{
				"type":  "array",
				"items": SuggestionSchema(),
			},
			"edits": map[string]any{
				"type":  "array",
				"items": EditSchema(),
			},
			"feedback": map[string]any{"type": "string"},
		},
		"required":             []string{"scores", "overall", "suggestions", "edits", "feedback"},
		"additionalProperties": false,
	}
}

func RefereeMergeSchema() map[string]any {
	acceptedEdit := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start":       IntSchema(),
			"end":         IntSchema(),
			"replacement": map[string]any{"type": "string"},
			"score":       NumberSchema(),
			"source":      map[string]any{"type": "string"},
		},
		"required":             []string{"start", "end", "replacement", "score", "source"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"accepted_edits": map[string]any{
				"type":  "array",
				"items": acceptedEdit,
			},
			"rationale": map[string]any{"type": "string"},
		},
		"required":             []string{"accepted_edits", "rationale"},
		"additionalProperties": false,
	}
}

func ClaimScanSchema() map[string]any {
	claim := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":       map[string]any{"type": "string"},
			"claim_type": map[string]any{"type": "string"},
			"risk_type": map[string]any{
				"type": "string",
				"enum": []any{"general", "statistical", "medical", "legal", "financial"},
			},
		},
		"required":             []string{"text", "claim_type", "risk_type"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"claims": map[string]any{
				"type":  "array",
				"items": claim,
			},
		},
		"required":             []string{"claims"},
		"additionalProperties": false,
	}
}
