package llm

// ScoreResponseSchema is the JSON-Schema the Scorer requires from the model:
// {score: int, reasoning: string, concerns: string?}.
func ScoreResponseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"score":     map[string]any{"type": "integer"},
			"reasoning": map[string]any{"type": "string", "minLength": 1},
			"concerns":  map[string]any{"type": "string"},
		},
		"required": []string{"score", "reasoning"},
	}
}

// VerifyResponseSchema is the JSON-Schema the résumé Verifier requires from
// the model: {pass: bool, issues: string[]}.
func VerifyResponseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"pass":   map[string]any{"type": "boolean"},
			"issues": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"pass", "issues"},
	}
}
