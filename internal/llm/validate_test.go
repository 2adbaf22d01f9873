package llm

import "testing"

func TestValidateJSONAgainstSchemaScoreAccepts(t *testing.T) {
	data := []byte(`{"score": 80, "reasoning": "Strong match on required skills"}`)
	if err := ValidateJSONAgainstSchema(ScoreResponseSchema(), data); err != nil {
		t.Errorf("expected valid score response to pass, got %v", err)
	}
}

func TestValidateJSONAgainstSchemaScoreMissingRequired(t *testing.T) {
	data := []byte(`{"score": 80}`)
	if err := ValidateJSONAgainstSchema(ScoreResponseSchema(), data); err == nil {
		t.Error("expected error for response missing required reasoning field")
	}
}

func TestValidateJSONAgainstSchemaScoreEmptyReasoningRejected(t *testing.T) {
	data := []byte(`{"score": 80, "reasoning": ""}`)
	if err := ValidateJSONAgainstSchema(ScoreResponseSchema(), data); err == nil {
		t.Error("expected error for empty reasoning (minLength 1)")
	}
}

func TestValidateJSONAgainstSchemaScoreRejectsAdditionalProperties(t *testing.T) {
	data := []byte(`{"score": 80, "reasoning": "ok", "unexpected": "field"}`)
	if err := ValidateJSONAgainstSchema(ScoreResponseSchema(), data); err == nil {
		t.Error("expected error for unexpected additional property")
	}
}

func TestValidateJSONAgainstSchemaVerifyAccepts(t *testing.T) {
	data := []byte(`{"pass": true, "issues": []}`)
	if err := ValidateJSONAgainstSchema(VerifyResponseSchema(), data); err != nil {
		t.Errorf("expected valid verify response to pass, got %v", err)
	}
}

func TestValidateJSONAgainstSchemaVerifyWrongType(t *testing.T) {
	data := []byte(`{"pass": "yes", "issues": []}`)
	if err := ValidateJSONAgainstSchema(VerifyResponseSchema(), data); err == nil {
		t.Error("expected error for pass as string instead of boolean")
	}
}

func TestValidateJSONAgainstSchemaInvalidJSON(t *testing.T) {
	data := []byte(`not json`)
	if err := ValidateJSONAgainstSchema(ScoreResponseSchema(), data); err == nil {
		t.Error("expected error for malformed JSON input")
	}
}
