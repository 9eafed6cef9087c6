package evaluation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const fullResponse = `{
	"name": "Budi Santoso",
	"email": "budi@example.com",
	"phone": "+6281234567890",
	"education": "S1 Informatika",
	"strengths": "Strong Go background",
	"weaknesses": "Limited frontend exposure",
	"risk_factor": "Short tenures",
	"reward_factor": "Deep backend expertise",
	"overall_fit": 85,
	"justification": "Meets most requirements"
}`

func TestParseEvaluationPlainJSON(t *testing.T) {
	ev := ParseEvaluation(fullResponse)
	if ev == nil {
		t.Fatal("ParseEvaluation() returned nil for valid JSON")
	}
	if ev.Name != "Budi Santoso" {
		t.Errorf("Expected name Budi Santoso, got %q", ev.Name)
	}
	if ev.OverallFit != 85 {
		t.Errorf("Expected overall fit 85, got %d", ev.OverallFit)
	}
}

func TestParseEvaluationCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "json fence", response: "```json\n" + fullResponse + "\n```"},
		{name: "bare fence", response: "```\n" + fullResponse + "\n```"},
		{name: "fence with surrounding whitespace", response: "\n\n```json\n" + fullResponse + "\n```\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ParseEvaluation(tt.response)
			if ev == nil {
				t.Fatal("ParseEvaluation() returned nil for fenced JSON")
			}
			if ev.Email != "budi@example.com" {
				t.Errorf("Expected email budi@example.com, got %q", ev.Email)
			}
		})
	}
}

func TestParseEvaluationUnparsable(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "Empty response", response: ""},
		{name: "Prose only", response: "I am sorry, I cannot evaluate this resume."},
		{name: "Truncated JSON", response: `{"name": "Budi`},
		{name: "JSON array", response: `["not", "an", "object"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ev := ParseEvaluation(tt.response); ev != nil {
				t.Errorf("ParseEvaluation() = %+v, want nil", ev)
			}
		})
	}
}

// TestParseEvaluationDefaults verifies every absent or empty field gets
// its fixed default, so one malformed property never discards the whole
// evaluation.
func TestParseEvaluationDefaults(t *testing.T) {
	ev := ParseEvaluation(`{"name": "Budi", "email": ""}`)
	if ev == nil {
		t.Fatal("ParseEvaluation() returned nil")
	}

	if ev.Name != "Budi" {
		t.Errorf("Expected name Budi, got %q", ev.Name)
	}
	if ev.Email != "Tidak tercantum" {
		t.Errorf("Empty email: got %q, want default", ev.Email)
	}
	if ev.Phone != "Tidak tercantum" {
		t.Errorf("Missing phone: got %q, want default", ev.Phone)
	}
	if ev.Strengths != "Tidak dapat dianalisis" {
		t.Errorf("Missing strengths: got %q, want default", ev.Strengths)
	}
	if ev.Justification != "Tidak dapat dianalisis" {
		t.Errorf("Missing justification: got %q, want default", ev.Justification)
	}
	if ev.OverallFit != 0 {
		t.Errorf("Missing overall_fit: got %d, want 0", ev.OverallFit)
	}
}

// TestParseEvaluationScalarFields verifies wrongly-typed scalar values are
// kept by formatting them, while null and structured values fall back to
// the default.
func TestParseEvaluationScalarFields(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "Numeric phone kept", response: `{"phone": 6281234567890}`, want: "6281234567890"},
		{name: "Fractional number kept", response: `{"phone": 62.5}`, want: "62.5"},
		{name: "Boolean kept", response: `{"phone": true}`, want: "true"},
		{name: "Null defaults", response: `{"phone": null}`, want: "Tidak tercantum"},
		{name: "Object defaults", response: `{"phone": {"mobile": "0812"}}`, want: "Tidak tercantum"},
		{name: "Array defaults", response: `{"phone": ["0812"]}`, want: "Tidak tercantum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ParseEvaluation(tt.response)
			if ev == nil {
				t.Fatal("ParseEvaluation() returned nil")
			}
			if ev.Phone != tt.want {
				t.Errorf("Phone = %q, want %q", ev.Phone, tt.want)
			}
		})
	}
}

func TestParseEvaluationOverallFitCoercion(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{name: "Integer", response: `{"overall_fit": 85}`, want: 85},
		{name: "Float", response: `{"overall_fit": 92.7}`, want: 92},
		{name: "String with unit", response: `{"overall_fit": "85 points"}`, want: 85},
		{name: "Bare numeric string", response: `{"overall_fit": "70"}`, want: 70},
		{name: "String without digits", response: `{"overall_fit": "high"}`, want: 0},
		{name: "Missing", response: `{}`, want: 0},
		{name: "Null", response: `{"overall_fit": null}`, want: 0},
		{name: "Boolean", response: `{"overall_fit": true}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ParseEvaluation(tt.response)
			if ev == nil {
				t.Fatal("ParseEvaluation() returned nil")
			}
			if ev.OverallFit != tt.want {
				t.Errorf("OverallFit = %d, want %d", ev.OverallFit, tt.want)
			}
		})
	}
}

func TestBuildPromptTruncation(t *testing.T) {
	jobDesc := strings.Repeat("j", 3000)
	resume := strings.Repeat("r", 6000)

	prompt := buildPrompt(jobDesc, resume)

	if strings.Contains(prompt, strings.Repeat("j", 2001)) {
		t.Errorf("Job description not truncated to 2000 chars")
	}
	if !strings.Contains(prompt, strings.Repeat("j", 2000)) {
		t.Errorf("Job description truncated below 2000 chars")
	}
	if strings.Contains(prompt, strings.Repeat("r", 5001)) {
		t.Errorf("Resume text not truncated to 5000 chars")
	}
	if !strings.Contains(prompt, strings.Repeat("r", 5000)) {
		t.Errorf("Resume text truncated below 5000 chars")
	}
}

func TestBuildPromptStructure(t *testing.T) {
	prompt := buildPrompt("Backend engineer role", "Budi's resume text")

	for _, want := range []string{
		"JSON ONLY",
		`"overall_fit"`,
		"JOB DESCRIPTION:\nBackend engineer role",
		"APPLICANT RESUME:\nBudi's resume text",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestTruncateCharsMultibyte(t *testing.T) {
	s := strings.Repeat("日", 10)
	got := truncateChars(s, 5)
	if got != strings.Repeat("日", 5) {
		t.Errorf("truncateChars() split runes: got %q", got)
	}
}

// fakeGenerator is a canned ContentGenerator for evaluator tests.
type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

func TestEvaluateSuccess(t *testing.T) {
	e := NewEvaluator(&fakeGenerator{response: "```json\n" + fullResponse + "\n```"}, discardLogger())

	ev, err := e.Evaluate(context.Background(), "job", "resume")
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if ev == nil {
		t.Fatal("Evaluate() returned nil evaluation")
	}
	if ev.OverallFit != 85 {
		t.Errorf("Expected overall fit 85, got %d", ev.OverallFit)
	}
}

func TestEvaluateLLMError(t *testing.T) {
	e := NewEvaluator(&fakeGenerator{err: fmt.Errorf("quota exceeded")}, discardLogger())

	ev, err := e.Evaluate(context.Background(), "job", "resume")
	if err == nil {
		t.Fatal("Evaluate() expected error from LLM failure")
	}
	if ev != nil {
		t.Errorf("Evaluate() returned evaluation despite LLM failure")
	}
}

func TestEvaluateUnparsableIsNilNotError(t *testing.T) {
	e := NewEvaluator(&fakeGenerator{response: "no JSON here"}, discardLogger())

	ev, err := e.Evaluate(context.Background(), "job", "resume")
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if ev != nil {
		t.Errorf("Evaluate() = %+v, want nil for unparsable output", ev)
	}
}
