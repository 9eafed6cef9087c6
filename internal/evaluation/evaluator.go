package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/fmuoria/resume-screener/internal/models"
)

const (
	// maxJobDescChars caps how much of the job description is embedded
	// in the prompt; maxResumeChars does the same for resume text. Both
	// bound model context cost.
	maxJobDescChars = 2000
	maxResumeChars  = 5000

	// Defaults for fields the model left out or returned empty.
	defaultMissing     = "Tidak tercantum"
	defaultNotAnalyzed = "Tidak dapat dianalisis"
	defaultOverallFit  = 0
)

// ContentGenerator is the single-shot completion contract the evaluator
// needs from the LLM.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Evaluator scores resumes against a job description using an LLM. The
// model is untrusted as a structured-output source: every expected field
// gets a safe default so one malformed property never discards an
// otherwise-useful evaluation.
type Evaluator struct {
	llm    ContentGenerator
	logger *slog.Logger
}

// NewEvaluator creates an evaluator over the given LLM client.
func NewEvaluator(llm ContentGenerator, logger *slog.Logger) *Evaluator {
	return &Evaluator{llm: llm, logger: logger}
}

// Evaluate sends one resume to the model and parses the structured
// evaluation back out. A nil result with nil error means the model output
// could not be parsed; callers treat that as "could not evaluate this
// resume" and move on.
func (e *Evaluator) Evaluate(ctx context.Context, jobDesc, resumeText string) (*models.Evaluation, error) {
	prompt := buildPrompt(jobDesc, resumeText)

	response, err := e.llm.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}

	ev := ParseEvaluation(response)
	if ev == nil {
		e.logger.Warn("could not parse evaluation from model output")
	}
	return ev, nil
}

// buildPrompt creates the fixed-structure evaluation prompt.
func buildPrompt(jobDesc, resumeText string) string {
	jobDesc = truncateChars(jobDesc, maxJobDescChars)
	resumeText = truncateChars(sanitizeUTF8(resumeText), maxResumeChars)

	var sb strings.Builder

	sb.WriteString("You are an experienced HR specialist. Analyze the following applicant resume in detail and objectively against the given job description.\n\n")

	sb.WriteString("ANALYSIS INSTRUCTIONS:\n")
	sb.WriteString("1. Read the resume carefully and extract the key information\n")
	sb.WriteString("2. Compare it against the job description requirements\n")
	sb.WriteString("3. Give an objective, constructive assessment\n")
	sb.WriteString("4. Focus on the candidate's relevance and potential\n\n")

	sb.WriteString("OUTPUT FORMAT (JSON ONLY, NO MARKDOWN):\n")
	sb.WriteString("{\n")
	sb.WriteString(`    "name": "Applicant's full name, taken from the resume",` + "\n")
	sb.WriteString(`    "email": "Applicant's email if available, otherwise 'Tidak tercantum'",` + "\n")
	sb.WriteString(`    "phone": "Phone number if available, otherwise 'Tidak tercantum', formatted like +6289836718275",` + "\n")
	sb.WriteString(`    "education": "Highest education level and major, e.g. S1 Informatika",` + "\n")
	sb.WriteString(`    "strengths": "3-4 key strengths relevant to the position (max 200 words)",` + "\n")
	sb.WriteString(`    "weaknesses": "Areas for improvement or gaps found (max 150 words)",` + "\n")
	sb.WriteString(`    "risk_factor": "Potential risks in hiring this candidate (max 150 words)",` + "\n")
	sb.WriteString(`    "reward_factor": "Potential value the candidate would bring (max 150 words)",` + "\n")
	sb.WriteString(`    "overall_fit": 85,` + "\n")
	sb.WriteString(`    "justification": "Detailed explanation of why you gave that score (max 200 words)"` + "\n")
	sb.WriteString("}\n\n")

	sb.WriteString("SCORING CRITERIA:\n")
	sb.WriteString("- Overall Fit Score (0-100):\n")
	sb.WriteString("  * 90-100: Excellent match, ideal candidate\n")
	sb.WriteString("  * 80-89: Good match with minor gaps\n")
	sb.WriteString("  * 70-79: Reasonable match but with several shortcomings\n")
	sb.WriteString("  * 60-69: Weak match, many gaps\n")
	sb.WriteString("  * <60: Not a match\n\n")

	sb.WriteString("JOB DESCRIPTION:\n")
	sb.WriteString(jobDesc)
	sb.WriteString("\n\n")

	sb.WriteString("APPLICANT RESUME:\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n\n")

	sb.WriteString("Give a professional, honest analysis that supports the selection process.\n")

	return sb.String()
}

// ParseEvaluation extracts a structured evaluation from free-form model
// output. Returns nil when no JSON object can be parsed.
func ParseEvaluation(response string) *models.Evaluation {
	cleaned := stripCodeFence(strings.TrimSpace(response))

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil
	}

	return &models.Evaluation{
		Name:          stringField(raw, "name", defaultMissing),
		Email:         stringField(raw, "email", defaultMissing),
		Phone:         stringField(raw, "phone", defaultMissing),
		Education:     stringField(raw, "education", defaultMissing),
		Strengths:     stringField(raw, "strengths", defaultNotAnalyzed),
		Weaknesses:    stringField(raw, "weaknesses", defaultNotAnalyzed),
		RiskFactor:    stringField(raw, "risk_factor", defaultNotAnalyzed),
		RewardFactor:  stringField(raw, "reward_factor", defaultNotAnalyzed),
		OverallFit:    fitField(raw, "overall_fit"),
		Justification: stringField(raw, "justification", defaultNotAnalyzed),
	}
}

// stripCodeFence removes a Markdown code-fence wrapper if present.
func stripCodeFence(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// stringField returns the field as a string, substituting the default only
// when the field is missing, null or empty. Scalar values of the wrong
// type, like a phone number emitted as a JSON number, are formatted rather
// than discarded.
func stringField(raw map[string]any, key, def string) string {
	switch v := raw[key].(type) {
	case string:
		if v == "" {
			return def
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}

// fitField coerces overall_fit to an integer. A numeric value is rounded
// down; a string has its digit characters extracted ("85 points" -> 85);
// anything else defaults to 0.
func fitField(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case string:
		var digits strings.Builder
		for _, r := range v {
			if unicode.IsDigit(r) {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 0 {
			return defaultOverallFit
		}
		n, err := strconv.Atoi(digits.String())
		if err != nil {
			return defaultOverallFit
		}
		return n
	default:
		return defaultOverallFit
	}
}

// truncateChars limits s to at most n characters without splitting a rune.
func truncateChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// sanitizeUTF8 drops invalid byte sequences so the prompt is always valid
// UTF-8; PDF extraction occasionally produces garbage bytes.
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}
