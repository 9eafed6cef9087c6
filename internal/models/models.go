package models

// ScreeningConfig drives one screening run: the position decides which
// ledger spreadsheet results land in, the subjects decide which emails
// are pulled. Updates replace the whole value, there is no partial merge.
type ScreeningConfig struct {
	JobPosition   string   `json:"job_position"`
	EmailSubjects []string `json:"email_subjects"`
}

// Evaluation is the structured scoring output produced by the LLM for one
// resume. Every field has a safe default so a single malformed property in
// the model output never discards an otherwise-usable evaluation.
type Evaluation struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Education     string `json:"education"`
	Strengths     string `json:"strengths"`
	Weaknesses    string `json:"weaknesses"`
	RiskFactor    string `json:"risk_factor"`
	RewardFactor  string `json:"reward_factor"`
	OverallFit    int    `json:"overall_fit"`
	Justification string `json:"justification"`
}

// ResumeRecord is one ledger row: timestamp, archive link, the evaluated
// fields, and the dedup fingerprint. The fingerprint is an internal
// artifact and is stripped before records leave the service.
type ResumeRecord struct {
	Timestamp   string `json:"timestamp"`
	ArchiveLink string `json:"archive_link"`
	Evaluation
	Fingerprint string `json:"-"`
}

// RunSummary is the outcome of one screening run. It is built fresh per
// invocation and never persisted.
type RunSummary struct {
	Message        string         `json:"message"`
	ProcessedCount int            `json:"processed_count"`
	SkippedCount   int            `json:"skipped_count"`
	TotalEmails    int            `json:"total_emails"`
	Results        []ResumeRecord `json:"results"`
}
