package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fmuoria/resume-screener/internal/ingestion"
	"github.com/fmuoria/resume-screener/internal/ledger"
	"github.com/fmuoria/resume-screener/internal/models"
)

// MessageCap bounds how many matching messages one run processes. It is
// the only bound on run time; there is no per-call timeout here beyond
// what the collaborators enforce.
const MessageCap = 50

// defaultQuery is used when no usable subject terms are configured.
const defaultQuery = "subject:cv OR subject:resume has:attachment filename:pdf"

// UploadFailedSentinel replaces the archive link in a ledger row when the
// upload did not succeed. Archival is best-effort; a failed upload never
// blocks recording the evaluation.
const UploadFailedSentinel = "Gagal upload ke Drive"

// ErrConfig is returned when a run is started without a job description,
// position, or subject filters. It is surfaced before any external call.
var ErrConfig = errors.New("screening configuration incomplete")

// Mail is the mail collaborator contract the pipeline consumes.
type Mail interface {
	List(ctx context.Context, query string, max int64) ([]string, error)
	Get(ctx context.Context, id string) (*ingestion.Message, error)
	AttachmentData(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// Ledger is the slice of the result store the pipeline needs.
type Ledger interface {
	EnsureSchema(ctx context.Context) error
	ExistingFingerprints(ctx context.Context) (map[string]struct{}, error)
	Append(ctx context.Context, record models.ResumeRecord) error
}

// LedgerOpener opens or creates the destination ledger by name.
type LedgerOpener interface {
	Open(ctx context.Context, name string) (Ledger, error)
}

// Archiver persists the original PDF and returns a viewing link. ok=false
// means the upload failed; archival is best-effort.
type Archiver interface {
	Upload(ctx context.Context, data []byte, filename string) (link string, ok bool)
}

// Evaluator scores one resume against the job description. A nil
// evaluation means the model output was unusable for this resume.
type Evaluator interface {
	Evaluate(ctx context.Context, jobDesc, resumeText string) (*models.Evaluation, error)
}

// Params is the immutable per-run input. It is snapshotted by the caller
// before the run starts, so concurrent configuration updates never reach
// a run in flight.
type Params struct {
	JobDescription    string
	Config            models.ScreeningConfig
	DefaultLedgerName string
}

// Validate checks the run preconditions. It is called before any
// external service is touched.
func (p Params) Validate() error {
	if strings.TrimSpace(p.JobDescription) == "" {
		return fmt.Errorf("%w: job description not uploaded", ErrConfig)
	}
	if strings.TrimSpace(p.Config.JobPosition) == "" {
		return fmt.Errorf("%w: job position not set", ErrConfig)
	}
	if len(p.Config.EmailSubjects) == 0 {
		return fmt.Errorf("%w: no email subject filters set", ErrConfig)
	}
	return nil
}

// Pipeline drives one screening run: enumerate candidate messages,
// extract PDF attachments, and push each through fingerprint, dedup
// check, evaluation, archival and recording, strictly one at a time.
//
// The fingerprint set is run-local. Two runs executing concurrently
// against the same ledger can both record the same resume; the design
// accepts this under the single-operator usage model.
type Pipeline struct {
	mail      Mail
	store     LedgerOpener
	archiver  Archiver
	evaluator Evaluator
	logger    *slog.Logger

	extract     func([]byte) string
	fingerprint func(filename, text string) string
	now         func() time.Time
}

// New creates a pipeline over the given collaborators.
func New(mail Mail, store LedgerOpener, archiver Archiver, evaluator Evaluator, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		mail:        mail,
		store:       store,
		archiver:    archiver,
		evaluator:   evaluator,
		logger:      logger,
		extract:     ingestion.ExtractText,
		fingerprint: ingestion.Fingerprint,
		now:         time.Now,
	}
}

// outcome classifies what happened to one attachment. Per-item failures
// are explicit outcomes, not control flow: nothing an attachment does can
// abort the run.
type outcome int

const (
	// outcomeRecorded: evaluated and appended to the ledger.
	outcomeRecorded outcome = iota
	// outcomeDuplicate: fingerprint already recorded, skipped.
	outcomeDuplicate
	// outcomeUnusable: empty extraction, failed fetch, or failed
	// evaluation. Counted in neither tally.
	outcomeUnusable
)

// Run executes one screening pass and aggregates a summary. Only
// precondition failures and top-level infrastructure failures return an
// error; everything below the message level is skip-and-continue.
func (p *Pipeline) Run(ctx context.Context, params Params) (*models.RunSummary, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ledgerName := ledger.NameForPosition(params.Config.JobPosition, params.DefaultLedgerName)

	led, err := p.store.Open(ctx, ledgerName)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %q: %w", ledgerName, err)
	}
	if err := led.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	seen, err := led.ExistingFingerprints(ctx)
	if err != nil {
		return nil, err
	}

	query := BuildQuery(params.Config.EmailSubjects)
	p.logger.Info("screening run started", "ledger", ledgerName, "query", query)

	ids, err := p.mail.List(ctx, query, MessageCap)
	if err != nil {
		return nil, err
	}

	summary := &models.RunSummary{Results: []models.ResumeRecord{}}
	summary.TotalEmails = len(ids)
	if len(ids) == 0 {
		summary.Message = "No emails with resumes found."
		return summary, nil
	}

	for _, id := range ids {
		msg, err := p.mail.Get(ctx, id)
		if err != nil {
			p.logger.Warn("skipping unreadable message", "message_id", id, "error", err)
			continue
		}

		for _, att := range msg.Attachments {
			if !strings.HasSuffix(strings.ToLower(att.Filename), ".pdf") {
				continue
			}

			result, record := p.processAttachment(ctx, params.JobDescription, msg.ID, att, seen)
			switch result {
			case outcomeRecorded:
				if err := led.Append(ctx, *record); err != nil {
					p.logger.Error("failed to record resume", "file", att.Filename, "error", err)
					continue
				}
				seen[record.Fingerprint] = struct{}{}
				summary.ProcessedCount++
				summary.Results = append(summary.Results, *record)
				p.logger.Info("resume recorded", "file", att.Filename)
			case outcomeDuplicate:
				summary.SkippedCount++
			}
		}
	}

	summary.Message = fmt.Sprintf("%d new resumes processed, %d already recorded, out of %d emails.",
		summary.ProcessedCount, summary.SkippedCount, summary.TotalEmails)
	return summary, nil
}

// processAttachment runs fingerprint, dedup check, archival and
// evaluation for one attachment. It returns a record only for
// outcomeRecorded; the caller owns the ledger append so the fingerprint
// set stays consistent with what was actually written.
func (p *Pipeline) processAttachment(ctx context.Context, jobDesc, messageID string, att ingestion.Attachment, seen map[string]struct{}) (outcome, *models.ResumeRecord) {
	data, err := p.mail.AttachmentData(ctx, messageID, att.AttachmentID)
	if err != nil {
		p.logger.Warn("failed to fetch attachment", "file", att.Filename, "error", err)
		return outcomeUnusable, nil
	}

	text := p.extract(data)
	if text == "" {
		p.logger.Warn("no text extracted, skipping", "file", att.Filename)
		return outcomeUnusable, nil
	}

	fingerprint := p.fingerprint(att.Filename, text)
	if _, dup := seen[fingerprint]; dup {
		p.logger.Info("resume already processed, skipping", "file", att.Filename)
		return outcomeDuplicate, nil
	}

	// Best-effort: a failed upload degrades the link, never the record.
	link, ok := p.archiver.Upload(ctx, data, att.Filename)
	if !ok {
		link = UploadFailedSentinel
	}

	evaluated, err := p.evaluator.Evaluate(ctx, jobDesc, text)
	if err != nil {
		p.logger.Warn("evaluation failed, skipping", "file", att.Filename, "error", err)
		return outcomeUnusable, nil
	}
	if evaluated == nil {
		p.logger.Warn("evaluation unparsable, skipping", "file", att.Filename)
		return outcomeUnusable, nil
	}

	return outcomeRecorded, &models.ResumeRecord{
		Timestamp:   p.now().Format("2006-01-02 15:04:05"),
		ArchiveLink: link,
		Evaluation:  *evaluated,
		Fingerprint: fingerprint,
	}
}

// BuildQuery OR-combines one subject clause per configured term and ANDs
// the attachment/PDF filter. Terms that trim to nothing are dropped; if
// none remain the fixed default query is used.
func BuildQuery(subjects []string) string {
	clauses := make([]string, 0, len(subjects))
	for _, s := range subjects {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		clauses = append(clauses, "subject:"+s)
	}
	if len(clauses) == 0 {
		return defaultQuery
	}
	return strings.Join(clauses, " OR ") + " has:attachment filename:pdf"
}
