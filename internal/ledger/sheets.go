package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/fmuoria/resume-screener/internal/models"
)

// Headers is the canonical column order of a ledger sheet. CV_Hash is the
// dedup key; it is internal and stripped from anything returned to
// external callers.
var Headers = []string{
	"Waktu", "Drive Link", "Nama", "Email", "Nomor Telepon",
	"Pendidikan Terakhir", "Kekuatan", "Kekurangan",
	"Risk Factor", "Reward Factor", "Overall Fit", "Justifikasi", "CV_Hash",
}

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Store opens and creates ledgers. It needs Drive for the name lookup and
// Sheets for everything else.
type Store struct {
	sheets *sheets.Service
	drive  *drive.Service
	logger *slog.Logger
}

// NewStore creates a store over authorized Sheets and Drive services.
func NewStore(sheetsSrv *sheets.Service, driveSrv *drive.Service, logger *slog.Logger) *Store {
	return &Store{
		sheets: sheetsSrv,
		drive:  driveSrv,
		logger: logger,
	}
}

// Ledger is one spreadsheet holding the screening results for a position.
type Ledger struct {
	store         *Store
	SpreadsheetID string
	sheetTitle    string
}

// NameForPosition derives the ledger name from a job position, keeping
// only letters, digits, spaces, hyphens and underscores. An empty result
// falls back to the given default name.
func NameForPosition(position, defaultName string) string {
	var sb strings.Builder
	for _, r := range position {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(sb.String()), " ")
	if name == "" {
		return defaultName
	}
	return name
}

// Open finds an existing spreadsheet by name or creates a new one with the
// canonical header row.
func (s *Store) Open(ctx context.Context, name string) (*Ledger, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)

	list, err := s.drive.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to look up spreadsheet %q: %w", name, err)
	}

	if len(list.Files) > 0 {
		ledger := &Ledger{store: s, SpreadsheetID: list.Files[0].Id}
		if err := ledger.resolveSheetTitle(ctx); err != nil {
			return nil, err
		}
		return ledger, nil
	}

	s.logger.Info("spreadsheet not found, creating", "name", name)

	created, err := s.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: name},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet %q: %w", name, err)
	}

	ledger := &Ledger{store: s, SpreadsheetID: created.SpreadsheetId, sheetTitle: "Sheet1"}
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		ledger.sheetTitle = created.Sheets[0].Properties.Title
	}

	if err := ledger.writeHeader(ctx); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (l *Ledger) resolveSheetTitle(ctx context.Context) error {
	ss, err := l.store.sheets.Spreadsheets.Get(l.SpreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	l.sheetTitle = "Sheet1"
	if len(ss.Sheets) > 0 && ss.Sheets[0].Properties != nil {
		l.sheetTitle = ss.Sheets[0].Properties.Title
	}
	return nil
}

// EnsureSchema verifies the header row matches the canonical schema. A
// missing header or a column-count mismatch clears the whole sheet and
// rewrites the header. This migration path is destructive: pre-existing
// rows in an off-schema sheet are lost.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	resp, err := l.store.sheets.Spreadsheets.Values.Get(l.SpreadsheetID, l.rangeRef("1:1")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to read header row: %w", err)
	}

	if len(resp.Values) > 0 && len(resp.Values[0]) == len(Headers) {
		return nil
	}

	l.store.logger.Warn("ledger header mismatch, rewriting schema",
		"spreadsheet_id", l.SpreadsheetID)

	_, err = l.store.sheets.Spreadsheets.Values.Clear(l.SpreadsheetID, l.rangeRef("A:Z"), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}
	return l.writeHeader(ctx)
}

// ExistingFingerprints returns the set of dedup keys already recorded.
func (l *Ledger) ExistingFingerprints(ctx context.Context) (map[string]struct{}, error) {
	rows, err := l.dataRows(ctx)
	if err != nil {
		return nil, err
	}

	fingerprints := make(map[string]struct{})
	for _, row := range rows {
		if len(row) < len(Headers) {
			continue
		}
		if hash := cellString(row[len(Headers)-1]); hash != "" {
			fingerprints[hash] = struct{}{}
		}
	}
	return fingerprints, nil
}

// Append adds one record as a row in the canonical column order, dedup
// key last. Rows are never mutated after append.
func (l *Ledger) Append(ctx context.Context, record models.ResumeRecord) error {
	row := []interface{}{
		record.Timestamp,
		record.ArchiveLink,
		record.Name,
		record.Email,
		record.Phone,
		record.Education,
		record.Strengths,
		record.Weaknesses,
		record.RiskFactor,
		record.RewardFactor,
		record.OverallFit,
		record.Justification,
		record.Fingerprint,
	}

	_, err := l.store.sheets.Spreadsheets.Values.Append(l.SpreadsheetID, l.rangeRef("A1"), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

// ReadAll returns every recorded result with the dedup key stripped.
func (l *Ledger) ReadAll(ctx context.Context) ([]models.ResumeRecord, error) {
	rows, err := l.dataRows(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.ResumeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, RecordFromRow(row))
	}
	return records, nil
}

// Clear blanks every data cell while preserving the header row and the
// sheet geometry.
func (l *Ledger) Clear(ctx context.Context) error {
	resp, err := l.store.sheets.Spreadsheets.Values.Get(l.SpreadsheetID, l.rangeRef("A2:M")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	rows := resp.Values
	if len(rows) == 0 {
		return nil
	}

	blanks := make([][]interface{}, len(rows))
	for i := range blanks {
		blank := make([]interface{}, len(Headers))
		for j := range blank {
			blank[j] = ""
		}
		blanks[i] = blank
	}

	_, err = l.store.sheets.Spreadsheets.Values.Update(l.SpreadsheetID, l.rangeRef("A2"), &sheets.ValueRange{
		Values: blanks,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear data rows: %w", err)
	}
	return nil
}

func (l *Ledger) writeHeader(ctx context.Context) error {
	row := make([]interface{}, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}

	_, err := l.store.sheets.Spreadsheets.Values.Update(l.SpreadsheetID, l.rangeRef("A1"), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

// dataRows reads all rows below the header, skipping fully blank ones
// left behind by Clear.
func (l *Ledger) dataRows(ctx context.Context) ([][]interface{}, error) {
	resp, err := l.store.sheets.Spreadsheets.Values.Get(l.SpreadsheetID, l.rangeRef("A2:M")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	rows := make([][]interface{}, 0, len(resp.Values))
	for _, row := range resp.Values {
		if isBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *Ledger) rangeRef(a1 string) string {
	return fmt.Sprintf("'%s'!%s", l.sheetTitle, a1)
}

// RecordFromRow maps one sheet row onto a record, tolerating short rows.
// The trailing dedup key column is not carried over.
func RecordFromRow(row []interface{}) models.ResumeRecord {
	var record models.ResumeRecord
	record.Timestamp = cell(row, 0)
	record.ArchiveLink = cell(row, 1)
	record.Name = cell(row, 2)
	record.Email = cell(row, 3)
	record.Phone = cell(row, 4)
	record.Education = cell(row, 5)
	record.Strengths = cell(row, 6)
	record.Weaknesses = cell(row, 7)
	record.RiskFactor = cell(row, 8)
	record.RewardFactor = cell(row, 9)
	record.OverallFit = cellInt(row, 10)
	record.Justification = cell(row, 11)
	return record
}

func isBlankRow(row []interface{}) bool {
	for _, v := range row {
		if cellString(v) != "" {
			return false
		}
	}
	return true
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	return cellString(row[i])
}

func cellInt(row []interface{}, i int) int {
	s := cell(row, i)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func cellString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
