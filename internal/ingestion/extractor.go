package ingestion

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText converts raw PDF bytes to plain text, page by page. Pages
// that fail extraction or carry no text contribute nothing. A document
// that cannot be opened at all yields an empty string rather than an
// error, so callers uniformly treat "nothing extracted" as a skip
// condition.
func ExtractText(data []byte) (text string) {
	// The pdf package panics on some malformed documents; a corrupt
	// attachment must degrade to an empty result, not crash the run.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || pageText == "" {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}
