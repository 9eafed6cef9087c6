package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// DriveArchiver persists original resume PDFs to Google Drive and returns
// a public viewing link.
type DriveArchiver struct {
	service *drive.Service
	logger  *slog.Logger
	now     func() time.Time
}

// NewDriveArchiver creates an archiver over an authorized Drive service.
func NewDriveArchiver(service *drive.Service, logger *slog.Logger) *DriveArchiver {
	return &DriveArchiver{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// Upload stores the PDF bytes under a timestamped name, makes the file
// readable by anyone with the link, and returns the viewing link. On any
// failure it returns ok=false so the caller can substitute a sentinel and
// continue.
func (a *DriveArchiver) Upload(ctx context.Context, data []byte, filename string) (link string, ok bool) {
	name := fmt.Sprintf("CV_%s_%s.pdf", filename, a.now().Format("20060102_150405"))

	file, err := a.service.Files.Create(&drive.File{Name: name}).
		Media(bytes.NewReader(data), googleapi.ContentType("application/pdf")).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		a.logger.Error("failed to upload to Drive", "file", filename, "error", err)
		return "", false
	}

	// Without the anyone-reader permission the link would require login.
	_, err = a.service.Permissions.Create(file.Id, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	if err != nil {
		a.logger.Error("failed to set Drive permission", "file", filename, "error", err)
		return "", false
	}

	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", file.Id), true
}
