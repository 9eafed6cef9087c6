package ingestion

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
)

const gmailUser = "me"

// Attachment is one PDF candidate pulled from a message part.
type Attachment struct {
	Filename     string
	AttachmentID string
}

// Message is a mail message with its attachment parts resolved.
type Message struct {
	ID          string
	Attachments []Attachment
}

// GmailSource wraps the Gmail API as the pipeline's mail collaborator.
type GmailSource struct {
	service *gmail.Service
}

// NewGmailSource creates a mail source over an authorized Gmail service.
func NewGmailSource(service *gmail.Service) *GmailSource {
	return &GmailSource{service: service}
}

// List returns the IDs of up to max messages matching the query.
func (g *GmailSource) List(ctx context.Context, query string, max int64) ([]string, error) {
	resp, err := g.service.Users.Messages.List(gmailUser).
		Q(query).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// Get fetches the full message and collects its attachment parts.
func (g *GmailSource) Get(ctx context.Context, id string) (*Message, error) {
	msg, err := g.service.Users.Messages.Get(gmailUser, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message %s: %w", id, err)
	}

	out := &Message{ID: id}
	if msg.Payload == nil {
		return out, nil
	}
	for _, part := range msg.Payload.Parts {
		if part.Filename == "" || part.Body == nil || part.Body.AttachmentId == "" {
			continue
		}
		out.Attachments = append(out.Attachments, Attachment{
			Filename:     part.Filename,
			AttachmentID: part.Body.AttachmentId,
		})
	}
	return out, nil
}

// AttachmentData fetches and decodes one attachment's raw bytes.
func (g *GmailSource) AttachmentData(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	body, err := g.service.Users.Messages.Attachments.Get(gmailUser, messageID, attachmentID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve attachment: %w", err)
	}

	// Gmail returns web-safe base64, sometimes without padding.
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(body.Data, "="))
	if err != nil {
		return nil, fmt.Errorf("unable to decode attachment: %w", err)
	}
	return data, nil
}
