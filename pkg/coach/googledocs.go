package coach

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// DocsSyncer publishes rendered reports to Google Docs so clients can
// share them with practitioners.
type DocsSyncer struct {
	service *docs.Service
}

// NewDocsSyncer creates a syncer using Application Default Credentials.
func NewDocsSyncer(ctx context.Context) (*DocsSyncer, error) {
	creds, err := google.FindDefaultCredentials(ctx,
		"https://www.googleapis.com/auth/documents",
		"https://www.googleapis.com/auth/drive.file")
	if err != nil {
		return nil, fmt.Errorf("coach: failed to resolve Google credentials: %w", err)
	}

	service, err := docs.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("coach: failed to create docs service: %w", err)
	}
	return &DocsSyncer{service: service}, nil
}

// CreateDoc creates a new document holding the report and returns its ID.
func (d *DocsSyncer) CreateDoc(ctx context.Context, title, content string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	created, err := d.service.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("coach: failed to create document: %w", err)
	}
	if content == "" {
		return created.DocumentId, nil
	}

	requests := []*docs.Request{
		{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     content,
			},
		},
	}
	_, err = d.service.Documents.BatchUpdate(created.DocumentId, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return created.DocumentId, fmt.Errorf("coach: created doc but failed to add content: %w", err)
	}
	return created.DocumentId, nil
}

// ReplaceDoc overwrites an existing document with new content.
func (d *DocsSyncer) ReplaceDoc(ctx context.Context, docID, content string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	doc, err := d.service.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("coach: failed to get document: %w", err)
	}

	endIndex := doc.Body.Content[len(doc.Body.Content)-1].EndIndex - 1

	var requests []*docs.Request
	if endIndex > 1 {
		requests = append(requests, &docs.Request{
			DeleteContentRange: &docs.DeleteContentRangeRequest{
				Range: &docs.Range{StartIndex: 1, EndIndex: endIndex},
			},
		})
	}
	requests = append(requests, &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: 1},
			Text:     content,
		},
	})

	_, err = d.service.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("coach: failed to update document: %w", err)
	}
	return nil
}
