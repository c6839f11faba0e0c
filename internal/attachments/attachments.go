package attachments

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Service places files for a user's transactions under
// attachments/<userID>/<transactionID> in a single bucket.
type Service struct {
	store  ObjectStore
	bucket string
}

// NewService creates an attachment service writing to bucket.
func NewService(store ObjectStore, bucket string) *Service {
	return &Service{store: store, bucket: bucket}
}

// ObjectName returns the object path for a transaction attachment.
func ObjectName(userID, transactionID string) string {
	return path.Join("attachments", userID, transactionID)
}

// Attach uploads r as the attachment of the given transaction and returns
// its gs:// URI.
func (s *Service) Attach(ctx context.Context, userID, transactionID, contentType string, r io.Reader) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("Attach: no bucket configured")
	}
	if userID == "" || transactionID == "" || strings.ContainsAny(userID+transactionID, "/\\") {
		return "", fmt.Errorf("Attach: invalid user %q or transaction %q", userID, transactionID)
	}

	object := ObjectName(userID, transactionID)
	if err := s.store.Put(ctx, s.bucket, object, contentType, r); err != nil {
		return "", fmt.Errorf("Attach: upload: %w", err)
	}
	return "gs://" + s.bucket + "/" + object, nil
}

// Fetch downloads the object at uri.
func (s *Service) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	data, err := s.store.Get(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	return data, nil
}
