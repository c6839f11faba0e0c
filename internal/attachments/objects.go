// Package attachments stores transaction receipts and bank statements in
// object storage and addresses them by gs:// URI.
package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
)

// ErrObjectNotFound is returned when a URI points at a missing object.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the minimal blob API used by the attachment service and the
// statement importer.
type ObjectStore interface {
	Put(ctx context.Context, bucket, object, contentType string, r io.Reader) error
	Get(ctx context.Context, bucket, object string) ([]byte, error)
}

// GCS is an ObjectStore backed by Google Cloud Storage. It relies on
// Application Default Credentials.
type GCS struct {
	client        *storage.Client
	uploadTimeout time.Duration
}

// NewGCS creates a GCS object store.
func NewGCS(ctx context.Context) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCS: create storage client: %w", err)
	}
	return &GCS{client: client, uploadTimeout: 2 * time.Minute}, nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Put implements ObjectStore.
func (g *GCS) Put(ctx context.Context, bucket, object, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, g.uploadTimeout)
	defer cancel()

	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCS.Put: copy to writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCS.Put: finalize upload: %w", err)
	}
	return nil
}

// Get implements ObjectStore.
func (g *GCS) Get(ctx context.Context, bucket, object string) ([]byte, error) {
	rc, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("GCS.Get: %s/%s: %w", bucket, object, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GCS.Get: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("GCS.Get: reading bytes: %w", err)
	}
	return data, nil
}

// Memory is an in-process ObjectStore for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory object store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// Put implements ObjectStore.
func (m *Memory) Put(_ context.Context, bucket, object, _ string, r io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("Memory.Put: %w", err)
	}
	m.mu.Lock()
	m.objects[bucket+"/"+object] = buf.Bytes()
	m.mu.Unlock()
	return nil
}

// Get implements ObjectStore.
func (m *Memory) Get(_ context.Context, bucket, object string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket+"/"+object]
	if !ok {
		return nil, fmt.Errorf("Memory.Get: %s/%s: %w", bucket, object, ErrObjectNotFound)
	}
	return append([]byte(nil), data...), nil
}

// ParseURI splits gs://bucket/path/to/object into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// FilenameFromURI returns the last path element of a gs:// URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func FilenameFromURI(uri string) string {
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) < 2 {
		return parts[0]
	}
	return path.Base(parts[1])
}
