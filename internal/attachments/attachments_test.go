package attachments

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://bucket/a/b.pdf", "bucket", "a/b.pdf", false},
		{"gs://bucket/file", "bucket", "file", false},
		{"gs://bucket", "", "", true},
		{"gs://bucket/", "", "", true},
		{"s3://bucket/file", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI() = %q, %q, want %q, %q", bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestFilenameFromURI(t *testing.T) {
	tests := map[string]string{
		"gs://bucket/folder/file.pdf": "file.pdf",
		"gs://bucket/file.pdf":        "file.pdf",
		"gs://bucket":                 "bucket",
	}
	for uri, want := range tests {
		if got := FilenameFromURI(uri); got != want {
			t.Errorf("FilenameFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestService_AttachAndFetch(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemory(), "receipts")

	uri, err := svc.Attach(ctx, "u1", "tx-9", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if uri != "gs://receipts/attachments/u1/tx-9" {
		t.Errorf("Attach() uri = %q", uri)
	}

	data, err := svc.Fetch(ctx, uri)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Fetch() = %q", data)
	}

	if _, err := svc.Fetch(ctx, "gs://receipts/attachments/u1/missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestService_AttachValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewService(NewMemory(), "").Attach(ctx, "u1", "tx", "", strings.NewReader("x")); err == nil {
		t.Error("expected error without bucket")
	}
	svc := NewService(NewMemory(), "b")
	for _, ids := range [][2]string{{"", "tx"}, {"u1", ""}, {"u1/../u2", "tx"}} {
		if _, err := svc.Attach(ctx, ids[0], ids[1], "", strings.NewReader("x")); err == nil {
			t.Errorf("expected error for user %q tx %q", ids[0], ids[1])
		}
	}
}
