package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// MockGenerator is a mock implementation of Generator for testing.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, attachments ...Attachment) (string, error)
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, attachments ...Attachment) (string, error) {
	return m.GenerateFunc(ctx, prompt, attachments...)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"plain array", `[1,2]`, `[1,2]`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1]\n```", `[1]`},
		{"prose around object", "Sure! Here it is: {\"a\":{\"b\":2}} Hope this helps.", `{"a":{"b":2}}`},
		{"prose around array", "Result:\n[{\"x\":1}]\nDone", `[{"x":1}]`},
		{"no json", "Food & Dining", "Food & Dining"},
		{"single line fence", "```json", "```json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSON(tt.raw); got != tt.want {
				t.Errorf("CleanJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateJSON(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string, attachments ...Attachment) (string, error) {
			if !strings.Contains(prompt, "fraud") {
				t.Errorf("unexpected prompt %q", prompt)
			}
			if len(attachments) != 1 || attachments[0].MIMEType != "application/pdf" {
				t.Errorf("attachments not forwarded: %+v", attachments)
			}
			return "```json\n{\"isFraudulent\": true, \"confidence\": 0.7}\n```", nil
		},
	}

	var out struct {
		IsFraudulent bool    `json:"isFraudulent"`
		Confidence   float64 `json:"confidence"`
	}
	err := GenerateJSON(context.Background(), gen, "assess fraud", &out, Attachment{MIMEType: "application/pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if !out.IsFraudulent || out.Confidence != 0.7 {
		t.Errorf("GenerateJSON() decoded %+v", out)
	}
}

func TestGenerateJSON_Errors(t *testing.T) {
	boom := errors.New("boom")
	failing := &MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string, attachments ...Attachment) (string, error) {
			return "", boom
		},
	}
	var v map[string]any
	if err := GenerateJSON(context.Background(), failing, "p", &v); !errors.Is(err, boom) {
		t.Errorf("expected wrapped generator error, got %v", err)
	}

	garbage := &MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string, attachments ...Attachment) (string, error) {
			return "I cannot help with that", nil
		},
	}
	if err := GenerateJSON(context.Background(), garbage, "p", &v); err == nil {
		t.Error("expected unmarshal error for non-JSON response")
	}
}
