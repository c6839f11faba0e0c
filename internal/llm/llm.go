// Package llm wraps the generative model used by the AI-backed categorizer,
// fraud assessor, bill predictor and statement analyzer.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-advisor/internal/logger"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 10 * time.Second

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Attachment is binary content sent alongside the prompt, e.g. a PDF statement.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, attachments ...Attachment) (string, error)
}

// GeminiConfig configures a Gemini generator.
type GeminiConfig struct {
	APIKey  string // falls back to GEMINI_API_KEY / GOOGLE_API_KEY in the environment
	Model   string
	Timeout time.Duration
}

// Gemini calls the Gemini API. Each call gets its own timeout and is retried
// once on failure unless the parent context is done.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}

	g := &Gemini{client: client, model: cfg.Model, timeout: cfg.Timeout}
	if g.model == "" {
		g.model = DefaultModelName
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	return g, nil
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, prompt string, attachments ...Attachment) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	for _, a := range attachments {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: a.MIMEType, Data: a.Data}})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	text, err := g.generateOnce(ctx, contents)
	if err != nil && ctx.Err() == nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("model", g.model).Msg("model call failed, retrying once")
		text, err = g.generateOnce(ctx, contents)
	}
	if err != nil {
		return "", fmt.Errorf("Gemini.Generate: %w", err)
	}
	return text, nil
}

func (g *Gemini) generateOnce(ctx context.Context, contents []*genai.Content) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateJSON asks gen for a JSON answer and decodes it into v, tolerating
// Markdown fences and stray prose around the payload.
func GenerateJSON(ctx context.Context, gen Generator, prompt string, v any, attachments ...Attachment) error {
	raw, err := gen.Generate(ctx, prompt, attachments...)
	if err != nil {
		return fmt.Errorf("GenerateJSON: %w", err)
	}
	if err := json.Unmarshal([]byte(CleanJSON(raw)), v); err != nil {
		return fmt.Errorf("GenerateJSON: unmarshal JSON: %w\nraw response: %s", err, raw)
	}
	return nil
}

// CleanJSON strips code fences and keeps only the outermost JSON array or
// object found in raw.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line (``` or ```json).
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = strings.TrimSpace(s[:idx])
	}

	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return s
	}
	closer := "]"
	if s[start] == '{' {
		closer = "}"
	}
	if end := strings.LastIndex(s, closer); end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
