// Package gemini requests draft interpretations from Gemini, through Vertex
// AI when a Google Cloud project is configured and through the Gemini API
// with a key otherwise.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/llm"
)

type Config struct {
	Project         string
	Region          string
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// generator is the slice of the genai client used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg    Config
	models generator
	log    *slog.Logger
}

// NewClient builds a Gemini client. It fails when neither a project nor an
// API key is configured.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}

	cc := &genai.ClientConfig{}
	switch {
	case cfg.Project != "":
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Region
	case cfg.APIKey != "":
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	default:
		return nil, fmt.Errorf("%w: set GOOGLE_CLOUD_PROJECT or GEMINI_API_KEY", common.ErrModelUnavailable)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: genai client: %v", common.ErrModelUnavailable, err)
	}
	logger.Info("llm.gemini.ready", "model", cfg.Model, "vertex", cc.Backend == genai.BackendVertexAI, "project", cfg.Project, "region", cfg.Region)
	return newWithGenerator(cfg, client.Models, logger), nil
}

func newWithGenerator(cfg Config, g generator, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, models: g, log: logger}
}

// ExtractDraft implements llm.DraftExtractor.
func (c *Client) ExtractDraft(ctx context.Context, text string) (*entity.Interpretation, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, nil, common.ErrEmptyText
	}

	c.log.Info("llm.gemini.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(text))

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.cfg.Temperature),
		MaxOutputTokens:  c.cfg.MaxOutputTokens,
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: llm.SystemInstructions}},
		},
	}
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(llm.BuildUserPrompt(text)), config)
	if err != nil {
		c.log.Error("llm.gemini.generate_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, fmt.Errorf("gemini generate: %w", err)
	}

	content, err := responseText(resp)
	if err != nil {
		c.log.Error("llm.gemini.empty_response", "req_id", rid, "error", err)
		return nil, nil, err
	}

	draft, parsed, err := llm.ParseDraft([]byte(content), c.log)
	if err != nil {
		c.log.Error("llm.gemini.draft_invalid", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, []byte(content), err
	}

	c.log.Info("llm.gemini.ok",
		"req_id", rid,
		"items", len(draft.Details.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return draft, parsed, nil
}

// responseText concatenates the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("nil gemini response")
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no text content in gemini response")
	}
	return b.String(), nil
}
