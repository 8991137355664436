package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/llm"
)

// ExtractDraft implements llm.DraftExtractor with a text-only
// chat/completions call in JSON mode.
func (c *Client) ExtractDraft(ctx context.Context, text string) (*entity.Interpretation, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, nil, common.ErrEmptyText
	}
	if c.cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", common.ErrModelUnavailable)
	}

	c.log.Info("llm.openai.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemInstructions},
			{"role": "user", "content": llm.BuildUserPrompt(text)},
		},
	}
	if c.cfg.MaxTokens > 0 {
		body["max_tokens"] = c.cfg.MaxTokens
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.openai.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.openai.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return nil, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.openai.no_choices", "req_id", rid, "raw", llm.Truncate(string(raw), 500))
		return nil, raw, errors.New("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	draft, parsed, err := llm.ParseDraft(content, c.log)
	if err != nil {
		c.log.Error("llm.openai.draft_invalid",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, content, err
	}

	c.log.Info("llm.openai.ok",
		"req_id", rid,
		"items", len(draft.Details.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return draft, parsed, nil
}
