package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
)

// ParseDraft turns a model answer into a draft interpretation. Answers that
// are not a JSON object fail with common.ErrMalformedDraft. Inside an object
// the document is validated strictly first; on failure it is sanitized
// (offending leaves dropped) and validated again. The returned bytes are the
// document that was finally decoded.
func ParseDraft(raw []byte, logger *slog.Logger) (*entity.Interpretation, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	content := []byte(StripCodeFences(string(raw)))
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, content, fmt.Errorf("%w: %v", common.ErrMalformedDraft, err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, content, fmt.Errorf("%w: top level is %T, not an object", common.ErrMalformedDraft, v)
	}
	// some answers wrap the draft in the final-record key
	if inner, ok := doc["interpretacion_IA"].(map[string]any); ok {
		b, err := json.Marshal(inner)
		if err != nil {
			return nil, content, fmt.Errorf("%w: %v", common.ErrMalformedDraft, err)
		}
		doc, content = inner, b
	}
	return parseObject(doc, content, logger)
}

func parseObject(doc map[string]any, content []byte, logger *slog.Logger) (*entity.Interpretation, []byte, error) {
	if err := ValidateDraft(content); err == nil {
		var out entity.Interpretation
		if err := json.Unmarshal(content, &out); err == nil {
			return &out, content, nil
		}
	}

	cleaned, dropped, err := SanitizeDraft(doc, logger)
	if err != nil {
		return nil, content, fmt.Errorf("%w: %v", common.ErrMalformedDraft, err)
	}
	if err := ValidateDraft(cleaned); err != nil {
		logger.Error("llm.draft.schema_validation_failed", "error", err, "dropped", dropped)
		return nil, cleaned, fmt.Errorf("%w: %v", common.ErrMalformedDraft, err)
	}
	var out entity.Interpretation
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return nil, cleaned, fmt.Errorf("%w: unmarshal draft: %v", common.ErrMalformedDraft, err)
	}
	logger.Warn("llm.draft.lenient_sanitize_applied", "dropped", len(dropped))
	return &out, cleaned, nil
}
