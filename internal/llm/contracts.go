package llm

import (
	"context"

	"github.com/joseph-ayodele/order-interpreter/internal/entity"
)

// DraftExtractor asks a language model for a draft interpretation of an
// order text. The raw model output is returned alongside the draft (and on
// errors when it exists) for debug logging.
type DraftExtractor interface {
	ExtractDraft(ctx context.Context, text string) (*entity.Interpretation, []byte, error)
}

// Settings shared by the model clients.
type Settings struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}
