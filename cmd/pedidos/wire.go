package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/llm"
	"github.com/joseph-ayodele/order-interpreter/internal/llm/gemini"
	"github.com/joseph-ayodele/order-interpreter/internal/llm/openai"
	"github.com/joseph-ayodele/order-interpreter/internal/metrics"
	"github.com/joseph-ayodele/order-interpreter/internal/order"
	"github.com/joseph-ayodele/order-interpreter/internal/pipeline"
	"github.com/joseph-ayodele/order-interpreter/internal/postprocess"
	"github.com/joseph-ayodele/order-interpreter/internal/tracing"
	"github.com/joseph-ayodele/order-interpreter/internal/vocabulary"
)

// app holds what every command needs.
type app struct {
	cfg     *common.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	proc    *pipeline.Processor
	tracing tracing.ShutdownFunc
}

// close flushes pending spans.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracing(ctx); err != nil {
		a.logger.Warn("tracing.shutdown_failed", "error", err)
	}
}

func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := common.NewLoggerTo(logOut, cfg.Log.SlogLevel())
	slog.SetDefault(logger)

	vocab := vocabulary.Default()
	if cfg.Order.VocabularyFile != "" {
		v, err := vocabulary.Load(cfg.Order.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		vocab = v
		logger.Info("vocabulary.loaded", "path", cfg.Order.VocabularyFile, "synonyms", len(v.Synonyms))
	}

	shutdownTracing, err := tracing.Setup(cfg.Tracing, logOut)
	if err != nil {
		return nil, err
	}

	m := metrics.Default()
	proc := pipeline.NewProcessor(
		logger,
		newExtractor(ctx, cfg, logger),
		postprocess.NewMerger(vocab),
		order.New(),
		m,
		pipeline.Options{
			UseModel:     cfg.LLM.Enabled,
			ModelTimeout: cfg.LLM.Timeout,
			Confidence:   cfg.Order.Confidence,
			Debug:        cfg.LLM.Debug,
		},
	)
	return &app{cfg: cfg, logger: logger, metrics: m, proc: proc, tracing: shutdownTracing}, nil
}

// newExtractor returns nil when the configured provider cannot be reached;
// the pipeline then always uses the local heuristic.
func newExtractor(ctx context.Context, cfg *common.Config, logger *slog.Logger) llm.DraftExtractor {
	switch cfg.LLM.Provider {
	case common.ProviderOpenAI:
		if cfg.LLM.OpenAIAPIKey == "" {
			logger.Warn("llm.openai.unconfigured", "hint", "set OPENAI_API_KEY")
			return nil
		}
		model := cfg.LLM.Model
		if strings.HasPrefix(model, "gemini") {
			model = "" // client default
		}
		return openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.OpenAIAPIKey,
			BaseURL:     cfg.LLM.OpenAIBaseURL,
			Model:       model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxOutputTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	default:
		c, err := gemini.NewClient(ctx, gemini.Config{
			Project:         cfg.LLM.Project,
			Region:          cfg.LLM.Region,
			APIKey:          cfg.LLM.GeminiAPIKey,
			Model:           cfg.LLM.Model,
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		}, logger)
		if err != nil {
			logger.Warn("llm.gemini.unavailable", "error", err)
			return nil
		}
		return c
	}
}
