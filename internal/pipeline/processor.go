// Package pipeline runs one order text through the draft, merge and assembly
// stages.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/order-interpreter/constants"
	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/llm"
	"github.com/joseph-ayodele/order-interpreter/internal/metrics"
	"github.com/joseph-ayodele/order-interpreter/internal/order"
	"github.com/joseph-ayodele/order-interpreter/internal/postprocess"
)

// MaxTextLength bounds texto_libre, counted in runes.
const MaxTextLength = 5000

// Request is one interpretation call.
type Request struct {
	Text     string
	Channel  string
	UseModel *bool
}

// Options tune the processor. Zero values fall back to the defaults noted.
type Options struct {
	UseModel     bool
	ModelTimeout time.Duration
	Confidence   float64 // order.DefaultConfidence when zero
	Debug        bool

	// TracerProvider defaults to the otel global provider.
	TracerProvider trace.TracerProvider
}

const tracerName = "github.com/joseph-ayodele/order-interpreter/internal/pipeline"

// Processor coordinates the model draft, fallback, merge and assembly.
// It holds no per-call state and is safe for concurrent use.
type Processor struct {
	Logger    *slog.Logger
	Extractor llm.DraftExtractor // nil disables the model stage
	Merger    *postprocess.Merger
	Assembler *order.Assembler
	Metrics   *metrics.Metrics
	opts      Options
	tracer    trace.Tracer
}

func NewProcessor(logger *slog.Logger, extractor llm.DraftExtractor, merger *postprocess.Merger, assembler *order.Assembler, m *metrics.Metrics, opts Options) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if assembler == nil {
		assembler = order.New()
	}
	if opts.Confidence == 0 {
		opts.Confidence = order.DefaultConfidence
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Processor{
		Logger:    logger,
		Extractor: extractor,
		Merger:    merger,
		Assembler: assembler,
		Metrics:   m,
		opts:      opts,
		tracer:    tp.Tracer(tracerName),
	}
}

// Validate checks a request before any stage runs.
func (r Request) Validate() (constants.Channel, error) {
	if common.Required("texto_libre", r.Text) != nil {
		return "", common.ErrEmptyText
	}
	if err := common.NewValidator().Field("texto_libre", r.Text, common.MaxLength(MaxTextLength)).Error(); err != nil {
		return "", err
	}
	ch, ok := constants.Canonicalize(r.Channel)
	canal := string(ch)
	if !ok {
		canal = r.Channel
	}
	if v := common.NewValidator().Field("canal", canal, common.OneOf(constants.AsStringSlice()...)); v.HasErrors() {
		return "", common.NewAppError("INVALID_CHANNEL", v.ErrorMessage(), common.ErrInvalidInput)
	}
	return ch, nil
}

// Interpret turns a free-text order into the final record. Only invalid
// requests fail; model problems degrade to the local heuristic.
func (p *Processor) Interpret(ctx context.Context, req Request) (*entity.Order, error) {
	ctx, span := p.tracer.Start(ctx, "interpretar_pedido")
	defer span.End()

	start := time.Now()
	channel, err := req.Validate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "invalid request")
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	reqID := common.RequestIDFromContext(ctx)
	p.Logger.Info("pipeline.interpret.start", "req_id", reqID, "canal", channel, "chars", len([]rune(text)))

	now := p.Assembler.Now()
	draft, source := p.draft(ctx, text, p.useModel(req))
	if draft == nil {
		draft = p.Merger.Fallback(text)
	}
	interp := p.Merger.MergeAt(draft, text, now)
	out := p.Assembler.AssembleAt(text, channel, interp, p.opts.Confidence, now)

	span.SetAttributes(
		attribute.String("pedido.id", out.OrderID),
		attribute.String("pedido.canal", string(channel)),
		attribute.String("pedido.source", string(source)),
		attribute.Int("pedido.items", len(interp.Details.Items)),
	)
	p.observe(source, interp, time.Since(start))
	p.Logger.Info("pipeline.interpret.ok",
		"req_id", reqID,
		"pedido_id", out.OrderID,
		"source", source,
		"items", len(interp.Details.Items),
		"warnings", len(interp.Validation.Warnings),
	)
	return out, nil
}

func (p *Processor) useModel(req Request) bool {
	if req.UseModel != nil {
		return *req.UseModel
	}
	return p.opts.UseModel
}

// draft asks the model when enabled. A nil draft means the caller falls back.
func (p *Processor) draft(ctx context.Context, text string, useModel bool) (*entity.Interpretation, constants.Source) {
	if !useModel {
		return nil, constants.SourceFallback
	}
	reqID := common.RequestIDFromContext(ctx)
	if p.Extractor == nil {
		p.Logger.Warn("pipeline.model.unavailable", "req_id", reqID)
		p.failed()
		return nil, constants.SourceFallback
	}

	mctx, span := p.tracer.Start(ctx, "pipeline.model.draft")
	defer span.End()
	mctx, cancel := common.WithTimeout(mctx, p.opts.ModelTimeout)
	defer cancel()
	d, raw, err := p.Extractor.ExtractDraft(mctx, text)
	if p.opts.Debug && len(raw) > 0 {
		p.Logger.Debug("pipeline.model.raw", "req_id", reqID, "raw", llm.Truncate(string(raw), 4000))
	}
	if err != nil {
		attrs := []any{"req_id", reqID, "error", err}
		if errors.Is(err, context.DeadlineExceeded) {
			attrs = append(attrs, "timeout", p.opts.ModelTimeout)
		}
		p.Logger.Warn("pipeline.model.failed", attrs...)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "model draft failed")
		p.failed()
		return nil, constants.SourceFallback
	}
	if d == nil || d.Details.IsEmpty() {
		p.Logger.Warn("pipeline.model.empty_draft", "req_id", reqID)
		p.failed()
		return nil, constants.SourceFallback
	}
	return d, constants.SourceModel
}

func (p *Processor) failed() {
	if p.Metrics != nil {
		p.Metrics.ModelFailures.Inc()
	}
}

func (p *Processor) observe(source constants.Source, interp *entity.Interpretation, took time.Duration) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.Interpretations.WithLabelValues(string(source)).Inc()
	p.Metrics.Duration.Observe(took.Seconds())
	rf := interp.Validation.RequiredFields
	if rf == nil {
		return
	}
	for field, ok := range map[string]bool{
		"direccion_entrega": rf.DeliveryAddress,
		"ventana_entrega":   rf.DeliveryWindow,
		"items":             rf.Items,
	} {
		if !ok {
			p.Metrics.MissingFields.WithLabelValues(field).Inc()
		}
	}
}
