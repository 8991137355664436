package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/llm"
	"github.com/joseph-ayodele/order-interpreter/internal/metrics"
	"github.com/joseph-ayodele/order-interpreter/internal/order"
	"github.com/joseph-ayodele/order-interpreter/internal/postprocess"
	"github.com/joseph-ayodele/order-interpreter/internal/vocabulary"
)

const sampleText = "Necesito 3 buñuelos para mañana antes de las 3pm en la Calle 10 #5-20, barrio Chapinero. Es frágil."

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	draft *entity.Interpretation
	raw   []byte
	err   error
	wait  bool
}

func (f *fakeExtractor) ExtractDraft(ctx context.Context, _ string) (*entity.Interpretation, []byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.wait {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	return f.draft.Clone(), f.raw, f.err
}

func newTestProcessor(t *testing.T, ex *fakeExtractor, opts Options) (*Processor, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	clock := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }
	var extractor llm.DraftExtractor
	if ex != nil {
		extractor = ex
	}
	p := NewProcessor(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		extractor,
		postprocess.NewMerger(vocabulary.Default()),
		order.New(order.WithClock(clock)),
		m,
		opts,
	)
	return p, m
}

func TestInterpret_FallbackEndToEnd(t *testing.T) {
	p, m := newTestProcessor(t, nil, Options{})

	out, err := p.Interpret(context.Background(), Request{Text: "  " + sampleText + "  "})
	require.NoError(t, err)

	assert.Equal(t, sampleText, out.OriginalInput.Text)
	assert.Equal(t, "formulario_web", out.OriginalInput.Channel)
	assert.Equal(t, "2024-01-01T08:00:00-05:00", out.OriginalInput.TimestampISO)
	assert.InDelta(t, order.DefaultConfidence, out.Confidence, 1e-9)

	d := out.Interpretation.Details
	require.Len(t, d.Items, 1)
	assert.Equal(t, "buñuelos", *d.Items[0].NormalizedName)
	assert.Equal(t, 3, *d.Items[0].Quantity)
	assert.Equal(t, "Calle 10 #5-20", *d.DeliveryAddress.Text)
	assert.Equal(t, "2024-01-02T15:00:00-05:00", *d.DeliveryWindow.EndISO)
	assert.True(t, *d.Restrictions.Fragile)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Interpretations.WithLabelValues("fallback")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ModelFailures))
}

func TestInterpret_EmptyText(t *testing.T) {
	p, _ := newTestProcessor(t, nil, Options{})

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := p.Interpret(context.Background(), Request{Text: text})
		assert.ErrorIs(t, err, common.ErrEmptyText)
	}
}

func TestInterpret_RejectsInvalidRequests(t *testing.T) {
	p, _ := newTestProcessor(t, nil, Options{})

	_, err := p.Interpret(context.Background(), Request{Text: "3 panes", Channel: "fax"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_CHANNEL", appErr.Code)
	assert.Contains(t, appErr.Message, "whatsapp")

	_, err = p.Interpret(context.Background(), Request{Text: strings.Repeat("pan ", MaxTextLength)})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestInterpret_ChannelSynonym(t *testing.T) {
	p, _ := newTestProcessor(t, nil, Options{})

	out, err := p.Interpret(context.Background(), Request{Text: "2 panes", Channel: "WhatsApp"})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", out.OriginalInput.Channel)
}

func TestInterpret_UsesModelDraft(t *testing.T) {
	ex := &fakeExtractor{draft: &entity.Interpretation{
		Details: entity.Details{
			Items: []entity.Item{{DetectedName: entity.Ptr("bunuelo"), Quantity: entity.Ptr(12)}},
			DeliveryAddress: &entity.DeliveryAddress{
				Text: entity.Ptr("Carrera 7 # 45-10"),
			},
		},
	}}
	p, m := newTestProcessor(t, ex, Options{UseModel: true})

	out, err := p.Interpret(context.Background(), Request{Text: sampleText})
	require.NoError(t, err)

	d := out.Interpretation.Details
	require.Len(t, d.Items, 1)
	assert.Equal(t, "buñuelos", *d.Items[0].NormalizedName)
	assert.Equal(t, 12, *d.Items[0].Quantity)
	assert.Equal(t, "Carrera 7 # 45-10", *d.DeliveryAddress.Text, "model address is never overwritten")
	assert.Equal(t, "Chapinero", *d.DeliveryAddress.Neighborhood)
	assert.Equal(t, 1, ex.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Interpretations.WithLabelValues("model")))
}

func TestInterpret_RequestOverridesModelSetting(t *testing.T) {
	ex := &fakeExtractor{draft: &entity.Interpretation{}}
	p, _ := newTestProcessor(t, ex, Options{UseModel: true})

	_, err := p.Interpret(context.Background(), Request{Text: sampleText, UseModel: entity.Ptr(false)})
	require.NoError(t, err)
	assert.Zero(t, ex.calls)

	p, _ = newTestProcessor(t, ex, Options{UseModel: false})
	_, err = p.Interpret(context.Background(), Request{Text: sampleText, UseModel: entity.Ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, ex.calls)
}

func TestInterpret_ModelFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		ex   *fakeExtractor
		opts Options
	}{
		{"error", &fakeExtractor{err: errors.New("boom"), raw: []byte("no json")}, Options{UseModel: true, Debug: true}},
		{"malformed", &fakeExtractor{err: common.ErrMalformedDraft}, Options{UseModel: true}},
		{"timeout", &fakeExtractor{wait: true}, Options{UseModel: true, ModelTimeout: 10 * time.Millisecond}},
		{"nil draft", &fakeExtractor{}, Options{UseModel: true}},
		{"empty object", &fakeExtractor{draft: &entity.Interpretation{}, raw: []byte(`{}`)}, Options{UseModel: true}},
		{"empty details", &fakeExtractor{draft: &entity.Interpretation{Details: entity.Details{Items: []entity.Item{}}}}, Options{UseModel: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, m := newTestProcessor(t, tc.ex, tc.opts)

			out, err := p.Interpret(context.Background(), Request{Text: sampleText})
			require.NoError(t, err)
			require.Len(t, out.Interpretation.Details.Items, 1)
			assert.Equal(t, "buñuelos", *out.Interpretation.Details.Items[0].NormalizedName)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelFailures))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Interpretations.WithLabelValues("fallback")))
		})
	}
}

func TestInterpret_CountsMissingFields(t *testing.T) {
	p, m := newTestProcessor(t, nil, Options{})

	_, err := p.Interpret(context.Background(), Request{Text: "hola, quiero hacer un pedido"})
	require.NoError(t, err)

	for _, field := range []string{"direccion_entrega", "ventana_entrega", "items"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.MissingFields.WithLabelValues(field)), field)
	}
}

func TestInterpret_Concurrent(t *testing.T) {
	p, m := newTestProcessor(t, nil, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Interpret(context.Background(), Request{Text: sampleText})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16.0, testutil.ToFloat64(m.Interpretations.WithLabelValues("fallback")))
}

func TestInterpret_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	ex := &fakeExtractor{err: errors.New("boom")}
	p, _ := newTestProcessor(t, ex, Options{UseModel: true, TracerProvider: tp})

	out, err := p.Interpret(context.Background(), Request{Text: sampleText, Channel: "wa"})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	model, root := spans[0], spans[1]
	assert.Equal(t, "pipeline.model.draft", model.Name())
	assert.Equal(t, otelcodes.Error, model.Status().Code)
	assert.Equal(t, root.SpanContext().SpanID(), model.Parent().SpanID())

	assert.Equal(t, "interpretar_pedido", root.Name())
	assert.Contains(t, root.Attributes(), attribute.String("pedido.id", out.OrderID))
	assert.Contains(t, root.Attributes(), attribute.String("pedido.canal", "whatsapp"))
	assert.Contains(t, root.Attributes(), attribute.String("pedido.source", "fallback"))

	_, err = p.Interpret(context.Background(), Request{Text: " "})
	require.Error(t, err)
	spans = sr.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, otelcodes.Error, spans[2].Status().Code)
}
