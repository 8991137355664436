package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/metrics"
	"github.com/joseph-ayodele/order-interpreter/internal/order"
	"github.com/joseph-ayodele/order-interpreter/internal/pipeline"
	"github.com/joseph-ayodele/order-interpreter/internal/postprocess"
	"github.com/joseph-ayodele/order-interpreter/internal/vocabulary"
)

const sampleText = "Necesito 3 buñuelos para mañana antes de las 3pm en la Calle 10 #5-20, barrio Chapinero. Es frágil."

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestProcessor(t *testing.T) (*pipeline.Processor, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	clock := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }
	p := pipeline.NewProcessor(
		quietLogger(),
		nil,
		postprocess.NewMerger(vocabulary.Default()),
		order.New(order.WithClock(clock)),
		metrics.New(reg),
		pipeline.Options{},
	)
	return p, reg
}

type brokenInterpreter struct{}

func (brokenInterpreter) Interpret(context.Context, pipeline.Request) (*entity.Order, error) {
	return nil, errors.New("disk on fire")
}
