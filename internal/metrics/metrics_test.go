package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Interpretations.WithLabelValues("fallback").Inc()
	m.ModelFailures.Inc()
	m.MissingFields.WithLabelValues("items").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Interpretations.WithLabelValues("fallback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MissingFields.WithLabelValues("items")))

	n, err := testutil.GatherAndCount(reg, "pedidos_model_failures_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDefault_IsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
