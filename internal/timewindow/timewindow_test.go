package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refNow(t *testing.T) time.Time {
	t.Helper()
	now, err := time.Parse(time.RFC3339, "2024-01-01T08:00:00-05:00")
	require.NoError(t, err)
	return now
}

func TestResolve(t *testing.T) {
	now := refNow(t)

	tests := []struct {
		name       string
		text       string
		start, end string
		expr       string
	}{
		{"before pm", "mañana antes de las 3 pm", "2024-01-02T00:00:00-05:00", "2024-01-02T15:00:00-05:00", "antes de las 3 pm"},
		{"before glued pm", "Para MAÑANA antes de las 3pm", "2024-01-02T00:00:00-05:00", "2024-01-02T15:00:00-05:00", "antes de las 3pm"},
		{"before minutes", "hoy antes de las 11:30 am", "2024-01-01T00:00:00-05:00", "2024-01-01T11:30:00-05:00", "antes de las 11:30 am"},
		{"between inherits pm", "hoy entre 2 y 4 pm", "2024-01-01T14:00:00-05:00", "2024-01-01T16:00:00-05:00", "entre 2 y 4 pm"},
		{"between both marked", "mañana entre 10am y 1pm", "2024-01-02T10:00:00-05:00", "2024-01-02T13:00:00-05:00", "entre 10am y 1pm"},
		{"between keeps morning start", "hoy entre 10 y 2 pm", "2024-01-01T10:00:00-05:00", "2024-01-01T14:00:00-05:00", "entre 10 y 2 pm"},
		{"between unmarked", "hoy entre 9 y 11", "2024-01-01T09:00:00-05:00", "2024-01-01T11:00:00-05:00", "entre 9 y 11"},
		{"at adds 90 minutes", "pasado mañana a las 4:15 pm", "2024-01-03T16:15:00-05:00", "2024-01-03T17:45:00-05:00", "a las 4:15 pm"},
		{"at unmarked is literal", "hoy a las 3", "2024-01-01T03:00:00-05:00", "2024-01-01T04:30:00-05:00", "a las 3"},
		{"para las", "mañana para las 5pm", "2024-01-02T17:00:00-05:00", "2024-01-02T18:30:00-05:00", "a las 5pm"},
		{"bare mañana", "lo necesito mañana", "2024-01-02T00:00:00-05:00", "2024-01-02T15:00:00-05:00", "mañana"},
		{"bare pasado mañana", "pasado mañana", "2024-01-03T00:00:00-05:00", "2024-01-03T15:00:00-05:00", "mañana"},
		{"before wins over between", "mañana antes de las 5pm o entre 1 y 2", "2024-01-02T00:00:00-05:00", "2024-01-02T17:00:00-05:00", "antes de las 5pm"},
		{"bad hour falls through", "mañana antes de las 35 a las 9", "2024-01-02T09:00:00-05:00", "2024-01-02T10:30:00-05:00", "a las 9"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, ok := Resolve(tc.text, now)
			require.True(t, ok)
			assert.Equal(t, tc.start, w.StartISO())
			assert.Equal(t, tc.end, w.EndISO())
			assert.Equal(t, tc.expr, w.Expression)
		})
	}
}

func TestResolve_NoDay(t *testing.T) {
	now := refNow(t)
	for _, text := range []string{"en un rato", "a las 3 pm", "entre 2 y 4 pm", ""} {
		w, ok := Resolve(text, now)
		assert.False(t, ok, text)
		assert.Equal(t, Window{}, w)
	}
}

func TestResolve_HoyWithoutTime(t *testing.T) {
	_, ok := Resolve("hoy si se puede", refNow(t))
	assert.False(t, ok)
}

func TestResolve_ConvertsNowToFixedZone(t *testing.T) {
	// 03:00 UTC on Jan 2 is still Jan 1 in Bogotá
	now := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	w, ok := Resolve("mañana", now)
	require.True(t, ok)
	assert.Equal(t, "2024-01-02T00:00:00-05:00", w.StartISO())
}

func TestResolve_MonthRollover(t *testing.T) {
	now := time.Date(2024, 2, 28, 20, 0, 0, 0, Location())
	w, ok := Resolve("pasado mañana a las 8am", now)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01T08:00:00-05:00", w.StartISO())
}

func TestLocation(t *testing.T) {
	_, offset := time.Date(2024, 7, 1, 0, 0, 0, 0, Location()).Zone()
	assert.Equal(t, -5*3600, offset)
	assert.Equal(t, "America/Bogota", Location().String())
}
