package postprocess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/vocabulary"
)

const e2eText = "Necesito 3 buñuelos para mañana antes de las 3pm en la Calle 10 #5-20, barrio Chapinero. Es frágil."

func refNow() time.Time {
	return time.Date(2024, 1, 1, 8, 0, 0, 0, time.FixedZone("COT", -5*3600))
}

func newMerger() *Merger { return NewMerger(vocabulary.Default()) }

func TestEndToEnd_NoDraft(t *testing.T) {
	m := newMerger()

	out := m.MergeAt(m.Fallback(e2eText), e2eText, refNow())

	require.Len(t, out.Details.Items, 1)
	it := out.Details.Items[0]
	assert.Equal(t, "buñuelos", *it.DetectedName)
	assert.Equal(t, "buñuelos", *it.NormalizedName)
	assert.Equal(t, 3, *it.Quantity)
	assert.Equal(t, "unidad", *it.Unit)
	assert.InDelta(t, 0.9, *it.Confidence, 1e-9)
	assert.Nil(t, it.SKU)

	r := out.Details.Restrictions
	assert.True(t, *r.Fragile)
	assert.False(t, *r.TemperatureControlled)
	assert.False(t, *r.RestrictedAccess)
	assert.Equal(t, []string{NoteFragile}, r.Notes)

	a := out.Details.DeliveryAddress
	assert.Equal(t, "Calle 10 #5-20", *a.Text)
	assert.Equal(t, "Chapinero", *a.Neighborhood)
	assert.InDelta(t, 0.8, *a.Confidence, 1e-9)
	assert.Nil(t, a.Lat)
	assert.Nil(t, a.Lng)

	w := out.Details.DeliveryWindow
	assert.Equal(t, "2024-01-02T00:00:00-05:00", *w.StartISO)
	assert.Equal(t, "2024-01-02T15:00:00-05:00", *w.EndISO)
	assert.Equal(t, "antes de las 3pm", *w.Expression)
	assert.InDelta(t, 0.85, *w.Confidence, 1e-9)

	assert.Equal(t, entity.RequiredFields{DeliveryAddress: true, DeliveryWindow: true, Items: true}, *out.Validation.RequiredFields)
	assert.Equal(t, []string{WarningNoSKU, WarningNoCoordinates}, out.Validation.Warnings)
	assert.Equal(t, []string{}, out.Validation.Ambiguities)
	assert.Equal(t, DefaultAction, out.Action)
	require.NotNil(t, out.Normalization)
	assert.Contains(t, out.Normalization.SynonymDictionary, "buñuelos")
}

func TestMerge_NeverOverwritesAddressText(t *testing.T) {
	draft := &entity.Interpretation{Details: entity.Details{
		DeliveryAddress: &entity.DeliveryAddress{Text: entity.Ptr("Carrera 15 #80-20")},
	}}

	out := newMerger().MergeAt(draft, "entregar en la Calle 10 #5-20 barrio suba", refNow())

	assert.Equal(t, "Carrera 15 #80-20", *out.Details.DeliveryAddress.Text)
	assert.Equal(t, "Suba", *out.Details.DeliveryAddress.Neighborhood)
}

func TestMerge_DoesNotMutateDraft(t *testing.T) {
	draft := &entity.Interpretation{Details: entity.Details{
		Items: []entity.Item{{DetectedName: entity.Ptr("bunuelos"), SKU: entity.Ptr("SKU-1")}},
	}}

	out := newMerger().MergeAt(draft, "hola", refNow())

	assert.Nil(t, draft.Details.Customer)
	assert.Nil(t, draft.Details.Items[0].NormalizedName)
	assert.Equal(t, "SKU-1", *draft.Details.Items[0].SKU)
	assert.Nil(t, out.Details.Items[0].SKU)
	assert.Equal(t, "buñuelos", *out.Details.Items[0].NormalizedName)
}

func TestMerge_FillsOnlyAbsentFields(t *testing.T) {
	draft := &entity.Interpretation{
		Action: "otra_accion",
		Details: entity.Details{
			Customer: &entity.Customer{Phone: entity.Ptr("3200000000"), Email: entity.Ptr("")},
			DeliveryAddress: &entity.DeliveryAddress{
				City:       entity.Ptr("Medellín"),
				Confidence: entity.Ptr(0.3),
				Lat:        entity.Ptr(4.6),
				Lng:        entity.Ptr(-74.1),
			},
			DeliveryWindow: &entity.DeliveryWindow{Expression: entity.Ptr("mañana temprano")},
		},
	}

	text := "cel 3001234567, correo ana@pan.co, Bogotá, mañana a las 9am"
	out := newMerger().MergeAt(draft, text, refNow())

	c := out.Details.Customer
	assert.Equal(t, "3200000000", *c.Phone)
	assert.Equal(t, "ana@pan.co", *c.Email)
	assert.Nil(t, c.Name)

	a := out.Details.DeliveryAddress
	assert.Equal(t, "Medellín", *a.City)
	assert.Nil(t, a.Text)
	assert.InDelta(t, 0.3, *a.Confidence, 1e-9)
	assert.Nil(t, a.Lat)
	assert.Nil(t, a.Lng)

	w := out.Details.DeliveryWindow
	assert.Equal(t, "2024-01-02T09:00:00-05:00", *w.StartISO)
	assert.Equal(t, "2024-01-02T10:30:00-05:00", *w.EndISO)
	assert.Equal(t, "mañana temprano", *w.Expression)

	assert.Equal(t, "otra_accion", out.Action)
	assert.False(t, out.Validation.RequiredFields.DeliveryAddress)
	assert.True(t, out.Validation.RequiredFields.DeliveryWindow)
	assert.False(t, out.Validation.RequiredFields.Items)
}

func TestMerge_WindowPartialDraftIsKept(t *testing.T) {
	draft := &entity.Interpretation{Details: entity.Details{
		DeliveryWindow: &entity.DeliveryWindow{StartISO: entity.Ptr("2024-01-05T10:00:00-05:00")},
	}}

	out := newMerger().MergeAt(draft, "mañana antes de las 3pm", refNow())

	w := out.Details.DeliveryWindow
	assert.Equal(t, "2024-01-05T10:00:00-05:00", *w.StartISO)
	assert.Nil(t, w.EndISO)
	assert.Nil(t, w.Expression)
	assert.InDelta(t, 0.5, *w.Confidence, 1e-9)
	assert.False(t, out.Validation.RequiredFields.DeliveryWindow)
}

func TestMerge_NothingFound(t *testing.T) {
	out := newMerger().MergeAt(nil, "hola, buenas", refNow())

	require.NotNil(t, out)
	assert.Nil(t, out.Details.Customer.Phone)
	assert.Nil(t, out.Details.Customer.Email)
	assert.Nil(t, out.Details.DeliveryAddress.Text)
	assert.InDelta(t, 0.4, *out.Details.DeliveryAddress.Confidence, 1e-9)
	assert.Nil(t, out.Details.DeliveryWindow.StartISO)
	assert.InDelta(t, 0.5, *out.Details.DeliveryWindow.Confidence, 1e-9)
	assert.Equal(t, []entity.Item{}, out.Details.Items)
	assert.Equal(t, []string{}, out.Details.Restrictions.Notes)
	assert.Equal(t, entity.RequiredFields{}, *out.Validation.RequiredFields)
	assert.Equal(t, []string{WarningNoSKU, WarningNoCoordinates}, out.Validation.Warnings)
}

func TestMerge_RestrictionsFollowText(t *testing.T) {
	draft := &entity.Interpretation{Details: entity.Details{
		Restrictions: &entity.Restrictions{
			Fragile:               entity.Ptr(true),
			TemperatureControlled: entity.Ptr(true),
			Notes:                 []string{"Tocar timbre"},
		},
	}}

	out := newMerger().MergeAt(draft, "dejar en portería", refNow())

	r := out.Details.Restrictions
	assert.False(t, *r.Fragile)
	assert.False(t, *r.TemperatureControlled)
	assert.True(t, *r.RestrictedAccess)
	assert.Equal(t, []string{"Tocar timbre"}, r.Notes)
}

func TestMerge_FragileNoteOnce(t *testing.T) {
	m := newMerger()
	text := "frágil, muy frágil, FRÁGIL"
	draft := &entity.Interpretation{Details: entity.Details{
		Restrictions: &entity.Restrictions{Notes: []string{NoteFragile}},
	}}

	out := m.MergeAt(draft, text, refNow())
	again := m.MergeAt(out, text, refNow())

	assert.Equal(t, []string{NoteFragile}, out.Details.Restrictions.Notes)
	assert.Equal(t, []string{NoteFragile}, again.Details.Restrictions.Notes)
}

func TestMerge_WarningsDeduplicated(t *testing.T) {
	draft := &entity.Interpretation{Validation: entity.Validation{
		Warnings: []string{"Revisar cantidad", WarningNoCoordinates, "Revisar cantidad", WarningNoSKU},
	}}

	out := newMerger().MergeAt(draft, "hola", refNow())

	assert.Equal(t, []string{"Revisar cantidad", WarningNoCoordinates, WarningNoSKU}, out.Validation.Warnings)
}

func TestMerge_ItemDefaults(t *testing.T) {
	draft := &entity.Interpretation{Details: entity.Details{Items: []entity.Item{
		{NormalizedName: entity.Ptr("Arepa"), Quantity: entity.Ptr(2), WeightKg: entity.Ptr(1.5)},
		{DetectedName: entity.Ptr("pan de queso"), Unit: entity.Ptr("docena"), Confidence: entity.Ptr(0.6)},
		{Quantity: entity.Ptr(1)},
	}}}

	out := newMerger().MergeAt(draft, "", refNow())

	items := out.Details.Items
	require.Len(t, items, 3)
	assert.Equal(t, "arepas de maíz", *items[0].NormalizedName)
	assert.Equal(t, "unidad", *items[0].Unit)
	assert.Nil(t, items[0].WeightKg)
	assert.InDelta(t, 0.8, *items[0].Confidence, 1e-9)

	assert.Equal(t, "Pan de queso", *items[1].NormalizedName)
	assert.Equal(t, "docena", *items[1].Unit)
	assert.InDelta(t, 0.6, *items[1].Confidence, 1e-9)

	assert.Nil(t, items[2].NormalizedName)
	assert.True(t, out.Validation.RequiredFields.Items)
}

func TestFallback(t *testing.T) {
	m := newMerger()

	d := m.Fallback("Quiero 3 buñuelos y 2 arepas de maiz, 4 panes. Gracias")
	require.Len(t, d.Details.Items, 2)
	assert.Equal(t, "buñuelos", *d.Details.Items[0].DetectedName)
	assert.Equal(t, "Buñuelos", *d.Details.Items[0].NormalizedName)
	assert.Equal(t, 3, *d.Details.Items[0].Quantity)
	assert.Equal(t, "arepas de maíz", *d.Details.Items[1].DetectedName)
	assert.Equal(t, 2, *d.Details.Items[1].Quantity)
	assert.False(t, *d.Details.Restrictions.Fragile)
	assert.Empty(t, d.Details.Restrictions.Notes)

	d = m.Fallback("sin cantidades, pero frágil")
	assert.Empty(t, d.Details.Items)
	assert.True(t, *d.Details.Restrictions.Fragile)
	assert.Equal(t, []string{NoteFragile}, d.Details.Restrictions.Notes)

	d = m.Fallback("0 buñuelos")
	assert.Empty(t, d.Details.Items)
}
