// Package postprocess completes a draft interpretation from the raw order
// text: missing fields are filled by the extractors, restrictions and
// validations are recomputed, and items are normalized.
package postprocess

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/joseph-ayodele/order-interpreter/constants"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/extract"
	"github.com/joseph-ayodele/order-interpreter/internal/timewindow"
	"github.com/joseph-ayodele/order-interpreter/internal/vocabulary"
)

const (
	DefaultAction = "extraccion_pedido"
	NoteFragile   = "Empacar frágil"

	WarningNoSKU         = "No se detectó SKU para los items; se requiere mapeo en la fase de coordinación."
	WarningNoCoordinates = "No hay coordenadas (lat/lng); se recomienda geocodificación en la fase de coordinación."
)

// Confidence defaults for fields the draft left without one.
const (
	AddressFoundConfidence   = 0.80
	AddressMissingConfidence = 0.40
	WindowFoundConfidence    = 0.85
	WindowPartialConfidence  = 0.5
	ItemConfidence           = 0.80
	FallbackItemConfidence   = 0.9
)

// Merger is safe for concurrent use.
type Merger struct {
	vocab  *vocabulary.Vocabulary
	parser *extract.Parser
}

func NewMerger(v *vocabulary.Vocabulary) *Merger {
	return &Merger{vocab: v, parser: extract.NewParser(v)}
}

// Merge completes draft from text with the current time as reference.
func (m *Merger) Merge(draft *entity.Interpretation, text string) *entity.Interpretation {
	return m.MergeAt(draft, text, time.Now())
}

// MergeAt returns a completed copy of draft; draft itself is not modified.
// A present non-empty value is never overwritten, except restriction flags
// and validations, which always follow the text.
func (m *Merger) MergeAt(draft *entity.Interpretation, text string, now time.Time) *entity.Interpretation {
	out := draft.Clone()
	if out == nil {
		out = &entity.Interpretation{}
	}
	if blank(&out.Action) {
		out.Action = DefaultAction
	}

	d := &out.Details
	m.fillCustomer(d, text)
	m.fillAddress(d, text)
	m.fillWindow(d, text, now)
	m.normalizeItems(d)
	m.recomputeRestrictions(d, text)
	computeValidation(out)

	if out.Normalization == nil {
		out.Normalization = &entity.Normalization{
			SynonymDictionary: m.vocab.Dictionary(),
			TimeRules:         m.vocab.TimeRules,
			UnitPolicy:        m.vocab.UnitPolicy,
		}
	}
	return out
}

func (m *Merger) fillCustomer(d *entity.Details, text string) {
	if d.Customer == nil {
		d.Customer = &entity.Customer{}
	}
	c := d.Customer
	if blank(c.Phone) {
		c.Phone = extract.Phone(text)
	}
	if blank(c.Email) {
		c.Email = extract.Email(text)
	}
}

func (m *Merger) fillAddress(d *entity.Details, text string) {
	if d.DeliveryAddress == nil {
		d.DeliveryAddress = &entity.DeliveryAddress{}
	}
	a := d.DeliveryAddress
	found := m.parser.Address(text)
	fill(&a.Text, found.Text)
	fill(&a.City, found.City)
	fill(&a.Neighborhood, found.Neighborhood)
	fill(&a.Observations, found.Observations)
	if a.Confidence == nil {
		conf := AddressMissingConfidence
		if !blank(a.Text) {
			conf = AddressFoundConfidence
		}
		a.Confidence = &conf
	}
	// coordinates belong to geocoding
	a.Lat, a.Lng = nil, nil
}

func (m *Merger) fillWindow(d *entity.Details, text string, now time.Time) {
	if d.DeliveryWindow == nil {
		d.DeliveryWindow = &entity.DeliveryWindow{}
	}
	w := d.DeliveryWindow
	if blank(w.StartISO) && blank(w.EndISO) {
		if found, ok := timewindow.Resolve(text, now); ok {
			w.StartISO = entity.Ptr(found.StartISO())
			w.EndISO = entity.Ptr(found.EndISO())
			if blank(w.Expression) {
				w.Expression = entity.Ptr(found.Expression)
			}
		}
	}
	if w.Confidence == nil {
		conf := WindowPartialConfidence
		if !blank(w.StartISO) && !blank(w.EndISO) {
			conf = WindowFoundConfidence
		}
		w.Confidence = &conf
	}
}

func (m *Merger) normalizeItems(d *entity.Details) {
	if d.Items == nil {
		d.Items = []entity.Item{}
	}
	for i := range d.Items {
		it := &d.Items[i]
		name := it.DetectedName
		if blank(name) {
			name = it.NormalizedName
		}
		if name != nil {
			it.NormalizedName = entity.Ptr(m.vocab.Normalize(*name))
		}
		if blank(it.Unit) {
			it.Unit = entity.Ptr(constants.DefaultUnit)
		}
		// catalog data is resolved downstream
		it.SKU, it.WeightKg, it.VolumeM3 = nil, nil, nil
		if it.Confidence == nil {
			it.Confidence = entity.Ptr(ItemConfidence)
		}
	}
}

func (m *Merger) recomputeRestrictions(d *entity.Details, text string) {
	if d.Restrictions == nil {
		d.Restrictions = &entity.Restrictions{}
	}
	r := d.Restrictions
	flags := m.parser.Restrictions(text)
	r.Fragile = entity.Ptr(flags.Fragile)
	r.TemperatureControlled = entity.Ptr(flags.TemperatureControlled)
	r.RestrictedAccess = entity.Ptr(flags.RestrictedAccess)
	if r.Notes == nil {
		r.Notes = []string{}
	}
	if flags.Fragile && !lo.Contains(r.Notes, NoteFragile) {
		r.Notes = append(r.Notes, NoteFragile)
	}
}

func computeValidation(in *entity.Interpretation) {
	d := in.Details
	v := &in.Validation
	v.RequiredFields = &entity.RequiredFields{
		DeliveryAddress: d.DeliveryAddress != nil && !blank(d.DeliveryAddress.Text),
		DeliveryWindow:  d.DeliveryWindow != nil && !blank(d.DeliveryWindow.StartISO) && !blank(d.DeliveryWindow.EndISO),
		Items:           len(d.Items) > 0,
	}

	warnings := append([]string{}, v.Warnings...)
	warnings = append(warnings, WarningNoSKU)
	if d.DeliveryAddress == nil || d.DeliveryAddress.Lat == nil || d.DeliveryAddress.Lng == nil {
		warnings = append(warnings, WarningNoCoordinates)
	}
	v.Warnings = lo.Uniq(warnings)

	if v.Ambiguities == nil {
		v.Ambiguities = []string{}
	}
}

// blank treats nil and whitespace-only values as absent.
func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func fill(dst **string, found *string) {
	if blank(*dst) && found != nil {
		*dst = found
	}
}
