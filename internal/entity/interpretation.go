package entity

import "slices"

// Interpretation is the structured reading of a free-text order (the
// "interpretacion_IA" object). The JSON keys are shared with the LLM prompt and
// with downstream planning, so they must not change.
//
// Every leaf is optional: nil means "not known yet" and encodes as JSON null.
// A nil leaf is different from a present empty value.
type Interpretation struct {
	Action        string         `json:"accion"`
	Details       Details        `json:"detalles"`
	Normalization *Normalization `json:"normalizacion"`
	Validation    Validation     `json:"validaciones"`
}

// Details groups everything read from the order itself.
type Details struct {
	Customer        *Customer        `json:"cliente"`
	DeliveryAddress *DeliveryAddress `json:"direccion_entrega"`
	DeliveryWindow  *DeliveryWindow  `json:"ventana_entrega"`
	Items           []Item           `json:"items"`
	Restrictions    *Restrictions    `json:"restricciones"`
}

// IsEmpty reports whether no group of d carries anything.
func (d Details) IsEmpty() bool {
	return d.Customer == nil && d.DeliveryAddress == nil && d.DeliveryWindow == nil &&
		len(d.Items) == 0 && d.Restrictions == nil
}

type Customer struct {
	Name  *string `json:"nombre"`
	Phone *string `json:"telefono"`
	Email *string `json:"email"`
}

// DeliveryAddress holds the address as written. Lat/Lng stay nil until a
// geocoding phase resolves them.
type DeliveryAddress struct {
	Text         *string  `json:"texto"`
	City         *string  `json:"ciudad"`
	Neighborhood *string  `json:"barrio"`
	Observations *string  `json:"observaciones_entrega"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Confidence   *float64 `json:"nivel_confianza"`
}

// DeliveryWindow bounds are ISO-8601 timestamps with offset.
type DeliveryWindow struct {
	StartISO   *string  `json:"inicio_iso"`
	EndISO     *string  `json:"fin_iso"`
	Expression *string  `json:"expresion_detectada"`
	Confidence *float64 `json:"nivel_confianza"`
}

// Item is one ordered product. SKU, weight and volume are resolved downstream.
type Item struct {
	SKU            *string  `json:"sku"`
	DetectedName   *string  `json:"nombre_detectado"`
	NormalizedName *string  `json:"nombre_normalizado"`
	Quantity       *int     `json:"cantidad"`
	Unit           *string  `json:"unidad"`
	WeightKg       *float64 `json:"peso_kg"`
	VolumeM3       *float64 `json:"volumen_m3"`
	Confidence     *float64 `json:"nivel_confianza"`
}

type Restrictions struct {
	Fragile               *bool    `json:"manejo_fragil"`
	TemperatureControlled *bool    `json:"temperatura_controlada"`
	RestrictedAccess      *bool    `json:"acceso_restringido"`
	Notes                 []string `json:"notas"`
}

// Normalization documents the rules applied to the draft.
type Normalization struct {
	SynonymDictionary map[string][]string `json:"diccionario_sinonimos"`
	TimeRules         string              `json:"reglas_tiempo"`
	UnitPolicy        string              `json:"politica_unidades"`
}

type Validation struct {
	RequiredFields *RequiredFields `json:"campos_obligatorios"`
	Warnings       []string        `json:"advertencias"`
	Ambiguities    []string        `json:"ambiguedades"`
}

// RequiredFields reports whether each mandatory field is present.
type RequiredFields struct {
	DeliveryAddress bool `json:"direccion_entrega"`
	DeliveryWindow  bool `json:"ventana_entrega"`
	Items           bool `json:"items"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of in. A nil receiver yields nil.
func (in *Interpretation) Clone() *Interpretation {
	if in == nil {
		return nil
	}
	out := &Interpretation{
		Action: in.Action,
		Details: Details{
			Customer:        in.Details.Customer.clone(),
			DeliveryAddress: in.Details.DeliveryAddress.clone(),
			DeliveryWindow:  in.Details.DeliveryWindow.clone(),
			Restrictions:    in.Details.Restrictions.clone(),
		},
		Normalization: in.Normalization.clone(),
		Validation: Validation{
			RequiredFields: clonePtr(in.Validation.RequiredFields),
			Warnings:       slices.Clone(in.Validation.Warnings),
			Ambiguities:    slices.Clone(in.Validation.Ambiguities),
		},
	}
	if in.Details.Items != nil {
		out.Details.Items = make([]Item, len(in.Details.Items))
		for i, it := range in.Details.Items {
			out.Details.Items[i] = it.clone()
		}
	}
	return out
}

func (c *Customer) clone() *Customer {
	if c == nil {
		return nil
	}
	return &Customer{Name: clonePtr(c.Name), Phone: clonePtr(c.Phone), Email: clonePtr(c.Email)}
}

func (a *DeliveryAddress) clone() *DeliveryAddress {
	if a == nil {
		return nil
	}
	return &DeliveryAddress{
		Text:         clonePtr(a.Text),
		City:         clonePtr(a.City),
		Neighborhood: clonePtr(a.Neighborhood),
		Observations: clonePtr(a.Observations),
		Lat:          clonePtr(a.Lat),
		Lng:          clonePtr(a.Lng),
		Confidence:   clonePtr(a.Confidence),
	}
}

func (w *DeliveryWindow) clone() *DeliveryWindow {
	if w == nil {
		return nil
	}
	return &DeliveryWindow{
		StartISO:   clonePtr(w.StartISO),
		EndISO:     clonePtr(w.EndISO),
		Expression: clonePtr(w.Expression),
		Confidence: clonePtr(w.Confidence),
	}
}

func (it Item) clone() Item {
	return Item{
		SKU:            clonePtr(it.SKU),
		DetectedName:   clonePtr(it.DetectedName),
		NormalizedName: clonePtr(it.NormalizedName),
		Quantity:       clonePtr(it.Quantity),
		Unit:           clonePtr(it.Unit),
		WeightKg:       clonePtr(it.WeightKg),
		VolumeM3:       clonePtr(it.VolumeM3),
		Confidence:     clonePtr(it.Confidence),
	}
}

func (r *Restrictions) clone() *Restrictions {
	if r == nil {
		return nil
	}
	return &Restrictions{
		Fragile:               clonePtr(r.Fragile),
		TemperatureControlled: clonePtr(r.TemperatureControlled),
		RestrictedAccess:      clonePtr(r.RestrictedAccess),
		Notes:                 slices.Clone(r.Notes),
	}
}

func (n *Normalization) clone() *Normalization {
	if n == nil {
		return nil
	}
	out := &Normalization{TimeRules: n.TimeRules, UnitPolicy: n.UnitPolicy}
	if n.SynonymDictionary != nil {
		out.SynonymDictionary = make(map[string][]string, len(n.SynonymDictionary))
		for k, v := range n.SynonymDictionary {
			out.SynonymDictionary[k] = slices.Clone(v)
		}
	}
	return out
}
