package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
)

type coerceFunc func(any) (any, bool)

// field describes one key of the draft: either a scalar coercion or a
// nested object (fields), list of objects (itemFields) or a dictionary.
type field struct {
	coerce     coerceFunc
	fields     map[string]field
	itemFields map[string]field
	dict       bool
}

var (
	customerFields = map[string]field{
		"nombre":   {coerce: coerceString},
		"telefono": {coerce: coerceString},
		"email":    {coerce: coerceString},
	}
	addressFields = map[string]field{
		"texto":                 {coerce: coerceString},
		"ciudad":                {coerce: coerceString},
		"barrio":                {coerce: coerceString},
		"observaciones_entrega": {coerce: coerceString},
		"lat":                   {coerce: coerceNumber},
		"lng":                   {coerce: coerceNumber},
		"nivel_confianza":       {coerce: coerceConfidence},
	}
	windowFields = map[string]field{
		"inicio_iso":          {coerce: coerceString},
		"fin_iso":             {coerce: coerceString},
		"expresion_detectada": {coerce: coerceString},
		"nivel_confianza":     {coerce: coerceConfidence},
	}
	itemFields = map[string]field{
		"sku":                {coerce: coerceString},
		"nombre_detectado":   {coerce: coerceString},
		"nombre_normalizado": {coerce: coerceString},
		"cantidad":           {coerce: coerceQuantity},
		"unidad":             {coerce: coerceString},
		"peso_kg":            {coerce: coerceNumber},
		"volumen_m3":         {coerce: coerceNumber},
		"nivel_confianza":    {coerce: coerceConfidence},
	}
	restrictionFields = map[string]field{
		"manejo_fragil":          {coerce: coerceBool},
		"temperatura_controlada": {coerce: coerceBool},
		"acceso_restringido":     {coerce: coerceBool},
		"notas":                  {coerce: coerceStrings},
	}
	detailFields = map[string]field{
		"cliente":           {fields: customerFields},
		"direccion_entrega": {fields: addressFields},
		"ventana_entrega":   {fields: windowFields},
		"items":             {itemFields: itemFields},
		"restricciones":     {fields: restrictionFields},
	}
	draftFields = map[string]field{
		"accion":   {coerce: coerceString},
		"detalles": {fields: detailFields},
		"normalizacion": {fields: map[string]field{
			"diccionario_sinonimos": {dict: true},
			"reglas_tiempo":         {coerce: coerceString},
			"politica_unidades":     {coerce: coerceString},
		}},
		"validaciones": {fields: map[string]field{
			"campos_obligatorios": {fields: map[string]field{
				"direccion_entrega": {coerce: coerceBool},
				"ventana_entrega":   {coerce: coerceBool},
				"items":             {coerce: coerceBool},
			}},
			"advertencias": {coerce: coerceStrings},
			"ambiguedades": {coerce: coerceStrings},
		}},
	}
)

// detailSynonyms are keys models use instead of the schema's.
var detailSynonyms = map[string]string{
	"direccion":   "direccion_entrega",
	"ventana":     "ventana_entrega",
	"productos":   "items",
	"restriccion": "restricciones",
	"contacto":    "cliente",
}

// SanitizeDraft makes a decoded draft fit the schema without rejecting it:
// known synonym keys are renamed, unknown keys and wrongly typed leaves are
// dropped (so they read as absent) and scalars are coerced where the intent
// is clear. doc is modified in place; the dropped paths are returned.
func SanitizeDraft(doc map[string]any, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dropped := make([]string, 0, 8)
	if d, ok := doc["detalles"].(map[string]any); ok {
		for from, to := range detailSynonyms {
			if v, ok := d[from]; ok {
				if _, exists := d[to]; !exists {
					d[to] = v
				}
				delete(d, from)
				dropped = append(dropped, "detalles."+from+"->"+to)
			}
		}
	}

	sanitizeObject(doc, draftFields, "", &dropped)

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		sort.Strings(dropped)
		logger.Warn("llm.draft.sanitize", "dropped", slices.Clone(dropped))
	}
	return out, dropped, nil
}

func sanitizeObject(m map[string]any, fields map[string]field, path string, dropped *[]string) {
	for k := range maps.Clone(m) {
		p := path + k
		f, known := fields[k]
		if !known {
			delete(m, k)
			*dropped = append(*dropped, p+"(unknown)")
			continue
		}
		v, ok := sanitizeValue(m[k], f, p, dropped)
		if !ok {
			delete(m, k)
			*dropped = append(*dropped, p+"(type)")
			continue
		}
		m[k] = v
	}
}

func sanitizeValue(v any, f field, path string, dropped *[]string) (any, bool) {
	switch {
	case f.coerce != nil:
		return f.coerce(v)
	case f.fields != nil:
		if v == nil {
			return nil, true
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		sanitizeObject(obj, f.fields, path+".", dropped)
		return obj, true
	case f.itemFields != nil:
		if v == nil {
			return nil, true
		}
		list, ok := v.([]any)
		if !ok {
			return nil, false
		}
		out := make([]any, 0, len(list))
		for i, e := range list {
			obj, ok := e.(map[string]any)
			if !ok {
				*dropped = append(*dropped, fmt.Sprintf("%s[%d](type)", path, i))
				continue
			}
			sanitizeObject(obj, f.itemFields, fmt.Sprintf("%s[%d].", path, i), dropped)
			out = append(out, obj)
		}
		return out, true
	case f.dict:
		if v == nil {
			return nil, true
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		for k, e := range maps.Clone(obj) {
			list, ok := coerceStrings(e)
			if !ok || list == nil {
				delete(obj, k)
				*dropped = append(*dropped, path+"."+k+"(type)")
				continue
			}
			obj[k] = list
		}
		return obj, true
	}
	return nil, false
}
