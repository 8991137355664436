package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInterpretationJSONSchema returns the JSON-Schema (draft 2020-12 subset)
// of a draft interpretation as a generic map. Every leaf may be null.
func BuildInterpretationJSONSchema() map[string]any {
	customer := object(map[string]any{
		"nombre":   nullable("string"),
		"telefono": nullable("string"),
		"email":    nullable("string"),
	})
	address := object(map[string]any{
		"texto":                 nullable("string"),
		"ciudad":                nullable("string"),
		"barrio":                nullable("string"),
		"observaciones_entrega": nullable("string"),
		"lat":                   nullable("number"),
		"lng":                   nullable("number"),
		"nivel_confianza":       confidenceProp(),
	})
	window := object(map[string]any{
		"inicio_iso":          nullable("string"),
		"fin_iso":             nullable("string"),
		"expresion_detectada": nullable("string"),
		"nivel_confianza":     confidenceProp(),
	})
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sku":                nullable("string"),
			"nombre_detectado":   nullable("string"),
			"nombre_normalizado": nullable("string"),
			"cantidad":           map[string]any{"type": []string{"integer", "null"}, "minimum": 1},
			"unidad":             nullable("string"),
			"peso_kg":            nullable("number"),
			"volumen_m3":         nullable("number"),
			"nivel_confianza":    confidenceProp(),
		},
		"additionalProperties": false,
	}
	restrictions := object(map[string]any{
		"manejo_fragil":          nullable("boolean"),
		"temperatura_controlada": nullable("boolean"),
		"acceso_restringido":     nullable("boolean"),
		"notas":                  stringList(),
	})
	normalization := object(map[string]any{
		"diccionario_sinonimos": map[string]any{
			"type":                 []string{"object", "null"},
			"additionalProperties": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"reglas_tiempo":     nullable("string"),
		"politica_unidades": nullable("string"),
	})
	validations := object(map[string]any{
		"campos_obligatorios": object(map[string]any{
			"direccion_entrega": nullable("boolean"),
			"ventana_entrega":   nullable("boolean"),
			"items":             nullable("boolean"),
		}),
		"advertencias": stringList(),
		"ambiguedades": stringList(),
	})

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"accion": nullable("string"),
			"detalles": object(map[string]any{
				"cliente":           customer,
				"direccion_entrega": address,
				"ventana_entrega":   window,
				"items":             map[string]any{"type": []string{"array", "null"}, "items": item},
				"restricciones":     restrictions,
			}),
			"normalizacion": normalization,
			"validaciones":  validations,
		},
	}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}

func confidenceProp() map[string]any {
	return map[string]any{"type": []string{"number", "null"}, "minimum": 0.0, "maximum": 1.0}
}

func stringList() map[string]any {
	return map[string]any{"type": []string{"array", "null"}, "items": map[string]any{"type": "string"}}
}

func object(props map[string]any) map[string]any {
	return map[string]any{
		"type":                 []string{"object", "null"},
		"properties":           props,
		"additionalProperties": false,
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(schemaMap)
	if err != nil {
		return err
	}
	return validateWith(schema, data)
}

var (
	draftSchemaOnce sync.Once
	draftSchema     *jsonschema.Schema
	draftSchemaErr  error
)

// ValidateDraft validates data against BuildInterpretationJSONSchema. The
// schema is compiled once per process.
func ValidateDraft(data []byte) error {
	draftSchemaOnce.Do(func() {
		draftSchema, draftSchemaErr = compileSchema(BuildInterpretationJSONSchema())
	})
	if draftSchemaErr != nil {
		return draftSchemaErr
	}
	return validateWith(draftSchema, data)
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validateWith(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
