package llm

import (
	"strings"
)

// SystemInstructions describes the interpretacion_IA object the model must
// return. Keys and nesting match entity.Interpretation.
const SystemInstructions = `Eres un asistente que interpreta pedidos de una panadería escritos en español.
Devuelve SOLO un objeto JSON válido, sin texto adicional ni bloques de código, con esta forma:

{
  "accion": "extraccion_pedido",
  "detalles": {
    "cliente": {"nombre": string|null, "telefono": string|null, "email": string|null},
    "direccion_entrega": {
      "texto": string|null, "ciudad": string|null, "barrio": string|null,
      "observaciones_entrega": string|null, "lat": null, "lng": null,
      "nivel_confianza": number|null
    },
    "ventana_entrega": {
      "inicio_iso": string|null, "fin_iso": string|null,
      "expresion_detectada": string|null, "nivel_confianza": number|null
    },
    "items": [
      {"sku": null, "nombre_detectado": string, "nombre_normalizado": string|null,
       "cantidad": entero, "unidad": string|null, "peso_kg": null, "volumen_m3": null,
       "nivel_confianza": number|null}
    ],
    "restricciones": {
      "manejo_fragil": boolean, "temperatura_controlada": boolean,
      "acceso_restringido": boolean, "notas": [string]
    }
  },
  "validaciones": {
    "campos_obligatorios": {"direccion_entrega": boolean, "ventana_entrega": boolean, "items": boolean},
    "advertencias": [string],
    "ambiguedades": [string]
  }
}

Reglas:
- Usa null cuando un dato no aparece en el texto; no inventes datos.
- "nombre_detectado" es el producto tal como lo escribió el cliente.
- "cantidad" es un entero positivo; si no hay unidad usa "unidad".
- Las fechas y horas van en ISO-8601 con zona America/Bogota (-05:00).
- "nivel_confianza" es un número entre 0 y 1.
- Deja "sku", "lat", "lng", "peso_kg" y "volumen_m3" en null.`

// BuildUserPrompt wraps the customer's text.
func BuildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Texto del cliente:\n\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\nDevuelve SOLO el JSON del campo interpretacion_IA.")
	return b.String()
}
