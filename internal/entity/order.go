package entity

// Order is the final record handed back to callers.
type Order struct {
	OrderID        string          `json:"pedido_id"`
	CustomerAsk    string          `json:"solicitud_cliente"`
	OriginalInput  OriginalInput   `json:"entrada_original"`
	Interpretation *Interpretation `json:"interpretacion_IA"`
	NextStep       NextStep        `json:"paso_siguiente_sugerido"`
	Confidence     float64         `json:"nivel_confianza"`
	Metadata       Metadata        `json:"metadatos"`
}

// OriginalInput echoes what was received and when.
type OriginalInput struct {
	Channel      string `json:"canal"`
	TimestampISO string `json:"timestamp_iso"`
	Text         string `json:"texto_libre"`
}

// NextStep is the suggested follow-up for the planning phase.
type NextStep struct {
	Action         string   `json:"accion"`
	RequiredInputs []string `json:"inputs_requeridos"`
}

type Metadata struct {
	AgentVersion string `json:"version_agente"`
	OperationID  string `json:"uuid_operacion"`
}
