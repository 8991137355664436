// Package order wraps a normalized interpretation into the final record.
package order

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/order-interpreter/constants"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/timewindow"
)

const (
	AgentVersion      = "interprete-1.0.0"
	CustomerAsk       = "Recibir e interpretar el pedido"
	NextAction        = "planificacion_entrega"
	DefaultConfidence = 0.92
)

// RequiredInputs are the follow-ups the planning phase needs.
var RequiredInputs = []string{
	"Geocodificar direccion_entrega",
	"Mapear items a SKU y validar stock",
	"Asignar ventana exacta según capacidad de ruta",
}

// Assembler builds final records. The zero value is not usable; call New.
type Assembler struct {
	now   func() time.Time
	newID func() uuid.UUID
}

type Option func(*Assembler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithIDSource replaces uuid.New for both identifiers.
func WithIDSource(newID func() uuid.UUID) Option {
	return func(a *Assembler) { a.newID = newID }
}

func New(opts ...Option) *Assembler {
	a := &Assembler{now: time.Now, newID: uuid.New}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Now returns the assembler's clock reading.
func (a *Assembler) Now() time.Time { return a.now() }

// Assemble wraps interp into an Order stamped with the current time.
func (a *Assembler) Assemble(text string, channel constants.Channel, interp *entity.Interpretation, confidence float64) *entity.Order {
	return a.AssembleAt(text, channel, interp, confidence, a.now())
}

// AssembleAt is Assemble with an explicit receipt time. Identifiers are
// fresh on every call.
func (a *Assembler) AssembleAt(text string, channel constants.Channel, interp *entity.Interpretation, confidence float64, receivedAt time.Time) *entity.Order {
	return &entity.Order{
		OrderID:     a.orderID(),
		CustomerAsk: CustomerAsk,
		OriginalInput: entity.OriginalInput{
			Channel:      string(channel),
			TimestampISO: timewindow.Format(receivedAt),
			Text:         text,
		},
		Interpretation: interp,
		NextStep: entity.NextStep{
			Action:         NextAction,
			RequiredInputs: append([]string(nil), RequiredInputs...),
		},
		Confidence: confidence,
		Metadata: entity.Metadata{
			AgentVersion: AgentVersion,
			OperationID:  a.newID().String(),
		},
	}
}

// orderID is "ORD-" and the first eight hex digits of a fresh UUID.
func (a *Assembler) orderID() string {
	return "ORD-" + strings.ToUpper(a.newID().String()[:8])
}
