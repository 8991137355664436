package postprocess

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/order-interpreter/constants"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/vocabulary"
)

// quantity followed by a run of words; the run stops at any non-letter
var quantityRe = regexp.MustCompile(`(\d+)\s+([\p{L}\s]+)`)

// Fallback builds a minimal draft when no model draft exists: one item per
// "<quantity> <product words>" match of a known product, plus the fragile
// flag. The result still goes through Merge.
func (m *Merger) Fallback(text string) *entity.Interpretation {
	low := vocabulary.Fold(text)

	items := []entity.Item{}
	for _, match := range quantityRe.FindAllStringSubmatch(low, -1) {
		qty, err := strconv.Atoi(match[1])
		if err != nil || qty <= 0 {
			continue
		}
		run := untilConjunction(match[2])
		for _, p := range m.vocab.Products {
			if !mentions(run, p.Fragments) {
				continue
			}
			items = append(items, entity.Item{
				DetectedName:   entity.Ptr(p.Detected),
				NormalizedName: entity.Ptr(p.Display),
				Quantity:       entity.Ptr(qty),
				Unit:           entity.Ptr(constants.DefaultUnit),
				Confidence:     entity.Ptr(FallbackItemConfidence),
			})
		}
	}

	restr := &entity.Restrictions{
		Fragile:               entity.Ptr(false),
		TemperatureControlled: entity.Ptr(false),
		RestrictedAccess:      entity.Ptr(false),
		Notes:                 []string{},
	}
	if m.parser.Fragile(text) {
		restr.Fragile = entity.Ptr(true)
		restr.Notes = append(restr.Notes, NoteFragile)
	}

	return &entity.Interpretation{
		Action: DefaultAction,
		Details: entity.Details{
			Customer:        &entity.Customer{},
			DeliveryAddress: &entity.DeliveryAddress{},
			DeliveryWindow:  &entity.DeliveryWindow{},
			Items:           items,
			Restrictions:    restr,
		},
		Validation: entity.Validation{Warnings: []string{}, Ambiguities: []string{}},
	}
}

// untilConjunction cuts a word run at the standalone word "y".
func untilConjunction(run string) string {
	words := strings.Fields(run)
	for i, w := range words {
		if w == "y" {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

func mentions(run string, fragments []string) bool {
	for _, f := range fragments {
		if f = vocabulary.Fold(f); f != "" && strings.Contains(run, f) {
			return true
		}
	}
	return false
}
