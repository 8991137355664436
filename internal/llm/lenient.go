package llm

import (
	"math"
	"strconv"
	"strings"
)

// Scalar coercions used by SanitizeDraft. Each returns the value to keep
// and false when the value cannot serve its field and must be dropped.
// JSON null is always kept.

func coerceString(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return nil, false
}

func coerceNumber(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" || strings.EqualFold(s, "null") {
			return nil, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return nil, false
}

func coerceConfidence(v any) (any, bool) {
	n, ok := coerceNumber(v)
	if !ok || n == nil {
		return n, ok
	}
	f := n.(float64)
	if f < 0 || f > 1 || math.IsNaN(f) {
		return nil, false
	}
	return f, true
}

// coerceQuantity keeps positive whole numbers only.
func coerceQuantity(v any) (any, bool) {
	n, ok := coerceNumber(v)
	if !ok || n == nil {
		return n, ok
	}
	f := n.(float64)
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil, false
	}
	return int(f), true
}

func coerceBool(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "sí", "si", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return nil, false
}

// coerceStrings keeps the string elements of a list; a lone string becomes
// a one-element list.
func coerceStrings(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []any{s}, true
		}
		return []any{}, true
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}
