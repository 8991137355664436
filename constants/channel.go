package constants

import (
	"strings"
)

// Channel is the intake channel an order arrived through.
type Channel string

const (
	ChannelWebForm  Channel = "formulario_web"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelPhone    Channel = "telefono"
	ChannelOther    Channel = "otro"
)

// DefaultChannel is used when the caller does not name one.
const DefaultChannel = ChannelWebForm

var allChannels = []Channel{
	ChannelWebForm,
	ChannelWhatsApp,
	ChannelEmail,
	ChannelPhone,
	ChannelOther,
}

func AsStringSlice() []string {
	result := make([]string, len(allChannels))
	for i, ch := range allChannels {
		result[i] = string(ch)
	}
	return result
}

// Canonicalize maps caller input onto a Channel. Empty input yields the
// default channel; unknown input yields ChannelOther and false.
func Canonicalize(input string) (Channel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DefaultChannel, true
	}

	// synonyms map
	synonyms := map[string]Channel{
		"web":        ChannelWebForm,
		"formulario": ChannelWebForm,
		"wa":         ChannelWhatsApp,
		"whats":      ChannelWhatsApp,
		"correo":     ChannelEmail,
		"mail":       ChannelEmail,
		"e-mail":     ChannelEmail,
		"teléfono":   ChannelPhone,
		"llamada":    ChannelPhone,
		"phone":      ChannelPhone,
	}

	if ch, ok := synonyms[normalized]; ok {
		return ch, true
	}

	for _, ch := range allChannels {
		if normalized == string(ch) {
			return ch, true
		}
	}

	return ChannelOther, false
}
