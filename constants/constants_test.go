package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
		ok   bool
	}{
		{"", ChannelWebForm, true},
		{"WhatsApp", ChannelWhatsApp, true},
		{" correo ", ChannelEmail, true},
		{"teléfono", ChannelPhone, true},
		{"otro", ChannelOther, true},
		{"fax", ChannelOther, false},
	}
	for _, tc := range tests {
		got, ok := Canonicalize(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
	assert.Equal(t, []string{"formulario_web", "whatsapp", "email", "telefono", "otro"}, AsStringSlice())
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "txt", NormalizeExt(".TXT"))
	_, ok := AllowedExtensions[NormalizeExt(".txt")]
	assert.True(t, ok)
}
