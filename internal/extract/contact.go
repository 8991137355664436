// Package extract finds order fields in free Spanish text with regular
// expressions. Nothing here fails: a field that is not found is nil.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	phoneRe = regexp.MustCompile(`(?:\+?57)?3\d{9}`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// Phone returns the 10-digit Colombian mobile number found in text. Spaces
// inside the number and a +57 prefix are tolerated.
func Phone(text string) *string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	m := phoneRe.FindString(compact)
	if m == "" {
		return nil
	}
	digits := m[len(m)-10:]
	return &digits
}

// Email returns the first e-mail address in text.
func Email(text string) *string {
	m := emailRe.FindString(text)
	if m == "" {
		return nil
	}
	return &m
}
