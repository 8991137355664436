package extract

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/order-interpreter/internal/vocabulary"
)

// Address holds the delivery fields found in text.
type Address struct {
	Text         *string
	City         *string
	Neighborhood *string
	Observations *string
}

// Flags are the handling restrictions detected in text.
type Flags struct {
	Fragile               bool
	TemperatureControlled bool
	RestrictedAccess      bool
}

// Parser matches the vocabulary-driven fields. It is immutable after
// NewParser and safe for concurrent use.
type Parser struct {
	streetCue    *regexp.Regexp
	streetBody   *regexp.Regexp
	cities       []cityPattern
	neighborhood *regexp.Regexp
	observation  *regexp.Regexp
	fragile      *regexp.Regexp
	temperature  *regexp.Regexp
	restricted   *regexp.Regexp
}

type cityPattern struct {
	re        *regexp.Regexp
	canonical string
}

// NewParser compiles the patterns of v.
func NewParser(v *vocabulary.Vocabulary) *Parser {
	cues := longestFirst(quoteAll(v.StreetTypes))
	p := &Parser{
		streetCue:    regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(` + strings.Join(cues, "|") + `)(?:[^\p{L}_]|$)`),
		streetBody:   regexp.MustCompile(`^(?i)(?:` + strings.Join(cues, "|") + `)[\p{L}\p{N}#°\s\-.,]+`),
		neighborhood: regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(?:barrio\s+)?(` + strings.Join(longestFirst(quoteAll(v.Neighborhoods)), "|") + `)(?:[^\p{L}\p{N}_]|$)`),
		observation:  regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(entregar en [^.]+|porter[ií]a|recepci[oó]n|piso\s?\d+)`),
		fragile:      wholeWordOrNever(v.Restrictions.Fragile),
		temperature:  wholeWordOrNever(v.Restrictions.Temperature),
		restricted:   wholeWordOrNever(v.Restrictions.RestrictedAccess),
	}
	if len(v.Neighborhoods) == 0 {
		p.neighborhood = noMatch
	}
	for _, c := range v.Cities {
		p.cities = append(p.cities, cityPattern{
			re:        wholeWordOrNever(quoteAll(append([]string{c.Canonical}, c.Variants...))),
			canonical: c.Canonical,
		})
	}
	return p
}

// Address extracts the delivery address text, city, neighborhood and
// delivery observations. Each field is independent.
func (p *Parser) Address(text string) Address {
	text = norm.NFC.String(text)
	var a Address
	a.Text = p.addressText(text)
	for _, c := range p.cities {
		if c.re.MatchString(text) {
			city := c.canonical
			a.City = &city
			break
		}
	}
	if m := firstGroup(p.neighborhood, text); m != "" {
		n := vocabulary.Capitalize(m)
		a.Neighborhood = &n
	}
	if m := firstGroup(p.observation, text); m != "" {
		o := vocabulary.Capitalize(strings.TrimSpace(m))
		a.Observations = &o
	}
	return a
}

// addressText returns the first street cue followed by a street number.
func (p *Parser) addressText(text string) *string {
	for _, loc := range p.streetCue.FindAllStringSubmatchIndex(text, -1) {
		start, cueEnd := loc[2], loc[3]
		body := p.streetBody.FindString(text[start:])
		s := cutAddress(body, cueEnd-start)
		if strings.ContainsAny(s, "0123456789") {
			return &s
		}
	}
	return nil
}

// cutAddress ends the address at a comma, a line break or a sentence-ending
// period, then trims trailing separators. A period after a number
// abbreviation ("No.") does not end the address.
func cutAddress(s string, cueLen int) string {
	for i := cueLen + 1; i < len(s); i++ {
		switch s[i] {
		case ',', '\n', '\r':
			return strings.TrimRight(s[:i], " \t.,-")
		case '.':
			if i+1 < len(s) && s[i+1] != ' ' && s[i+1] != '\t' {
				continue
			}
			if numberAbbrev(s[:i]) {
				continue
			}
			return strings.TrimRight(s[:i], " \t.,-")
		}
	}
	return strings.TrimRight(s, " \t.,-")
}

var numberAbbrevs = []string{"no", "nro", "num", "n°", "nº"}

// numberAbbrev reports whether s ends with a house-number abbreviation.
func numberAbbrev(s string) bool {
	word := s[strings.LastIndexAny(s, " \t#")+1:]
	return slices.Contains(numberAbbrevs, strings.ToLower(word))
}

// Restrictions reports which handling restrictions text mentions.
func (p *Parser) Restrictions(text string) Flags {
	text = norm.NFC.String(text)
	return Flags{
		Fragile:               p.fragile.MatchString(text),
		TemperatureControlled: p.temperature.MatchString(text),
		RestrictedAccess:      p.restricted.MatchString(text),
	}
}

// Fragile reports whether text mentions a fragility term.
func (p *Parser) Fragile(text string) bool {
	return p.fragile.MatchString(norm.NFC.String(text))
}

// longestFirst orders alternatives so a longer word wins over its prefix.
func longestFirst(alts []string) []string {
	out := append([]string(nil), alts...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
