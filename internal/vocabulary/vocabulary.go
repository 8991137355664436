// Package vocabulary holds the fixed lexical tables of the interpreter: product
// synonyms, known neighborhoods and cities, street cue words, restriction terms
// and the products recognised by the local heuristic.
package vocabulary

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var embedded []byte

// Vocabulary is read-only once built and safe for concurrent use.
type Vocabulary struct {
	Synonyms      []Synonym        `yaml:"synonyms"`
	Products      []Product        `yaml:"products"`
	Cities        []City           `yaml:"cities"`
	Neighborhoods []string         `yaml:"neighborhoods"`
	StreetTypes   []string         `yaml:"street_types"`
	Restrictions  RestrictionTerms `yaml:"restrictions"`
	TimeRules     string           `yaml:"time_rules"`
	UnitPolicy    string           `yaml:"unit_policy"`

	// folded spelling -> canonical name
	index map[string]string
}

// Synonym maps a canonical product name to its known spellings.
type Synonym struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// Product is recognised by the local heuristic when any fragment shows up
// next to a quantity.
type Product struct {
	Detected  string   `yaml:"detected"`
	Display   string   `yaml:"display"`
	Fragments []string `yaml:"fragments"`
}

type City struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// RestrictionTerms are regular-expression alternatives.
type RestrictionTerms struct {
	Fragile          []string `yaml:"fragile"`
	Temperature      []string `yaml:"temperature"`
	RestrictedAccess []string `yaml:"restricted_access"`
}

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
)

// Default returns the embedded vocabulary.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		v, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("vocabulary: embedded document is invalid: %v", err))
		}
		defaultVocab = v
	})
	return defaultVocab
}

// Load reads a vocabulary document from path.
func Load(path string) (*Vocabulary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	v, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Parse decodes and checks a YAML vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := v.check(); err != nil {
		return nil, err
	}
	v.buildIndex()
	return &v, nil
}

func (v *Vocabulary) check() error {
	var errs []error
	for i, s := range v.Synonyms {
		if strings.TrimSpace(s.Canonical) == "" {
			errs = append(errs, fmt.Errorf("synonyms[%d]: canonical is required", i))
		}
	}
	for i, p := range v.Products {
		if strings.TrimSpace(p.Detected) == "" || len(p.Fragments) == 0 {
			errs = append(errs, fmt.Errorf("products[%d]: detected and fragments are required", i))
		}
	}
	for i, c := range v.Cities {
		if strings.TrimSpace(c.Canonical) == "" {
			errs = append(errs, fmt.Errorf("cities[%d]: canonical is required", i))
		}
	}
	if len(v.StreetTypes) == 0 {
		errs = append(errs, errors.New("street_types: at least one cue word is required"))
	}
	terms := map[string][]string{
		"fragile":           v.Restrictions.Fragile,
		"temperature":       v.Restrictions.Temperature,
		"restricted_access": v.Restrictions.RestrictedAccess,
	}
	for name, alts := range terms {
		for _, alt := range alts {
			if _, err := regexp.Compile(alt); err != nil {
				errs = append(errs, fmt.Errorf("restrictions.%s: %q: %w", name, alt, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (v *Vocabulary) buildIndex() {
	v.index = make(map[string]string)
	for _, s := range v.Synonyms {
		names := append([]string{s.Canonical}, s.Variants...)
		for _, n := range names {
			key := Fold(n)
			if _, taken := v.index[key]; !taken {
				v.index[key] = s.Canonical
			}
		}
	}
}

// Normalize maps a detected item name to its canonical spelling. Unknown
// names come back folded with the first letter upper-cased; an empty name
// stays empty.
func (v *Vocabulary) Normalize(name string) string {
	folded := Fold(name)
	if folded == "" {
		return folded
	}
	if canonical, ok := v.index[folded]; ok {
		return canonical
	}
	return upperFirst(folded)
}

// Dictionary returns the synonym table as canonical -> variants.
func (v *Vocabulary) Dictionary() map[string][]string {
	out := make(map[string][]string, len(v.Synonyms))
	for _, s := range v.Synonyms {
		out[s.Canonical] = append([]string(nil), s.Variants...)
	}
	return out
}

// Fold trims, NFC-normalizes and lower-cases s using Spanish casing rules.
func Fold(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	// a Caser keeps state between calls, so each call gets its own
	return cases.Lower(language.Spanish).String(s)
}

// Capitalize folds s and upper-cases its first letter.
func Capitalize(s string) string {
	return upperFirst(Fold(s))
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
