package extract

import (
	"regexp"
	"strings"
)

// wholeWord builds a case-insensitive pattern matching any of alts as a
// whole word; group 1 holds the match. RE2's \b only knows ASCII, so
// accented letters would count as boundaries there.
func wholeWord(alts []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(` + strings.Join(alts, "|") + `)(?:[^\p{L}\p{N}_]|$)`)
}

func quoteAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, regexp.QuoteMeta(w))
		}
	}
	return out
}

// never matches; stands in for an empty term list
var noMatch = regexp.MustCompile(`[^\x00-\x{10FFFF}]`)

func wholeWordOrNever(alts []string) *regexp.Regexp {
	if len(alts) == 0 {
		return noMatch
	}
	return wholeWord(alts)
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
