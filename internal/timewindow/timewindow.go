// Package timewindow turns Spanish relative delivery expressions ("mañana
// antes de las 3pm", "hoy entre 2 y 4 pm") into concrete time ranges.
//
// Hours without an am/pm marker are taken literally, so "a las 3" is 03:00.
// The one exception is a range such as "entre 2 y 4 pm", where an unmarked
// start inherits the end's pm when that keeps the range ordered.
package timewindow

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/order-interpreter/internal/vocabulary"
)

// bogota is UTC-5 all year.
var bogota = time.FixedZone("America/Bogota", -5*60*60)

// DefaultPointWindow is the window length for "a las H" expressions.
const DefaultPointWindow = 90 * time.Minute

// Location returns the fixed zone every window is expressed in.
func Location() *time.Location { return bogota }

// Window is a resolved delivery range.
type Window struct {
	Start      time.Time
	End        time.Time
	Expression string
}

// StartISO and EndISO format the bounds as ISO-8601 with offset.
func (w Window) StartISO() string { return Format(w.Start) }
func (w Window) EndISO() string   { return Format(w.End) }

// Format renders t in the fixed zone as ISO-8601 with offset.
func Format(t time.Time) string {
	return t.In(bogota).Format(time.RFC3339)
}

const clock = `(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`

var (
	beforeRe  = regexp.MustCompile(`antes de las\s+` + clock)
	betweenRe = regexp.MustCompile(`entre\s+` + clock + `\s+y\s+` + clock)
	atRe      = regexp.MustCompile(`a las\s+` + clock)
)

// Resolve finds the delivery window text asks for, relative to now. The
// second result is false when text names no day ("hoy", "mañana",
// "pasado mañana"); a time of day alone resolves to nothing.
func Resolve(text string, now time.Time) (Window, bool) {
	low := vocabulary.Fold(text)
	now = now.In(bogota)

	var base time.Time
	switch {
	case strings.Contains(low, "pasado mañana"):
		base = midnight(now, 2)
	case strings.Contains(low, "mañana"):
		base = midnight(now, 1)
	case strings.Contains(low, "hoy"):
		base = midnight(now, 0)
	default:
		return Window{}, false
	}

	if m := beforeRe.FindStringSubmatch(low); m != nil {
		if h, mm, ok := parseClock(m[1], m[2], m[3]); ok {
			return Window{Start: base, End: at(base, h, mm), Expression: m[0]}, true
		}
	}

	if m := betweenRe.FindStringSubmatch(low); m != nil {
		h1, m1, ok1 := parseClock(m[1], m[2], m[3])
		h2, m2, ok2 := parseClock(m[4], m[5], m[6])
		if ok1 && ok2 {
			if m[3] == "" && m[6] == "pm" && h1 < 12 && (h1+12)*60+m1 <= h2*60+m2 {
				h1 += 12
			}
			return Window{Start: at(base, h1, m1), End: at(base, h2, m2), Expression: m[0]}, true
		}
	}

	if m := atRe.FindStringSubmatch(low); m != nil {
		if h, mm, ok := parseClock(m[1], m[2], m[3]); ok {
			start := at(base, h, mm)
			return Window{Start: start, End: start.Add(DefaultPointWindow), Expression: m[0]}, true
		}
	}

	if strings.Contains(low, "mañana") {
		return Window{Start: base, End: at(base, 15, 0), Expression: "mañana"}, true
	}
	return Window{}, false
}

// parseClock applies the hour rule: pm adds 12 to hours below 12, am and
// unmarked hours are literal. Values outside a day are rejected.
func parseClock(hour, minute, marker string) (int, int, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return 0, 0, false
	}
	m := 0
	if minute != "" {
		if m, err = strconv.Atoi(minute); err != nil {
			return 0, 0, false
		}
	}
	if marker == "pm" && h < 12 {
		h += 12
	}
	if h > 23 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

func midnight(now time.Time, days int) time.Time {
	y, mo, d := now.Date()
	return time.Date(y, mo, d+days, 0, 0, 0, 0, bogota)
}

func at(base time.Time, hour, minute int) time.Time {
	y, mo, d := base.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, bogota)
}
