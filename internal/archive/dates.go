package archive

import (
	"strings"
	"time"
)

// DateSpan is a closed date interval. A point date has From == To. The
// zero value means the date is unknown; historical records are often
// missing or partially dated, so unknown is a normal state, not an
// error.
type DateSpan struct {
	From time.Time
	To   time.Time
}

// Known reports whether the span carries any date information.
func (s DateSpan) Known() bool {
	return !s.From.IsZero()
}

// Date wraps a single day as a point span.
func Date(t time.Time) DateSpan {
	return DateSpan{From: t, To: t}
}

// DaysApart returns the gap in whole days between two spans: 0 when
// they touch or overlap, otherwise the distance between the nearest
// endpoints. Only meaningful when both spans are Known.
func (s DateSpan) DaysApart(o DateSpan) int {
	if !s.From.After(o.To) && !o.From.After(s.To) {
		return 0
	}
	if s.To.Before(o.From) {
		return int(o.From.Sub(s.To).Hours() / 24)
	}
	return int(s.From.Sub(o.To).Hours() / 24)
}

func (s DateSpan) String() string {
	if !s.Known() {
		return ""
	}
	if s.From.Equal(s.To) {
		return s.From.Format("2006-01-02")
	}
	return s.From.Format("2006-01-02") + ".." + s.To.Format("2006-01-02")
}

// Archive dates come in full, month and year precision.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseDate parses an archival date string at whatever precision it
// carries. Returns false for empty or malformed input; never errors, so
// a bad date degrades to "unknown" instead of failing a record load.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateSpan builds a span from textual from/to dates. A lone from
// date yields a point span; unparseable input yields the unknown span.
// An inverted pair is normalized so From never follows To.
func ParseDateSpan(from, to string) DateSpan {
	f, okF := ParseDate(from)
	t, okT := ParseDate(to)

	switch {
	case okF && okT:
		if f.After(t) {
			f, t = t, f
		}
		return DateSpan{From: f, To: t}
	case okF:
		return Date(f)
	case okT:
		return Date(t)
	}
	return DateSpan{}
}
