package numerator

import (
	"fmt"
	"strings"
	"time"
)

// Series is a dot-separated naming pattern such as "PSA-.YYYY.-.####".
// Parts YYYY, YY, MM and DD are replaced by the document date, a part made
// only of '#' is the zero-padded counter, anything else is copied verbatim.
type Series struct {
	pattern string
	parts   []string
	counter int
}

// ParseSeries parses a naming pattern. It must contain exactly one counter part.
func ParseSeries(pattern string) (Series, error) {
	s := Series{pattern: pattern, parts: strings.Split(pattern, "."), counter: -1}
	for i, part := range s.parts {
		if part == "" || strings.Trim(part, "#") != "" {
			continue
		}
		if s.counter >= 0 {
			return Series{}, fmt.Errorf("naming series %q has more than one counter", pattern)
		}
		s.counter = i
	}
	if s.counter < 0 {
		return Series{}, fmt.Errorf("naming series %q has no counter", pattern)
	}
	return s, nil
}

// MustParseSeries is ParseSeries for package-level patterns.
func MustParseSeries(pattern string) Series {
	s, err := ParseSeries(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the pattern.
func (s Series) String() string { return s.pattern }

// Prefix renders the parts before the counter. It keys the counter, so a
// pattern with YYYY restarts every year.
func (s Series) Prefix(at time.Time) string {
	return s.render(s.parts[:s.counter], at)
}

// Format renders the name carrying counter n.
func (s Series) Format(at time.Time, n int64) string {
	width := len(s.parts[s.counter])
	return s.Prefix(at) + fmt.Sprintf("%0*d", width, n) + s.render(s.parts[s.counter+1:], at)
}

func (s Series) render(parts []string, at time.Time) string {
	var b strings.Builder
	for _, part := range parts {
		switch part {
		case "YYYY":
			b.WriteString(at.Format("2006"))
		case "YY":
			b.WriteString(at.Format("06"))
		case "MM":
			b.WriteString(at.Format("01"))
		case "DD":
			b.WriteString(at.Format("02"))
		default:
			b.WriteString(part)
		}
	}
	return b.String()
}
