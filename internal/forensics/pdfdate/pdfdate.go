// Package pdfdate parses the date strings stored in PDF document information
// dictionaries (D:YYYYMMDDHHmmSS, optionally followed by a zone suffix).
package pdfdate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
)

var datePattern = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})`)

// Parse returns the timestamp encoded in s. Zone suffixes are ignored and the
// fields are interpreted as naive local time. ok is false when s does not start
// with fourteen digits or encodes an impossible calendar value.
func Parse(s string) (t time.Time, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")

	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	var f [6]int
	for i := range f {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		f[i] = n
	}
	year, month, day, hour, minute, second := f[0], f[1], f[2], f[3], f[4], f[5]

	if year < 1 || month < 1 || month > 12 || day < 1 ||
		hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	t = time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	// time.Date normalizes overflow such as Feb 30, so reject anything that moved
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// ISO parses s and formats the result as a naive ISO-8601 timestamp.
// It returns nil when s cannot be parsed.
func ISO(s string) *string {
	t, ok := Parse(s)
	if !ok {
		return nil
	}
	iso := t.Format(domain.NaiveISOLayout)
	return &iso
}
