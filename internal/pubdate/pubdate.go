// Package pubdate normalizes feed-provided publication dates into the fixed
// display form stored with each article.
package pubdate

import (
	"strings"
	"time"

	"NewsFeedRanker/internal/domain"
)

// DisplayLayout is the stored form: day-month-year hour:minute.
const DisplayLayout = "02 Jan 2006 15:04"

// Layout is one accepted input format.
type Layout struct {
	Name   string
	Format string
}

// Layouts are tried in order; the first successful parse wins. The RFC 822
// day is one or two digits, so "5 Mar" and "05 Mar" both match.
var Layouts = []Layout{
	{Name: "rfc822-gmt", Format: "Mon, 2 Jan 2006 15:04:05 GMT"},
	{Name: "rfc822-offset", Format: "Mon, 2 Jan 2006 15:04:05 -0700"},
	{Name: "iso8601-offset", Format: time.RFC3339},
	{Name: "iso8601-compact-offset", Format: "2006-01-02T15:04:05-0700"},
}

// Result is the outcome of Normalize. Matched is empty when no layout parsed.
type Result struct {
	Display string
	Time    time.Time
	Matched string
}

// OK reports whether a layout matched.
func (r Result) OK() bool {
	return r.Matched != ""
}

// Normalize parses raw with the first matching layout and renders it in UTC
// display form. Exhaustion yields domain.UnknownDate, never an error.
func Normalize(raw string) Result {
	return NormalizeWith(Layouts, raw)
}

// NormalizeWith is Normalize over a caller-supplied layout table.
func NormalizeWith(layouts []Layout, raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Display: domain.UnknownDate}
	}

	for _, l := range layouts {
		t, err := time.Parse(l.Format, raw)
		if err != nil {
			continue
		}
		t = t.UTC()
		return Result{Display: t.Format(DisplayLayout), Time: t, Matched: l.Name}
	}

	return Result{Display: domain.UnknownDate}
}

// ParseDisplay reads a stored display date back as a UTC time.
func ParseDisplay(value string) (time.Time, error) {
	return time.ParseInLocation(DisplayLayout, strings.TrimSpace(value), time.UTC)
}
