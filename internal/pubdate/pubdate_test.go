package pubdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsFeedRanker/internal/domain"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		matched string
	}{
		{name: "rfc822 gmt", raw: "Mon, 01 Jan 2024 10:00:00 GMT", want: "01 Jan 2024 10:00", matched: "rfc822-gmt"},
		{name: "rfc822 offset", raw: "Mon, 01 Jan 2024 12:30:00 +0200", want: "01 Jan 2024 10:30", matched: "rfc822-offset"},
		{name: "iso8601 offset", raw: "2024-01-01T05:00:00-05:00", want: "01 Jan 2024 10:00", matched: "iso8601-offset"},
		{name: "iso8601 zulu", raw: "2024-03-15T08:15:00Z", want: "15 Mar 2024 08:15", matched: "iso8601-offset"},
		{name: "rfc822 one-digit day gmt", raw: "Tue, 5 Mar 2024 10:00:00 GMT", want: "05 Mar 2024 10:00", matched: "rfc822-gmt"},
		{name: "rfc822 one-digit day offset", raw: "Tue, 5 Mar 2024 12:00:00 +0200", want: "05 Mar 2024 10:00", matched: "rfc822-offset"},
		{name: "iso8601 compact offset", raw: "2024-03-05T10:00:00+0000", want: "05 Mar 2024 10:00", matched: "iso8601-compact-offset"},
		{name: "iso8601 compact negative offset", raw: "2024-03-05T05:00:00-0500", want: "05 Mar 2024 10:00", matched: "iso8601-compact-offset"},
		{name: "surrounding spaces", raw: "  Mon, 01 Jan 2024 10:00:00 GMT ", want: "01 Jan 2024 10:00", matched: "rfc822-gmt"},
		{name: "empty", raw: "", want: domain.UnknownDate},
		{name: "garbage", raw: "yesterday-ish", want: domain.UnknownDate},
		{name: "date only", raw: "2024-01-01", want: domain.UnknownDate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tc.raw)
			assert.Equal(t, tc.want, got.Display)
			assert.Equal(t, tc.matched, got.Matched)
			assert.Equal(t, tc.matched != "", got.OK())
		})
	}
}

func TestNormalizeWithCustomLayouts(t *testing.T) {
	t.Parallel()

	layouts := append([]Layout{{Name: "date-only", Format: "2006-01-02"}}, Layouts...)
	got := NormalizeWith(layouts, "2024-01-01")

	require.True(t, got.OK())
	assert.Equal(t, "01 Jan 2024 00:00", got.Display)
}

func TestParseDisplayRoundTrip(t *testing.T) {
	t.Parallel()

	res := Normalize("Tue, 02 Jan 2024 10:00:00 GMT")
	require.True(t, res.OK())

	parsed, err := ParseDisplay(res.Display)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)))

	_, err = ParseDisplay(domain.UnknownDate)
	assert.Error(t, err)
}
