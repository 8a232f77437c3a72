package sanitize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateKnownFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "day month year with time",
			raw:  "01-12-2010 08:26",
			want: time.Date(2010, time.December, 1, 8, 26, 0, 0, time.UTC),
		},
		{
			name: "slash separated",
			raw:  "01/12/2010 08:26",
			want: time.Date(2010, time.December, 1, 8, 26, 0, 0, time.UTC),
		},
		{
			name: "iso with seconds",
			raw:  "2010-12-01 08:26:00",
			want: time.Date(2010, time.December, 1, 8, 26, 0, 0, time.UTC),
		},
		{
			name: "unpadded day first fallback",
			raw:  "9/1/2011 10:03",
			want: time.Date(2011, time.January, 9, 10, 3, 0, 0, time.UTC),
		},
		{
			name: "date only fallback",
			raw:  "01-12-2010",
			want: time.Date(2010, time.December, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "surrounding whitespace",
			raw:  "  01-12-2010 08:26  ",
			want: time.Date(2010, time.December, 1, 8, 26, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseDateFailures(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a date", "32-13-2010 99:99"} {
		_, err := ParseDate(raw)
		require.Error(t, err, "raw %q", raw)

		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "date", perr.Kind)
	}
}

func TestParseFloat(t *testing.T) {
	got, err := ParseFloat("2.55")
	require.NoError(t, err)
	assert.Equal(t, 2.55, got)

	got, err = ParseFloat(" -1.5 ")
	require.NoError(t, err)
	assert.Equal(t, -1.5, got)

	for _, raw := range []string{"", "abc", "1,5"} {
		_, err := ParseFloat(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"6", 6},
		{"-3", -3},
		{"17850.0", 17850},
		{"12.9", 12},
		{"-12.9", -12},
		{" 42 ", 42},
	}

	for _, tt := range tests {
		got, err := ParseInt(tt.raw)
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestParseIntFailures(t *testing.T) {
	for _, raw := range []string{"", "abc", "NaN", "+Inf"} {
		_, err := ParseInt(raw)
		require.Error(t, err, "raw %q", raw)

		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "integer", perr.Kind)
		assert.Equal(t, raw, perr.Value)
	}
}

func TestIsCancellation(t *testing.T) {
	assert.True(t, IsCancellation("C536379"))
	assert.False(t, IsCancellation("536365"))
	assert.False(t, IsCancellation(""))
	assert.False(t, IsCancellation("c536379"), "lowercase prefix is not a cancellation marker")
}
