package pdfdate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"D:20240115103000", "2024-01-15T10:30:00"},
		{"20240115103000", "2024-01-15T10:30:00"},
		{"D:20240229235959+02'00'", "2024-02-29T23:59:59"},
		{"D:19991231000000Z", "1999-12-31T00:00:00"},
		{"  D:20001010101010  ", "2000-10-10T10:10:10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ISO(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParse_RoundTripsFields(t *testing.T) {
	for _, c := range []struct{ y, mo, d, h, mi, s int }{
		{2024, 1, 15, 10, 30, 0},
		{1987, 12, 31, 23, 59, 59},
		{2010, 6, 1, 0, 0, 1},
	} {
		in := fmt.Sprintf("D:%04d%02d%02d%02d%02d%02d", c.y, c.mo, c.d, c.h, c.mi, c.s)
		got, ok := Parse(in)
		require.True(t, ok, in)
		assert.Equal(t, c.y, got.Year())
		assert.Equal(t, c.mo, int(got.Month()))
		assert.Equal(t, c.d, got.Day())
		assert.Equal(t, c.h, got.Hour())
		assert.Equal(t, c.mi, got.Minute())
		assert.Equal(t, c.s, got.Second())
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"D:",
		"D:2024",
		"D:2024011510300",
		"D:2024AB15103000",
		"D:20241315103000", // month 13
		"D:20240230103000", // Feb 30
		"D:20230229103000", // not a leap year
		"D:20240115243000", // hour 24
		"D:20240115106000", // minute 60
		"D:00000115103000", // year 0
		"January 15, 2024",
	} {
		t.Run(in, func(t *testing.T) {
			_, ok := Parse(in)
			assert.False(t, ok)
			assert.Nil(t, ISO(in))
		})
	}
}
