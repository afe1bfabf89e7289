package dateformat_test

import (
	"testing"
	"time"

	"github.com/pasqal-io/respmap/coerce/dateformat"
	"gotest.tools/v3/assert"
)

func TestLayout(t *testing.T) {
	cases := map[string]string{
		"dd yyyy MMM, hh:mm ss tt":    "02 2006 Jan, 03:04 05 PM",
		"yyyy-MM-ddTHH:mm:ss.fffK":    "2006-01-02T15:04:05.000Z07:00",
		"dddd, MMMM d, yyyy":          "Monday, January 2, 2006",
		"M/d/yy H:m:s":                "1/2/06 15:4:5",
		"yyyy'year'MM":                "2006year01",
		"yyyyMMdd":                    "20060102",
		"HH\\hmm":                     "15h04",
		"2006-01-02 15:04":            "2006-01-02 15:04",
		"yyyy-MM-dd HH:mm:ss.FFF zzz": "2006-01-02 15:04:05.999 -07:00",
	}
	for pattern, expected := range cases {
		layout, err := dateformat.Layout(pattern)
		assert.NilError(t, err, pattern)
		assert.Equal(t, layout, expected, pattern)
	}
}

func TestLayoutParsesCultureInvariantly(t *testing.T) {
	layout, err := dateformat.Layout("dd yyyy MMM, hh:mm ss tt")
	assert.NilError(t, err)

	parsed, err := time.Parse(layout, "08 2010 Feb, 11:11 11 AM")
	assert.NilError(t, err)
	assert.Assert(t, parsed.Equal(time.Date(2010, 2, 8, 11, 11, 11, 0, time.UTC)))
}

func TestLayoutErrors(t *testing.T) {
	for _, pattern := range []string{
		"",
		"yyyy 'unterminated",
		"HH:mm t",
		"ffff",
		"yyyy g",
		"yyyyy",
		"yyyy 'Jan'",
		"HH\\",
	} {
		_, err := dateformat.Layout(pattern)
		assert.Assert(t, err != nil, "pattern %q should have been rejected", pattern)
	}
}
