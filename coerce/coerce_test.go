package coerce_test

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pasqal-io/respmap/coerce"
	"github.com/pasqal-io/respmap/coerce/dateformat"
	"github.com/pasqal-io/respmap/descriptor"
	"github.com/pasqal-io/respmap/document"
	"gotest.tools/v3/assert"
)

func TestQuotedPrimitives(t *testing.T) {
	i, err := coerce.Int(document.String("28"), 32)
	assert.NilError(t, err)
	assert.Equal(t, i, int64(28))

	i, err = coerce.Int(document.Number("28.0"), 64)
	assert.NilError(t, err)
	assert.Equal(t, i, int64(28))

	i, err = coerce.Int(document.Number("9223372036854775807"), 64)
	assert.NilError(t, err)
	assert.Equal(t, i, int64(9223372036854775807))

	u, err := coerce.Uint(document.String(" 255 "), 8)
	assert.NilError(t, err)
	assert.Equal(t, u, uint64(255))

	f, err := coerce.Float(document.String("99.9999"), 64)
	assert.NilError(t, err)
	assert.Equal(t, f, 99.9999)
}

func TestNumericFailures(t *testing.T) {
	_, err := coerce.Int(document.Number("128"), 8)
	assert.Assert(t, errors.Is(err, strconv.ErrRange))

	_, err = coerce.Int(document.Number("1.5"), 64)
	assert.ErrorContains(t, err, "expected int64, got 1.5")

	_, err = coerce.Uint(document.Number("-1"), 64)
	assert.Assert(t, err != nil)

	_, err = coerce.Int(document.Bool(true), 64)
	assert.ErrorContains(t, err, "expected int64, got true")

	_, err = coerce.Float(document.String(""), 64)
	assert.Assert(t, err != nil)

	var coerceErr *coerce.Error
	assert.Assert(t, errors.As(err, &coerceErr))
	assert.Equal(t, coerceErr.Expected, "float64")
}

func TestBool(t *testing.T) {
	for _, node := range []document.Node{document.Bool(true), document.String("true"), document.String("TRUE"), document.String("True")} {
		b, err := coerce.Bool(node)
		assert.NilError(t, err)
		assert.Equal(t, b, true)
	}
	b, err := coerce.Bool(document.String("False"))
	assert.NilError(t, err)
	assert.Equal(t, b, false)

	_, err = coerce.Bool(document.String("yes"))
	assert.Assert(t, err != nil)
}

func TestString(t *testing.T) {
	assert.Equal(t, coerce.String(document.Number("1.50")), "1.50")
	assert.Equal(t, coerce.String(document.Bool(false)), "false")
	assert.Equal(t, coerce.String(document.Null()), "")
	assert.Equal(t, coerce.String(document.Array(document.String("Value1"), document.String("Value2"))), `["Value1","Value2"]`)
	assert.Equal(t, coerce.String(document.ObjectOf(
		document.Pair("Name", document.String("ThingRed")),
		document.Pair("Color", document.String("Red")),
	)), `{"Name":"ThingRed","Color":"Red"}`)
}

func TestGUID(t *testing.T) {
	const guidString = "AC1FC4BC-087A-4242-B8EE-C53EBE9887A5"
	g, err := coerce.GUID(document.String(guidString))
	assert.NilError(t, err)
	assert.Equal(t, g, uuid.MustParse(guidString))

	g, err = coerce.GUID(document.String(""))
	assert.NilError(t, err)
	assert.Equal(t, g, uuid.Nil)

	_, err = coerce.GUID(document.String("not-a-guid"))
	assert.Assert(t, err != nil)
}

func TestURI(t *testing.T) {
	u, err := coerce.URI(document.String("http://example.com"))
	assert.NilError(t, err)
	assert.Equal(t, u.Host, "example.com")

	u, err = coerce.URI(document.String("/foo/bar"))
	assert.NilError(t, err)
	assert.Equal(t, u.Path, "/foo/bar")
	assert.Assert(t, !u.IsAbs())

	_, err = coerce.URI(document.String(""))
	assert.Assert(t, err != nil)
}

var disposition = []descriptor.EnumMember{
	{Name: "Friendly", Value: 0},
	{Name: "SoSo", Value: 1},
	{Name: "SteerVeryClear", Value: 2},
}

func TestEnum(t *testing.T) {
	for _, input := range []string{"FRIENDLY", "friendly", "Friendly"} {
		value, err := coerce.Enum(document.String(input), disposition)
		assert.NilError(t, err, input)
		assert.Equal(t, value, int64(0), input)
	}
	for _, input := range []string{"so_so", "SoSo", "SO-SO", "soso", "SO_SO"} {
		value, err := coerce.Enum(document.String(input), disposition)
		assert.NilError(t, err, input)
		assert.Equal(t, value, int64(1), input)
	}
	value, err := coerce.Enum(document.Number("2"), disposition)
	assert.NilError(t, err)
	assert.Equal(t, value, int64(2))

	value, err = coerce.Enum(document.String("1"), disposition)
	assert.NilError(t, err)
	assert.Equal(t, value, int64(1))

	_, err = coerce.Enum(document.Number("1024"), disposition)
	assert.ErrorContains(t, err, "expected one of [Friendly, SoSo, SteerVeryClear], got 1024")
}

func TestTime(t *testing.T) {
	cases := []struct {
		input    document.Node
		expected time.Time
	}{
		{document.String("2011-06-30T08:15:46.929Z"), time.Date(2011, 6, 30, 8, 15, 46, 929000000, time.UTC)},
		{document.String("2012-07-19T10:23:25"), time.Date(2012, 7, 19, 10, 23, 25, 0, time.UTC)},
		{document.String("2012-07-19T10:23:25.544Z"), time.Date(2012, 7, 19, 10, 23, 25, 544000000, time.UTC)},
		{document.String("2012-07-19T12:23:25.544+02:00"), time.Date(2012, 7, 19, 10, 23, 25, 544000000, time.UTC)},
		{document.String("2012-07-19T05:23:25.544-0500"), time.Date(2012, 7, 19, 10, 23, 25, 544000000, time.UTC)},
		{document.String("1910-09-25"), time.Date(1910, 9, 25, 0, 0, 0, 0, time.UTC)},
		{document.String("2010-02-08 11:11:11Z"), time.Date(2010, 2, 8, 11, 11, 11, 0, time.UTC)},
		{document.String("/Date(1309421746929)/"), time.Date(2011, 6, 30, 8, 15, 46, 929000000, time.UTC)},
		{document.String("/Date(1309421746929+0100)/"), time.Date(2011, 6, 30, 8, 15, 46, 929000000, time.UTC)},
		{document.String("new Date(1309421746929)"), time.Date(2011, 6, 30, 8, 15, 46, 929000000, time.UTC)},
		{document.Number("1309421746"), time.Date(2011, 6, 30, 8, 15, 46, 0, time.UTC)},
		{document.String("1309421746"), time.Date(2011, 6, 30, 8, 15, 46, 0, time.UTC)},
		{document.String("Fri, 25 Sep 2009 00:06:01 GMT"), time.Date(2009, 9, 25, 0, 6, 1, 0, time.UTC)},
		{document.String("09/25/2009 00:06:01"), time.Date(2009, 9, 25, 0, 6, 1, 0, time.UTC)},
	}
	for _, c := range cases {
		result, err := coerce.Time(c.input, "")
		assert.NilError(t, err, c.input.String())
		assert.Assert(t, result.Equal(c.expected), "%s: got %s, want %s", c.input, result, c.expected)
		assert.Equal(t, result.Location(), time.UTC, c.input.String())
	}
}

func TestTimeCustomFormat(t *testing.T) {
	layout, err := dateformat.Layout("dd yyyy MMM, hh:mm ss tt")
	assert.NilError(t, err)
	result, err := coerce.Time(document.String("08 2010 Feb, 11:11 11 AM"), layout)
	assert.NilError(t, err)
	assert.Assert(t, result.Equal(time.Date(2010, 2, 8, 11, 11, 11, 0, time.UTC)))

	// Numbers are tried against the custom format before unix timestamps.
	compact, err := dateformat.Layout("yyyyMMdd")
	assert.NilError(t, err)
	result, err = coerce.Time(document.Number("20100208"), compact)
	assert.NilError(t, err)
	assert.Assert(t, result.Equal(time.Date(2010, 2, 8, 0, 0, 0, 0, time.UTC)), "got %s", result)
	result, err = coerce.Time(document.Number("1309421746"), compact)
	assert.NilError(t, err)
	assert.Assert(t, result.Equal(time.Date(2011, 6, 30, 8, 15, 46, 0, time.UTC)), "got %s", result)

	// A custom format takes priority but doesn't prevent built-in formats.
	result, err = coerce.Time(document.String("2010-02-08T11:11:11Z"), layout)
	assert.NilError(t, err)
	assert.Assert(t, result.Equal(time.Date(2010, 2, 8, 11, 11, 11, 0, time.UTC)))
}

func TestTimeFailures(t *testing.T) {
	for _, node := range []document.Node{document.String(""), document.String("yesterday"), document.Bool(true), document.Null()} {
		_, err := coerce.Time(node, "")
		assert.Assert(t, err != nil, node.String())
	}
}

func TestDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1h30m":          90 * time.Minute,
		"00:00:00.125":   125 * time.Millisecond,
		"00:00:08":       8 * time.Second,
		"00:55:02":       55*time.Minute + 2*time.Second,
		"21:30:07":       21*time.Hour + 30*time.Minute + 7*time.Second,
		"1.02:03:04":     26*time.Hour + 3*time.Minute + 4*time.Second,
		"-00:01":         -time.Minute,
		"00:00:00.04680": 46800 * time.Microsecond,
	}
	for input, expected := range cases {
		d, err := coerce.Duration(document.String(input))
		assert.NilError(t, err, input)
		assert.Equal(t, d, expected, input)
	}

	d, err := coerce.Duration(document.Number("1500"))
	assert.NilError(t, err)
	assert.Equal(t, d, 1500*time.Nanosecond)

	_, err = coerce.Duration(document.String("25:00:00"))
	assert.Assert(t, err != nil)
}
