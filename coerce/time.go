package coerce

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pasqal-io/respmap/document"
)

// ISO-8601 variants, all parsed in UTC. Offset-bearing values are normalized
// to UTC, values without an offset are taken as UTC wall-clock times.
//
// Go accepts fractional seconds after the seconds field even if the layout
// doesn't mention them.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Fallback layouts, tried last. All of them are culture-neutral.
var fallbackLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.RFC822,
	time.RFC822Z,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006 15:04:05",
	"02 Jan 2006",
}

// `/Date(1309421746929)/`, optionally with an offset, as sent by
// Microsoft serializers, or `new Date(1309421746929)` as sent by JavaScript.
var embeddedEpoch = regexp.MustCompile(`^(?:/?|new\s+)Date\((-?\d+)([+-]\d{4})?\)/?$`)

// Coerce into a UTC instant.
//
// Attempts, in order:
//  1. `layout`, if non-empty (a Go layout, see package dateformat), also for numbers;
//  2. ISO-8601 variants;
//  3. `/Date(milliseconds)/` or `new Date(milliseconds)`;
//  4. Unix epoch seconds (as a number or a numeric string);
//  5. a list of common culture-neutral layouts.
func Time(node document.Node, layout string) (time.Time, error) {
	if node.Kind() == document.KindNumber {
		// Formats such as `yyyyMMdd` are numbers on the wire.
		if layout != "" {
			if result, err := time.ParseInLocation(layout, node.Text(), time.UTC); err == nil {
				return result.UTC(), nil
			}
		}
		return unixSeconds(node)
	}
	if node.Kind() != document.KindString {
		return time.Time{}, fail("date", node, nil)
	}
	text := strings.TrimSpace(node.Text())
	if text == "" {
		return time.Time{}, fail("date", node, nil)
	}

	if layout != "" {
		if result, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return result.UTC(), nil
		}
	}
	for _, l := range isoLayouts {
		if result, err := time.ParseInLocation(l, text, time.UTC); err == nil {
			return result.UTC(), nil
		}
	}
	if match := embeddedEpoch.FindStringSubmatch(text); match != nil {
		ms, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return time.Time{}, fail("date", node, err)
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return unixSeconds(node)
	}
	for _, l := range fallbackLayouts {
		if result, err := time.ParseInLocation(l, text, time.UTC); err == nil {
			return result.UTC(), nil
		}
	}
	return time.Time{}, fail("date", node, nil)
}

func unixSeconds(node document.Node) (time.Time, error) {
	text, _ := numericText(node)
	if seconds, err := strconv.ParseInt(text, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return time.Time{}, fail("unix timestamp", node, err)
	}
	whole, frac := math.Modf(f)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
}

// `[-][d.]hh:mm[:ss[.fffffff]]`, as sent by Microsoft serializers for TimeSpan.
var timeSpan = regexp.MustCompile(`^(-)?(?:(\d+)\.)?(\d{1,2}):(\d{1,2})(?::(\d{1,2})(?:\.(\d{1,9}))?)?$`)

// Coerce into a duration.
//
// Accepts Go duration strings (`1h30m`), TimeSpan strings (`1.02:03:04.5`)
// and integers, taken as nanoseconds, which is how Go itself encodes
// durations.
func Duration(node document.Node) (time.Duration, error) {
	switch node.Kind() {
	case document.KindNumber:
		ns, err := strconv.ParseInt(node.Text(), 10, 64)
		if err != nil {
			return 0, fail("duration", node, err)
		}
		return time.Duration(ns), nil
	case document.KindString:
		text := strings.TrimSpace(node.Text())
		if d, err := time.ParseDuration(text); err == nil {
			return d, nil
		}
		if d, err := parseTimeSpan(text); err == nil {
			return d, nil
		}
		if ns, err := strconv.ParseInt(text, 10, 64); err == nil {
			return time.Duration(ns), nil
		}
		return 0, fail("duration", node, nil)
	default:
		return 0, fail("duration", node, nil)
	}
}

var errNotATimeSpan = errors.New("not a time span")

func parseTimeSpan(text string) (time.Duration, error) {
	match := timeSpan.FindStringSubmatch(text)
	if match == nil {
		return 0, errNotATimeSpan
	}
	atoi := func(s string) int64 {
		if s == "" {
			return 0
		}
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	}
	hours, minutes, seconds := atoi(match[3]), atoi(match[4]), atoi(match[5])
	if hours > 23 || minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("time span %s is out of range", text)
	}
	result := time.Duration(atoi(match[2]))*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	if fraction := match[6]; fraction != "" {
		// Right-pad to nanoseconds.
		fraction += strings.Repeat("0", 9-len(fraction))
		result += time.Duration(atoi(fraction))
	}
	if match[1] == "-" {
		result = -result
	}
	return result, nil
}
