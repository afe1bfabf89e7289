// Package coerce converts a single scalar document node into a typed Go value.
//
// Every function in this package is lenient with respect to the wire format
// (quoted numbers, case-insensitive booleans and enums, many date encodings),
// but strict with respect to the result: either the value fits the target
// exactly, or an `*Error` is returned and the caller decides what to do with it.
//
// Nothing here depends on the process locale: all parsing is culture-invariant.
package coerce

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pasqal-io/respmap/descriptor"
	"github.com/pasqal-io/respmap/document"
	"github.com/pasqal-io/respmap/document/json"
	"github.com/pasqal-io/respmap/names"
)

// A failure to coerce a node.
type Error struct {
	// A human-readable description of the expected value, e.g. "int32".
	Expected string

	// The node we attempted to coerce.
	Got document.Node

	// The underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
	}
	return fmt.Sprintf("expected %s, got %s\n\t * %s", e.Expected, e.Got, e.Cause.Error())
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func fail(expected string, got document.Node, cause error) *Error {
	return &Error{
		Expected: expected,
		Got:      got,
		Cause:    cause,
	}
}

// The text of a Number or String scalar, for targets that accept quoted primitives.
func numericText(node document.Node) (string, bool) {
	switch node.Kind() {
	case document.KindNumber:
		return node.Text(), true
	case document.KindString:
		text := strings.TrimSpace(node.Text())
		return text, text != ""
	default:
		return "", false
	}
}

// Coerce into a boolean.
//
// Accepts booleans and strings "true"/"false", case-insensitively.
func Bool(node document.Node) (bool, error) {
	if b, ok := node.AsBool(); ok {
		return b, nil
	}
	if node.Kind() == document.KindString {
		text := strings.TrimSpace(node.Text())
		switch {
		case strings.EqualFold(text, "true"):
			return true, nil
		case strings.EqualFold(text, "false"):
			return false, nil
		}
	}
	return false, fail("bool", node, nil)
}

// Coerce into a signed integer of `bitSize` bits.
//
// Accepts numbers and numeric strings. Integral floats (e.g. `28.0`, `1e3`)
// are accepted, as long as they fit.
func Int(node document.Node, bitSize int) (int64, error) {
	expected := fmt.Sprintf("int%d", bitSize)
	text, ok := numericText(node)
	if !ok {
		return 0, fail(expected, node, nil)
	}
	i, err := strconv.ParseInt(text, 10, bitSize)
	if err == nil {
		return i, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, fail(expected, node, err)
	}
	f, errFloat := strconv.ParseFloat(text, 64)
	if errFloat != nil || f != math.Trunc(f) {
		return 0, fail(expected, node, err)
	}
	limit := math.Ldexp(1, bitSize-1)
	if f < -limit || f >= limit {
		return 0, fail(expected, node, strconv.ErrRange)
	}
	return int64(f), nil
}

// Coerce into an unsigned integer of `bitSize` bits.
func Uint(node document.Node, bitSize int) (uint64, error) {
	expected := fmt.Sprintf("uint%d", bitSize)
	text, ok := numericText(node)
	if !ok {
		return 0, fail(expected, node, nil)
	}
	u, err := strconv.ParseUint(text, 10, bitSize)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, fail(expected, node, err)
	}
	f, errFloat := strconv.ParseFloat(text, 64)
	if errFloat != nil || f != math.Trunc(f) {
		return 0, fail(expected, node, err)
	}
	if f < 0 || f >= math.Ldexp(1, bitSize) {
		return 0, fail(expected, node, strconv.ErrRange)
	}
	return uint64(f), nil
}

// Coerce into a float of `bitSize` bits.
func Float(node document.Node, bitSize int) (float64, error) {
	expected := fmt.Sprintf("float%d", bitSize)
	text, ok := numericText(node)
	if !ok {
		return 0, fail(expected, node, nil)
	}
	f, err := strconv.ParseFloat(text, bitSize)
	if err != nil {
		return 0, fail(expected, node, err)
	}
	return f, nil
}

// Coerce into a string.
//
// Scalars are used verbatim (numbers and booleans are stringified), null
// becomes "", objects and arrays are re-serialized as compact JSON.
func String(node document.Node) string {
	switch node.Kind() {
	case document.KindObject, document.KindArray:
		return json.EncodeString(node)
	default:
		return node.Text()
	}
}

// Coerce into a GUID.
//
// The empty string is the all-zero GUID.
func GUID(node document.Node) (uuid.UUID, error) {
	if node.Kind() != document.KindString {
		return uuid.Nil, fail("GUID", node, nil)
	}
	text := strings.TrimSpace(node.Text())
	if text == "" {
		return uuid.Nil, nil
	}
	result, err := uuid.Parse(text)
	if err != nil {
		return uuid.Nil, fail("GUID", node, err)
	}
	return result, nil
}

// Coerce into a URI, relative or absolute.
func URI(node document.Node) (*url.URL, error) {
	if node.Kind() != document.KindString || node.Text() == "" {
		return nil, fail("URI", node, nil)
	}
	result, err := url.Parse(node.Text())
	if err != nil {
		return nil, fail("URI", node, err)
	}
	return result, nil
}

// Coerce into the value of an enum.
//
// Names are tried exactly, then case-insensitively, then after removing `_`
// and `-` (so `so_so`, `SoSo` and `SO-SO` all denote `SoSo`). Failing that,
// an integer is accepted if it is one of the declared values.
func Enum(node document.Node, members []descriptor.EnumMember) (int64, error) {
	if node.Kind() == document.KindString {
		text := strings.TrimSpace(node.Text())
		for _, m := range members {
			if m.Name == text {
				return m.Value, nil
			}
		}
		for _, m := range members {
			if strings.EqualFold(m.Name, text) {
				return m.Value, nil
			}
		}
		stripped := names.StripSeparators(text)
		for _, m := range members {
			if strings.EqualFold(names.StripSeparators(m.Name), stripped) {
				return m.Value, nil
			}
		}
	}
	if text, ok := numericText(node); ok {
		if value, err := strconv.ParseInt(text, 10, 64); err == nil {
			for _, m := range members {
				if m.Value == value {
					return value, nil
				}
			}
		}
	}
	return 0, fail("one of "+describeEnum(members), node, nil)
}

func describeEnum(members []descriptor.EnumMember) string {
	list := make([]string, len(members))
	for i, m := range members {
		list[i] = m.Name
	}
	return "[" + strings.Join(list, ", ") + "]"
}
