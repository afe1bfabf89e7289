package testutils

import (
	"fmt"
	"reflect"
	"regexp"
	"testing"

	"github.com/pasqal-io/respmap/document"
	"github.com/pasqal-io/respmap/document/json"
)

// Fail if two values are different.
//
// Does not stop the test.
func AssertEqual[T comparable](t *testing.T, actual, expected T, explanation string) {
	t.Helper()
	if expected != actual {
		t.Errorf("got: %+v; want: %+v (%s)", actual, expected, explanation)
		if reflect.ValueOf(expected).Kind() == reflect.Pointer {
			t.Error("Warning: you're comparing two pointers -- pointers are only equal if they point to the same physical object")
		}
	}
}
func AssertEqualArrays[T comparable](t *testing.T, actual, expected []T, explanation string) {
	t.Helper()
	AssertEqual(t, len(actual), len(expected), fmt.Sprintf("%s - invalid length", explanation))
	for i := 0; i < len(actual) && i < len(expected); i++ {
		AssertEqual(t, actual[i], expected[i], fmt.Sprintf("%s - invalid item %d", explanation, i))
	}
}

func AssertRegexp(t *testing.T, actual string, pattern regexp.Regexp, explanation string) {
	t.Helper()
	if pattern.FindStringIndex(actual) != nil {
		return
	}
	t.Errorf("got: %+v; expected: %+v (%s)", actual, pattern, explanation)
}

// Parse a JSON document, stopping the test if it is invalid.
func ParseJSON(t *testing.T, source string) document.Node {
	t.Helper()
	node, err := json.Driver{}.Parse([]byte(source))
	if err != nil {
		t.Fatalf("invalid test document %s:\n\t * %s", source, err)
	}
	return node
}

// Build a document from natural Go values, stopping the test if that is impossible.
func FromValue(t *testing.T, value any) document.Node {
	t.Helper()
	node, err := document.FromValue(value)
	if err != nil {
		t.Fatalf("invalid test value %v:\n\t * %s", value, err)
	}
	return node
}
