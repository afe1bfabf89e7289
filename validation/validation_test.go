package validation_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pasqal-io/respmap/assertions/testutils"
	"github.com/pasqal-io/respmap/validation"
)

var errInvalidEmail = errors.New("Invalid email")

func TestWrapError(t *testing.T) {
	err := validation.WrapError("Person.Email", errInvalidEmail)
	testutils.AssertEqual(t, err.Error(), "deserialized value Person.Email did not pass validation\n\t * Invalid email", "The path should appear in the message")

	var asValidation validation.Error
	testutils.AssertEqual(t, errors.As(err, &asValidation), true, "We should be able to recover the validation error")
	testutils.AssertEqual(t, asValidation.Path, "Person.Email", "The path should have been preserved")
	testutils.AssertEqual(t, asValidation.Wrapped, errInvalidEmail, "The cause should have been preserved")
}

func TestWrapErrorUnwrap(t *testing.T) {
	err := validation.WrapError("Person.Email", errInvalidEmail)
	testutils.AssertEqual(t, errors.Unwrap(err), errInvalidEmail, "Unwrap should return the cause")
	testutils.AssertEqual(t, errors.Is(err, errInvalidEmail), true, "The cause should be reachable with errors.Is")

	// Callers typically add their own context.
	outer := fmt.Errorf("could not read response\n\t * %w", err)
	testutils.AssertEqual(t, errors.Is(outer, errInvalidEmail), true, "The cause should survive further wrapping")
	var asValidation validation.Error
	testutils.AssertEqual(t, errors.As(outer, &asValidation), true, "The validation error should survive further wrapping")
	testutils.AssertEqual(t, asValidation.Path, "Person.Email", "The path should survive further wrapping")
}

func TestWrapErrorNested(t *testing.T) {
	inner := validation.WrapError("Address.Zip", errInvalidEmail)
	outer := validation.WrapError("Person.Address", inner)
	testutils.AssertEqual(t, outer.Error(), "deserialized value Person.Address did not pass validation\n\t * deserialized value Address.Zip did not pass validation\n\t * Invalid email", "Both paths should appear in the message")

	// errors.As stops at the outermost match.
	var asValidation validation.Error
	testutils.AssertEqual(t, errors.As(outer, &asValidation), true, "We should be able to recover the validation error")
	testutils.AssertEqual(t, asValidation.Path, "Person.Address", "The outermost path should be found first")

	var innerValidation validation.Error
	testutils.AssertEqual(t, errors.As(asValidation.Wrapped, &innerValidation), true, "We should be able to recover the inner validation error")
	testutils.AssertEqual(t, innerValidation.Path, "Address.Zip", "The inner path should have been preserved")
	testutils.AssertEqual(t, errors.Is(outer, errInvalidEmail), true, "The root cause should be reachable through both layers")
}

func TestErrorLiteral(t *testing.T) {
	for _, example := range []struct {
		path     string
		cause    error
		expected string
	}{
		{"", errInvalidEmail, "deserialized value  did not pass validation\n\t * Invalid email"},
		{"[]int[2]", errors.New("negative"), "deserialized value []int[2] did not pass validation\n\t * negative"},
	} {
		err := validation.Error{Path: example.path, Wrapped: example.cause}
		testutils.AssertEqual(t, err.Error(), example.expected, fmt.Sprintf("Unexpected message for path %q", example.path))
		testutils.AssertEqual(t, err.Unwrap(), example.cause, fmt.Sprintf("Unexpected cause for path %q", example.path))
	}
}
