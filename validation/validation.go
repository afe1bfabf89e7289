// Mechanisms to deal with initialization and validation of values.
//
// These interfaces are primarily designed to be implemented by
// the target types of deserialization.
package validation

import "fmt"

// A type that supports initialization.
//
// The deserializer calls `Initialize()` at every depth of the tree,
// **before** populating the value. This is the place to set defaults:
// members absent from the document keep whatever `Initialize()` put there.
//
// Important: We expect `Initializer` to be implemented on **pointers**,
// rather than on structs.
//
// Otherwise, all its operations are performed on a copy of the struct and
// the result is lost immediately.
type Initializer interface {
	// Setup the contents of the struct.
	Initialize() error
}

// A type that supports validation.
//
// The deserializer calls `Validate()` at every depth of the tree,
// **after** populating the value.
//
// Important: We expect `Validator` to be implemented on **pointers**,
// rather than on structs.
//
// This lets `Validate()` perform any necessary changes to the data
// structure. In particular, if necessary, it may be used to populate
// private fields from the contents of public fields.
type Validator interface {
	// Confirm that the data is valid.
	//
	// Return an error if it is invalid.
	//
	// If necessary, this method may alter the contents of the struct.
	Validate() error
}

// An error returned by a `Validator`, along with the place where it happened.
type Error struct {
	// The path of the value that failed validation.
	Path string

	// The underlying error.
	Wrapped error
}

func (e Error) Error() string {
	return fmt.Sprintf("deserialized value %s did not pass validation\n\t * %s", e.Path, e.Wrapped.Error())
}

func (e Error) Unwrap() error {
	return e.Wrapped
}

// Attach a path to a validation error.
func WrapError(path string, err error) error {
	return Error{
		Path:    path,
		Wrapped: err,
	}
}

var _ error = Error{} //nolint:exhaustruct
