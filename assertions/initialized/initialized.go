package initialized

// A witness type used to detect structs that are not initialized.
//
// In Go, it is all too easy to create a struct without going through its
// constructor (`new(T)`, `T{}`), and to end up with a value that pretends to
// have type `T` but does not offer any of the guarantees attached to `T`, e.g.
// a `tags.Tags` whose internal map is nil.
//
// Operation manual:
// - add a field `witness IsInitialized` in your struct;
// - call `initialized.Make()` from your constructor;
// - call `self.witness.Assert()` whenever you access data from your struct.
//
// Result: a panic if the container struct was not created by its constructor.
type IsInitialized struct {
	isInitialized bool
}

// Create a `IsInitialized`.
func Make() IsInitialized {
	return IsInitialized{
		isInitialized: true,
	}
}

// Assert that this `IsInitialized` has been initialized, i.e. if it was created
// by calling `initialized.Make()`.
//
// Panics if it wasn't.
func (witness IsInitialized) Assert() {
	if !witness.isInitialized {
		panic("Struct was not initialized")
	}
}

