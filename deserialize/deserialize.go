// Out of the box, Go's json (and other deserializers) expect the wire format to
// follow the naming and typing conventions of the Go structs. Web APIs do not:
// the same field may be sent as `StartDate`, `start_date` or `_startDate`, numbers
// may be quoted, dates come in a dozen encodings, a list with a single item may
// lose its array wrapper and the payload may be nested under a root element.
//
// This package implements a lenient deserialization from parsed documents
// (see package `document`) into arbitrary Go types.
//
// # Recommended use
//
// If you have a struct `FooSchema` that you wish to deserialize:
//
//	deserializer, err := deserialize.MakeDeserializer[FooSchema](deserialize.JSONOptions("foo"))
//	...
//	foo, err := deserializer.DeserializeBytes(body)
//
// - To define default values for fields, implement `validation.Initializer`
//
//	func (result *FooSchema) Initialize() error {
//	   result.MyField1 = defaultValue1
//	   result.MyField2 = defaultValue2
//	   ...
//	   return nil
//	}
//
// - To check the result, implement `validation.Validator`
//
//	func (result *FooSchema) Validate() error {
//	   if result.MyField1 > 100 {
//	       return fmt.Errorf("invalid value for MyField1!")
//	   }
//	   return nil
//	}
//
// Same behavior as the standard library:
//   - lower-case field names mean that we NEVER accept external data during deserialization;
//   - enforces `json:"XXXX"` renamings when deserializing JSON;
//   - a field renamed to `json:"-"` will not accept external data during deserialization;
//   - if a type implements `json.Unmarshaler` or `encoding.TextUnmarshaler`, use this
//     method instead of anything built-in.
//
// Different behavior:
//   - document keys are matched with members case-insensitively, ignoring `_` and `-`
//     and a leading `_` (see package `names`);
//   - quoted primitives (`"28"`) are accepted for numbers and booleans;
//   - a lone value is accepted where a slice is expected;
//   - dates are accepted in ISO-8601, Unix, `/Date(...)/` and a few other encodings;
//   - if a tag `default:"XXX"` is specified, we use this value when a field is not specified;
//   - a value that cannot be converted does not abort deserialization: the field keeps
//     its default value and a `Note` is recorded, unless `Options.Strict` is set;
//   - a type implementing `document.Unmarshaler` receives the raw document node.
//
// # Warning
//
// Go will NOT let us deserialize or apply default values to private
// fields (i.e. fields which start lower-case). If you have a private field, it will be
// initialized to its zero value unless you implement `Initializer` on the struct containing.
package deserialize

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/pasqal-io/respmap/coerce/dateformat"
	"github.com/pasqal-io/respmap/descriptor"
	"github.com/pasqal-io/respmap/document"
	jsonPkg "github.com/pasqal-io/respmap/document/json"
	"github.com/pasqal-io/respmap/document/form"
	"github.com/pasqal-io/respmap/document/xml"
	"github.com/pasqal-io/respmap/document/yaml"
)

// -------- Public API --------

// Options for building a deserializer.
//
// See also JSONOptions, XMLOptions, etc. for reasonable
// default values.
type Options struct {
	// The name of tags used for renamings (e.g. "json").
	//
	// If you leave this blank, defaults to "json".
	MainTagName string

	// A member of the top-level object that contains the actual payload,
	// e.g. "users" in `{"users": [...]}`.
	//
	// Matched like any other member name. Ignored if the document is not an
	// object. If the document has no such member, the result is the default
	// value for the target type.
	//
	// Optional.
	RootElement string

	// A custom date format, tried before any built-in date format.
	//
	// Either a Go layout (`02 2006 Jan`) or a .NET-style pattern
	// (`dd yyyy MMM`), see package `dateformat`. Individual fields may
	// override it with tag `dateFormat`.
	//
	// Optional.
	DateFormat string

	// If `true`, fail instead of returning a value whenever a note is
	// recorded, i.e. a value could not be converted or failed validation.
	Strict bool

	// If `true`, a sequence also accepts an object whose only member holds the
	// elements, e.g. `{"Friend": [...]}`, unless that member belongs to the
	// element type. This is how XML wraps lists (`<Friends><Friend/>...</Friends>`).
	UnwrapLists bool

	// A parser, used to deserialize values when they
	// are provided as []byte or string.
	Parser document.Parser

	// The logger for notes and errors.
	//
	// If you leave this blank, defaults to `slog.Default()`.
	Logger *slog.Logger
}

const JSON = "json"

// A preset fit for consuming JSON.
//
// Params:
//   - rootElement The member containing the payload, or `""`.
func JSONOptions(rootElement string) Options {
	return Options{
		MainTagName: JSON,
		RootElement: rootElement,
		DateFormat:  "",
		Strict:      false,
		UnwrapLists: false,
		Parser:      jsonPkg.Driver{},
		Logger:      nil,
	}
}

// A preset fit for consuming XML.
//
// The tag name is `xml`. Sequences accept wrapper elements, see `Options.UnwrapLists`.
//
// Params:
//   - rootElement The child of the root element containing the payload, or `""`.
func XMLOptions(rootElement string) Options {
	return Options{
		MainTagName: "xml",
		RootElement: rootElement,
		DateFormat:  "",
		Strict:      false,
		UnwrapLists: true,
		Parser:      xml.Driver{},
		Logger:      nil,
	}
}

// A preset fit for consuming YAML.
//
// The tag name is `yaml`.
//
// Params:
//   - rootElement The member containing the payload, or `""`.
func YAMLOptions(rootElement string) Options {
	return Options{
		MainTagName: "yaml",
		RootElement: rootElement,
		DateFormat:  "",
		Strict:      false,
		UnwrapLists: false,
		Parser:      yaml.Driver{},
		Logger:      nil,
	}
}

// A preset fit for consuming `application/x-www-form-urlencoded` bodies,
// e.g. OAuth token responses.
//
// The tag name is `form`.
//
// Params:
//   - rootElement The member containing the payload, or `""`.
func FormOptions(rootElement string) Options {
	return Options{
		MainTagName: "form",
		RootElement: rootElement,
		DateFormat:  "",
		Strict:      false,
		UnwrapLists: false,
		Parser:      form.Driver{},
		Logger:      nil,
	}
}

// A deserializer into values of type `To`.
//
// Deserializers are immutable and safe for concurrent use.
type Deserializer[To any] interface {
	// Deserialize a value from a parsed document.
	DeserializeNode(document.Node) (*To, error)

	// Deserialize a value from a parsed document, returning the notes
	// recorded for values that could not be converted.
	DeserializeNodeWithNotes(document.Node) (*To, []Note, error)

	// Parse then deserialize, using `Options.Parser`.
	DeserializeBytes([]byte) (*To, error)

	// Parse then deserialize, using `Options.Parser`.
	DeserializeString(string) (*To, error)
}

// A deserializer for a type only known at runtime.
type ReflectDeserializer interface {
	// Deserialize into `out`, which must be a settable value of the type
	// passed to `MakeDeserializerFromReflect`.
	DeserializeNodeTo(document.Node, *reflect.Value) ([]Note, error)
}

// Create a deserializer into `T`.
func MakeDeserializer[T any](options Options) (Deserializer[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	engine, err := makeEngine(options, typ)
	if err != nil {
		return nil, err
	}
	return deserializer[T]{
		engine: engine,
	}, nil
}

// Create a deserializer into `typ`.
func MakeDeserializerFromReflect(options Options, typ reflect.Type) (ReflectDeserializer, error) {
	engine, err := makeEngine(options, typ)
	if err != nil {
		return nil, err
	}
	return reflectDeserializer{
		engine: engine,
	}, nil
}

// Deserialize a single value.
//
// If you deserialize many values of the same type, prefer `MakeDeserializer`,
// which checks the options once.
func Deserialize[T any](node document.Node, options Options) (*T, error) {
	deserializer, err := MakeDeserializer[T](options)
	if err != nil {
		return nil, err
	}
	return deserializer.DeserializeNode(node)
}

// An error that arises because of a bug in a custom deserializer.
type CustomDeserializerError struct {
	// The operation that failed, e.g. "initializer", "unmarshal".
	Operation string

	// The kind of value we were applying it to, e.g. "struct", "custom".
	Structure string

	// The underlying error.
	Wrapped error
}

// Return the user-facing message.
func (e CustomDeserializerError) Error() string {
	return e.Wrapped.Error()
}

// Unwrap the error.
func (e CustomDeserializerError) Unwrap() error {
	return e.Wrapped
}

var _ error = CustomDeserializerError{} //nolint:exhaustruct

// An error that arises because the document doesn't have the shape of the
// target type, e.g. a scalar where an object is expected.
//
// At top-level, this is the only mapping failure returned in lenient mode.
// Deeper in the document, the same mismatch only yields a note.
type StructuralMismatchError struct {
	// The path to the value, e.g. `Person.Friends[2]`.
	Path string

	// The shape we expected.
	Expected descriptor.Shape

	// The kind of node we received.
	Got document.Kind
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("invalid value at %s, expected %s, got %s", e.Path, e.Expected, e.Got)
}

// The kind of a note.
type NoteKind uint8

const (
	// A value could not be converted to its target type.
	CoercionNote NoteKind = iota

	// A value was rejected by its `Validator`.
	ValidationNote
)

func (k NoteKind) String() string {
	switch k {
	case CoercionNote:
		return "coercion"
	case ValidationNote:
		return "validation"
	default:
		return fmt.Sprintf("NoteKind(%d)", uint8(k))
	}
}

// A non-fatal problem encountered during deserialization.
//
// The value at `Path` was left at its default (coercion) or kept as
// deserialized (validation).
type Note struct {
	Path string
	Kind NoteKind

	// A short description of the offending input.
	Input string

	Err error
}

func (n Note) String() string {
	return fmt.Sprintf("%s failure at %s, input %s\n\t * %s", n.Kind, n.Path, n.Input, n.Err)
}

// The error returned in strict mode when notes were recorded.
type StrictError struct {
	Notes []Note
}

func (e *StrictError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d value(s) could not be deserialized", len(e.Notes))
	for _, note := range e.Notes {
		buf.WriteString("\n\t * ")
		buf.WriteString(note.String())
	}
	return buf.String()
}

func (e *StrictError) Unwrap() []error {
	result := make([]error, len(e.Notes))
	for i, note := range e.Notes {
		result[i] = note.Err
	}
	return result
}

// ----------------- Private

type deserializer[T any] struct {
	engine *engine
}

func (me deserializer[T]) DeserializeNodeWithNotes(node document.Node) (*T, []Note, error) {
	out := new(T)
	slot := reflect.ValueOf(out).Elem()
	notes, err := me.engine.run(node, slot)
	if err != nil {
		return nil, notes, err
	}
	return out, notes, nil
}

func (me deserializer[T]) DeserializeNode(node document.Node) (*T, error) {
	result, _, err := me.DeserializeNodeWithNotes(node)
	return result, err
}

func (me deserializer[T]) DeserializeBytes(source []byte) (*T, error) {
	node, err := me.engine.parse(source)
	if err != nil {
		return nil, err
	}
	return me.DeserializeNode(node)
}

func (me deserializer[T]) DeserializeString(source string) (*T, error) {
	return me.DeserializeBytes([]byte(source))
}

type reflectDeserializer struct {
	engine *engine
}

func (rd reflectDeserializer) DeserializeNodeTo(node document.Node, reflectOut *reflect.Value) ([]Note, error) {
	if reflectOut.Type() != rd.engine.root.GoType {
		return nil, fmt.Errorf("invalid output, expected %s, got %s", rd.engine.root.GoType, reflectOut.Type())
	}
	if !reflectOut.CanSet() {
		return nil, errors.New("invalid output, value cannot be set")
	}
	return rd.engine.run(node, *reflectOut)
}

// A deserializer for one type, independent from the static type `T`.
type engine struct {
	root *descriptor.Type

	// The path of the root, used in notes and errors.
	rootPath string

	rootElement string

	// The Go layout for `Options.DateFormat`, or "".
	layout string

	strict      bool
	unwrapLists bool
	parser      document.Parser
	logger *slog.Logger
}

func makeEngine(options Options, typ reflect.Type) (*engine, error) {
	tagName := options.MainTagName
	if tagName == "" {
		tagName = JSON
	}
	layout := ""
	if options.DateFormat != "" {
		var err error
		layout, err = dateformat.Layout(options.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("invalid option DateFormat:\n\t * %w", err)
		}
	}
	root, err := descriptor.For(typ, tagName)
	if err != nil {
		return nil, fmt.Errorf("could not generate a deserializer for %s:\n\t * %w", descriptor.TypeName(typ), err)
	}
	if root.Shape == descriptor.Unsupported {
		return nil, fmt.Errorf("could not generate a deserializer for %s, this type is not supported", descriptor.TypeName(typ))
	}
	result := &engine{
		root:        root,
		rootPath:    descriptor.TypeName(typ),
		rootElement: options.RootElement,
		layout:      layout,
		strict:      options.Strict,
		unwrapLists: options.UnwrapLists,
		parser:      options.Parser,
		logger:      options.Logger,
	}
	if err := result.checkDefaults(root, result.rootPath, make(map[*descriptor.Type]bool)); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

func (e *engine) parse(source []byte) (document.Node, error) {
	if e.parser == nil {
		return document.Null(), errors.New("please specify a parser")
	}
	node, err := e.parser.Parse(source)
	if err != nil {
		return document.Null(), fmt.Errorf("failed to deserialize source: \n\t * %w", err)
	}
	return node, nil
}

// Deserialize `node` into `out`, which must be settable.
func (e *engine) run(node document.Node, out reflect.Value) ([]Note, error) {
	node = e.navigate(node)
	node, err := e.normalize(node)
	if err != nil {
		return nil, err
	}
	st := state{
		engine: e,
		notes:  []Note{},
	}
	if err := st.build(e.rootPath, e.root, node, out, e.layout); err != nil {
		return st.notes, err
	}
	if e.strict && len(st.notes) > 0 {
		return st.notes, &StrictError{Notes: st.notes}
	}
	return st.notes, nil
}
