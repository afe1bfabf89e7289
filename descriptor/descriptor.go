// Package descriptor derives, once per Go type, the metadata needed to
// populate values of that type from a document.
//
// Reflection is confined to this package: `For` inspects a type, classifies
// it into a closed set of shapes and lists its writable members. The result is
// immutable and cached, so deserializers never re-inspect types while mapping
// values.
//
// Types may customize their description declaratively:
//   - struct tags rename (`json:"name"`), ignore (`json:"-"`), flatten
//     (`flatten:""`), provide defaults (`default:"..."`) or date formats
//     (`dateFormat:"dd yyyy MMM"`);
//   - integer types implementing `Enumeration` are enums;
//   - types implementing `document.Unmarshaler`, `json.Unmarshaler` or
//     `encoding.TextUnmarshaler` (on pointers) populate themselves.
package descriptor

import (
	"encoding"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pasqal-io/respmap/coerce/dateformat"
	tagsPkg "github.com/pasqal-io/respmap/descriptor/tags"
	"github.com/pasqal-io/respmap/document"
	"github.com/pasqal-io/respmap/validation"
)

// The classification of a type.
type Shape uint8

const (
	// A type we do not know how to populate.
	Unsupported Shape = iota

	// bool, ints, uints, floats.
	Primitive

	String

	// An integer type implementing `Enumeration`.
	Enum

	// time.Time
	Time

	// time.Duration
	Duration

	// uuid.UUID
	GUID

	// url.URL
	URI

	// A struct.
	Object

	// A slice or a fixed-size array.
	Sequence

	// A map with string keys.
	Mapping

	// A pointer to any other shape.
	Nullable

	// The empty interface, populated with natural Go values.
	Dynamic

	// A type implementing `document.Unmarshaler`.
	Custom

	// A type implementing `json.Unmarshaler`, handed the node re-serialized as JSON.
	JSON

	// A type implementing `encoding.TextUnmarshaler`.
	Text
)

func (s Shape) String() string {
	switch s {
	case Unsupported:
		return "unsupported"
	case Primitive:
		return "primitive"
	case String:
		return "string"
	case Enum:
		return "enum"
	case Time:
		return "date"
	case Duration:
		return "duration"
	case GUID:
		return "GUID"
	case URI:
		return "URI"
	case Object:
		return "object"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	case Nullable:
		return "nullable"
	case Dynamic:
		return "dynamic"
	case Custom:
		return "custom"
	case JSON:
		return "json"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
}

// Return true for shapes that are populated from a single scalar.
func (s Shape) IsScalar() bool {
	switch s {
	case Primitive, String, Enum, Time, Duration, GUID, URI, Text:
		return true
	default:
		return false
	}
}

// A symbolic value of an enum.
type EnumMember struct {
	Name  string
	Value int64
}

// An integer type with symbolic values, e.g.
//
//	type Disposition int
//
//	const (
//		Friendly Disposition = iota
//		SoSo
//	)
//
//	func (Disposition) EnumMembers() []descriptor.EnumMember {
//		return []descriptor.EnumMember{{Name: "Friendly", Value: 0}, {Name: "SoSo", Value: 1}}
//	}
//
// The zero value is used whenever a document value matches no member.
type Enumeration interface {
	EnumMembers() []EnumMember
}

// The description of a type.
//
// Descriptors are immutable and may reference themselves (recursive types).
type Type struct {
	GoType reflect.Type
	Shape  Shape

	// For Object: the writable members, in declaration order, embedded
	// structs promoted.
	Members []Member

	// For Sequence, Mapping, Nullable: the element (resp. value, pointee).
	Elem *Type

	// For Mapping: the type of keys, string-kinded.
	Key reflect.Type

	// For Enum: the symbolic values.
	Enum []EnumMember

	// If `*GoType` implements `validation.Initializer`.
	CanInitialize bool

	// If `*GoType` implements `validation.Validator`.
	CanValidate bool
}

// A writable member of an Object.
type Member struct {
	// The name expected on the wire, i.e. the renaming from the tag or
	// the Go field name.
	Name string

	// The Go field name.
	GoName string

	// The path to the field, as used by `reflect.Value.FieldByIndex`.
	Index []int

	Type *Type

	// The value to use if the member is absent from the document, from tag `default`.
	Default *string

	// A Go layout to use for dates in this member, from tag `dateFormat`.
	DateLayout string
}

var (
	unmarshalerInterface     = reflect.TypeOf((*document.Unmarshaler)(nil)).Elem()
	jsonUnmarshalerInterface = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerInterface = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	enumerationInterface     = reflect.TypeOf((*Enumeration)(nil)).Elem()
	initializerInterface     = reflect.TypeOf((*validation.Initializer)(nil)).Elem()
	validatorInterface       = reflect.TypeOf((*validation.Validator)(nil)).Elem()

	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
	urlType      = reflect.TypeOf(url.URL{}) //nolint:exhaustruct
)

type cacheKey struct {
	typ     reflect.Type
	tagName string
}

// Descriptors derived so far, by (type, tag name).
var cache sync.Map

// Return the descriptor for `typ`, using tag `tagName` for renamings.
//
// Derivation is idempotent, so concurrent callers may race to derive the same
// descriptor, one of them is kept.
//
// Returns an error only for ill-formed types, e.g. invalid tags or
// `Initializer` implemented on a struct instead of a pointer. Types that have
// no supported shape are described with shape `Unsupported`.
func For(typ reflect.Type, tagName string) (*Type, error) {
	key := cacheKey{typ: typ, tagName: tagName}
	if found, ok := cache.Load(key); ok {
		return found.(*Type), nil //nolint:forcetypeassert
	}
	d := deriver{
		tagName:  tagName,
		building: make(map[reflect.Type]*Type),
	}
	result, err := d.derive(typ)
	if err != nil {
		return nil, err
	}
	for t, built := range d.building {
		cache.LoadOrStore(cacheKey{typ: t, tagName: tagName}, built)
	}
	stored, _ := cache.LoadOrStore(key, result)
	return stored.(*Type), nil //nolint:forcetypeassert
}

// The state of one derivation.
type deriver struct {
	tagName string

	// Descriptors being derived, used to tie recursive types.
	building map[reflect.Type]*Type
}

func (d *deriver) derive(typ reflect.Type) (*Type, error) {
	if found, ok := d.building[typ]; ok {
		return found, nil
	}
	if found, ok := cache.Load(cacheKey{typ: typ, tagName: d.tagName}); ok {
		return found.(*Type), nil //nolint:forcetypeassert
	}
	result := &Type{ //nolint:exhaustruct
		GoType: typ,
	}
	d.building[typ] = result

	canInitialize, err := canInterface(typ, initializerInterface)
	if err != nil {
		return nil, err
	}
	canValidate, err := canInterface(typ, validatorInterface)
	if err != nil {
		return nil, err
	}
	result.CanInitialize = canInitialize
	result.CanValidate = canValidate

	ptrTyp := reflect.PointerTo(typ)
	switch {
	case typ == timeType:
		result.Shape = Time
	case typ == durationType:
		result.Shape = Duration
	case typ == uuidType:
		result.Shape = GUID
	case typ == urlType:
		result.Shape = URI
	case ptrTyp.Implements(unmarshalerInterface):
		result.Shape = Custom
	case isInteger(typ.Kind()) && ptrTyp.Implements(enumerationInterface):
		enumeration, _ := reflect.New(typ).Interface().(Enumeration)
		result.Shape = Enum
		result.Enum = enumeration.EnumMembers()
	case typ.Kind() != reflect.Pointer && ptrTyp.Implements(jsonUnmarshalerInterface):
		result.Shape = JSON
	case typ.Kind() != reflect.Pointer && ptrTyp.Implements(textUnmarshalerInterface):
		result.Shape = Text
	default:
		err = d.deriveByKind(result)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *deriver) deriveByKind(result *Type) error {
	typ := result.GoType
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		result.Shape = Primitive
	case reflect.String:
		result.Shape = String
	case reflect.Struct:
		result.Shape = Object
		members, err := d.members(typ, []int{})
		if err != nil {
			return err
		}
		result.Members = dedup(members)
	case reflect.Slice, reflect.Array:
		elem, err := d.derive(typ.Elem())
		if err != nil {
			return err
		}
		if elem.Shape != Unsupported {
			result.Shape = Sequence
			result.Elem = elem
		}
	case reflect.Map:
		if typ.Key().Kind() != reflect.String {
			slog.Debug("map keys must be strings", "type", typ)
			return nil
		}
		elem, err := d.derive(typ.Elem())
		if err != nil {
			return err
		}
		if elem.Shape != Unsupported {
			result.Shape = Mapping
			result.Key = typ.Key()
			result.Elem = elem
		}
	case reflect.Pointer:
		elem, err := d.derive(typ.Elem())
		if err != nil {
			return err
		}
		if elem.Shape != Unsupported {
			result.Shape = Nullable
			result.Elem = elem
		}
	case reflect.Interface:
		if typ.NumMethod() == 0 {
			result.Shape = Dynamic
		}
	default:
		// Channels, functions, complex numbers, unsafe pointers: unsupported.
	}
	return nil
}

// List the members of struct `typ`, whose fields are found at `prefix`.
func (d *deriver) members(typ reflect.Type, prefix []int) ([]Member, error) {
	result := []Member{}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tags, err := tagsPkg.Parse(field.Tag)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tags at %s.%s:\n\t * %w", TypeName(typ), field.Name, err)
		}
		if tags.IsIgnored(d.tagName) {
			continue
		}
		index := make([]int, len(prefix)+1)
		copy(index, prefix)
		index[len(prefix)] = i

		publicFieldName := tags.PublicFieldName(d.tagName)

		// Embedded structs (unless renamed) and flattened structs contribute their
		// own members. Go lets us write the exported fields of an unexported
		// embedded struct.
		if field.Type.Kind() == reflect.Struct && !isLeaf(field.Type) &&
			((field.Anonymous && publicFieldName == nil) || tags.IsFlattened()) {
			promoted, err := d.members(field.Type, index)
			if err != nil {
				return nil, err
			}
			result = append(result, promoted...)
			continue
		}

		if !field.IsExported() {
			slog.Debug("skipping private field", "type", typ, "field", field.Name)
			continue
		}
		fieldType, err := d.derive(field.Type)
		if err != nil {
			return nil, fmt.Errorf("at %s.%s:\n\t * %w", TypeName(typ), field.Name, err)
		}
		if fieldType.Shape == Unsupported {
			slog.Debug("skipping field with unsupported type", "type", typ, "field", field.Name, "fieldType", field.Type)
			continue
		}

		name := field.Name
		if publicFieldName != nil {
			name = *publicFieldName
		}
		member := Member{
			Name:       name,
			GoName:     field.Name,
			Index:      index,
			Type:       fieldType,
			Default:    tags.Default(),
			DateLayout: "",
		}
		if format := tags.DateFormat(); format != nil {
			layout, err := dateformat.Layout(*format)
			if err != nil {
				return nil, fmt.Errorf("invalid `dateFormat` at %s.%s:\n\t * %w", TypeName(typ), field.Name, err)
			}
			member.DateLayout = layout
		}
		result = append(result, member)
	}
	return result, nil
}

// Remove promoted members hidden by shallower members with the same name,
// following Go's rules for promoted fields.
func dedup(members []Member) []Member {
	result := make([]Member, 0, len(members))
	for i, m := range members {
		hidden := false
		for j, other := range members {
			if i == j || !strings.EqualFold(m.Name, other.Name) {
				continue
			}
			if len(other.Index) < len(m.Index) || (len(other.Index) == len(m.Index) && j < i) {
				hidden = true
				break
			}
		}
		if !hidden {
			result = append(result, m)
		}
	}
	return result
}

// Struct types with a dedicated shape, which must not be flattened.
func isLeaf(typ reflect.Type) bool {
	if typ == timeType || typ == urlType {
		return true
	}
	ptrTyp := reflect.PointerTo(typ)
	return ptrTyp.Implements(unmarshalerInterface) ||
		ptrTyp.Implements(jsonUnmarshalerInterface) ||
		ptrTyp.Implements(textUnmarshalerInterface)
}

func isInteger(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// Check that a type implements an interface *on pointers*.
func canInterface(typ reflect.Type, interfaceType reflect.Type) (bool, error) {
	if typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Interface {
		return false, nil
	}
	ptrTyp := reflect.PointerTo(typ)
	if typ.Implements(interfaceType) {
		return false, fmt.Errorf("type %s implements %s - it should be implemented by pointer type *%s instead", typ, interfaceType, typ)
	}
	if ptrTyp.Implements(interfaceType) {
		return true, nil
	}
	return false, nil
}

// Return a (mostly) human-readable type name for a Go type.
//
// This type name is used for user error messages.
func TypeName(typ reflect.Type) string {
	if typ.Name() == "" {
		return typ.String()
	}
	return typ.Name()
}
