package deserialize

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/pasqal-io/respmap/coerce"
	"github.com/pasqal-io/respmap/descriptor"
	"github.com/pasqal-io/respmap/document"
	jsonPkg "github.com/pasqal-io/respmap/document/json"
	"github.com/pasqal-io/respmap/names"
	"github.com/pasqal-io/respmap/validation"
)

// Locate the subtree to deserialize.
//
// Only objects have a root element: arrays and scalars are returned
// unchanged. A missing root element yields null.
func (e *engine) navigate(node document.Node) document.Node {
	if e.rootElement == "" {
		return node
	}
	object, ok := node.AsObject()
	if !ok {
		return node
	}
	found, ok := names.Lookup(object, e.rootElement)
	if !ok {
		e.log().Debug("root element not found, using default value", "root", e.rootElement, "keys", object.Keys())
		return document.Null()
	}
	return found
}

// Check that the top-level node has the shape of the target type, replacing
// null with an empty container where a container is expected.
func (e *engine) normalize(node document.Node) (document.Node, error) {
	desc := e.root
	for desc.Shape == descriptor.Nullable {
		if node.IsNull() {
			return node, nil
		}
		desc = desc.Elem
	}
	ok := true
	switch desc.Shape {
	case descriptor.Object, descriptor.Mapping:
		if node.IsNull() {
			return document.ObjectNode(nil), nil
		}
		ok = node.Kind() == document.KindObject
	case descriptor.Sequence:
		if node.IsNull() {
			return document.Array(), nil
		}
	case descriptor.String, descriptor.Dynamic, descriptor.Custom, descriptor.JSON:
		// Anything goes.
	default:
		ok = node.IsScalar()
	}
	if !ok {
		return document.Null(), &StructuralMismatchError{
			Path:     e.rootPath,
			Expected: desc.Shape,
			Got:      node.Kind(),
		}
	}
	return node, nil
}

// The state of one deserialization.
type state struct {
	engine *engine
	notes  []Note
}

func (st *state) note(path string, kind NoteKind, input document.Node, err error) {
	note := Note{
		Path:  path,
		Kind:  kind,
		Input: input.String(),
		Err:   err,
	}
	st.notes = append(st.notes, note)
	st.engine.log().Debug("value could not be deserialized", "path", path, "kind", kind, "input", note.Input, "error", err)
}

// Populate `out` (which must be settable) from `node`.
//
// Absent values never reach `build`: a null node means that the document
// explicitly contains null. Returns an error only for failures that must
// abort deserialization, i.e. errors in user hooks.
//
//   - `path` the human-readable path into the data structure, used for notes;
//   - `layout` the Go layout to try first for dates, or "".
func (st *state) build(path string, desc *descriptor.Type, node document.Node, out reflect.Value, layout string) error {
	switch desc.Shape {
	case descriptor.Object:
		return st.buildObject(path, desc, node, out, layout)
	case descriptor.Sequence:
		return st.buildSequence(path, desc, node, out, layout)
	case descriptor.Mapping:
		return st.buildMapping(path, desc, node, out, layout)
	case descriptor.Nullable:
		return st.buildNullable(path, desc, node, out, layout)
	case descriptor.Dynamic:
		value := node.Interface()
		if value == nil {
			out.SetZero()
		} else {
			out.Set(reflect.ValueOf(value))
		}
		return nil
	case descriptor.Custom:
		unmarshaler, ok := out.Addr().Interface().(document.Unmarshaler)
		if !ok {
			panic("at this stage, we should have a document.Unmarshaler") // Checked by the descriptor.
		}
		if err := unmarshaler.UnmarshalNode(node); err != nil {
			err = fmt.Errorf("at %s, encountered an error in custom deserializer:\n\t * %w", path, err)
			st.engine.log().Error("internal error during deserialization", "error", err)
			return CustomDeserializerError{
				Wrapped:   err,
				Operation: "unmarshal",
				Structure: "custom",
			}
		}
		return nil
	case descriptor.JSON:
		if node.IsNull() {
			return nil
		}
		unmarshaler, ok := out.Addr().Interface().(json.Unmarshaler)
		if !ok {
			panic("at this stage, we should have a json.Unmarshaler") // Checked by the descriptor.
		}
		if err := unmarshaler.UnmarshalJSON(jsonPkg.Encode(node)); err != nil {
			st.note(path, CoercionNote, node, err)
		}
		return nil
	case descriptor.Unsupported:
		// Unsupported members are skipped by the descriptor.
		return nil
	default:
		if node.IsNull() {
			return nil
		}
		value, err := coerceScalar(desc, node, layout)
		if err != nil {
			st.note(path, CoercionNote, node, err)
			if desc.Shape == descriptor.Enum {
				out.SetZero()
			}
			return nil
		}
		out.Set(value)
		return nil
	}
}

func (st *state) buildObject(path string, desc *descriptor.Type, node document.Node, out reflect.Value, layout string) error {
	if node.IsNull() {
		return nil
	}
	object, ok := node.AsObject()
	if !ok {
		st.note(path, CoercionNote, node, &StructuralMismatchError{Path: path, Expected: desc.Shape, Got: node.Kind()})
		return nil
	}

	resultPtr := reflect.New(desc.GoType)
	result := resultPtr.Elem()

	// If possible, perform pre-initialization with default values.
	if desc.CanInitialize {
		initializer, ok := resultPtr.Interface().(validation.Initializer)
		if !ok {
			panic("at this stage, we should have an Initializer") // Checked by the descriptor.
		}
		if err := initializer.Initialize(); err != nil {
			err = fmt.Errorf("at %s, encountered an error while initializing optional fields:\n\t * %w", path, err)
			st.engine.log().Error("internal error during deserialization", "error", err)
			return CustomDeserializerError{
				Wrapped:   err,
				Operation: "initializer",
				Structure: "struct",
			}
		}
	}

	for _, member := range desc.Members {
		memberPath := fmt.Sprint(path, ".", member.Name)
		memberLayout := layout
		if member.DateLayout != "" {
			memberLayout = member.DateLayout
		}
		value, found := names.Lookup(object, member.Name)
		if !found {
			if member.Default == nil {
				// Keep the zero value or whatever `Initialize` wrote.
				continue
			}
			var err error
			value, err = defaultNode(member.Type, *member.Default)
			if err != nil {
				// We have checked defaults when creating the deserializer.
				panic(fmt.Sprintf("invalid default value at %s: %s", memberPath, err))
			}
		}
		field := result.FieldByIndex(member.Index)
		if err := st.build(memberPath, member.Type, value, field, memberLayout); err != nil {
			return err
		}
	}

	if desc.CanValidate {
		validator, ok := resultPtr.Interface().(validation.Validator)
		if !ok {
			panic("at this stage, we should have a Validator") // Checked by the descriptor.
		}
		if err := validator.Validate(); err != nil {
			st.note(path, ValidationNote, node, validation.WrapError(path, err))
		}
	}
	out.Set(result)
	return nil
}

func (st *state) buildSequence(path string, desc *descriptor.Type, node document.Node, out reflect.Value, layout string) error {
	typ := desc.GoType
	if st.engine.unwrapLists {
		node = unwrapList(desc.Elem, node)
	}
	var elements []document.Node
	switch node.Kind() {
	case document.KindNull:
		if typ.Kind() == reflect.Array {
			return nil
		}
		elements = []document.Node{}
	case document.KindArray:
		elements, _ = node.AsArray()
	default:
		// A lone item without its array wrapper.
		elements = []document.Node{node}
	}

	var result reflect.Value
	switch typ.Kind() {
	case reflect.Slice:
		result = reflect.MakeSlice(typ, len(elements), len(elements))
	case reflect.Array:
		if typ.Len() != len(elements) {
			st.note(path, CoercionNote, node, fmt.Errorf("invalid array length, expecting %d, got %d", typ.Len(), len(elements)))
			if len(elements) > typ.Len() {
				elements = elements[:typ.Len()]
			}
		}
		result = reflect.New(typ).Elem()
	default:
		panic("at this stage, we should have either an array or a slice")
	}

	// Failed elements keep their zero value, so that positions match the document.
	for i, element := range elements {
		if err := st.build(fmt.Sprintf("%s[%d]", path, i), desc.Elem, element, result.Index(i), layout); err != nil {
			return err
		}
	}
	out.Set(result)
	return nil
}

// Return the contents of a list wrapper, e.g. `{"Friend": [...]}`, or `node`
// itself if it is not a wrapper.
//
// An object whose only member is also a member of the element type is a lone
// element, not a wrapper.
func unwrapList(elem *descriptor.Type, node document.Node) document.Node {
	object, ok := node.AsObject()
	if !ok || object.Len() != 1 {
		return node
	}
	key := object.Keys()[0]
	for elem.Shape == descriptor.Nullable {
		elem = elem.Elem
	}
	if elem.Shape == descriptor.Object {
		for _, member := range elem.Members {
			if names.Match(key, member.Name) != names.NoMatch {
				return node
			}
		}
	}
	value, _ := object.Lookup(key)
	return value
}

func (st *state) buildMapping(path string, desc *descriptor.Type, node document.Node, out reflect.Value, layout string) error {
	if node.IsNull() {
		return nil
	}
	object, ok := node.AsObject()
	if !ok {
		st.note(path, CoercionNote, node, &StructuralMismatchError{Path: path, Expected: desc.Shape, Got: node.Kind()})
		return nil
	}
	result := reflect.MakeMapWithSize(desc.GoType, object.Len())
	for _, member := range object.Members() {
		value := reflect.New(desc.Elem.GoType).Elem()
		if err := st.build(fmt.Sprintf("%s[%q]", path, member.Key), desc.Elem, member.Value, value, layout); err != nil {
			return err
		}
		result.SetMapIndex(reflect.ValueOf(member.Key).Convert(desc.Key), value)
	}
	out.Set(result)
	return nil
}

func (st *state) buildNullable(path string, desc *descriptor.Type, node document.Node, out reflect.Value, layout string) error {
	elem := desc.Elem
	if node.IsNull() || (node.Kind() == document.KindString && node.Text() == "" && elem.Shape != descriptor.String) {
		out.SetZero()
		return nil
	}
	if elem.Shape.IsScalar() {
		value, err := coerceScalar(elem, node, layout)
		if err != nil {
			st.note(path, CoercionNote, node, err)
			return nil
		}
		ptr := reflect.New(elem.GoType)
		ptr.Elem().Set(value)
		out.Set(ptr)
		return nil
	}
	if (elem.Shape == descriptor.Object || elem.Shape == descriptor.Mapping) && node.Kind() != document.KindObject {
		st.note(path, CoercionNote, node, &StructuralMismatchError{Path: path, Expected: elem.Shape, Got: node.Kind()})
		return nil
	}
	ptr := reflect.New(elem.GoType)
	if err := st.build(path, elem, node, ptr.Elem(), layout); err != nil {
		return err
	}
	out.Set(ptr)
	return nil
}

// Convert a non-null node into a fresh value of a scalar shape.
func coerceScalar(desc *descriptor.Type, node document.Node, layout string) (reflect.Value, error) {
	typ := desc.GoType
	result := reflect.New(typ).Elem()
	switch desc.Shape {
	case descriptor.Primitive:
		switch typ.Kind() {
		case reflect.Bool:
			b, err := coerce.Bool(node)
			if err != nil {
				return result, err //nolint:wrapcheck
			}
			result.SetBool(b)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i, err := coerce.Int(node, typ.Bits())
			if err != nil {
				return result, err //nolint:wrapcheck
			}
			result.SetInt(i)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u, err := coerce.Uint(node, typ.Bits())
			if err != nil {
				return result, err //nolint:wrapcheck
			}
			result.SetUint(u)
		case reflect.Float32, reflect.Float64:
			f, err := coerce.Float(node, typ.Bits())
			if err != nil {
				return result, err //nolint:wrapcheck
			}
			result.SetFloat(f)
		default:
			panic(fmt.Sprintf("at this stage, we should have a primitive type, got %s", typ))
		}
	case descriptor.String:
		result.SetString(coerce.String(node))
	case descriptor.Enum:
		value, err := coerce.Enum(node, desc.Enum)
		if err != nil {
			return result, err //nolint:wrapcheck
		}
		switch typ.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if result.OverflowInt(value) {
				return result, &coerce.Error{Expected: descriptor.TypeName(typ), Got: node, Cause: nil}
			}
			result.SetInt(value)
		default:
			if value < 0 || result.OverflowUint(uint64(value)) {
				return result, &coerce.Error{Expected: descriptor.TypeName(typ), Got: node, Cause: nil}
			}
			result.SetUint(uint64(value))
		}
	case descriptor.Time:
		t, err := coerce.Time(node, layout)
		if err != nil {
			return result, err //nolint:wrapcheck
		}
		result.Set(reflect.ValueOf(t))
	case descriptor.Duration:
		d, err := coerce.Duration(node)
		if err != nil {
			return result, err //nolint:wrapcheck
		}
		result.SetInt(int64(d))
	case descriptor.GUID:
		g, err := coerce.GUID(node)
		if err != nil {
			return result, err //nolint:wrapcheck
		}
		result.Set(reflect.ValueOf(g))
	case descriptor.URI:
		u, err := coerce.URI(node)
		if err != nil {
			return result, err //nolint:wrapcheck
		}
		result.Set(reflect.ValueOf(*u))
	case descriptor.Text:
		if !node.IsScalar() {
			return result, &coerce.Error{Expected: descriptor.TypeName(typ), Got: node, Cause: nil}
		}
		unmarshaler, ok := result.Addr().Interface().(encoding.TextUnmarshaler)
		if !ok {
			panic("at this stage, we should have an encoding.TextUnmarshaler") // Checked by the descriptor.
		}
		if err := unmarshaler.UnmarshalText([]byte(node.Text())); err != nil {
			return result, &coerce.Error{Expected: descriptor.TypeName(typ), Got: node, Cause: err}
		}
	default:
		panic(fmt.Sprintf("at this stage, we should have a scalar shape, got %s", desc.Shape))
	}
	return result, nil
}

// Convert the text of tag `default` into a node.
//
// Scalars use the text as a string, exactly as if it had been received in the
// document. Containers expect JSON, e.g. `default:"[]"`. Pointers also accept
// `nil`.
func defaultNode(desc *descriptor.Type, text string) (document.Node, error) {
	switch desc.Shape {
	case descriptor.Nullable:
		if text == "nil" || text == "null" {
			return document.Null(), nil
		}
		return defaultNode(desc.Elem, text)
	case descriptor.Object, descriptor.Sequence, descriptor.Mapping, descriptor.Custom, descriptor.JSON:
		node, err := jsonPkg.Driver{}.Parse([]byte(text))
		if err != nil {
			return document.Null(), fmt.Errorf("expected a JSON default value for %s:\n\t * %w", desc.Shape, err)
		}
		return node, nil
	case descriptor.Dynamic:
		if node, err := (jsonPkg.Driver{}).Parse([]byte(text)); err == nil {
			return node, nil
		}
		return document.String(text), nil
	default:
		return document.String(text), nil
	}
}

// Check, once and for all, that the `default` tags of `desc` and its
// members can be deserialized.
func (e *engine) checkDefaults(desc *descriptor.Type, path string, visited map[*descriptor.Type]bool) error {
	if visited[desc] {
		return nil
	}
	visited[desc] = true
	switch desc.Shape {
	case descriptor.Object:
		for _, member := range desc.Members {
			memberPath := fmt.Sprint(path, ".", member.Name)
			if member.Default != nil {
				if err := e.checkDefault(memberPath, member); err != nil {
					return err
				}
			}
			if err := e.checkDefaults(member.Type, memberPath, visited); err != nil {
				return err
			}
		}
	case descriptor.Sequence, descriptor.Mapping:
		return e.checkDefaults(desc.Elem, path+"[]", visited)
	case descriptor.Nullable:
		return e.checkDefaults(desc.Elem, path, visited)
	default:
		// No members.
	}
	return nil
}

func (e *engine) checkDefault(path string, member descriptor.Member) error {
	node, err := defaultNode(member.Type, *member.Default)
	if err != nil {
		return fmt.Errorf("cannot parse default value at %s\n\t * %w", path, err)
	}
	if member.Type.Shape == descriptor.Custom || member.Type.Shape == descriptor.JSON {
		// Don't call user code while setting up.
		return nil
	}
	layout := e.layout
	if member.DateLayout != "" {
		layout = member.DateLayout
	}
	st := state{
		engine: e,
		notes:  []Note{},
	}
	slot := reflect.New(member.Type.GoType).Elem()
	if err := st.build(path, member.Type, node, slot, layout); err != nil {
		return fmt.Errorf("cannot parse default value at %s\n\t * %w", path, err)
	}
	if len(st.notes) > 0 {
		return fmt.Errorf("cannot parse default value at %s\n\t * %w", path, st.notes[0].Err)
	}
	return nil
}
