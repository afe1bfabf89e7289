// Package document holds the in-memory representation of a parsed response body.
//
// A Node is an immutable tagged variant: Null, Bool, Number, String, Object or Array.
// Drivers in the sub-packages (json, xml, yaml, form) produce Nodes from raw bytes,
// the deserialize package consumes them.
//
// We use this type instead of raw `any` trees to decrease the risk of confusion
// whenever manipulating documents and to preserve information that `any` loses,
// such as the order of members and the exact text of numbers.
package document

import (
	"fmt"
	"strconv"
)

// The kind of a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// A node in a parsed document.
//
// The zero Node is Null.
type Node struct {
	kind Kind

	// The text of a String or Number.
	text string

	// The value of a Bool.
	boolean bool

	// The members of an Object.
	object *Object

	// The elements of an Array.
	array []Node
}

// The null node.
func Null() Node {
	return Node{} //nolint:exhaustruct
}

// A boolean scalar.
func Bool(b bool) Node {
	return Node{kind: KindBool, boolean: b} //nolint:exhaustruct
}

// A numeric scalar.
//
// The text is kept verbatim, so that e.g. 9223372036854775807 or 99.9999 survive
// without going through a float64.
func Number(text string) Node {
	return Node{kind: KindNumber, text: text} //nolint:exhaustruct
}

// A numeric scalar built from an int64.
func Int(i int64) Node {
	return Number(strconv.FormatInt(i, 10))
}

// A numeric scalar built from a float64.
func Float(f float64) Node {
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// A string scalar.
func String(s string) Node {
	return Node{kind: KindString, text: s} //nolint:exhaustruct
}

// An array node.
func Array(elements ...Node) Node {
	if elements == nil {
		elements = []Node{}
	}
	return Node{kind: KindArray, array: elements} //nolint:exhaustruct
}

// An object node wrapping `object`.
//
// A nil `object` is treated as an empty object.
func ObjectNode(object *Object) Node {
	if object == nil {
		object = NewObject()
	}
	return Node{kind: KindObject, object: object} //nolint:exhaustruct
}

// An object node built from a list of members, in order.
//
// Duplicate keys: last write wins.
func ObjectOf(members ...Member) Node {
	object := NewObject()
	for _, m := range members {
		object.Set(m.Key, m.Value)
	}
	return ObjectNode(object)
}

func (n Node) Kind() Kind {
	return n.kind
}

func (n Node) IsNull() bool {
	return n.kind == KindNull
}

// Return true for Bool, Number, String and Null.
func (n Node) IsScalar() bool {
	return n.kind != KindObject && n.kind != KindArray
}

func (n Node) AsObject() (*Object, bool) {
	if n.kind != KindObject {
		return nil, false
	}
	return n.object, true
}

func (n Node) AsArray() ([]Node, bool) {
	if n.kind != KindArray {
		return nil, false
	}
	return n.array, true
}

func (n Node) AsBool() (bool, bool) {
	if n.kind != KindBool {
		return false, false
	}
	return n.boolean, true
}

// The textual representation of a scalar.
//
// Strings and numbers return their text verbatim, booleans return "true"/"false",
// null returns "". Objects and arrays return "", use a driver to re-serialize them.
func (n Node) Text() string {
	switch n.kind {
	case KindString, KindNumber:
		return n.text
	case KindBool:
		return strconv.FormatBool(n.boolean)
	default:
		return ""
	}
}

// A short human-readable description, used in notes and error messages.
func (n Node) String() string {
	switch n.kind {
	case KindString:
		return strconv.Quote(n.text)
	case KindNumber:
		return n.text
	case KindBool:
		return strconv.FormatBool(n.boolean)
	case KindNull:
		return "null"
	case KindObject:
		return fmt.Sprintf("{object with %d member(s)}", n.object.Len())
	case KindArray:
		return fmt.Sprintf("[array with %d element(s)]", len(n.array))
	default:
		return n.kind.String()
	}
}

// A (key, value) member of an object.
type Member struct {
	Key   string
	Value Node
}

// A shortcut to build a Member.
func Pair(key string, value Node) Member {
	return Member{Key: key, Value: value}
}

// An object, i.e. an ordered mapping from string keys to nodes.
//
// Objects are populated by drivers with `Set` and must be treated as read-only
// once handed over to a deserializer.
type Object struct {
	keys   []string
	values map[string]Node
}

func NewObject() *Object {
	return &Object{
		keys:   []string{},
		values: make(map[string]Node),
	}
}

// Set a member.
//
// If the key already exists, the value is replaced in place (last write wins)
// and the key keeps its original position.
func (o *Object) Set(key string, value Node) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *Object) Lookup(key string) (Node, bool) {
	if o == nil {
		return Null(), false
	}
	value, ok := o.values[key]
	return value, ok
}

// The keys, in document order.
//
// The result must not be modified.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// The members, in document order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	result := make([]Member, len(o.keys))
	for i, k := range o.keys {
		result[i] = Member{Key: k, Value: o.values[k]}
	}
	return result
}

// A driver for a specific textual format.
type Parser interface {
	// Parse a complete document.
	Parse(source []byte) (Node, error)

	// A human-readable name for the format, e.g. "json".
	Name() string
}

// A type that knows how to populate itself from a Node.
//
// The deserializer hands the raw node to such types instead of
// inspecting their fields.
type Unmarshaler interface {
	UnmarshalNode(Node) error
}
