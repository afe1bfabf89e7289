package document

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Convert a tree of natural Go values into a Node.
//
// Supported values: nil, bool, strings, all integer and float kinds, anything with a
// `String() string` method that is also a number-like named string (e.g. json.Number),
// `[]any` (and other slices), `map[string]any` (and other string-keyed maps) and Nodes.
//
// Maps are not ordered in Go, so keys are sorted to keep the result deterministic.
func FromValue(value any) (Node, error) {
	switch typed := value.(type) {
	case nil:
		return Null(), nil
	case Node:
		return typed, nil
	case *Object:
		return ObjectNode(typed), nil
	case bool:
		return Bool(typed), nil
	case string:
		return String(typed), nil
	case float64:
		return Float(typed), nil
	case float32:
		return Number(strconv.FormatFloat(float64(typed), 'g', -1, 32)), nil
	case int:
		return Int(int64(typed)), nil
	case int64:
		return Int(typed), nil
	case uint64:
		return Number(strconv.FormatUint(typed, 10)), nil
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(reflected.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(strconv.FormatUint(reflected.Uint(), 10)), nil
	case reflect.Float32, reflect.Float64:
		return Float(reflected.Float()), nil
	case reflect.String:
		// Named string types, e.g. `json.Number`, are numbers if they parse as such.
		text := reflected.String()
		if reflected.Type().Name() == "Number" {
			if _, err := strconv.ParseFloat(text, 64); err == nil {
				return Number(text), nil
			}
		}
		return String(text), nil
	case reflect.Slice, reflect.Array:
		elements := make([]Node, reflected.Len())
		for i := 0; i < reflected.Len(); i++ {
			element, err := FromValue(reflected.Index(i).Interface())
			if err != nil {
				return Null(), fmt.Errorf("at [%d]:\n\t * %w", i, err)
			}
			elements[i] = element
		}
		return Array(elements...), nil
	case reflect.Map:
		if reflected.Type().Key().Kind() != reflect.String {
			return Null(), fmt.Errorf("cannot convert a map with keys of type %s, only string keys are supported", reflected.Type().Key())
		}
		keys := make([]string, 0, reflected.Len())
		for _, k := range reflected.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		object := NewObject()
		for _, k := range keys {
			member, err := FromValue(reflected.MapIndex(reflect.ValueOf(k).Convert(reflected.Type().Key())).Interface())
			if err != nil {
				return Null(), fmt.Errorf("at %s:\n\t * %w", k, err)
			}
			object.Set(k, member)
		}
		return ObjectNode(object), nil
	case reflect.Pointer, reflect.Interface:
		if reflected.IsNil() {
			return Null(), nil
		}
		return FromValue(reflected.Elem().Interface())
	default:
		return Null(), fmt.Errorf("cannot convert value of type %T into a document node", value)
	}
}

// Convert a node into natural Go values.
//
// Objects become `map[string]any`, arrays `[]any`, numbers `float64` (or `int64`
// if the text is an integer that fits), strings `string`, booleans `bool` and
// null `nil`.
func (n Node) Interface() any {
	switch n.kind {
	case KindBool:
		return n.boolean
	case KindString:
		return n.text
	case KindNumber:
		if i, err := strconv.ParseInt(n.text, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(n.text, 64); err == nil {
			return f
		}
		return n.text
	case KindArray:
		result := make([]any, len(n.array))
		for i, element := range n.array {
			result[i] = element.Interface()
		}
		return result
	case KindObject:
		result := make(map[string]any, n.object.Len())
		for _, k := range n.object.Keys() {
			v, _ := n.object.Lookup(k)
			result[k] = v.Interface()
		}
		return result
	default:
		return nil
	}
}
