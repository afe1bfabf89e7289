// Code specific to JSON documents.
package json

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/pasqal-io/respmap/document"
)

// The parsing driver for JSON.
type Driver struct{}

func (Driver) Name() string {
	return "json"
}

// Parse a JSON document into a tree of nodes.
//
// Object members keep their document order, duplicate keys are resolved
// by last write wins. Numbers keep their original text. An empty (or
// whitespace-only) source is a null document.
func (Driver) Parse(source []byte) (document.Node, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return document.Null(), nil
	}
	decoder := gojson.NewDecoder(bytes.NewReader(source))
	decoder.UseNumber()

	root, err := parseValue(decoder)
	if err != nil {
		return document.Null(), fmt.Errorf("invalid json document:\n\t * %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return document.Null(), errors.New("invalid json document:\n\t * unexpected data after the top-level value")
	}
	return root, nil
}

func parseValue(decoder *gojson.Decoder) (document.Node, error) {
	token, err := decoder.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return document.Null(), io.ErrUnexpectedEOF
		}
		return document.Null(), err //nolint:wrapcheck
	}
	switch typed := token.(type) {
	case gojson.Delim:
		switch typed {
		case '{':
			return parseObject(decoder)
		case '[':
			return parseArray(decoder)
		default:
			return document.Null(), fmt.Errorf("unexpected delimiter %s", typed)
		}
	case string:
		return document.String(typed), nil
	case gojson.Number:
		return document.Number(typed.String()), nil
	case float64:
		return document.Float(typed), nil
	case bool:
		return document.Bool(typed), nil
	case nil:
		return document.Null(), nil
	default:
		return document.Null(), fmt.Errorf("unexpected token %v", token)
	}
}

func parseObject(decoder *gojson.Decoder) (document.Node, error) {
	object := document.NewObject()
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return document.Null(), err //nolint:wrapcheck
		}
		key, ok := token.(string)
		if !ok {
			return document.Null(), fmt.Errorf("expected an object key, got %v", token)
		}
		value, err := parseValue(decoder)
		if err != nil {
			return document.Null(), fmt.Errorf("at %s:\n\t * %w", key, err)
		}
		object.Set(key, value)
	}
	// Consume '}'.
	if _, err := decoder.Token(); err != nil {
		return document.Null(), err //nolint:wrapcheck
	}
	return document.ObjectNode(object), nil
}

func parseArray(decoder *gojson.Decoder) (document.Node, error) {
	elements := []document.Node{}
	for decoder.More() {
		value, err := parseValue(decoder)
		if err != nil {
			return document.Null(), fmt.Errorf("at [%d]:\n\t * %w", len(elements), err)
		}
		elements = append(elements, value)
	}
	// Consume ']'.
	if _, err := decoder.Token(); err != nil {
		return document.Null(), err //nolint:wrapcheck
	}
	return document.Array(elements...), nil
}

// Re-serialize a node as compact JSON.
//
// Members are written in document order and strings are not HTML-escaped,
// so that the output is as close as possible to what the server sent.
func Encode(node document.Node) []byte {
	buf := new(bytes.Buffer)
	encode(buf, node)
	return buf.Bytes()
}

// Re-serialize a node as compact JSON, as a string.
func EncodeString(node document.Node) string {
	return string(Encode(node))
}

func encode(buf *bytes.Buffer, node document.Node) {
	switch node.Kind() {
	case document.KindNull:
		buf.WriteString("null")
	case document.KindBool, document.KindNumber:
		buf.WriteString(node.Text())
	case document.KindString:
		encodeString(buf, node.Text())
	case document.KindArray:
		elements, _ := node.AsArray()
		buf.WriteByte('[')
		for i, element := range elements {
			if i > 0 {
				buf.WriteByte(',')
			}
			encode(buf, element)
		}
		buf.WriteByte(']')
	case document.KindObject:
		object, _ := node.AsObject()
		buf.WriteByte('{')
		for i, member := range object.Members() {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, member.Key)
			buf.WriteByte(':')
			encode(buf, member.Value)
		}
		buf.WriteByte('}')
	}
}

func encodeString(buf *bytes.Buffer, s string) {
	quoted := new(bytes.Buffer)
	encoder := gojson.NewEncoder(quoted)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		// Encoding a Go string cannot fail, but let's not write garbage if it does.
		buf.WriteString(`""`)
		return
	}
	buf.Write(bytes.TrimRight(quoted.Bytes(), "\n"))
}

var _ document.Parser = Driver{} // Type assertion.
