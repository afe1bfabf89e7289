// Code specific to XML documents.
//
// XML has no native notion of objects, arrays or scalars, so we apply the
// following conventions:
//   - the document is represented by the contents of its root element;
//   - an element with neither attributes nor child elements is a string scalar
//     (its trimmed text), or null if it is empty or marked `xsi:nil="true"`;
//   - any other element is an object, whose members are its attributes and child
//     elements, by local name; character data mixed with child elements or
//     attributes is stored under member "Value";
//   - child elements repeated under the same name become an array, stored as a single
//     member of their parent (`<Friends><Friend/><Friend/></Friends>` is
//     `{"Friend": [{}, {}]}`).
//
// The driver never decides that an element is a list: wrappers such as `Friends` stay
// objects, so that they may still be mapped into structs. Use `deserialize.XMLOptions`,
// which lets sequences accept such wrappers.
package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pasqal-io/respmap/document"
)

// The parsing driver for XML.
type Driver struct{}

func (Driver) Name() string {
	return "xml"
}

// The member used to store character data of elements that also have members.
const TextMember = "Value"

func (Driver) Parse(source []byte) (document.Node, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return document.Null(), nil
	}
	decoder := xml.NewDecoder(bytes.NewReader(source))
	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return document.Null(), errors.New("invalid xml document:\n\t * no root element")
			}
			return document.Null(), fmt.Errorf("invalid xml document:\n\t * %w", err)
		}
		if start, ok := token.(xml.StartElement); ok {
			root, err := parseElement(decoder, start)
			if err != nil {
				return document.Null(), fmt.Errorf("invalid xml document:\n\t * %w", err)
			}
			return root.node, nil
		}
	}
}

type element struct {
	name string
	node document.Node
}

func parseElement(decoder *xml.Decoder, start xml.StartElement) (element, error) {
	object := document.NewObject()
	isNil := false
	for _, attr := range start.Attr {
		if attr.Name.Local == "nil" && strings.EqualFold(attr.Value, "true") {
			isNil = true
			continue
		}
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		object.Set(attr.Name.Local, document.String(attr.Value))
	}
	hasAttributes := object.Len() > 0

	children := []element{}
	text := new(strings.Builder)
	for {
		token, err := decoder.Token()
		if err != nil {
			return element{}, fmt.Errorf("in element %s:\n\t * %w", start.Name.Local, err)
		}
		switch typed := token.(type) {
		case xml.StartElement:
			child, err := parseElement(decoder, typed)
			if err != nil {
				return element{}, err
			}
			children = append(children, child)
		case xml.CharData:
			text.Write(typed)
		case xml.EndElement:
			trimmed := strings.TrimSpace(text.String())
			return element{
				name: start.Name.Local,
				node: assemble(object, hasAttributes, children, trimmed, isNil),
			}, nil
		}
	}
}

func assemble(object *document.Object, hasAttributes bool, children []element, text string, isNil bool) document.Node {
	if isNil {
		return document.Null()
	}
	if !hasAttributes && len(children) == 0 {
		if text == "" {
			return document.Null()
		}
		return document.String(text)
	}
	// Group repeated children.
	grouped := make(map[string][]document.Node)
	order := []string{}
	for _, child := range children {
		if _, ok := grouped[child.name]; !ok {
			order = append(order, child.name)
		}
		grouped[child.name] = append(grouped[child.name], child.node)
	}
	for _, childName := range order {
		nodes := grouped[childName]
		if len(nodes) == 1 {
			object.Set(childName, nodes[0])
		} else {
			object.Set(childName, document.Array(nodes...))
		}
	}
	if text != "" {
		object.Set(TextMember, document.String(text))
	}
	return document.ObjectNode(object)
}

var _ document.Parser = Driver{} // Type assertion.
