// Code specific to YAML documents.
package yaml

import (
	"bytes"
	"fmt"
	"strconv"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/pasqal-io/respmap/document"
)

// The parsing driver for YAML.
//
// Only the first document of a stream is considered.
type Driver struct{}

func (Driver) Name() string {
	return "yaml"
}

func (Driver) Parse(source []byte) (document.Node, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return document.Null(), nil
	}
	var root yamlv3.Node
	if err := yamlv3.Unmarshal(source, &root); err != nil {
		return document.Null(), fmt.Errorf("invalid yaml document:\n\t * %w", err)
	}
	node, err := convert(&root)
	if err != nil {
		return document.Null(), fmt.Errorf("invalid yaml document:\n\t * %w", err)
	}
	return node, nil
}

func convert(node *yamlv3.Node) (document.Node, error) {
	switch node.Kind {
	case yamlv3.DocumentNode:
		if len(node.Content) == 0 {
			return document.Null(), nil
		}
		return convert(node.Content[0])
	case yamlv3.AliasNode:
		return convert(node.Alias)
	case yamlv3.MappingNode:
		object := document.NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yamlv3.ScalarNode {
				return document.Null(), fmt.Errorf("line %d: only scalar keys are supported", key.Line)
			}
			if key.ShortTag() == "!!merge" {
				if err := merge(object, node.Content[i+1]); err != nil {
					return document.Null(), err
				}
				continue
			}
			value, err := convert(node.Content[i+1])
			if err != nil {
				return document.Null(), fmt.Errorf("at %s:\n\t * %w", key.Value, err)
			}
			object.Set(key.Value, value)
		}
		return document.ObjectNode(object), nil
	case yamlv3.SequenceNode:
		elements := make([]document.Node, len(node.Content))
		for i, child := range node.Content {
			element, err := convert(child)
			if err != nil {
				return document.Null(), fmt.Errorf("at [%d]:\n\t * %w", i, err)
			}
			elements[i] = element
		}
		return document.Array(elements...), nil
	case yamlv3.ScalarNode:
		return convertScalar(node)
	default:
		return document.Null(), fmt.Errorf("line %d: unsupported yaml node kind %d", node.Line, node.Kind)
	}
}

// Apply a merge key (`<<: *anchor`), without overriding explicit members.
func merge(object *document.Object, source *yamlv3.Node) error {
	merged, err := convert(source)
	if err != nil {
		return err
	}
	sources := []document.Node{merged}
	if elements, ok := merged.AsArray(); ok {
		sources = elements
	}
	for _, s := range sources {
		mergedObject, ok := s.AsObject()
		if !ok {
			return fmt.Errorf("line %d: merge keys expect a mapping", source.Line)
		}
		for _, member := range mergedObject.Members() {
			if _, exists := object.Lookup(member.Key); !exists {
				object.Set(member.Key, member.Value)
			}
		}
	}
	return nil
}

func convertScalar(node *yamlv3.Node) (document.Node, error) {
	switch node.ShortTag() {
	case "!!null":
		return document.Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return document.Null(), fmt.Errorf("line %d:\n\t * %w", node.Line, err)
		}
		return document.Bool(b), nil
	case "!!int":
		// Normalize 0x, 0o, etc. to decimal text.
		var i int64
		if err := node.Decode(&i); err == nil {
			return document.Int(i), nil
		}
		var u uint64
		if err := node.Decode(&u); err != nil {
			return document.Null(), fmt.Errorf("line %d:\n\t * %w", node.Line, err)
		}
		return document.Number(strconv.FormatUint(u, 10)), nil
	case "!!float":
		if _, err := strconv.ParseFloat(node.Value, 64); err == nil {
			return document.Number(node.Value), nil
		}
		var f float64
		if err := node.Decode(&f); err != nil {
			return document.Null(), fmt.Errorf("line %d:\n\t * %w", node.Line, err)
		}
		return document.Float(f), nil
	default:
		// Strings, timestamps, binary: keep the text, the coercer knows what to do.
		return document.String(node.Value), nil
	}
}

var _ document.Parser = Driver{} // Type assertion.
