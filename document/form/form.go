// Code specific to `application/x-www-form-urlencoded` bodies.
//
// Some APIs, e.g. OAuth 1 token endpoints, answer with bodies such as
// `oauth_token=abc&oauth_token_secret=def&oauth_callback_confirmed=true`.
// This driver turns them into an object, so that they may be mapped like
// any other response.
package form

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/pasqal-io/respmap/document"
)

// The parsing driver for form-encoded bodies.
type Driver struct{}

// The type of a (key, value list) store.
type KVList = url.Values

func (Driver) Name() string {
	return "form"
}

// Parse a form-encoded body.
//
// Keys keep their order of first appearance. A key that appears once becomes
// a string, a key that appears several times becomes an array of strings.
// All values are strings, the deserializer takes care of quoted primitives.
func (Driver) Parse(source []byte) (document.Node, error) {
	trimmed := bytes.TrimSpace(source)
	if len(trimmed) == 0 {
		return document.Null(), nil
	}
	values, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return document.Null(), fmt.Errorf("invalid form document:\n\t * %w", err)
	}
	return FromKVList(values, keyOrder(string(trimmed))), nil
}

// Convert a (key, value list) store into an object node.
//
// `order` lists keys in the order in which they should appear, keys of `values`
// that do not appear in `order` are appended afterwards in no specific order.
func FromKVList(values KVList, order []string) document.Node {
	object := document.NewObject()
	set := func(key string) {
		list := values[key]
		switch len(list) {
		case 0:
			object.Set(key, document.Null())
		case 1:
			object.Set(key, document.String(list[0]))
		default:
			elements := make([]document.Node, len(list))
			for i, v := range list {
				elements[i] = document.String(v)
			}
			object.Set(key, document.Array(elements...))
		}
	}
	for _, key := range order {
		if _, ok := values[key]; ok {
			if _, seen := object.Lookup(key); !seen {
				set(key)
			}
		}
	}
	for key := range values {
		if _, seen := object.Lookup(key); !seen {
			set(key)
		}
	}
	return document.ObjectNode(object)
}

// Extract the keys of a query string, in order of appearance.
func keyOrder(query string) []string {
	keys := []string{}
	for _, part := range bytes.Split([]byte(query), []byte("&")) {
		if len(part) == 0 {
			continue
		}
		rawKey, _, _ := bytes.Cut(part, []byte("="))
		key, err := url.QueryUnescape(string(rawKey))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

var _ document.Parser = Driver{} // Type assertion.
