package tags

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/pasqal-io/respmap/assertions/initialized"
)

// A representation of the tags for a given field.
type Tags struct {
	tags    map[string][]string
	witness initialized.IsInitialized
}

func Empty() Tags {
	return Tags{
		tags:    make(map[string][]string),
		witness: initialized.Make(),
	}
}

// Parse the tag associated to a struct field, following the conventions
// of Go tags.
func Parse(tag reflect.StructTag) (Tags, error) {
	tags := make(map[string][]string)
	// Copied and pasted from Go's type.go.
	for tag != "" {
		// Skip leading space.
		i := 0
		for i < len(tag) && tag[i] == ' ' {
			i++
		}
		tag = tag[i:]
		if tag == "" {
			break
		}

		// Scan to colon. A space, a quote or a control character is a syntax error.
		// Strictly speaking, control chars include the range [0x7f, 0x9f], not just
		// [0x00, 0x1f], but in practice, we ignore the multi-byte control characters
		// as it is simpler to inspect the tag's bytes than the tag's runes.
		i = 0
		for i < len(tag) && tag[i] > ' ' && tag[i] != ':' && tag[i] != '"' && tag[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(tag) || tag[i] != ':' || tag[i+1] != '"' {
			// Give up on parsing.
			break
		}
		name := string(tag[:i])
		if name == "" {
			return Tags{}, errors.New("invalid tag with empty name")
		}
		if _, exists := tags[name]; exists {
			return Tags{}, fmt.Errorf("invalid tag, name %s should only be defined once", name)
		}

		tag = tag[i+1:]

		// Scan quoted string to find value.
		i = 1
		for i < len(tag) && tag[i] != '"' {
			if tag[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tag) {
			break
		}
		qvalue := string(tag[:i+1])
		tag = tag[i+1:]

		list, err := strconv.Unquote(qvalue)
		if err != nil {
			return Tags{}, fmt.Errorf("ill-formed tag %s:\n\t * %w", name, err)
		}

		switch name {
		case "default", "dateFormat":
			// don't pre-process
			tags[name] = []string{list}
		default:
			// Entries are positional (e.g. `json:",omitempty"` has an empty name),
			// so we only trim them.
			split := strings.Split(list, ",")
			trimmed := make([]string, len(split))
			for i, s := range split {
				trimmed[i] = strings.Trim(s, " ")
			}
			tags[name] = trimmed
		}
	}
	return Tags{
		tags:    tags,
		witness: initialized.Make(),
	}, nil
}

// Return the a default value that may be used to initialize a
// field if no value is provided.
//
// This is tag `default`. The value is coerced exactly as if it had
// been received as a string in the document.
func (tags Tags) Default() *string {
	tags.witness.Assert()
	result, ok := tags.tags["default"]
	if !ok || len(result) == 0 {
		return nil
	}

	return &result[0]
}

// Return a date format to use for this field instead of the one
// configured on the deserializer.
//
// This is tag `dateFormat`.
func (tags Tags) DateFormat() *string {
	tags.witness.Assert()
	result, ok := tags.tags["dateFormat"]
	if !ok || len(result) == 0 || result[0] == "" {
		return nil
	}
	return &result[0]
}

// Return the public field name for a field.
//
// e.g. for json, if there's a tag `json:"foo"`, this means
// that the field should be imported as `foo`. Returns nil
// if there is no such tag or if it doesn't rename the field
// (e.g. `json:",omitempty"`).
func (tags Tags) PublicFieldName(key string) *string {
	tags.witness.Assert()
	result, ok := tags.tags[key]
	if !ok || len(result) == 0 || result[0] == "" {
		return nil
	}
	return &result[0]
}

// Return `true` if this field is explicitly excluded from deserialization,
// i.e. `json:"-"`.
func (tags Tags) IsIgnored(key string) bool {
	name := tags.PublicFieldName(key)
	if name == nil {
		return false
	}
	result := tags.tags[key]
	// As in encoding/json, `json:"-,"` means a field called "-".
	return *name == "-" && len(result) == 1
}

// Return `true` if this field is marked as `flatten`, e.g.
//
//	type Flattening struct {
//	    A string
//	    B struct {
//	        C string
//	        D string
//	    } // `flatten:""`
//	}
//
// should deserialized from the following JSON
//
//	{
//	   "A": "aaaaa",
//	   // no field B
//	   "C": "ccccc",
//	   "D": "ddddd"
//	}
func (tags Tags) IsFlattened() bool {
	tags.witness.Assert()
	_, ok := tags.tags["flatten"]
	return ok
}

// Lookup a key.
func (tags Tags) Lookup(key string) ([]string, bool) {
	tags.witness.Assert()
	result, ok := tags.tags[key]
	return result, ok
}
