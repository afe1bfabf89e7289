// Package names decides whether a document key denotes a given target member.
//
// Servers do not agree on naming conventions: the same logical field may be
// sent as `StartDate`, `startDate`, `start_date`, `start-date` or `_startDate`.
// We try the following tiers, in order, and the first tier that matches wins:
//
//  1. case-insensitive exact comparison;
//  2. case-insensitive comparison after removing `_` and `-` on both sides;
//  3. case-insensitive comparison after removing one leading `_` from the key.
//
// There is no fuzzy matching beyond these tiers.
package names

import (
	"strings"

	"github.com/pasqal-io/respmap/document"
)

// A matching tier.
type Tier int

const (
	// No match.
	NoMatch Tier = iota
	Exact
	Separators
	UnderscorePrefix
)

var tiers = []Tier{Exact, Separators, UnderscorePrefix}

// Determine whether `key` denotes `member` at a given tier.
func MatchesAt(tier Tier, key string, member string) bool {
	switch tier {
	case Exact:
		return strings.EqualFold(key, member)
	case Separators:
		return strings.EqualFold(StripSeparators(key), StripSeparators(member))
	case UnderscorePrefix:
		trimmed, ok := strings.CutPrefix(key, "_")
		return ok && strings.EqualFold(trimmed, member)
	default:
		return false
	}
}

// Determine whether `key` denotes `member`, returning the first tier that matches.
func Match(key string, member string) Tier {
	for _, tier := range tiers {
		if MatchesAt(tier, key, member) {
			return tier
		}
	}
	return NoMatch
}

// Find the key of `object` that denotes `member`.
//
// Tiers are tried across all keys before moving to the next tier, so that e.g.
// a key `name` beats an earlier key `_name` for member `Name`. Within a tier,
// the first key in document order wins.
func Resolve(object *document.Object, member string) (string, bool) {
	if object == nil {
		return "", false
	}
	// Fast path.
	if _, ok := object.Lookup(member); ok {
		return member, true
	}
	keys := object.Keys()
	for _, tier := range tiers {
		for _, key := range keys {
			if MatchesAt(tier, key, member) {
				return key, true
			}
		}
	}
	return "", false
}

// Lookup the value of the member of `object` that denotes `member`.
func Lookup(object *document.Object, member string) (document.Node, bool) {
	key, ok := Resolve(object, member)
	if !ok {
		return document.Null(), false
	}
	return object.Lookup(key)
}

// Remove `_` and `-` from a name.
func StripSeparators(s string) string {
	if !strings.ContainsAny(s, "_-") {
		return s
	}
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r != '_' && r != '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
