// Package dateformat converts custom date patterns into Go time layouts.
//
// Many web APIs document their date formats with the .NET/Java style of
// custom patterns, e.g. `dd yyyy MMM, hh:mm ss tt`. Go uses a reference
// date instead (`02 2006 Jan, 03:04 05 PM`). Callers may provide either:
// a pattern containing an ASCII digit is considered a Go layout and is
// returned unchanged, anything else is translated.
//
// Patterns are always interpreted culture-invariantly: month and day names
// are English, `:` and `/` are literal separators.
package dateformat

import (
	"fmt"
	"strings"
)

// A pattern token and its Go counterpart, longest tokens first.
type token struct {
	pattern string
	layout  string
}

var tokens = []token{
	{"yyyy", "2006"},
	{"yyy", "2006"},
	{"yy", "06"},
	{"y", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"tt", "PM"},
	{"zzz", "-07:00"},
	{"zz", "-07"},
	{"z", "-07"},
	{"K", "Z07:00"},
}

// Sequences that Go would interpret as part of the reference date if they
// appeared in a literal.
var reserved = []string{"Jan", "Mon", "MST", "PM", "pm", "Z07", "_2"}

// Convert a pattern into a Go layout.
func Layout(pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("empty date format")
	}
	if strings.ContainsAny(pattern, "0123456789") {
		return pattern, nil
	}

	var layout strings.Builder
	var literal strings.Builder
	flushLiteral := func() error {
		text := literal.String()
		literal.Reset()
		for _, r := range reserved {
			if strings.Contains(text, r) {
				return fmt.Errorf("date format %q contains literal %q, which cannot be represented in a Go layout", pattern, text)
			}
		}
		layout.WriteString(text)
		return nil
	}

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '\'' || c == '"':
			end := strings.IndexByte(pattern[i+1:], c)
			if end < 0 {
				return "", fmt.Errorf("date format %q has an unterminated quoted literal", pattern)
			}
			literal.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		case c == '\\':
			if i+1 >= len(pattern) {
				return "", fmt.Errorf("date format %q ends with an escape character", pattern)
			}
			literal.WriteByte(pattern[i+1])
			i += 2
			continue
		case c == 'f' || c == 'F':
			n := countRun(pattern[i:], c)
			if layout.Len() == 0 && literal.Len() == 0 {
				return "", fmt.Errorf("date format %q has fractional seconds that do not follow a separator", pattern)
			}
			text := literal.String()
			if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, ",") {
				return "", fmt.Errorf("date format %q has fractional seconds that do not follow '.' or ','", pattern)
			}
			if err := flushLiteral(); err != nil {
				return "", err
			}
			digit := "0"
			if c == 'F' {
				digit = "9"
			}
			layout.WriteString(strings.Repeat(digit, n))
			i += n
			continue
		case c == 't':
			if !strings.HasPrefix(pattern[i:], "tt") {
				return "", fmt.Errorf("date format %q uses the single-letter AM/PM designator, which is not supported", pattern)
			}
		case c == 'g':
			return "", fmt.Errorf("date format %q uses an era designator, which is not supported", pattern)
		}

		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(pattern[i:], tok.pattern) {
				// A run longer than the longest token (e.g. `yyyyy`) is not supported.
				if next := i + len(tok.pattern); next < len(pattern) && pattern[next] == tok.pattern[0] && len(tok.pattern) >= longestRun(tok.pattern[0]) {
					return "", fmt.Errorf("date format %q has an unsupported run of %q", pattern, tok.pattern[0])
				}
				if err := flushLiteral(); err != nil {
					return "", err
				}
				layout.WriteString(tok.layout)
				i += len(tok.pattern)
				matched = true
				break
			}
		}
		if !matched {
			literal.WriteByte(c)
			i++
		}
	}
	if err := flushLiteral(); err != nil {
		return "", err
	}
	return layout.String(), nil
}

func countRun(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

func longestRun(c byte) int {
	longest := 0
	for _, tok := range tokens {
		if tok.pattern[0] == c && len(tok.pattern) > longest {
			longest = len(tok.pattern)
		}
	}
	return longest
}
