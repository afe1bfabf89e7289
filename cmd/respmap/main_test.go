package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func runWith(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(input), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestStrings(t *testing.T) {
	stdout, _, err := runWith(t, `{"data": {"Thing1": "Thing1", "ThingRed": {"Color": "Red"}}}`, "-root", "data", "-as", "strings")
	assert.NilError(t, err)
	assert.Equal(t, stdout, "{\n  \"Thing1\": \"Thing1\",\n  \"ThingRed\": \"{\\\"Color\\\":\\\"Red\\\"}\"\n}\n")
}

func TestFormats(t *testing.T) {
	stdout, _, err := runWith(t, "<Root><Name>John</Name></Root>", "-format", "xml", "-as", "object")
	assert.NilError(t, err)
	assert.Equal(t, stdout, "{\n  \"Name\": \"John\"\n}\n")

	stdout, _, err = runWith(t, "oauth_token=abc&oauth_token=def", "-format", "form", "-root", "oauth_token", "-as", "list")
	assert.NilError(t, err)
	assert.Equal(t, stdout, "[\n  \"abc\",\n  \"def\"\n]\n")

	stdout, _, err = runWith(t, "- 1\n- two\n", "-format", "yaml")
	assert.NilError(t, err)
	assert.Equal(t, stdout, "[\n  1,\n  \"two\"\n]\n")
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.json")
	assert.NilError(t, os.WriteFile(path, []byte(`[true]`), 0o600))
	stdout, _, err := runWith(t, "", "-as", "list", path)
	assert.NilError(t, err)
	assert.Equal(t, stdout, "[\n  true\n]\n")
}

func TestDump(t *testing.T) {
	stdout, _, err := runWith(t, `"abc"`, "-dump")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(stdout, `(string) (len=3) "abc"`), stdout)
}

func TestErrors(t *testing.T) {
	_, _, err := runWith(t, `{}`, "-format", "toml")
	assert.ErrorContains(t, err, `unknown format "toml"`)

	_, _, err = runWith(t, `{}`, "-as", "tree")
	assert.ErrorContains(t, err, `unknown target "tree"`)

	_, _, err = runWith(t, `{`)
	assert.ErrorContains(t, err, "parse json body")

	_, _, err = runWith(t, `"scalar"`, "-as", "object")
	assert.ErrorContains(t, err, "invalid value at map[string]interface {}")

	_, _, err = runWith(t, `{}`, "a", "b")
	assert.ErrorIs(t, err, errUsage)
}

func TestNotesAreLogged(t *testing.T) {
	stdout, stderr, err := runWith(t, `{"a": 1, "b": "x"}`, "-as", "numbers")
	assert.NilError(t, err)
	assert.Equal(t, stdout, "{\n  \"a\": 1,\n  \"b\": 0\n}\n")
	assert.Assert(t, strings.Contains(stderr, "value could not be deserialized"), stderr)
	assert.Assert(t, strings.Contains(stderr, "float64["), stderr)

	_, _, err = runWith(t, `{"a": 1, "b": "x"}`, "-as", "numbers", "-strict")
	assert.ErrorContains(t, err, "1 value(s) could not be deserialized")

	_, stderr, err = runWith(t, `{"a": 1}`, "-as", "numbers")
	assert.NilError(t, err)
	assert.Equal(t, stderr, "")

	_, _, err = runWith(t, `{"a": 1}`, "-date-format", "yyyy 'oops")
	assert.ErrorContains(t, err, "invalid option DateFormat")
}
