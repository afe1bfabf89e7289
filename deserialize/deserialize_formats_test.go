//nolint:exhaustruct
package deserialize_test

import (
	"testing"
	"time"

	"github.com/pasqal-io/respmap/deserialize"
	"github.com/pasqal-io/respmap/document"
	"github.com/pasqal-io/respmap/document/xml"
	"gotest.tools/v3/assert"
)

type Contact struct {
	Name      string
	Age       int
	IsCool    bool
	StartDate time.Time
	Mood      Disposition
	Nickname  *string
	Friends   []Friend
}

type Friend struct {
	Name  string
	Since int
}

func expectedContact() Contact {
	return Contact{
		Name:      "John Sheehan",
		Age:       28,
		IsCool:    true,
		StartDate: time.Date(2009, 9, 25, 0, 0, 0, 0, time.UTC),
		Mood:      SoSo,
		Friends: []Friend{
			{Name: "Friend0", Since: 1},
			{Name: "Friend1", Since: 2},
		},
	}
}

func TestXML(t *testing.T) {
	deserializer, err := deserialize.MakeDeserializer[Contact](deserialize.XMLOptions(""))
	assert.NilError(t, err)
	result, err := deserializer.DeserializeString(`<?xml version="1.0"?>
<Person>
	<Name>John Sheehan</Name>
	<age>28</age>
	<is_cool>true</is_cool>
	<StartDate>2009-09-25</StartDate>
	<Mood>so_so</Mood>
	<Nickname/>
	<Friends>
		<Friend><Name>Friend0</Name><Since>1</Since></Friend>
		<Friend><Name>Friend1</Name><Since>2</Since></Friend>
	</Friends>
</Person>`)
	assert.NilError(t, err)
	assert.DeepEqual(t, *result, expectedContact())
}

func TestXMLAttributesAndRootElement(t *testing.T) {
	deserializer, err := deserialize.MakeDeserializer[[]Friend](deserialize.XMLOptions("friends"))
	assert.NilError(t, err)
	result, err := deserializer.DeserializeString(`<Response>
	<Status>ok</Status>
	<Friends>
		<Friend Name="Friend0" Since="1"/>
	</Friends>
</Response>`)
	assert.NilError(t, err)
	assert.DeepEqual(t, *result, []Friend{{Name: "Friend0", Since: 1}})
}

type Item struct {
	Name  string
	Price float64
}

type Catalog struct {
	Item []Item
}

type Store struct {
	Name    string
	Catalog Catalog
}

// Repeated elements map into structs as well as into sequences.
func TestXMLRepeatedElements(t *testing.T) {
	const catalog = `<Catalog>
	<Item><Name>apple</Name><Price>1.5</Price></Item>
	<Item><Name>pear</Name><Price>2</Price></Item>
</Catalog>`
	items := []Item{{Name: "apple", Price: 1.5}, {Name: "pear", Price: 2}}

	asStruct, err := deserialize.MakeDeserializer[Catalog](deserialize.XMLOptions(""))
	assert.NilError(t, err)
	result, notes, err := asStruct.DeserializeNodeWithNotes(parseXML(t, catalog))
	assert.NilError(t, err)
	assert.Equal(t, len(notes), 0)
	assert.DeepEqual(t, result.Item, items)

	asList, err := deserialize.MakeDeserializer[[]Item](deserialize.XMLOptions(""))
	assert.NilError(t, err)
	list, err := asList.DeserializeString(catalog)
	assert.NilError(t, err)
	assert.DeepEqual(t, *list, items)

	nested, err := deserialize.MakeDeserializer[Store](deserialize.XMLOptions(""))
	assert.NilError(t, err)
	store, notes, err := nested.DeserializeNodeWithNotes(parseXML(t, "<Store><Name>market</Name>"+catalog+"</Store>"))
	assert.NilError(t, err)
	assert.Equal(t, len(notes), 0)
	assert.Equal(t, store.Name, "market")
	assert.DeepEqual(t, store.Catalog.Item, items)

	// An element whose only child is a member of the element type is a lone element.
	list, err = asList.DeserializeString(`<Data><Name>solo</Name></Data>`)
	assert.NilError(t, err)
	assert.DeepEqual(t, *list, []Item{{Name: "solo"}})

	// Without unwrapping, the wrapper is taken as a lone element.
	options := deserialize.XMLOptions("")
	options.UnwrapLists = false
	plain, err := deserialize.MakeDeserializer[[]Item](options)
	assert.NilError(t, err)
	list, notes, err = plain.DeserializeNodeWithNotes(parseXML(t, catalog))
	assert.NilError(t, err)
	assert.Equal(t, len(*list), 1)
	assert.Equal(t, len(notes), 0)
	assert.DeepEqual(t, (*list)[0], Item{})
}

func parseXML(t *testing.T, source string) document.Node {
	t.Helper()
	node, err := xml.Driver{}.Parse([]byte(source))
	assert.NilError(t, err)
	return node
}

func TestYAML(t *testing.T) {
	deserializer, err := deserialize.MakeDeserializer[Contact](deserialize.YAMLOptions("contact"))
	assert.NilError(t, err)
	result, err := deserializer.DeserializeString(`
contact:
  name: John Sheehan
  age: "28"
  is-cool: true
  start_date: 2009-09-25
  mood: SO-SO
  nickname: ~
  friends:
    - name: Friend0
      since: 1
    - name: Friend1
      since: 2
`)
	assert.NilError(t, err)
	assert.DeepEqual(t, *result, expectedContact())
}

func TestForm(t *testing.T) {
	type Token struct {
		Token     string `form:"oauth_token"`
		Secret    string `form:"oauth_token_secret"`
		Confirmed bool   `form:"oauth_callback_confirmed"`
		Scopes    []string
		ExpiresIn time.Duration
	}
	deserializer, err := deserialize.MakeDeserializer[Token](deserialize.FormOptions(""))
	assert.NilError(t, err)
	result, err := deserializer.DeserializeString("oauth_token=abc&oauth_token_secret=def&oauth_callback_confirmed=true&scopes=read&expires_in=1h")
	assert.NilError(t, err)
	assert.DeepEqual(t, *result, Token{
		Token:     "abc",
		Secret:    "def",
		Confirmed: true,
		Scopes:    []string{"read"},
		ExpiresIn: time.Hour,
	})

	result, err = deserializer.DeserializeString("scopes=read&scopes=write")
	assert.NilError(t, err)
	assert.DeepEqual(t, result.Scopes, []string{"read", "write"})
}
