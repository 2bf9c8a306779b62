package converter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/xmlparser"
)

func convertJSON(t *testing.T, c *Converter, xml string) string {
	t.Helper()
	v, err := c.ConvertString(xml)
	require.NoError(t, err)
	data, err := types.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func defaultConverter() *Converter {
	return New(DefaultOptions(), nil)
}

func TestConvertNestedShape(t *testing.T) {
	got := convertJSON(t, defaultConverter(), `<root><a>1</a><b><c>x</c></b></root>`)
	assert.Equal(t, `{"root":{"a":1,"b":{"c":"x"}}}`, got)
}

func TestConvertRepeatedSiblingsBecomeArray(t *testing.T) {
	got := convertJSON(t, defaultConverter(), `<r><item>1</item><other/><item>2</item></r>`)
	assert.Equal(t, `{"r":{"item":[1,2],"other":null}}`, got)
}

func TestConvertSingleOccurrenceStaysBare(t *testing.T) {
	got := convertJSON(t, defaultConverter(), `<r><det><n>1</n></det></r>`)
	assert.Equal(t, `{"r":{"det":{"n":1}}}`, got)
}

func TestConvertForceArray(t *testing.T) {
	opts := DefaultOptions()
	opts.ForceArray = []string{"det"}
	got := convertJSON(t, New(opts, nil), `<r><det><n>1</n></det></r>`)
	assert.Equal(t, `{"r":{"det":[{"n":1}]}}`, got)
}

func TestConvertAttributesAndValue(t *testing.T) {
	got := convertJSON(t, defaultConverter(), `<p id="7">hello</p>`)
	assert.Equal(t, `{"p":{"@attributes":{"id":7},"_value":"hello"}}`, got)
}

func TestConvertAttributesOnlyElement(t *testing.T) {
	got := convertJSON(t, defaultConverter(), `<r><x a="true" b=""/></r>`)
	assert.Equal(t, `{"r":{"x":{"@attributes":{"a":true,"b":null}}}}`, got)
}

func TestConvertMixedContentUsesTextKey(t *testing.T) {
	got := convertJSON(t, defaultConverter(), `<r id="1"> 42 <c>2</c></r>`)
	assert.Equal(t, `{"r":{"@attributes":{"id":1},"_text":"42","c":2}}`, got)
}

func TestConvertMixedContentKeepsTextBesideTextKeyChild(t *testing.T) {
	conv := defaultConverter()
	got := convertJSON(t, conv, `<r>hi<_text>x</_text></r>`)
	assert.Equal(t, `{"r":{"_text":["hi","x"]}}`, got)

	_, stats, err := conv.ConvertBytesWithStats([]byte(`<r>hi<_text>1</_text><_text>2</_text></r>`))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Arrays)

	got = convertJSON(t, conv, `<r>hi<_text>1</_text><_text>2</_text></r>`)
	assert.Equal(t, `{"r":{"_text":["hi",1,2]}}`, got)

	got = convertJSON(t, conv, `<r><_text>x</_text></r>`)
	assert.Equal(t, `{"r":{"_text":"x"}}`, got)
}

func TestConvertPrefixedAttributeStyle(t *testing.T) {
	opts := DefaultOptions()
	opts.AttributeStyle = AttributesPrefixed
	got := convertJSON(t, New(opts, nil), `<p id="7" lang="pt">hello</p>`)
	assert.Equal(t, `{"p":{"@id":7,"@lang":"pt","_value":"hello"}}`, got)
}

func TestConvertWithoutAttributes(t *testing.T) {
	opts := DefaultOptions()
	opts.PreserveAttributes = false
	got := convertJSON(t, New(opts, nil), `<p id="7">hello</p>`)
	assert.Equal(t, `{"p":"hello"}`, got)
}

func TestConvertEmptyPolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.EmptyValue = EmptyString
	got := convertJSON(t, New(opts, nil), `<r><a/><b>  </b></r>`)
	assert.Equal(t, `{"r":{"a":"","b":""}}`, got)

	got = convertJSON(t, defaultConverter(), `<r><a/><b>  </b></r>`)
	assert.Equal(t, `{"r":{"a":null,"b":null}}`, got)
}

func TestConvertTypeCoercion(t *testing.T) {
	got := convertJSON(t, defaultConverter(),
		`<r><a>TRUE</a><b>false</b><c>007</c><d>-15</d><e>1234,56</e><f>4.00</f><g>1.234,56</g><h>abc</h><i>.5</i></r>`)
	assert.Equal(t,
		`{"r":{"a":true,"b":false,"c":7,"d":-15,"e":1234.56,"f":4.00,"g":"1.234,56","h":"abc","i":0.5}}`,
		got)
}

func TestConvertWithoutTypeCoercion(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoTypeConversion = false
	got := convertJSON(t, New(opts, nil), `<r a="1"><b>true</b><c>10</c></r>`)
	assert.Equal(t, `{"r":{"@attributes":{"a":"1"},"b":"true","c":"10"}}`, got)
}

func TestConvertLongDigitStringStaysExact(t *testing.T) {
	got := convertJSON(t, defaultConverter(), `<r><k>35240112345678000199550010000001231234567890</k></r>`)
	assert.Equal(t, `{"r":{"k":35240112345678000199550010000001231234567890}}`, got)
}

func TestConvertNamespaces(t *testing.T) {
	xml := `<ns:root xmlns:ns="http://example.com/ns" xmlns="http://default"><ns:item ns:code="A">v</ns:item></ns:root>`

	got := convertJSON(t, defaultConverter(), xml)
	assert.Equal(t, `{"root":{"item":{"@attributes":{"code":"A"},"_value":"v"}}}`, got)

	opts := DefaultOptions()
	opts.CleanNamespaces = false
	got = convertJSON(t, New(opts, nil), xml)
	assert.Equal(t, `{"ns:root":{"ns:item":{"@attributes":{"ns:code":"A"},"_value":"v"}}}`, got)
}

func TestConvertNamespaceCollisionBecomesArray(t *testing.T) {
	xml := `<r xmlns:a="urn:a" xmlns:b="urn:b"><a:x>1</a:x><b:x>2</b:x></r>`
	got := convertJSON(t, defaultConverter(), xml)
	assert.Equal(t, `{"r":{"x":[1,2]}}`, got)
}

func TestConvertMalformedInput(t *testing.T) {
	_, err := defaultConverter().ConvertString(`<root><a>1</root>`)
	var perr *xmlparser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
}

func TestConvertIsIdempotent(t *testing.T) {
	xml := `<nfe><item n="1">a</item><item n="2">b</item><v>10.50</v></nfe>`
	c := defaultConverter()

	first, err := c.ConvertString(xml)
	require.NoError(t, err)
	data, err := types.Marshal(first)
	require.NoError(t, err)

	decoded, err := types.Decode(data)
	require.NoError(t, err)

	second, err := c.ConvertString(xml)
	require.NoError(t, err)
	assert.True(t, types.Equal(decoded, second))
}

func TestConvertFileWithStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<r a="1"><x>1</x><x>2</x><y><z/></y></r>`), 0o644))

	v, stats, err := defaultConverter().ConvertFileWithStats(path)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Elements)
	assert.Equal(t, 1, stats.Attributes)
	assert.Equal(t, 1, stats.Arrays)
	assert.Equal(t, 3, stats.MaxDepth)

	root, _ := v.(*types.Object).Get("r")
	assert.Equal(t, []string{"@attributes", "x", "y"}, root.(*types.Object).Keys())
}

func TestConvertFileMissing(t *testing.T) {
	_, err := defaultConverter().ConvertFile(filepath.Join(t.TempDir(), "nope.xml"))
	assert.Error(t, err)
}

func TestConvertNode(t *testing.T) {
	c := defaultConverter()
	v, err := c.ConvertString(`<a><b>1</b></a>`)
	require.NoError(t, err)

	doc, err := xmlparser.Parse([]byte(`<a><b>1</b></a>`), xmlparser.DefaultOptions())
	require.NoError(t, err)
	node := c.ConvertNode(doc.Root())

	wrapped, _ := v.(*types.Object).Get("a")
	assert.True(t, types.Equal(wrapped, node))
}

func TestConvertOutputIsValidJSON(t *testing.T) {
	got := convertJSON(t, defaultConverter(), `<r><a>x &amp; y</a><b>"q"</b></r>`)
	assert.True(t, json.Valid([]byte(got)))
	assert.Equal(t, `{"r":{"a":"x & y","b":"\"q\""}}`, got)
}
