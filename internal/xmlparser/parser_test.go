package xmlparser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleDocument(t *testing.T) {
	doc, err := Parse([]byte(`<?xml version="1.0"?><root><a>1</a></root>`), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "root", doc.Root().Tag)
	assert.Equal(t, "1", doc.Root().SelectElement("a").Text())
}

func TestParseMissingCloseTagReportsPosition(t *testing.T) {
	_, err := Parse([]byte("<root>\n  <a>1</a>\n  <b>2\n</root>"), DefaultOptions())
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 4, perr.Line)
	assert.Contains(t, perr.Error(), "line 4")
}

func TestParseUnclosedRoot(t *testing.T) {
	_, err := Parse([]byte(`<root><a>1</a>`), DefaultOptions())
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Greater(t, perr.Line, 0)
}

func TestParseEmptyAndRootless(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"whitespace":   "   \n\t",
		"decl only":    `<?xml version="1.0"?>`,
		"text only":    "just text",
		"two roots":    "<a/><b/>",
		"comment only": "<!-- nothing -->",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input), DefaultOptions())
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`<root>ok</root>`)...)
	doc, err := Parse(data, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "ok", doc.Root().Text())
}

func TestParseDeclaredLatin1(t *testing.T) {
	// "São" encoded as ISO-8859-1.
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><m>S\xe3o</m>")
	doc, err := Parse(data, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "São", doc.Root().Text())
}

func TestParseUndeclaredFallsBackToWindows1252(t *testing.T) {
	data := []byte("<m>Jos\xe9</m>")
	doc, err := Parse(data, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "José", doc.Root().Text())
}

func TestParseUndeclaredWithoutFallbackFails(t *testing.T) {
	_, err := Parse([]byte("<m>Jos\xe9</m>"), Options{})
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseUnsupportedEncoding(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0" encoding="x-klingon"?><a/>`), DefaultOptions())
	var uerr *UnsupportedEncodingError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "x-klingon", uerr.Label)
}

func TestDeclaredEncoding(t *testing.T) {
	assert.Equal(t, "UTF-8", DeclaredEncoding([]byte(`<?xml version="1.0" encoding="UTF-8"?><a/>`)))
	assert.Equal(t, "latin1", DeclaredEncoding([]byte(`<?xml version='1.0' encoding='latin1' ?><a/>`)))
	assert.Equal(t, "", DeclaredEncoding([]byte(`<?xml version="1.0"?><a/>`)))
	assert.Equal(t, "", DeclaredEncoding([]byte(`<a encoding="x"/>`)))
}

func TestParseFileSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<root>0123456789</root>`), 0o644))

	_, err := ParseFile(path, Options{MaxBytes: 5})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	doc, err := ParseFile(path, Options{MaxBytes: 1024})
	require.NoError(t, err)
	assert.Equal(t, "root", doc.Root().Tag)
}
