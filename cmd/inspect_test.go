package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCmd(t *testing.T) {
	dir := t.TempDir()
	invoice := invoiceCopy(t, dir)
	catalog := writeXML(t, dir, "catalog.xml", catalogXML)
	broken := writeXML(t, dir, "broken.xml", "<root>\n  <a>\n</root>")

	t.Run("nfe structure", func(t *testing.T) {
		out, _, err := execute(t, "validate", invoice, "--nfe")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ "+invoice)
		assert.Contains(t, out, "Root element: nfeProc")
		assert.Contains(t, out, "NF-e key:     NFe35250732409620000175550010000037471011544648")
	})

	t.Run("required elements", func(t *testing.T) {
		out, _, err := execute(t, "validate", catalog, "--require", "book", "--require", "author")
		require.Error(t, err)
		assert.Contains(t, out, "Found:        book")
		assert.Contains(t, out, "Missing:      author")
	})

	t.Run("json output", func(t *testing.T) {
		out, _, err := execute(t, "validate", catalog, "--json")
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, true, got["valid"])
		assert.Equal(t, "catalog", got["root_element"])
	})

	t.Run("not an nfe", func(t *testing.T) {
		_, _, err := execute(t, "validate", catalog, "--nfe")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		out, _, err := execute(t, "validate", broken)
		require.Error(t, err)
		assert.Contains(t, out, "is not well-formed")
		assert.Contains(t, err.Error(), "line 3")
	})
}

func TestNFeCmd(t *testing.T) {
	dir := t.TempDir()
	invoice := invoiceCopy(t, dir)

	t.Run("report", func(t *testing.T) {
		out, _, err := execute(t, "nfe", invoice)
		require.NoError(t, err)

		var got struct {
			NFe           map[string]any `json:"nfe"`
			MissingFields []string       `json:"missing_fields"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "35250732409620000175550010000037471011544648", got.NFe["chave_nfe"])
		assert.Equal(t, "Comercial Exemplo Ltda", got.NFe["emitente_nome"])
		assert.Equal(t, "1234.56", got.NFe["valor_total"])
		assert.Len(t, got.NFe["produtos"], 2)
		assert.NotNil(t, got.MissingFields)
	})

	t.Run("summary", func(t *testing.T) {
		out, _, err := execute(t, "nfe", invoice, "--summary", "--minimize")
		require.NoError(t, err)
		assert.Contains(t, out, `"tipo":"NFe - Nota Fiscal Eletrônica"`)
		assert.Contains(t, out, `"emitente":"Comercial Exemplo Ltda"`)
		assert.Contains(t, out, `"itens":2`)
	})

	t.Run("not an nfe", func(t *testing.T) {
		catalog := writeXML(t, dir, "catalog.xml", catalogXML)
		_, _, err := execute(t, "nfe", catalog)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not an NF-e document")
	})
}

func TestQueryCmd(t *testing.T) {
	catalog := writeXML(t, t.TempDir(), "catalog.xml", catalogXML)

	out, _, err := execute(t, "query", catalog, "catalog.book.0.title", "catalog.book.0.price", "catalog.book.#", "catalog.open")
	require.NoError(t, err)
	assert.Equal(t, "Go\n10.50\n2\ntrue\n", out)

	out, _, err = execute(t, "query", catalog, "catalog.book.1", "catalog.book.1.title", "--raw")
	require.NoError(t, err)
	assert.Equal(t, `{"@attributes":{"id":2},"title":"XML","price":7}`+"\n"+`"XML"`+"\n", out)

	_, _, err = execute(t, "query", catalog, "catalog.author")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"catalog.author"`)
}
