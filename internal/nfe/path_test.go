package nfe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

func TestParsePath(t *testing.T) {
	p := ParsePath("enviNFe.NFe.0.infNFe")
	assert.Equal(t, Path{{Key: "enviNFe"}, {Key: "NFe"}, {Index: 0, IsIndex: true}, {Key: "infNFe"}}, p)
	assert.Equal(t, "enviNFe.NFe.0.infNFe", p.String())
	assert.Nil(t, ParsePath(""))
	assert.Equal(t, "a.b.c", ParsePath("a").Join("b.c").String())
}

func TestResolve(t *testing.T) {
	leaf := types.NewObject()
	leaf.Set("n", json.Number("1"))
	other := types.NewObject()
	other.Set("n", json.Number("2"))

	root := types.NewObject()
	root.Set("list", []types.Value{leaf, other})
	root.Set("single", leaf)
	root.Set("empty", nil)

	v, ok := Resolve(root, ParsePath("list.1.n"))
	assert.True(t, ok)
	assert.Equal(t, json.Number("2"), v)

	v, ok = Resolve(root, ParsePath("single.0.n"))
	assert.True(t, ok)
	assert.Equal(t, json.Number("1"), v)

	_, ok = Resolve(root, ParsePath("single.1.n"))
	assert.False(t, ok)

	_, ok = Resolve(root, ParsePath("list.5"))
	assert.False(t, ok)

	_, ok = Resolve(root, ParsePath("list.n"))
	assert.False(t, ok)

	v, ok = Resolve(root, ParsePath("empty"))
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = Resolve(root, ParsePath("empty.0"))
	assert.False(t, ok)
}

func TestAsList(t *testing.T) {
	assert.Nil(t, asList(nil))
	assert.Len(t, asList("x"), 1)
	assert.Len(t, asList([]types.Value{"a", "b"}), 2)
}
