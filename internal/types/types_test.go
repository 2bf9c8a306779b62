package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeepsInsertionOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("zeta", "1")
	obj.Set("alpha", json.Number("2"))
	obj.Set("mid", nil)
	obj.Set("zeta", true)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, obj.Keys())

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":true,"alpha":2,"mid":null}`, string(data))
	assert.Equal(t, `{"zeta":true,"alpha":2,"mid":null}`, string(data))
}

func TestObjectDelete(t *testing.T) {
	obj := NewObject()
	obj.Set("a", "1")
	obj.Set("b", "2")
	obj.Set("c", "3")
	obj.Delete("b")
	obj.Delete("missing")

	assert.Equal(t, []string{"a", "c"}, obj.Keys())
	assert.False(t, obj.Has("b"))
	assert.Equal(t, 2, obj.Len())
}

func TestMarshalLeavesHTMLUnescaped(t *testing.T) {
	obj := NewObject()
	obj.Set("razao", "A & B <Ltda>")

	data, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"razao":"A & B <Ltda>"}`, string(data))
}

func TestMarshalNestedArrays(t *testing.T) {
	inner := NewObject()
	inner.Set("id", json.Number("1"))
	obj := NewObject()
	obj.Set("items", []Value{inner, "x", nil})

	data, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[{"id":1},"x",null]}`, string(data))
}

func TestDecodePreservesOrderAndNumbers(t *testing.T) {
	v, err := Decode([]byte(`{"b":1.50,"a":[true,null,"s"],"c":{"y":1,"x":2}}`))
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c"}, obj.Keys())

	b, _ := obj.Get("b")
	assert.Equal(t, json.Number("1.50"), b)

	c, _ := obj.Get("c")
	assert.Equal(t, []string{"y", "x"}, c.(*Object).Keys())
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	_, err := Decode([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)
}

func TestEqual(t *testing.T) {
	left := NewObject()
	left.Set("a", json.Number("1"))
	left.Set("b", []Value{"x", true})

	same := NewObject()
	same.Set("a", json.Number("1"))
	same.Set("b", []Value{"x", true})

	reordered := NewObject()
	reordered.Set("b", []Value{"x", true})
	reordered.Set("a", json.Number("1"))

	assert.True(t, Equal(left, same))
	assert.False(t, Equal(left, reordered))
	assert.False(t, Equal(json.Number("1"), "1"))
	assert.True(t, Equal(nil, nil))
}

func TestEqualNilObject(t *testing.T) {
	var none *Object
	assert.True(t, Equal(none, none))
	assert.True(t, Equal(none, nil))
	assert.True(t, Equal(nil, none))
	assert.False(t, Equal(none, NewObject()))
	assert.False(t, Equal(NewObject(), none))

	withNil := NewObject()
	withNil.Set("x", none)
	withNull := NewObject()
	withNull.Set("x", nil)
	assert.True(t, Equal(withNil, withNull))
}

func TestRoundTripThroughDecode(t *testing.T) {
	obj := NewObject()
	obj.Set("n", json.Number("1234.56"))
	obj.Set("s", "texto")
	obj.Set("e", NewObject())
	obj.Set("arr", []Value{})

	data, err := Marshal(obj)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, Equal(obj, back))
}
