package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"synthctl/internal/ast"
)

func TestIsScalarCollectionNumeric(t *testing.T) {
	require.True(t, IsScalar(ast.IntType{}))
	require.True(t, IsScalar(ast.HandleType{Value: ast.IntType{}}))
	require.False(t, IsScalar(ast.BagType{Elem: ast.IntType{}}))

	require.True(t, IsCollection(ast.SetType{Elem: ast.IntType{}}))
	require.False(t, IsCollection(ast.IntType{}))

	require.True(t, IsNumeric(ast.IntType{}))
	require.False(t, IsNumeric(ast.BagType{Elem: ast.IntType{}}))
}

func TestDefaultValueRecord(t *testing.T) {
	rt := ast.RecordType{Fields: []ast.RecordField{
		{Name: "count", Type: ast.IntType{}},
		{Name: "tags", Type: ast.SetType{Elem: ast.StringType{}}},
	}}
	d := DefaultValue(rt)
	rec, ok := d.(*ast.MakeRecord)
	require.True(t, ok)
	require.Len(t, rec.Fields, 2)
	lit, ok := rec.Fields[0].Value.(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, int64(0), lit.Value)
}

func TestDefaultValueMapIsEmptyMap(t *testing.T) {
	mt := ast.MapType{Key: ast.IntType{}, Val: ast.BoolType{}}
	d := DefaultValue(mt)
	_, ok := d.(*ast.EmptyMap)
	require.True(t, ok)
}
