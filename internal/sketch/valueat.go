package sketch

import (
	"synthctl/internal/ast"
	"synthctl/internal/types"
)

// ValueAt is the canonical lookup form m[k]: a MakeMap built directly from
// a bag/key/value triple is expanded in place rather than wrapped in a
// MapGet, and an If distributes over both branches, so that downstream
// simplification sees through the map's construction instead of having to
// reason about an opaque MapGet every time.
func ValueAt(m ast.Expr, k ast.Expr) ast.Expr {
	switch mm := m.(type) {
	case *ast.MakeMap:
		return &ast.If{
			Cond: &ast.In{X: k, Bag: mm.Bag, T: ast.BoolType{}},
			Then: mm.ValF.Apply(k),
			Else: types.DefaultValue(mm.T.(ast.MapType).Val),
			T:    mm.T.(ast.MapType).Val,
		}
	case *ast.If:
		mt := mm.T.(ast.MapType)
		return &ast.If{
			Cond: mm.Cond,
			Then: ValueAt(mm.Then, k),
			Else: ValueAt(mm.Else, k),
			T:    mt.Val,
		}
	default:
		mt := m.Type().(ast.MapType)
		return &ast.MapGet{Map: m, Key: k, T: mt.Val}
	}
}
