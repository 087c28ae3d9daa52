package testutil

import (
	"github.com/roach88/matchdag/internal/types"
)

// Universe returns the standard fixture universe shared by package tests.
//
// Declared types:
//
//	struct Point { int X; int Y; Deconstruct(out int X, out int Y) }
//	enum   Color { Red, Green, Blue }
//	class  Shape; sealed class Circle : Shape { double Radius }; class Square : Shape { int Side }
//	struct S { int Prop1; int Prop2 }
//	class  Node { Node Next; int Value }
//	class  Pair : ITuple { Deconstruct(out int A, out int B) }
//	class  Amb { Deconstruct(out int A, out int B); Deconstruct(out string C, out string D) }
//	class  Bag { int Count; indexer -> int; slice -> Bag }
//	ref struct Span { int Length; indexer -> int }
func Universe() *types.Universe {
	u := types.NewUniverse()
	mustDefine := func(t *types.Type) *types.Type {
		if err := u.Define(t); err != nil {
			panic(err)
		}
		return t
	}

	mustDefine(&types.Type{
		Name: "Point", Kind: types.KindStruct,
		Members: []types.Member{{Name: "X", Type: u.Int}, {Name: "Y", Type: u.Int}},
		Deconstructors: []types.Deconstructor{{Params: []types.Param{
			{Name: "X", Type: u.Int}, {Name: "Y", Type: u.Int},
		}}},
	})

	mustDefine(&types.Type{
		Name: "Color", Kind: types.KindEnum,
		EnumMembers: []types.EnumMember{{Name: "Red", Value: 0}, {Name: "Green", Value: 1}, {Name: "Blue", Value: 2}},
	})

	shape := mustDefine(&types.Type{Name: "Shape", Kind: types.KindClass})
	mustDefine(&types.Type{
		Name: "Circle", Kind: types.KindClass, Base: shape, Sealed: true,
		Members: []types.Member{{Name: "Radius", Type: u.Double}},
	})
	mustDefine(&types.Type{
		Name: "Square", Kind: types.KindClass, Base: shape,
		Members: []types.Member{{Name: "Side", Type: u.Int}},
	})

	mustDefine(&types.Type{
		Name: "S", Kind: types.KindStruct,
		Members: []types.Member{{Name: "Prop1", Type: u.Int}, {Name: "Prop2", Type: u.Int}},
	})

	node := &types.Type{Name: "Node", Kind: types.KindClass}
	node.Members = []types.Member{{Name: "Next", Type: node}, {Name: "Value", Type: u.Int}}
	mustDefine(node)

	mustDefine(&types.Type{
		Name: "Pair", Kind: types.KindClass, Interfaces: []*types.Type{u.ITuple},
		Members: []types.Member{{Name: "A", Type: u.Int}, {Name: "B", Type: u.Int}},
		Deconstructors: []types.Deconstructor{{Params: []types.Param{
			{Name: "A", Type: u.Int}, {Name: "B", Type: u.Int},
		}}},
	})

	mustDefine(&types.Type{
		Name: "Amb", Kind: types.KindClass,
		Members: []types.Member{{Name: "A", Type: u.Int}, {Name: "B", Type: u.Int}},
		Deconstructors: []types.Deconstructor{
			{Params: []types.Param{{Name: "A", Type: u.Int}, {Name: "B", Type: u.Int}}},
			{Params: []types.Param{{Name: "C", Type: u.String, Field: "A"}, {Name: "D", Type: u.String, Field: "B"}}},
		},
	})

	bag := &types.Type{Name: "Bag", Kind: types.KindClass, Members: []types.Member{{Name: "Count", Type: u.Int}}}
	bag.List = &types.ListShape{LengthMember: "Count", Elem: u.Int, Slice: bag}
	mustDefine(bag)

	mustDefine(&types.Type{
		Name: "Span", Kind: types.KindStruct, ByRefLike: true,
		Members: []types.Member{{Name: "Length", Type: u.Int}},
		List:    &types.ListShape{LengthMember: "Length", Elem: u.Int},
	})

	return u
}
