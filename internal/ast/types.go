package ast

import (
	"strings"
)

// Type is a resolved type. The set of variants is closed.
type Type interface {
	String() string
	typeNode()
}

// BoolType is the type of booleans.
type BoolType struct{}

// IntType is the type of mathematical integers.
type IntType struct{}

// ObjectType is the type `object`, a supertype of every class.
type ObjectType struct{}

// TypeParamType is a use of a type parameter.
type TypeParamType struct {
	Param *TypeParameter
}

// ClassType is a reference to an instance of a class. Arrays are
// instances of the built-in array classes.
type ClassType struct {
	Class    *ClassDecl
	TypeArgs []Type
}

// DatatypeType is an inductive datatype value type.
type DatatypeType struct {
	Datatype *DatatypeDecl
	TypeArgs []Type
}

// SetType is a finite set.
type SetType struct {
	Elem Type
}

// SeqType is a finite sequence.
type SeqType struct {
	Elem Type
}

// MapType is a finite map.
type MapType struct {
	Key   Type
	Value Type
}

// UnresolvedType is a type-inference placeholder that escaped the
// resolver. It is not a supported input.
type UnresolvedType struct {
	Name string
}

func (BoolType) typeNode()        {}
func (IntType) typeNode()         {}
func (ObjectType) typeNode()      {}
func (*TypeParamType) typeNode()  {}
func (*ClassType) typeNode()      {}
func (*DatatypeType) typeNode()   {}
func (*SetType) typeNode()        {}
func (*SeqType) typeNode()        {}
func (*MapType) typeNode()        {}
func (*UnresolvedType) typeNode() {}

func (BoolType) String() string   { return "bool" }
func (IntType) String() string    { return "int" }
func (ObjectType) String() string { return "object" }
func (t *TypeParamType) String() string {
	return t.Param.Name
}
func (t *ClassType) String() string {
	return t.Class.Name + typeArgString(t.TypeArgs)
}
func (t *DatatypeType) String() string {
	return t.Datatype.Name + typeArgString(t.TypeArgs)
}
func (t *SetType) String() string { return "set<" + t.Elem.String() + ">" }
func (t *SeqType) String() string { return "seq<" + t.Elem.String() + ">" }
func (t *MapType) String() string {
	return "map<" + t.Key.String() + ", " + t.Value.String() + ">"
}
func (t *UnresolvedType) String() string { return "?" + t.Name }

func typeArgString(args []Type) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// IsReferenceType reports whether values of t are heap references.
// Unresolved placeholders count as references.
func IsReferenceType(t Type) bool {
	switch t.(type) {
	case ObjectType, *ClassType, *UnresolvedType:
		return true
	}
	return false
}

// IsArrayType reports whether t is an instance of a built-in array class.
func IsArrayType(t Type) bool {
	ct, ok := t.(*ClassType)
	return ok && ct.Class.ArrayDims > 0
}

// ArrayElementType returns the element type of an array type.
func ArrayElementType(t Type) Type {
	ct := t.(*ClassType)
	return ct.TypeArgs[0]
}

// ElementType returns the element type of a collection type, or nil.
func ElementType(t Type) Type {
	switch t := t.(type) {
	case *SetType:
		return t.Elem
	case *SeqType:
		return t.Elem
	case *MapType:
		return t.Key
	}
	return nil
}

// IsTypeParam reports whether t is a type parameter use.
func IsTypeParam(t Type) bool {
	_, ok := t.(*TypeParamType)
	return ok
}

// SameType compares resolved types structurally.
func SameType(a, b Type) bool {
	switch a := a.(type) {
	case BoolType:
		_, ok := b.(BoolType)
		return ok
	case IntType:
		_, ok := b.(IntType)
		return ok
	case ObjectType:
		_, ok := b.(ObjectType)
		return ok
	case *TypeParamType:
		bb, ok := b.(*TypeParamType)
		return ok && a.Param == bb.Param
	case *ClassType:
		bb, ok := b.(*ClassType)
		return ok && a.Class == bb.Class && sameTypes(a.TypeArgs, bb.TypeArgs)
	case *DatatypeType:
		bb, ok := b.(*DatatypeType)
		return ok && a.Datatype == bb.Datatype && sameTypes(a.TypeArgs, bb.TypeArgs)
	case *SetType:
		bb, ok := b.(*SetType)
		return ok && SameType(a.Elem, bb.Elem)
	case *SeqType:
		bb, ok := b.(*SeqType)
		return ok && SameType(a.Elem, bb.Elem)
	case *MapType:
		bb, ok := b.(*MapType)
		return ok && SameType(a.Key, bb.Key) && SameType(a.Value, bb.Value)
	case *UnresolvedType:
		bb, ok := b.(*UnresolvedType)
		return ok && a.Name == bb.Name
	}
	return false
}

func sameTypes(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !SameType(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SubstType replaces type parameters according to m.
func SubstType(t Type, m map[*TypeParameter]Type) Type {
	if len(m) == 0 {
		return t
	}
	switch tt := t.(type) {
	case *TypeParamType:
		if r, ok := m[tt.Param]; ok {
			return r
		}
		return t
	case *ClassType:
		return &ClassType{Class: tt.Class, TypeArgs: substTypes(tt.TypeArgs, m)}
	case *DatatypeType:
		return &DatatypeType{Datatype: tt.Datatype, TypeArgs: substTypes(tt.TypeArgs, m)}
	case *SetType:
		return &SetType{Elem: SubstType(tt.Elem, m)}
	case *SeqType:
		return &SeqType{Elem: SubstType(tt.Elem, m)}
	case *MapType:
		return &MapType{Key: SubstType(tt.Key, m), Value: SubstType(tt.Value, m)}
	}
	return t
}

func substTypes(ts []Type, m map[*TypeParameter]Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = SubstType(t, m)
	}
	return out
}

// TypeArgMap pairs type parameters with the arguments of an instantiation.
func TypeArgMap(params []*TypeParameter, args []Type) map[*TypeParameter]Type {
	if len(params) == 0 || len(params) != len(args) {
		return nil
	}
	m := make(map[*TypeParameter]Type, len(params))
	for i, p := range params {
		m[p] = args[i]
	}
	return m
}

// IsClosed reports whether t mentions no type parameters.
func IsClosed(t Type) bool {
	switch tt := t.(type) {
	case *TypeParamType:
		return false
	case *ClassType:
		return allClosed(tt.TypeArgs)
	case *DatatypeType:
		return allClosed(tt.TypeArgs)
	case *SetType:
		return IsClosed(tt.Elem)
	case *SeqType:
		return IsClosed(tt.Elem)
	case *MapType:
		return IsClosed(tt.Key) && IsClosed(tt.Value)
	}
	return true
}

func allClosed(ts []Type) bool {
	for _, t := range ts {
		if !IsClosed(t) {
			return false
		}
	}
	return true
}
