package ast

import (
	"fmt"
	"strings"
)

// =============================================================================
// Program structure
// =============================================================================

// Program is the root of a resolved program.
type Program struct {
	Name    string
	Modules []*Module
	Arena   *Arena

	arrays     map[int]*ClassDecl
	nextUnique int
}

// Module groups top-level declarations. Height is the module's position
// in the import order computed by the resolver: imported modules are lower.
type Module struct {
	base
	Name   string
	Height int
	Decls  []TopLevelDecl
}

func (m *Module) String() string { return "module " + m.Name }

// TopLevelDecl is a class or a datatype.
type TopLevelDecl interface {
	Node
	DeclName() string
	EnclosingModule() *Module
	topLevelNode()
}

// ArrayClasses returns the built-in array classes created so far, by
// increasing dimension.
func (p *Program) ArrayClasses() []*ClassDecl {
	out := make([]*ClassDecl, 0, len(p.arrays))
	for dims := 1; len(out) < len(p.arrays); dims++ {
		if c, ok := p.arrays[dims]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Classes returns every user class in module order.
func (p *Program) Classes() []*ClassDecl {
	var out []*ClassDecl
	for _, m := range p.Modules {
		for _, d := range m.Decls {
			if c, ok := d.(*ClassDecl); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// Datatypes returns every datatype in module order.
func (p *Program) Datatypes() []*DatatypeDecl {
	var out []*DatatypeDecl
	for _, m := range p.Modules {
		for _, d := range m.Decls {
			if dt, ok := d.(*DatatypeDecl); ok {
				out = append(out, dt)
			}
		}
	}
	return out
}

// Functions returns every function in module order.
func (p *Program) Functions() []*Function {
	var out []*Function
	for _, c := range p.Classes() {
		for _, m := range c.Members {
			if f, ok := m.(*Function); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

// Methods returns every method in module order.
func (p *Program) Methods() []*Method {
	var out []*Method
	for _, c := range p.Classes() {
		for _, m := range c.Members {
			if mm, ok := m.(*Method); ok {
				out = append(out, mm)
			}
		}
	}
	return out
}

// =============================================================================
// Types and classes
// =============================================================================

// TypeParameter is a declared type parameter of a class or datatype.
type TypeParameter struct {
	base
	Name string
}

func (tp *TypeParameter) String() string { return tp.Name }

// ClassDecl is a class. Array classes have ArrayDims > 0 and exactly one
// type parameter, the element type.
type ClassDecl struct {
	base
	Name       string
	TypeParams []*TypeParameter
	Members    []MemberDecl
	Module     *Module
	ArrayDims  int
	IsDefault  bool
}

func (c *ClassDecl) DeclName() string          { return c.Name }
func (c *ClassDecl) EnclosingModule() *Module { return c.Module }
func (c *ClassDecl) topLevelNode()            {}
func (c *ClassDecl) String() string           { return "class " + c.Name }

// IsArray reports whether c is a built-in array class.
func (c *ClassDecl) IsArray() bool { return c.ArrayDims > 0 }

// LengthField returns the immutable length field of dimension dim.
func (c *ClassDecl) LengthField(dim int) *Field {
	want := "Length"
	if c.ArrayDims > 1 {
		want = fmt.Sprintf("Length%d", dim)
	}
	for _, m := range c.Members {
		if f, ok := m.(*Field); ok && f.Name == want {
			return f
		}
	}
	return nil
}

// DatatypeDecl is an inductive datatype.
type DatatypeDecl struct {
	base
	Name       string
	TypeParams []*TypeParameter
	Ctors      []*DatatypeCtor
	Module     *Module
}

func (d *DatatypeDecl) DeclName() string          { return d.Name }
func (d *DatatypeDecl) EnclosingModule() *Module { return d.Module }
func (d *DatatypeDecl) topLevelNode()            {}
func (d *DatatypeDecl) String() string           { return "datatype " + d.Name }

// DatatypeCtor is one constructor of a datatype.
type DatatypeCtor struct {
	base
	Name     string
	Formals  []*Formal
	Datatype *DatatypeDecl
}

func (c *DatatypeCtor) String() string { return c.Datatype.Name + "." + c.Name }

// =============================================================================
// Members
// =============================================================================

// MemberDecl is a field, function or method of a class.
type MemberDecl interface {
	Node
	MemberName() string
	EnclosingClass() *ClassDecl
	memberNode()
}

// Field is a class field. Immutable fields are pure functions of the
// receiver.
type Field struct {
	base
	Name    string
	Type    Type
	Mutable bool
	Class   *ClassDecl
}

func (f *Field) MemberName() string          { return f.Name }
func (f *Field) EnclosingClass() *ClassDecl { return f.Class }
func (f *Field) memberNode()                {}
func (f *Field) String() string             { return f.Class.Name + "." + f.Name }

// FrameExpr is one entry of a reads or modifies clause: an object, a set
// of objects or a sequence of objects, optionally narrowed to one field.
type FrameExpr struct {
	E     Expr
	Field *Field
}

func (fe *FrameExpr) String() string {
	if fe.Field != nil {
		return fe.E.String() + "`" + fe.Field.Name
	}
	return fe.E.String()
}

// MaybeFree is a specification clause that may be marked free.
type MaybeFree struct {
	E      Expr
	IsFree bool
}

// Attribute is a `{:name args}` annotation.
type Attribute struct {
	Name string
	Args []Expr
}

// Attributes is an ordered attribute list.
type Attributes []*Attribute

// Has reports whether an attribute with name is present.
func (as Attributes) Has(name string) bool {
	return as.Find(name) != nil
}

// Find returns the first attribute with name.
func (as Attributes) Find(name string) *Attribute {
	for _, a := range as {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// FindAll returns every attribute with name.
func (as Attributes) FindAll(name string) []*Attribute {
	var out []*Attribute
	for _, a := range as {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

// IsFalse reports whether {:name false} is present.
func (as Attributes) IsFalse(name string) bool {
	a := as.Find(name)
	if a == nil || len(a.Args) != 1 {
		return false
	}
	lit, ok := a.Args[0].(*LiteralExpr)
	return ok && lit.Kind == LitBool && !lit.Bool
}

func (as Attributes) String() string {
	var b strings.Builder
	for i, a := range as {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("{:")
		b.WriteString(a.Name)
		for j, arg := range a.Args {
			if j == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteString(", ")
			}
			b.WriteString(arg.String())
		}
		b.WriteByte('}')
	}
	return b.String()
}

// Function is a pure, heap-reading function.
type Function struct {
	base
	Name       string
	Class      *ClassDecl
	IsStatic   bool
	Formals    []*Formal
	ResultType Type
	Requires   []Expr
	Reads      []*FrameExpr
	Ensures    []Expr
	Decreases  []Expr
	Body       Expr
	Attributes Attributes
}

func (f *Function) MemberName() string          { return f.Name }
func (f *Function) EnclosingClass() *ClassDecl { return f.Class }
func (f *Function) memberNode()                {}
func (f *Function) String() string             { return "function " + f.FullName() }

// FullName returns Class.Name.
func (f *Function) FullName() string { return f.Class.Name + "." + f.Name }

// IsUnlimited reports whether the function opts out of #limited views.
func (f *Function) IsUnlimited() bool { return f.Attributes.Has("unlimited") }

// Method is an imperative procedure.
type Method struct {
	base
	Name              string
	Class             *ClassDecl
	IsStatic          bool
	Ins               []*Formal
	Outs              []*Formal
	Requires          []*MaybeFree
	Modifies          []*FrameExpr
	Ensures           []*MaybeFree
	Decreases         []Expr
	DecreasesWildcard bool
	Body              *BlockStmt
	Attributes        Attributes
}

func (m *Method) MemberName() string          { return m.Name }
func (m *Method) EnclosingClass() *ClassDecl { return m.Class }
func (m *Method) memberNode()                {}
func (m *Method) String() string             { return "method " + m.FullName() }

// FullName returns Class.Name.
func (m *Method) FullName() string { return m.Class.Name + "." + m.Name }

// =============================================================================
// Variables
// =============================================================================

// Variable is anything an IdentifierExpr may refer to.
type Variable interface {
	Node
	VarName() string
	UniqueName() string
	VarType() Type
	variableNode()
}

// Formal is a parameter of a function, method or datatype constructor.
type Formal struct {
	base
	Name  string
	Type  Type
	InOut FormalKind
}

// FormalKind distinguishes in- and out-parameters.
type FormalKind int

const (
	FormalIn FormalKind = iota
	FormalOut
)

func (f *Formal) VarName() string    { return f.Name }
func (f *Formal) UniqueName() string { return f.Name }
func (f *Formal) VarType() Type      { return f.Type }
func (f *Formal) variableNode()      {}
func (f *Formal) String() string     { return f.Name + ": " + f.Type.String() }

// LocalVariable is a method-local variable.
type LocalVariable struct {
	base
	Name   string
	Type   Type
	unique string
}

func (l *LocalVariable) VarName() string    { return l.Name }
func (l *LocalVariable) UniqueName() string { return l.unique }
func (l *LocalVariable) VarType() Type      { return l.Type }
func (l *LocalVariable) variableNode()      {}
func (l *LocalVariable) String() string     { return "var " + l.Name + ": " + l.Type.String() }

// BoundVar is bound by a quantifier, let, match case or foreach.
type BoundVar struct {
	base
	Name   string
	Type   Type
	unique string
}

func (v *BoundVar) VarName() string    { return v.Name }
func (v *BoundVar) UniqueName() string { return v.unique }
func (v *BoundVar) VarType() Type      { return v.Type }
func (v *BoundVar) variableNode()      {}
func (v *BoundVar) String() string     { return v.Name + ": " + v.Type.String() }
