package loader

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// The document mirrors a resolved program. Declarations, type parameters
// and variables carry ids; everything that refers to them does so by id.

type document struct {
	Program string       `yaml:"program" json:"program"`
	Modules []*moduleDoc `yaml:"modules" json:"modules"`
}

type moduleDoc struct {
	Name      string         `yaml:"name" json:"name"`
	Height    int            `yaml:"height" json:"height"`
	Classes   []*classDoc    `yaml:"classes" json:"classes"`
	Datatypes []*datatypeDoc `yaml:"datatypes" json:"datatypes"`
}

type typeParamDoc struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type classDoc struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	Default    bool            `yaml:"default" json:"default"`
	TypeParams []*typeParamDoc `yaml:"type_params" json:"type_params"`
	Fields     []*fieldDoc     `yaml:"fields" json:"fields"`
	Functions  []*functionDoc  `yaml:"functions" json:"functions"`
	Methods    []*methodDoc    `yaml:"methods" json:"methods"`
	Line       int             `yaml:"line" json:"line"`
}

type datatypeDoc struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	TypeParams []*typeParamDoc `yaml:"type_params" json:"type_params"`
	Ctors      []*ctorDoc      `yaml:"ctors" json:"ctors"`
	Line       int             `yaml:"line" json:"line"`
}

type ctorDoc struct {
	ID      string       `yaml:"id" json:"id"`
	Name    string       `yaml:"name" json:"name"`
	Formals []*formalDoc `yaml:"formals" json:"formals"`
}

type fieldDoc struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Type    *typeDoc `yaml:"type" json:"type"`
	Mutable bool     `yaml:"mutable" json:"mutable"`
	Line    int      `yaml:"line" json:"line"`
}

// formalDoc declares a parameter, a local or a bound variable.
type formalDoc struct {
	ID   string   `yaml:"id" json:"id"`
	Name string   `yaml:"name" json:"name"`
	Type *typeDoc `yaml:"type" json:"type"`
}

type attrDoc struct {
	Name string     `yaml:"name" json:"name"`
	Args []*exprDoc `yaml:"args" json:"args"`
}

type frameDoc struct {
	Expr  *exprDoc `yaml:"expr" json:"expr"`
	Field string   `yaml:"field" json:"field"`
}

type specDoc struct {
	Expr *exprDoc `yaml:"expr" json:"expr"`
	Free bool     `yaml:"free" json:"free"`
}

type functionDoc struct {
	ID         string       `yaml:"id" json:"id"`
	Name       string       `yaml:"name" json:"name"`
	Static     *bool        `yaml:"static" json:"static"`
	Formals    []*formalDoc `yaml:"formals" json:"formals"`
	Result     *typeDoc     `yaml:"result" json:"result"`
	Requires   []*exprDoc   `yaml:"requires" json:"requires"`
	Reads      []*frameDoc  `yaml:"reads" json:"reads"`
	Ensures    []*exprDoc   `yaml:"ensures" json:"ensures"`
	Decreases  []*exprDoc   `yaml:"decreases" json:"decreases"`
	Body       *exprDoc     `yaml:"body" json:"body"`
	Attributes []*attrDoc   `yaml:"attributes" json:"attributes"`
	Line       int          `yaml:"line" json:"line"`
}

// methodDoc leaves Body nil for a body-less method; `body: []` is an empty
// body.
type methodDoc struct {
	ID            string       `yaml:"id" json:"id"`
	Name          string       `yaml:"name" json:"name"`
	Static        *bool        `yaml:"static" json:"static"`
	Ins           []*formalDoc `yaml:"ins" json:"ins"`
	Outs          []*formalDoc `yaml:"outs" json:"outs"`
	Requires      []*specDoc   `yaml:"requires" json:"requires"`
	Modifies      []*frameDoc  `yaml:"modifies" json:"modifies"`
	Ensures       []*specDoc   `yaml:"ensures" json:"ensures"`
	Decreases     []*exprDoc   `yaml:"decreases" json:"decreases"`
	DecreasesStar bool         `yaml:"decreases_star" json:"decreases_star"`
	Body          []*stmtDoc   `yaml:"body" json:"body"`
	Attributes    []*attrDoc   `yaml:"attributes" json:"attributes"`
	Line          int          `yaml:"line" json:"line"`
}

// typeDoc is a type. A bare string stands for a type without arguments:
// "bool", "int" or "object".
type typeDoc struct {
	Kind string     `yaml:"kind" json:"kind"`
	Ref  string     `yaml:"ref" json:"ref"`
	Args []*typeDoc `yaml:"args" json:"args"`
	Dims int        `yaml:"dims" json:"dims"`
}

func (t *typeDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		t.Kind = n.Value
		return nil
	}
	type plain typeDoc
	return n.Decode((*plain)(t))
}

func (t *typeDoc) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Kind = s
		return nil
	}
	type plain typeDoc
	return json.Unmarshal(data, (*plain)(t))
}

// exprDoc is an expression. Scalars are shorthands: integers and booleans
// are literals, strings refer to a variable by id.
//
// Operands go in Args in source order; slice bounds may be null.
type exprDoc struct {
	Kind       string       `yaml:"kind" json:"kind"`
	Op         string       `yaml:"op" json:"op"`
	Int        int64        `yaml:"int" json:"int"`
	Bool       bool         `yaml:"bool" json:"bool"`
	Ref        string       `yaml:"ref" json:"ref"`
	Type       *typeDoc     `yaml:"type" json:"type"`
	Value      *typeDoc     `yaml:"value" json:"value"`
	TypeArgs   []*typeDoc   `yaml:"type_args" json:"type_args"`
	Recv       *exprDoc     `yaml:"recv" json:"recv"`
	Args       []*exprDoc   `yaml:"args" json:"args"`
	Vars       []*formalDoc `yaml:"vars" json:"vars"`
	Range      *exprDoc     `yaml:"range" json:"range"`
	Body       *exprDoc     `yaml:"body" json:"body"`
	Cases      []*caseDoc   `yaml:"cases" json:"cases"`
	Attributes []*attrDoc   `yaml:"attributes" json:"attributes"`
}

func (e *exprDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		switch n.ShortTag() {
		case "!!int":
			e.Kind = "int"
			return n.Decode(&e.Int)
		case "!!bool":
			e.Kind = "bool"
			return n.Decode(&e.Bool)
		}
		e.Kind, e.Ref = "var", n.Value
		return nil
	}
	type plain exprDoc
	return n.Decode((*plain)(e))
}

func (e *exprDoc) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case float64:
		e.Kind = "int"
		return json.Unmarshal(data, &e.Int)
	case bool:
		e.Kind, e.Bool = "bool", v
		return nil
	case string:
		e.Kind, e.Ref = "var", v
		return nil
	}
	type plain exprDoc
	return json.Unmarshal(data, (*plain)(e))
}

// caseDoc is a match case; Body is used by match expressions and Stmts by
// match statements.
type caseDoc struct {
	Ctor  string       `yaml:"ctor" json:"ctor"`
	Vars  []*formalDoc `yaml:"vars" json:"vars"`
	Body  *exprDoc     `yaml:"body" json:"body"`
	Stmts []*stmtDoc   `yaml:"stmts" json:"stmts"`
}

// rhsDoc is one of an expression, `*` (havoc) or an allocation.
type rhsDoc struct {
	Expr  *exprDoc   `yaml:"expr" json:"expr"`
	Havoc bool       `yaml:"havoc" json:"havoc"`
	New   *typeDoc   `yaml:"new" json:"new"`
	Dims  []*exprDoc `yaml:"dims" json:"dims"`
}

type stmtDoc struct {
	Kind string `yaml:"kind" json:"kind"`
	// Expr is the asserted or assumed expression, the guard of if and
	// while (absent means `*`), the match source or the foreach
	// collection.
	Expr          *exprDoc     `yaml:"expr" json:"expr"`
	Args          []*exprDoc   `yaml:"args" json:"args"`
	Vars          []*formalDoc `yaml:"vars" json:"vars"`
	Rhs           []*rhsDoc    `yaml:"rhs" json:"rhs"`
	Lhs           *exprDoc     `yaml:"lhs" json:"lhs"`
	Outs          []string     `yaml:"outs" json:"outs"`
	Recv          *exprDoc     `yaml:"recv" json:"recv"`
	Ref           string       `yaml:"ref" json:"ref"`
	Then          []*stmtDoc   `yaml:"then" json:"then"`
	Else          []*stmtDoc   `yaml:"else" json:"else"`
	ElseIf        *stmtDoc     `yaml:"else_if" json:"else_if"`
	Body          []*stmtDoc   `yaml:"body" json:"body"`
	Invariants    []*specDoc   `yaml:"invariants" json:"invariants"`
	Decreases     []*exprDoc   `yaml:"decreases" json:"decreases"`
	DecreasesStar bool         `yaml:"decreases_star" json:"decreases_star"`
	Label         string       `yaml:"label" json:"label"`
	Range         *exprDoc     `yaml:"range" json:"range"`
	Value         *exprDoc     `yaml:"value" json:"value"`
	Cases         []*caseDoc   `yaml:"cases" json:"cases"`
	Attributes    []*attrDoc   `yaml:"attributes" json:"attributes"`
	Line          int          `yaml:"line" json:"line"`
}
