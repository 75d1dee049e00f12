package ast

import (
	"github.com/emberlang/emberc/internal/source"
	"github.com/emberlang/emberc/internal/types"
)

// DeclKind distinguishes the variants of Decl. There is one struct for all
// of them (mirroring how the teacher's symbol table keeps a single Symbol
// struct with a Kind field rather than one type per kind) because the
// phases that consume declarations mostly want uniform fields — Name,
// Public, Type — and only branch on the kind-specific ones.
type DeclKind int

const (
	DeclInvalid DeclKind = iota
	DeclAliasType
	DeclStructType
	DeclEnumType
	DeclFunctionType
	DeclFunction
	DeclVar
	DeclEnumConst
	DeclArrayValue
	DeclPackageUse
)

func (k DeclKind) String() string {
	switch k {
	case DeclAliasType:
		return "alias-type"
	case DeclStructType:
		return "struct-type"
	case DeclEnumType:
		return "enum-type"
	case DeclFunctionType:
		return "function-type"
	case DeclFunction:
		return "function"
	case DeclVar:
		return "var"
	case DeclEnumConst:
		return "enum-const"
	case DeclArrayValue:
		return "array-value"
	case DeclPackageUse:
		return "package-use"
	default:
		return "invalid"
	}
}

// Member is one field of a struct declaration.
type Member struct {
	Name     string
	TypeExpr Expr // the unchecked type expression as written
	Type     *types.QualifiedType
	Public   bool
	Span     source.Span

	// Used is set once body analysis observes a `.Name` access through
	// some struct value, for the unused-struct-member sweep.
	Used bool
}

// Param is one parameter of a function or function-type declaration.
type Param struct {
	Name     string
	TypeExpr Expr
	Type     *types.QualifiedType
	Span     source.Span
}

// Decl is a single top-level (or package-scoped) declaration. Which fields
// are meaningful depends on Kind; phases that only need Name/Public/Type
// can ignore the rest.
type Decl struct {
	Kind   DeclKind
	Name   string
	Public bool
	Span   source.Span

	// Handle is assigned by NewFile and is what types.Named.Handle
	// points back at.
	Handle types.Handle

	// DeclAliasType: the aliased type expression and its resolved type.
	AliasTarget Expr
	Type        *types.QualifiedType

	// DeclStructType: fields, in declaration order.
	Members []*Member

	// DeclEnumType: named constants, in declaration order. Underlying is
	// the enum's storage type (defaults to i32 if not written).
	EnumConsts  []*Decl // each a DeclEnumConst
	Underlying  Expr

	// DeclEnumConst: the enclosing enum's Handle, and this constant's
	// value once resolveTypeCanonicals (phase 3) has assigned it, from
	// the folded initialiser or the next sequential value.
	EnumOwner types.Handle
	Value     Expr
	IntValue  int64

	// DeclFunctionType / DeclFunction: signature.
	Params   []*Param
	Variadic bool
	Return   Expr // return type expression; nil means void

	// DeclFunction: body, filled in after checkFunctionProtos; nil for a
	// forward declaration/prototype-only function.
	Body *CompoundStmt

	// DeclFunction: non-empty when the function was declared attached to a
	// struct type (`func RetType StructName.funcName(...)`), naming the
	// struct it is attached to — C2's struct-function form, callable either
	// through an instance (`p.funcName(...)`) or statically through the
	// type itself (`StructName.funcName(...)`). Empty for an ordinary,
	// unattached function.
	StructOwner string

	// DeclVar: declared type expression and, for globals with an
	// initialiser, the initialiser expression. IsConst mirrors a `const`
	// qualifier on Type once resolved, cached here so phase 5 doesn't need
	// to re-walk Type.Quals for the uninitialised-const check.
	VarType Expr
	Init    Expr
	IsConst bool

	// DeclArrayValue: an out-of-line array initialiser (`array_value name
	// = {...}` at file scope). Name is the target array variable's name,
	// resolved through ordinary file scope exactly like any other global
	// reference — an ArrayValue carries no type expression of its own; its
	// element type comes from whatever VarDecl Name resolves to.
	ArrayInit Expr

	// DeclPackageUse: the package path as written and the local alias (if
	// any); Resolved is filled in once Scope looks the package up.
	ImportPath string
	Alias      string
	Resolved   interface{} // a pkgsym.Table; interface{} to avoid an import cycle

	// Used is set once the analyser observes a reference to this
	// declaration. checkDeclsForUsed reads it after body analysis to emit
	// the Warn* diagnostics.
	Used bool
}

func (d *Decl) Pos() source.Position { return d.Span.Start }
func (d *Decl) End() source.Position { return d.Span.End }
