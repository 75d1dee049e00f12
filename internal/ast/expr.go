package ast

import (
	"github.com/emberlang/emberc/internal/source"
	"github.com/emberlang/emberc/internal/types"
)

// Expr is the tagged variant every expression kind implements. Every Expr
// carries its own resolved Type, filled in by FunctionAnalyser's
// expression walk; a nil Type (or types.IsInvalid) means either not yet
// checked or already diagnosed.
type Expr interface {
	Node
	exprNode()
	ResolvedType() *types.QualifiedType
	SetResolvedType(*types.QualifiedType)
}

type exprBase struct {
	Span source.Span
	typ  *types.QualifiedType
}

func (e exprBase) Pos() source.Position { return e.Span.Start }
func (e exprBase) End() source.Position { return e.Span.End }
func (exprBase) exprNode()              {}

func (e *exprBase) ResolvedType() *types.QualifiedType        { return e.typ }
func (e *exprBase) SetResolvedType(qt *types.QualifiedType)    { e.typ = qt }

// IdentExpr is a bare name reference. Resolved is filled in by Scope
// lookup: the Decl this name refers to, or nil if lookup failed (in which
// case an ErrUnknownIdentifier has already been reported).
type IdentExpr struct {
	exprBase
	Name     string
	Resolved *Decl
}

// QualifiedIdentExpr is `alias::Name`, a package-qualified identifier.
// Scope.LookupQualified resolves it against that package's exported set
// only — it never falls back to the innermost-frame/file-local/own-package
// chain an unqualified IdentExpr uses.
type QualifiedIdentExpr struct {
	exprBase
	Package  string
	Name     string
	Resolved *Decl
}

// LiteralKind distinguishes the literal forms the lexer can produce.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitChar
	LitString
	LitBool
)

// LiteralExpr is a constant written directly in source.
type LiteralExpr struct {
	exprBase
	Kind   LiteralKind
	Int    int64
	Float  float64
	String string
	Bool   bool
}

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryBitNot
	UnaryAddr
	UnaryDeref
	UnaryPreInc
	UnaryPreDec
	UnaryPostInc
	UnaryPostDec
)

// UnaryExpr is a prefix or postfix unary operation.
type UnaryExpr struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

// BinaryOp enumerates the binary operators, arithmetic, relational,
// logical, and bitwise alike — ExprTypeAnalyser dispatches on it to decide
// which conversion rule applies.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinShl
	BinShr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinLogAnd
	BinLogOr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

// BinaryExpr is `Left Op Right`.
type BinaryExpr struct {
	exprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// AssignOp enumerates plain and compound assignment.
type AssignOp int

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
	AssignShl
	AssignShr
	AssignBitAnd
	AssignBitOr
	AssignBitXor
)

// AssignExpr is `Target Op= Value`. Target must be an lvalue; the analyser
// diagnoses ErrNotAnLvalue and ErrWriteToConst here.
type AssignExpr struct {
	exprBase
	Op     AssignOp
	Target Expr
	Value  Expr
}

// CallExpr is `Callee(Args...)`.
type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

// MemberExpr is `Base.Name` (or `Base->Name`, the grammar disambiguates by
// whether Base's type is a pointer; the analyser accepts either and checks
// against the resolved type rather than the written form).
type MemberExpr struct {
	exprBase
	Base   Expr
	Name   string
	Arrow  bool
}

// SubscriptExpr is `Base[Index]`.
type SubscriptExpr struct {
	exprBase
	Base  Expr
	Index Expr
}

// GroupingExpr is a parenthesised expression kept as its own node so source
// spans round-trip; it resolves to Inner's type.
type GroupingExpr struct {
	exprBase
	Inner Expr
}

// ArrayInitExpr is a brace-initialiser `{ e1, e2, ... }`.
type ArrayInitExpr struct {
	exprBase
	Elems []Expr
}

// StructInitExpr is a brace-initialiser for a named struct type, either
// positional or with field designators (Names[i] non-empty when a
// designator was written for element i).
type StructInitExpr struct {
	exprBase
	TypeExpr Expr
	Names    []string
	Elems    []Expr
}

// SizeofExpr is `sizeof(TypeExpr)`.
type SizeofExpr struct {
	exprBase
	TypeExpr Expr
}

// ElemsofExpr is `elemsof(ArrayExpr)`, the array-length builtin.
type ElemsofExpr struct {
	exprBase
	ArrayExpr Expr
}

// EnumMinMaxExpr is `enummin(T)` / `enummax(T)`.
type EnumMinMaxExpr struct {
	exprBase
	TypeExpr Expr
	Max      bool
}

// BitOffsetExpr is `bitoffsetof(T, member)`.
type BitOffsetExpr struct {
	exprBase
	TypeExpr Expr
	Member   string
}

// TypeNameExpr wraps a type written where the grammar expects an
// expression (the argument to sizeof, elemsof's operand type, a cast
// target). It resolves to itself once TypeResolver checks it, so members
// like SizeofExpr.TypeExpr can stay Expr-typed throughout the tree instead
// of forking into a separate type-expression hierarchy.
type TypeNameExpr struct {
	exprBase
	Package  string // package alias for `alias::Name`; empty for an unqualified type
	Name     string // builtin or named type spelling
	Handle   types.Handle
	Pointer  int      // levels of indirection
	ArrayLen Expr     // non-nil for an array type name; nil otherwise
	Quals    types.Qualifiers
}

// CastExpr is an explicit `(TypeExpr)Operand` conversion.
type CastExpr struct {
	exprBase
	TypeExpr Expr
	Operand  Expr
}
