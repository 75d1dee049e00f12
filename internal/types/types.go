// Package types implements the canonical type system shared by every phase
// of the analyser.
//
// A Type is a tagged variant — builtin, pointer, array, function, or a
// named reference to an alias/struct/enum declaration — and every variant
// carries a canonical-form cache that TypeResolver fills in and memoises.
// Two QualifiedTypes denote the same type iff their canonical forms are
// identical; this package only stores that cache, it does not compute it
// (see internal/typeresolver).
//
// Named references hold a Handle rather than a pointer to the declaration
// they name. That keeps this package free of a dependency on the ast
// package that owns declarations, and matches how the analyser treats
// cyclic/forward type graphs elsewhere: indices into a table, not owning
// pointers (see DESIGN.md).
package types

import (
	"fmt"
	"strings"
)

// Kind distinguishes the tagged variants of Type.
type Kind int

const (
	KindInvalid Kind = iota
	KindBuiltin
	KindPointer
	KindArray
	KindFunction
	KindNamed // alias, struct, or enum reference — see RefKind
)

// RefKind distinguishes what a Named type points at.
type RefKind int

const (
	RefAlias RefKind = iota
	RefStruct
	RefEnum
)

func (k RefKind) String() string {
	switch k {
	case RefAlias:
		return "alias"
	case RefStruct:
		return "struct"
	case RefEnum:
		return "enum"
	default:
		return "ref"
	}
}

// Handle is a stable index into a file's declaration table. Named types
// reference declarations by Handle so that alias cycles and forward
// references can be represented without owning pointers.
type Handle int

// InvalidHandle marks a Named type whose declaration could not be found;
// checks that depend on it are skipped rather than attempted, per the
// analyser's "missing canonical means already diagnosed" rule.
const InvalidHandle Handle = -1

// Qualifiers is a bitset of the qualifiers a QualifiedType may carry.
type Qualifiers uint8

const (
	QualConst Qualifiers = 1 << iota
	QualVolatile
	QualLocal
)

func (q Qualifiers) Has(bit Qualifiers) bool { return q&bit != 0 }

func (q Qualifiers) String() string {
	var parts []string
	if q.Has(QualConst) {
		parts = append(parts, "const")
	}
	if q.Has(QualVolatile) {
		parts = append(parts, "volatile")
	}
	if q.Has(QualLocal) {
		parts = append(parts, "local")
	}
	return strings.Join(parts, " ")
}

// BuiltinKind enumerates the primitive types. Values are ordered so that
// Rank can express the arithmetic-conversion ranking directly as integer
// comparison for the signed/unsigned pairs of equal width.
type BuiltinKind int

const (
	Void BuiltinKind = iota
	Bool
	Char
	I8
	U8
	I16
	U16
	I32
	U32
	I64
	U64
	F32
	F64
	StringLit // the type of string literals; not itself arithmetic
)

func (k BuiltinKind) String() string {
	return builtinNames[k]
}

var builtinNames = map[BuiltinKind]string{
	Void: "void", Bool: "bool", Char: "char",
	I8: "i8", U8: "u8", I16: "i16", U16: "u16",
	I32: "i32", U32: "u32", I64: "i64", U64: "u64",
	F32: "f32", F64: "f64", StringLit: "string",
}

// IsInteger reports whether k is one of the fixed-width integer kinds.
func (k BuiltinKind) IsInteger() bool {
	switch k {
	case I8, U8, I16, U16, I32, U32, I64, U64:
		return true
	default:
		return false
	}
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k BuiltinKind) IsUnsigned() bool {
	switch k {
	case U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether k is a floating-point kind.
func (k BuiltinKind) IsFloat() bool {
	return k == F32 || k == F64
}

// IsNumeric reports whether k participates in arithmetic conversions.
func (k BuiltinKind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat()
}

// rank gives the conversion rank within same-signedness integers:
// char < short < int < long < longlong. Unsigned types rank one above
// their same-width signed counterpart, so the usual arithmetic
// conversions (see internal/exprtype) reduce to a rank comparison.
var rank = map[BuiltinKind]int{
	Char: 0,
	I8: 1, U8: 2,
	I16: 3, U16: 4,
	I32: 5, U32: 6,
	I64: 7, U64: 8,
	F32: 9, F64: 10,
}

// Rank returns k's position in the arithmetic-conversion order. Higher
// ranks win when unifying two operands' types.
func Rank(k BuiltinKind) int { return rank[k] }

// Type is the tagged variant every concrete type implements.
type Type interface {
	Kind() Kind
	String() string

	// Canonical returns the memoised canonical form, or (nil, false) if
	// TypeResolver has not computed it yet.
	Canonical() (*QualifiedType, bool)
	setCanonical(*QualifiedType)

	// resolving is a per-type mid-resolution mark. TypeResolver does not
	// consult it: its cycle detection keeps a separate visiting set keyed
	// by declaration Handle.
	resolving() bool
	setResolving(bool)
}

// base is embedded by every concrete Type to provide the canonical-form
// cache and the resolving mark.
type base struct {
	canonical    *QualifiedType
	isResolving  bool
}

func (b *base) Canonical() (*QualifiedType, bool) {
	if b.canonical == nil {
		return nil, false
	}
	return b.canonical, true
}
func (b *base) setCanonical(qt *QualifiedType) { b.canonical = qt }
func (b *base) resolving() bool                { return b.isResolving }
func (b *base) setResolving(v bool)            { b.isResolving = v }

// Memoize stores qt as t's canonical form. It is the sanctioned way for a
// caller outside this package (TypeResolver) to populate the canonical
// cache without reaching through the unexported setCanonical method.
func Memoize(t Type, qt *QualifiedType) { t.setCanonical(qt) }

// QualifiedType pairs a Type with the qualifiers that apply to this
// particular occurrence of it (a variable's declared type, a parameter,
// a struct member, ...).
type QualifiedType struct {
	Type  Type
	Quals Qualifiers
}

func (qt *QualifiedType) String() string {
	if qt == nil || qt.Type == nil {
		return "<invalid>"
	}
	q := qt.Quals.String()
	if q == "" {
		return qt.Type.String()
	}
	return q + " " + qt.Type.String()
}

// IsConst reports whether qt (or its canonical form, if resolved) carries
// the const qualifier.
func (qt *QualifiedType) IsConst() bool {
	if qt == nil {
		return false
	}
	if qt.Quals.Has(QualConst) {
		return true
	}
	if qt.Type == nil {
		return false
	}
	c, ok := qt.Type.Canonical()
	return ok && c.Quals.Has(QualConst)
}

// Builtin is a primitive type.
type Builtin struct {
	base
	BuiltinKind BuiltinKind
}

func NewBuiltin(k BuiltinKind) *Builtin { return &Builtin{BuiltinKind: k} }

func (b *Builtin) Kind() Kind      { return KindBuiltin }
func (b *Builtin) String() string { return b.BuiltinKind.String() }

// Pointer is a pointer-to-T type.
type Pointer struct {
	base
	Elem *QualifiedType
}

func (p *Pointer) Kind() Kind      { return KindPointer }
func (p *Pointer) String() string { return "*" + p.Elem.String() }

// Array is an array-of-T type. Size is the unresolved size expression (an
// ast.Expr, kept as interface{} to avoid importing the ast package here);
// it is nil for an unsized/incomplete array. The analyser does not
// evaluate Size; Length and LengthKnown are set only from an initialiser's
// element count (a brace initialiser expression, or a standalone array
// value filling in an incomplete array).
type Array struct {
	base
	Elem        *QualifiedType
	Size        interface{}
	Length      int
	LengthKnown bool
}

func (a *Array) Kind() Kind { return KindArray }
func (a *Array) String() string {
	if a.LengthKnown {
		return fmt.Sprintf("[%d]%s", a.Length, a.Elem.String())
	}
	return "[]" + a.Elem.String()
}

// Function is a function type: parameter types plus a return type.
type Function struct {
	base
	Params   []*QualifiedType
	Variadic bool
	Return   *QualifiedType
}

func (f *Function) Kind() Kind { return KindFunction }
func (f *Function) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	variadic := ""
	if f.Variadic {
		variadic = ", ..."
	}
	return fmt.Sprintf("func(%s%s) %s", strings.Join(parts, ", "), variadic, f.Return.String())
}

// Named is a reference to an alias, struct, or enum declaration. Ref
// distinguishes which; Handle and Name identify the declaration — Handle
// for table lookups, Name only for messages.
type Named struct {
	base
	Ref    RefKind
	Handle Handle
	Name   string
}

func (n *Named) Kind() Kind      { return KindNamed }
func (n *Named) String() string { return n.Name }

// Invalid is the sentinel returned when a type expression fails to
// resolve; it lets checking continue with a type that is never assignable
// to or from anything, instead of propagating a nil.
var Invalid Type = &invalidType{}

type invalidType struct{ base }

func (*invalidType) Kind() Kind      { return KindInvalid }
func (*invalidType) String() string { return "<invalid>" }

// IsInvalid reports whether t is the Invalid sentinel — the signal to
// every later check that this subexpression was already diagnosed and
// secondary checks on it should be skipped.
func IsInvalid(t Type) bool {
	_, ok := t.(*invalidType)
	return t == nil || ok
}

// SameCanonical reports whether a and b have identical canonical forms.
// Both must already be resolved; an unresolved operand is never equal to
// anything, matching "missing canonical, skip the check".
func SameCanonical(a, b *QualifiedType) bool {
	ca, ok := a.Type.Canonical()
	if !ok {
		return false
	}
	cb, ok := b.Type.Canonical()
	if !ok {
		return false
	}
	return sameCanonicalType(ca.Type, cb.Type)
}

func sameCanonicalType(a, b Type) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case *Builtin:
		return at.BuiltinKind == b.(*Builtin).BuiltinKind
	case *Pointer:
		return SameCanonical(at.Elem, b.(*Pointer).Elem)
	case *Array:
		bt := b.(*Array)
		if at.LengthKnown != bt.LengthKnown || (at.LengthKnown && at.Length != bt.Length) {
			return false
		}
		return SameCanonical(at.Elem, bt.Elem)
	case *Function:
		bt := b.(*Function)
		if len(at.Params) != len(bt.Params) || at.Variadic != bt.Variadic {
			return false
		}
		for i := range at.Params {
			if !SameCanonical(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return SameCanonical(at.Return, bt.Return)
	case *Named:
		// Canonical forms never contain Named aliases (the resolver
		// expands them); a Named surviving to here names a struct or
		// enum, which are nominal: same handle, same type.
		return at.Handle == b.(*Named).Handle && at.Ref == b.(*Named).Ref
	default:
		return false
	}
}
