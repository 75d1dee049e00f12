// Package exprtype implements ExprTypeAnalyser: the pure type arithmetic
// shared by expression checking — unary promotion, the binary common-type
// rule, narrowing-conversion diagnostics, and a constant-foldability
// predicate. It owns no state beyond the diagnostics sink, so every
// function here takes exactly the types it needs and returns a result.
// FunctionAnalyser and FileAnalyser (for global initialisers) call it.
package exprtype

import (
	"github.com/emberlang/emberc/internal/ast"
	"github.com/emberlang/emberc/internal/diag"
	"github.com/emberlang/emberc/internal/source"
	"github.com/emberlang/emberc/internal/types"
)

// Analyser reports narrowing and incompatibility diagnostics through sink.
type Analyser struct {
	sink diag.Sink
}

func New(sink diag.Sink) *Analyser { return &Analyser{sink: sink} }

// Promote applies the unary integer promotion rule: anything narrower than
// i32 widens to i32 before a unary arithmetic operator is applied. char and
// bool are integer-promoted the same way C promotes them.
func Promote(t *types.QualifiedType) *types.QualifiedType {
	b, ok := t.Type.(*types.Builtin)
	promotable := b != nil && (b.BuiltinKind.IsInteger() || b.BuiltinKind == types.Char || b.BuiltinKind == types.Bool)
	if !ok || !promotable {
		return t
	}
	if types.Rank(b.BuiltinKind) < types.Rank(types.I32) {
		return &types.QualifiedType{Type: types.NewBuiltin(types.I32)}
	}
	return t
}

// CommonType applies the usual binary arithmetic conversions: both
// operands convert to whichever has the higher rank (char < short < int <
// long < longlong; unsigned outranks signed of equal width, per Rank's
// ordering). Returns (result, ok) — ok is false when either operand is
// not numeric, in which case the caller should report incompatible-types
// itself with the operator's own context.
func CommonType(left, right *types.QualifiedType) (*types.QualifiedType, bool) {
	lb, lok := left.Type.(*types.Builtin)
	rb, rok := right.Type.(*types.Builtin)
	if !lok || !rok || !lb.BuiltinKind.IsNumeric() || !rb.BuiltinKind.IsNumeric() {
		return nil, false
	}
	if types.Rank(lb.BuiltinKind) >= types.Rank(rb.BuiltinKind) {
		return Promote(left), true
	}
	return Promote(right), true
}

// CheckAssignable reports whether a value of type src can be assigned (or
// passed, or returned) where dst is expected, and emits a
// narrowing-conversion diagnostic for the implicit-narrowing case (a
// numeric type converting to a lower-rank numeric type without an
// explicit cast). Identical canonical types are always assignable;
// pointer-to-pointer and struct/enum types require identical canonical
// forms (no implicit conversion).
func (a *Analyser) CheckAssignable(pos source.Position, dst, src *types.QualifiedType) bool {
	if types.SameCanonical(dst, src) {
		return true
	}

	db, dok := dst.Type.(*types.Builtin)
	sb, sok := src.Type.(*types.Builtin)
	if dok && sok && db.BuiltinKind.IsNumeric() && sb.BuiltinKind.IsNumeric() {
		if types.Rank(db.BuiltinKind) < types.Rank(sb.BuiltinKind) {
			a.sink.Report(pos, diag.ErrNarrowingConversion,
				"implicit conversion from %s to %s narrows the value", src, dst)
		}
		return true
	}

	a.sink.Report(pos, diag.ErrIncompatibleTypes, "cannot assign %s to %s", src, dst)
	return false
}

// IsConstantFoldable reports whether expr can be evaluated at compile
// time: literals, and unary/binary/grouping expressions built entirely
// from constant-foldable operands. Identifiers are foldable only when
// they resolve to an enum constant or a const variable with an
// initialiser — callers pass that resolution in via isConstIdent.
func IsConstantFoldable(expr ast.Expr, isConstIdent func(*ast.IdentExpr) bool) bool {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return true
	case *ast.IdentExpr:
		return isConstIdent != nil && isConstIdent(e)
	case *ast.UnaryExpr:
		switch e.Op {
		case ast.UnaryNeg, ast.UnaryNot, ast.UnaryBitNot:
			return IsConstantFoldable(e.Operand, isConstIdent)
		default:
			return false
		}
	case *ast.BinaryExpr:
		return IsConstantFoldable(e.Left, isConstIdent) && IsConstantFoldable(e.Right, isConstIdent)
	case *ast.GroupingExpr:
		return IsConstantFoldable(e.Inner, isConstIdent)
	case *ast.SizeofExpr, *ast.ElemsofExpr, *ast.EnumMinMaxExpr, *ast.BitOffsetExpr:
		return true
	default:
		return false
	}
}

// FoldConstant evaluates expr as a compile-time integer constant. It walks
// the same node kinds IsConstantFoldable recognises as foldable (literals,
// unary neg/not/bitnot, binary arithmetic/bitwise/shift, grouping) and
// actually computes the value instead of only classifying it; constValue
// resolves an identifier to its own constant value (an enum constant's
// assigned integer, or a const variable's folded initialiser), the same
// resolution isConstIdent classifies as foldable. Returns (0, false) for
// anything not foldable — including division or modulo by a folded zero,
// and float/string literals, which this integer-only evaluator does not
// attempt to represent. Bool literals fold to 1 or 0, char literals to
// their integer value.
func FoldConstant(expr ast.Expr, constValue func(*ast.IdentExpr) (int64, bool)) (int64, bool) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		switch e.Kind {
		case ast.LitInt, ast.LitChar:
			return e.Int, true
		case ast.LitBool:
			if e.Bool {
				return 1, true
			}
			return 0, true
		default:
			return 0, false
		}
	case *ast.IdentExpr:
		if constValue == nil {
			return 0, false
		}
		return constValue(e)
	case *ast.UnaryExpr:
		v, ok := FoldConstant(e.Operand, constValue)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case ast.UnaryNeg:
			return -v, true
		case ast.UnaryNot:
			if v == 0 {
				return 1, true
			}
			return 0, true
		case ast.UnaryBitNot:
			return ^v, true
		default:
			return 0, false
		}
	case *ast.BinaryExpr:
		l, ok := FoldConstant(e.Left, constValue)
		if !ok {
			return 0, false
		}
		r, ok := FoldConstant(e.Right, constValue)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case ast.BinAdd:
			return l + r, true
		case ast.BinSub:
			return l - r, true
		case ast.BinMul:
			return l * r, true
		case ast.BinDiv:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case ast.BinMod:
			if r == 0 {
				return 0, false
			}
			return l % r, true
		case ast.BinShl:
			return l << uint(r), true
		case ast.BinShr:
			return l >> uint(r), true
		case ast.BinBitAnd:
			return l & r, true
		case ast.BinBitOr:
			return l | r, true
		case ast.BinBitXor:
			return l ^ r, true
		default:
			return 0, false
		}
	case *ast.GroupingExpr:
		return FoldConstant(e.Inner, constValue)
	default:
		return 0, false
	}
}

// IsBooleanConvertible reports whether t may appear as a controlling
// condition (if/while/for/do): any numeric or pointer type, by the usual
// "nonzero is true" rule.
func IsBooleanConvertible(t *types.QualifiedType) bool {
	switch bt := t.Type.(type) {
	case *types.Builtin:
		return bt.BuiltinKind.IsNumeric() || bt.BuiltinKind == types.Bool
	case *types.Pointer:
		return true
	default:
		return false
	}
}
