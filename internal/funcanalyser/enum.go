package funcanalyser

import (
	"math"

	"github.com/emberlang/emberc/internal/ast"
	"github.com/emberlang/emberc/internal/diag"
	"github.com/emberlang/emberc/internal/exprtype"
)

// underlyingRange reports the representable signed range for the enum's
// storage kind; i32 is the default when no underlying type was written.
func underlyingRange(te *ast.TypeNameExpr) (min, max int64) {
	if te == nil {
		return math.MinInt32, math.MaxInt32
	}
	switch te.Name {
	case "i8":
		return math.MinInt8, math.MaxInt8
	case "u8":
		return 0, math.MaxUint8
	case "i16":
		return math.MinInt16, math.MaxInt16
	case "u16":
		return 0, math.MaxUint16
	case "i64":
		return math.MinInt64, math.MaxInt64
	case "u64", "u32":
		return 0, math.MaxInt64 // stored as int64; unsigned overflow is checked at codegen
	default:
		return math.MinInt32, math.MaxInt32
	}
}

// CheckEnumValue assigns const's integer value: nextValue if it has no
// explicit initialiser, or the evaluated initialiser otherwise — folded as
// a real constant expression (literal, unary/binary arithmetic, or a
// reference to an earlier constant), not just a bare literal — per §4.4's
// "otherwise evaluates the initialiser as a constant expression". A
// non-foldable initialiser is diagnosed and nextValue is used as a
// fallback so later constants in the same enum still get a value to
// advance from rather than cascading the failure. It enforces range and
// uniqueness within the enum and returns the value to use as nextValue for
// the following constant.
func (a *Analyser) CheckEnumValue(enum *ast.Decl, c *ast.Decl, nextValue int64, seen map[int64]bool) int64 {
	te, _ := enum.Underlying.(*ast.TypeNameExpr)
	min, max := underlyingRange(te)

	value := nextValue
	if c.Value != nil {
		a.analyseExpr(c.Value, SideRHS)
		if v, ok := exprtype.FoldConstant(c.Value, a.constIdentValue); ok {
			value = v
		} else {
			a.sink.Report(c.Pos(), diag.ErrNonConstantInitializer,
				"enum constant %q initialiser is not a constant expression", c.Name)
		}
	}

	if value < min || value > max {
		a.sink.Report(c.Pos(), diag.ErrEnumValueOverflow, "enum constant %q value %d exceeds the range of %s", c.Name, value, enum.Underlying)
	}
	if seen[value] {
		a.sink.Report(c.Pos(), diag.ErrDuplicateSymbol, "enum constant value %d is already used in %q", value, enum.Name)
	}
	seen[value] = true

	c.IntValue = value
	a.constants[c] = value
	return value + 1
}
