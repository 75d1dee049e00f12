package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func qualify(t Type) *QualifiedType { return &QualifiedType{Type: t} }

func resolve(qt *QualifiedType) {
	qt.Type.setCanonical(qt)
}

func TestBuiltin_String(t *testing.T) {
	tests := []struct {
		kind     BuiltinKind
		expected string
	}{
		{I32, "i32"},
		{U64, "u64"},
		{F64, "f64"},
		{Bool, "bool"},
		{Void, "void"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := NewBuiltin(tt.kind).String(); got != tt.expected {
				t.Errorf("Builtin.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRank_OrdersBySignednessAndWidth(t *testing.T) {
	if Rank(I32) >= Rank(I64) {
		t.Error("i64 should outrank i32")
	}
	if Rank(U32) <= Rank(I32) {
		t.Error("u32 should outrank i32 of equal width")
	}
	if Rank(Char) >= Rank(I8) {
		t.Error("char should be the lowest rank")
	}
}

func TestSameCanonical_UnresolvedIsNeverEqual(t *testing.T) {
	a := qualify(NewBuiltin(I32))
	b := qualify(NewBuiltin(I32))

	if SameCanonical(a, b) {
		t.Error("unresolved types should not compare equal")
	}

	resolve(a)
	resolve(b)
	if !SameCanonical(a, b) {
		t.Error("two resolved i32 builtins should be the same canonical type")
	}
}

func TestSameCanonical_Array(t *testing.T) {
	elemA := qualify(NewBuiltin(I32))
	elemB := qualify(NewBuiltin(I32))
	resolve(elemA)
	resolve(elemB)

	a := qualify(&Array{Elem: elemA, Length: 4, LengthKnown: true})
	b := qualify(&Array{Elem: elemB, Length: 4, LengthKnown: true})
	resolve(a)
	resolve(b)

	if !SameCanonical(a, b) {
		t.Error("[4]i32 should equal [4]i32")
	}

	c := qualify(&Array{Elem: elemA, Length: 5, LengthKnown: true})
	resolve(c)
	if SameCanonical(a, c) {
		t.Error("[4]i32 should not equal [5]i32")
	}
}

func TestSameCanonical_NamedIsNominal(t *testing.T) {
	a := qualify(&Named{Ref: RefStruct, Handle: 1, Name: "Point"})
	b := qualify(&Named{Ref: RefStruct, Handle: 2, Name: "Vector"})
	resolve(a)
	resolve(b)

	if SameCanonical(a, a) == false {
		t.Error("a struct should equal itself")
	}
	if SameCanonical(a, b) {
		t.Error("distinct struct handles should not compare equal")
	}
}

func TestIsInvalid(t *testing.T) {
	if !IsInvalid(Invalid) {
		t.Error("Invalid should report IsInvalid")
	}
	if !IsInvalid(nil) {
		t.Error("nil should report IsInvalid")
	}
	if IsInvalid(NewBuiltin(I32)) {
		t.Error("a real builtin should not report IsInvalid")
	}
}

func TestQualifiers_String(t *testing.T) {
	q := QualConst | QualLocal
	if got, want := q.String(), "const local"; got != want {
		t.Errorf("Qualifiers.String() = %q, want %q", got, want)
	}
}

// TestArray_StructuralShape exercises cmp.Diff against the actual shape of
// a resolved Array type rather than a plain string, ignoring the base
// embed's unexported canonical-form cache fields (cmp has no notion of
// same-package access — it still refuses to recurse into an unexported
// field without an explicit option).
func TestArray_StructuralShape(t *testing.T) {
	elem := qualify(NewBuiltin(I32))
	resolve(elem)

	got := &Array{Elem: elem, Length: 4, LengthKnown: true}
	want := &Array{Elem: elem, Length: 4, LengthKnown: true}

	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(base{})); diff != "" {
		t.Errorf("Array shape mismatch (-want +got):\n%s", diff)
	}

	want.Length = 5
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(base{})); diff == "" {
		t.Error("expected a diff between arrays of different length, got none")
	}
}
