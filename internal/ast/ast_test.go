package ast

import (
	"testing"

	"github.com/emberlang/emberc/internal/types"
)

func TestNewFile_AssignsHandlesInGroupOrder(t *testing.T) {
	typeDecl := &Decl{Kind: DeclStructType, Name: "Point"}
	varDecl := &Decl{Kind: DeclVar, Name: "origin"}
	funcDecl := &Decl{Kind: DeclFunction, Name: "main"}

	f := NewFile("a.mb", 0, "main", nil,
		[]*Decl{typeDecl}, []*Decl{varDecl}, []*Decl{funcDecl}, nil)

	if typeDecl.Handle != 0 || varDecl.Handle != 1 || funcDecl.Handle != 2 {
		t.Fatalf("unexpected handle assignment: %d %d %d", typeDecl.Handle, varDecl.Handle, funcDecl.Handle)
	}

	got, ok := f.DeclByHandle(1)
	if !ok || got != varDecl {
		t.Fatalf("DeclByHandle(1) = %v, %v; want origin decl", got, ok)
	}
}

func TestFile_DeclByHandle_OutOfRange(t *testing.T) {
	f := NewFile("a.mb", 0, "main", nil, nil, nil, nil, nil)

	if _, ok := f.DeclByHandle(types.InvalidHandle); ok {
		t.Error("InvalidHandle should never resolve")
	}
	if _, ok := f.DeclByHandle(0); ok {
		t.Error("empty file should resolve no handles")
	}
}

func TestFile_AllDecls_PreservesAssignmentOrder(t *testing.T) {
	d1 := &Decl{Kind: DeclAliasType, Name: "Id"}
	d2 := &Decl{Kind: DeclVar, Name: "count"}

	f := NewFile("a.mb", 0, "main", nil, []*Decl{d1}, []*Decl{d2}, nil, nil)

	all := f.AllDecls()
	if len(all) != 2 || all[0] != d1 || all[1] != d2 {
		t.Fatalf("AllDecls() = %v, want [d1 d2]", all)
	}
}
