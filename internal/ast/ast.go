// Package ast defines the tree the analyser consumes. The lexer and parser
// that build it are external collaborators (out of scope for this module);
// what lives here is the shape they hand us, plus the declaration table and
// mutable annotations (canonical types, resolved identifiers, used bits)
// the analyser attaches as it works.
//
// Per the component design, there is no Visitor here: statement and
// expression kinds are plain tagged variants and every phase dispatches on
// the tag with a type switch.
package ast

import (
	"github.com/emberlang/emberc/internal/source"
	"github.com/emberlang/emberc/internal/types"
)

// Node is the minimal interface every AST node satisfies.
type Node interface {
	Pos() source.Position
	End() source.Position
}

// File is one parsed source file: a package name, its package-uses, and
// its top-level declarations grouped by kind (matching the indexed access
// the analyser's phases need — types before vars before functions).
type File struct {
	Filename string
	FileID   int
	Package  string

	Uses        []*Decl
	Types       []*Decl
	Vars        []*Decl
	Functions   []*Decl
	ArrayValues []*Decl

	byHandle []*Decl
}

// NewFile builds a File and assigns a stable Handle to every top-level
// declaration, in the order the slices are given. Handles are what Named
// types reference, so declaration order here does not need to match
// source order — only assignment needs to happen before any type
// expression referencing these declarations is checked.
func NewFile(filename string, fileID int, pkg string, uses, decls, vars, funcs, arrayValues []*Decl) *File {
	f := &File{
		Filename:    filename,
		FileID:      fileID,
		Package:     pkg,
		Uses:        uses,
		Types:       decls,
		Vars:        vars,
		Functions:   funcs,
		ArrayValues: arrayValues,
	}
	for _, group := range [][]*Decl{decls, vars, funcs, arrayValues} {
		for _, d := range group {
			d.Handle = types.Handle(len(f.byHandle))
			f.byHandle = append(f.byHandle, d)
		}
	}
	return f
}

// DeclByHandle looks up a declaration registered with NewFile. Named types
// that reference a handle outside this range mean the referent lives in
// another file or package and must be resolved through Scope instead.
func (f *File) DeclByHandle(h types.Handle) (*Decl, bool) {
	if h < 0 || int(h) >= len(f.byHandle) {
		return nil, false
	}
	return f.byHandle[h], true
}

// AllDecls returns every top-level declaration registered in this file, in
// Handle order.
func (f *File) AllDecls() []*Decl {
	return f.byHandle
}
