// Package pkgsym defines the read-only view of sibling packages that
// Scope consults for qualified lookups. The table itself — how a package's
// exported declarations got built in the first place — is a driver
// concern; analysing one file only ever needs lookup(name).
package pkgsym

import "github.com/emberlang/emberc/internal/ast"

// Table is one package's exported symbol table as seen by other packages.
// The driver is free to back it with anything — a cache, a second
// FileAnalyser's output merged across files, a precompiled index — as long
// as Lookup only returns declarations that are actually public.
type Table interface {
	// Lookup resolves name against this package's exported declarations.
	// It must never return a private declaration; a private match is the
	// same as no match, from a caller outside the package.
	Lookup(name string) (*ast.Decl, bool)

	// Name is the package's own name, for diagnostic messages.
	Name() string
}

// Pkgs maps a package name to its exported symbol table. FileAnalyser is
// handed one of these alongside the AST it's checking; it is read-only for
// the whole analysis.
type Pkgs map[string]Table

// External is one cross-package reference the analyser observed while
// checking a file: the package it came from and the declaration in it.
// getExternals returns the deduplicated set of these so a driver can build
// its package dependency graph without re-walking the AST itself.
type External struct {
	Package string
	Decl    *ast.Decl
}

// MapTable is a simple map-backed Table, useful for tests and for small
// packages where building an index ahead of time isn't worth it.
type MapTable struct {
	PkgName string
	Decls   map[string]*ast.Decl
}

func NewMapTable(name string) *MapTable {
	return &MapTable{PkgName: name, Decls: make(map[string]*ast.Decl)}
}

func (t *MapTable) Name() string { return t.PkgName }

func (t *MapTable) Lookup(name string) (*ast.Decl, bool) {
	d, ok := t.Decls[name]
	if !ok || !d.Public {
		return nil, false
	}
	return d, true
}

// Add registers decl under its own name. It is meant for assembling test
// fixtures; a real driver builds its Table from the analysed file's own
// exported declarations instead.
func (t *MapTable) Add(decl *ast.Decl) {
	t.Decls[decl.Name] = decl
}
