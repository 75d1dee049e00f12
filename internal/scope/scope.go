// Package scope implements name resolution for one file's analysis: a
// stack of lexical frames for locals and parameters, the file's own
// top-level declarations, the current package's exported set, and the
// table of package aliases bound by `use` statements.
//
// Lookup order for an unqualified name is innermost frame outward, then
// file-local declarations, then the current package's exports — matching
// how the teacher's symtab.Scope walks parent links, generalised with the
// two extra tiers a multi-package language needs.
package scope

import (
	"github.com/emberlang/emberc/internal/ast"
	"github.com/emberlang/emberc/internal/pkgsym"
)

// Kind distinguishes why a frame was pushed, for the control-flow checks
// that need to find the nearest enclosing loop or switch.
type Kind int

const (
	KindFunction Kind = iota
	KindBlock
	KindLoop
	KindSwitch
)

// frame is one lexical level: parameters, or the locals declared directly
// inside one `{ ... }`.
type frame struct {
	kind   Kind
	parent *frame
	names  map[string]*ast.Decl
}

func newFrame(kind Kind, parent *frame) *frame {
	return &frame{kind: kind, parent: parent, names: make(map[string]*ast.Decl)}
}

// alias is one `use path [as name];` binding.
type alias struct {
	decl *ast.Decl
	used bool
}

// Scope resolves names for a single file under analysis. It owns the
// frame stack, the file's own declarations, the package being analysed,
// and its bound aliases; Pkgs is read-only and shared across every file in
// a compile.
type Scope struct {
	pkgs       pkgsym.Pkgs
	file       *ast.File
	ownPackage pkgsym.Table

	top     *frame
	aliases map[string]*alias

	externals map[string]pkgsym.External
}

// New builds a Scope for analysing file, which belongs to ownPackage and
// may reference any package in pkgs.
func New(file *ast.File, ownPackage pkgsym.Table, pkgs pkgsym.Pkgs) *Scope {
	return &Scope{
		pkgs:       pkgs,
		file:       file,
		ownPackage: ownPackage,
		aliases:    make(map[string]*alias),
		externals:  make(map[string]pkgsym.External),
	}
}

// BindUse registers a `use` declaration's alias. The caller (checkUses)
// has already diagnosed a duplicate alias or unknown package before
// calling this; BindUse assumes path resolves.
func (s *Scope) BindUse(aliasName string, decl *ast.Decl) {
	s.aliases[aliasName] = &alias{decl: decl}
}

// HasAlias reports whether aliasName is already bound, for checkUses'
// duplicate-alias check.
func (s *Scope) HasAlias(aliasName string) bool {
	_, ok := s.aliases[aliasName]
	return ok
}

// UnusedAliases returns every bound alias that was never referenced, for
// the unused-package sweep.
func (s *Scope) UnusedAliases() []*ast.Decl {
	var out []*ast.Decl
	for _, a := range s.aliases {
		if !a.used {
			out = append(out, a.decl)
		}
	}
	return out
}

// Push opens a new lexical frame of the given kind, nested inside the
// current one.
func (s *Scope) Push(kind Kind) {
	s.top = newFrame(kind, s.top)
}

// Pop closes the innermost frame.
func (s *Scope) Pop() {
	if s.top != nil {
		s.top = s.top.parent
	}
}

// Declare binds name to decl in the innermost frame. It does not check
// parent frames — shadowing an outer name is legal — but returns false if
// name is already declared in this same frame, for the duplicate-symbol
// diagnostic.
func (s *Scope) Declare(name string, decl *ast.Decl) bool {
	if s.top == nil {
		return false
	}
	if _, exists := s.top.names[name]; exists {
		return false
	}
	s.top.names[name] = decl
	return true
}

// Lookup resolves an unqualified name: innermost frame outward, then the
// file's own top-level declarations, then the current package's exports.
// Found declarations are marked used.
func (s *Scope) Lookup(name string) (*ast.Decl, bool) {
	for f := s.top; f != nil; f = f.parent {
		if d, ok := f.names[name]; ok {
			d.Used = true
			return d, true
		}
	}
	for _, d := range s.file.AllDecls() {
		if d.Name == name {
			d.Used = true
			return d, true
		}
		// Enum constants share the enclosing file's namespace rather than
		// their enum's — a bare `Red` resolves without qualifying through
		// the enum type, matching how the declaration kind list in the
		// data model treats "enum constant" as its own top-level
		// declaration rather than a member namespaced under its enum.
		if d.Kind == ast.DeclEnumType {
			for _, c := range d.EnumConsts {
				if c.Name == name {
					c.Used = true
					return c, true
				}
			}
		}
	}
	if s.ownPackage != nil {
		if d, ok := s.ownPackage.Lookup(name); ok {
			d.Used = true
			return d, true
		}
	}
	return nil, false
}

// LookupQualified resolves `aliasName::name`. The alias must already be
// bound by a `use`; a lookup that succeeds marks both the alias and the
// resolved declaration as used, and records the reference as external.
func (s *Scope) LookupQualified(aliasName, name string) (*ast.Decl, bool) {
	a, ok := s.aliases[aliasName]
	if !ok {
		return nil, false
	}
	tbl, ok := s.pkgs[a.decl.ImportPath]
	if !ok {
		return nil, false
	}
	d, ok := tbl.Lookup(name)
	if !ok {
		return nil, false
	}
	a.used = true
	d.Used = true
	s.recordExternal(a.decl.ImportPath, d)
	return d, true
}

func (s *Scope) recordExternal(pkg string, d *ast.Decl) {
	s.externals[pkg+"::"+d.Name] = pkgsym.External{Package: pkg, Decl: d}
}

// Externals returns every cross-package reference observed so far, for
// getExternals.
func (s *Scope) Externals() []pkgsym.External {
	out := make([]pkgsym.External, 0, len(s.externals))
	for _, e := range s.externals {
		out = append(out, e)
	}
	return out
}

// EnclosingLoop/EnclosingSwitch walk outward from the current frame to
// find the nearest frame of the requested kind, for break/continue
// validation. ok is false when none exists.
func (s *Scope) EnclosingLoop() bool   { return s.enclosing(KindLoop) }
func (s *Scope) EnclosingSwitch() bool { return s.enclosing(KindSwitch) }

// EnclosingLoopOrSwitch reports whether break would have a target: the
// nearest loop or switch frame, whichever comes first walking outward.
func (s *Scope) EnclosingLoopOrSwitch() bool {
	for f := s.top; f != nil; f = f.parent {
		if f.kind == KindLoop || f.kind == KindSwitch {
			return true
		}
	}
	return false
}

func (s *Scope) enclosing(kind Kind) bool {
	for f := s.top; f != nil; f = f.parent {
		if f.kind == kind {
			return true
		}
	}
	return false
}
