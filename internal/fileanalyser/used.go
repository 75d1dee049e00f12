package fileanalyser

import (
	"github.com/emberlang/emberc/internal/ast"
	"github.com/emberlang/emberc/internal/diag"
)

// checkDeclsForUsed sweeps every declaration the file owns and reports the
// unused-* warnings. A public declaration is only flagged as unused-public
// (not unused-variable/-function/-type) — a private declaration's lack of
// any reference is unambiguous, but a public one may be used entirely from
// outside this file, so it gets a softer, differently-tagged warning
// instead of silence or a false-positive hard unused diagnostic.
func (a *Analyser) checkDeclsForUsed() {
	for _, d := range a.scope.UnusedAliases() {
		a.sink.Report(d.Pos(), diag.WarnUnusedPackage, "package %q is never referenced", d.ImportPath)
	}

	for _, d := range a.file.Vars {
		a.reportUnused(d, diag.WarnUnusedVariable, "variable %q is never used")
	}

	for _, d := range a.file.Functions {
		if d.Name == "main" {
			continue
		}
		a.reportUnused(d, diag.WarnUnusedFunction, "function %q is never called")
	}

	for _, d := range a.file.Types {
		a.reportUnused(d, diag.WarnUnusedType, "type %q is never used")
		if d.Kind == ast.DeclStructType {
			a.checkUnusedMembers(d)
		}
	}
}

func (a *Analyser) reportUnused(d *ast.Decl, id diag.ID, format string) {
	if d.Used {
		return
	}
	if d.Public {
		a.sink.Report(d.Pos(), diag.WarnUnusedPublic, "public %s %q is never referenced within this file", d.Kind, d.Name)
		return
	}
	a.sink.Report(d.Pos(), id, format, d.Name)
}

func (a *Analyser) checkUnusedMembers(d *ast.Decl) {
	for _, m := range d.Members {
		if m.Used || m.Public {
			continue
		}
		a.sink.Report(m.Span.Start, diag.WarnUnusedStructMember, "member %q of %q is never used", m.Name, d.Name)
	}
}
