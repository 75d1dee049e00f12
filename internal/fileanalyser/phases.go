package fileanalyser

import (
	"github.com/emberlang/emberc/internal/ast"
	"github.com/emberlang/emberc/internal/diag"
	"github.com/emberlang/emberc/internal/scope"
	"github.com/emberlang/emberc/internal/types"
)

// checkUses is phase 1: bind every `use` to a package alias. A duplicate
// alias or a path absent from the package map is an error; either way the
// use is skipped and later lookups through its alias simply fail as
// unknown identifiers rather than cascading a second diagnostic.
func (a *Analyser) checkUses() {
	for _, d := range a.file.Uses {
		alias := d.Alias
		if alias == "" {
			alias = lastPathSegment(d.ImportPath)
		}
		if a.scope.HasAlias(alias) {
			a.sink.Report(d.Pos(), diag.ErrDuplicateSymbol, "package alias %q is already bound in this file", alias)
			continue
		}
		tbl, ok := a.pkgs[d.ImportPath]
		if !ok {
			a.sink.Report(d.Pos(), diag.ErrUnknownPackage, "unknown package %q", d.ImportPath)
			continue
		}
		d.Resolved = tbl
		a.scope.BindUse(alias, d)
	}
}

// resolveTypes is phase 2: shallow-validate each type declaration's own
// type expression. Struct and enum declarations have no such expression of
// their own (their content is the member/constant list, resolved in phases
// 4 and 3 respectively); only an alias has something to check yet.
func (a *Analyser) resolveTypes() {
	for _, d := range a.file.Types {
		switch d.Kind {
		case ast.DeclAliasType:
			if te, ok := d.AliasTarget.(*ast.TypeNameExpr); ok {
				d.Type = a.types.CheckType(te, d.Public)
			}
		case ast.DeclStructType, ast.DeclEnumType:
			d.Type = &types.QualifiedType{Type: a.namedSelf(d)}
		}
	}
}

// namedSelf builds the Named type a struct or enum declaration denotes
// when referenced by its own Handle — nominal types are their own
// canonical form, computed once here so later phases and CheckType's
// lookup path agree on the same Ref/Handle pair.
func (a *Analyser) namedSelf(d *ast.Decl) *types.Named {
	ref := types.RefStruct
	if d.Kind == ast.DeclEnumType {
		ref = types.RefEnum
	}
	return &types.Named{Ref: ref, Handle: d.Handle, Name: d.Name}
}

// resolveTypeCanonicals is phase 3: compute every top-level type's
// canonical form. Aliases follow their chain (possibly discovering a
// cycle); function-type declarations resolve their parameter and return
// types here, since those are the "own type expression" a function-type
// decl is made of. Enum constants are assigned their integer values here
// too — the enum declaration is itself one of file.Types, and nothing later than
// this phase needs to know an enum's shape before member/var/body
// analysis runs.
func (a *Analyser) resolveTypeCanonicals() {
	for _, d := range a.file.Types {
		switch d.Kind {
		case ast.DeclAliasType, ast.DeclStructType, ast.DeclEnumType:
			if d.Type != nil {
				a.types.ResolveCanonical(d.Type, d.Pos())
			}
			if d.Kind == ast.DeclEnumType {
				a.resolveEnumConsts(d)
			}
		case ast.DeclFunctionType:
			d.Type = a.buildFunctionType(d)
			a.types.ResolveCanonical(d.Type, d.Pos())
		}
	}
}

func (a *Analyser) resolveEnumConsts(enum *ast.Decl) {
	var next int64
	seen := make(map[int64]bool)
	for _, c := range enum.EnumConsts {
		c.EnumOwner = enum.Handle
		c.Type = enum.Type
		next = a.funcs.CheckEnumValue(enum, c, next, seen)
	}
}

func (a *Analyser) buildFunctionType(d *ast.Decl) *types.QualifiedType {
	params := make([]*types.QualifiedType, len(d.Params))
	for i, p := range d.Params {
		if te, ok := p.TypeExpr.(*ast.TypeNameExpr); ok {
			p.Type = a.types.CheckType(te, d.Public)
		}
		params[i] = p.Type
	}
	var ret *types.QualifiedType
	if te, ok := d.Return.(*ast.TypeNameExpr); ok {
		ret = a.types.CheckType(te, d.Public)
	} else {
		ret = &types.QualifiedType{Type: types.NewBuiltin(types.Void)}
	}
	return &types.QualifiedType{Type: &types.Function{Params: params, Variadic: d.Variadic, Return: ret}}
}

// resolveStructMembers is phase 4: resolve every struct's member types.
// Nested aggregates (a member whose type is itself a struct) need no
// special recursion here — CheckType resolves the member's Named
// reference to the nested struct's Handle, and that struct's own members
// were (or will be) resolved by its own pass through this same loop;
// indirection depth is only a body-analysis concern (MemberExpr chains),
// not a declaration-shape one.
func (a *Analyser) resolveStructMembers() {
	for _, d := range a.file.Types {
		if d.Kind != ast.DeclStructType {
			continue
		}
		for _, m := range d.Members {
			if te, ok := m.TypeExpr.(*ast.TypeNameExpr); ok {
				m.Type = a.types.CheckType(te, d.Public && m.Public)
				a.types.ResolveCanonical(m.Type, m.Span.Start)
			}
		}
	}
}

// resolveVars is phase 5: resolve global variable types, typecheck their
// initialisers, and enforce that a const global has one. Standalone array
// values get the same treatment.
func (a *Analyser) resolveVars() {
	for _, d := range a.file.Vars {
		a.resolveVarDecl(d)
	}
	for _, d := range a.file.ArrayValues {
		a.resolveArrayValue(d)
	}
}

func (a *Analyser) resolveVarDecl(d *ast.Decl) {
	if te, ok := d.VarType.(*ast.TypeNameExpr); ok {
		d.Type = a.types.CheckType(te, d.Public)
		a.types.ResolveCanonical(d.Type, d.Pos())
		d.IsConst = d.Type.IsConst()
	}

	if d.Init != nil {
		gotType := a.funcs.CheckInitializer(d.Init)
		if d.Type != nil {
			a.exprs.CheckAssignable(d.Init.Pos(), d.Type, gotType)
		}
	} else if d.IsConst {
		a.sink.Report(d.Pos(), diag.ErrUninitializedConstVar, "const variable %q has no initialiser", d.Name)
	}
}

// resolveArrayValue typechecks a standalone `array_value name = {...}`
// declaration against the original's disabled checkArrayValue (see
// DESIGN.md and SPEC_FULL.md §12): it resolves name through ordinary file
// scope exactly like any other global reference, requires that name
// resolve to a VarDecl, and requires that VarDecl's type to be (or
// canonicalise to) an array — each its own diagnosed error rather than
// silently fabricating a type for a malformed declaration. A matched
// incomplete array (no explicit length) has its length inferred from the
// initialiser's element count.
func (a *Analyser) resolveArrayValue(d *ast.Decl) {
	target, ok := a.scope.Lookup(d.Name)
	if !ok {
		a.sink.Report(d.Pos(), diag.ErrUnknownIdentifier, "array value %q does not resolve to any declaration in scope", d.Name)
		a.checkArrayValueInit(d, nil)
		return
	}
	if target.Kind != ast.DeclVar {
		a.sink.Report(d.Pos(), diag.ErrArrayValueTarget, "array value %q must name a variable, found a %s", d.Name, target.Kind)
		a.checkArrayValueInit(d, nil)
		return
	}
	if target.Type == nil {
		// Already diagnosed when target's own type was resolved; skip
		// secondary checks per the "missing canonical" error policy.
		a.checkArrayValueInit(d, nil)
		return
	}

	canon := target.Type
	if c, ok := target.Type.Type.Canonical(); ok {
		canon = c
	}
	arrType, ok := canon.Type.(*types.Array)
	if !ok {
		a.sink.Report(d.Pos(), diag.ErrArrayValueTarget, "array value %q names %q, which is not an array type", d.Name, target.Name)
		a.checkArrayValueInit(d, nil)
		return
	}

	target.Used = true
	d.Type = target.Type
	a.checkArrayValueInit(d, arrType)
}

// checkArrayValueInit typechecks the array value's brace initialiser, if
// any, against arrType's element type. arrType is nil when the target
// could not be resolved to an array — the initialiser is still
// expression-checked (so its own sub-expressions get diagnosed), just
// without an expected type to check elements against.
func (a *Analyser) checkArrayValueInit(d *ast.Decl, arrType *types.Array) {
	arr, ok := d.ArrayInit.(*ast.ArrayInitExpr)
	if !ok {
		if d.ArrayInit != nil {
			a.funcs.CheckInitializer(d.ArrayInit)
		}
		return
	}

	if arrType != nil && !arrType.LengthKnown {
		arrType.Length = len(arr.Elems)
		arrType.LengthKnown = true
	}

	for _, el := range arr.Elems {
		gotType := a.funcs.CheckInitializer(el)
		if arrType != nil && arrType.Elem != nil {
			a.exprs.CheckAssignable(el.Pos(), arrType.Elem, gotType)
		}
	}
}

// checkFunctionProtos is phase 6: resolve every function's return and
// parameter types without entering its body, so that phase 7 can
// typecheck calls against declared signatures regardless of which
// function in the file appears first in source order.
func (a *Analyser) checkFunctionProtos() {
	for _, d := range a.file.Functions {
		d.Type = a.buildFunctionType(d)
		a.types.ResolveCanonical(d.Type, d.Pos())
	}
}

// checkFunctionBodies is phase 7: full statement/expression analysis of
// every function with a body. Parameters are pushed into a fresh function
// scope frame before the body walk and popped after, matching how the
// teacher's analyzer enters/exits a function scope around VisitFuncDecl's
// body check.
func (a *Analyser) checkFunctionBodies() {
	for _, d := range a.file.Functions {
		if d.Body == nil {
			continue
		}
		a.scope.Push(scope.KindFunction)
		for _, p := range d.Params {
			a.scope.Declare(p.Name, &ast.Decl{Kind: ast.DeclVar, Name: p.Name, Span: p.Span, Type: p.Type})
		}
		a.funcs.AnalyseFunction(d)
		a.scope.Pop()
	}
}
