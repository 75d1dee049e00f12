// Package typeresolver implements phases 2 and 3 of file analysis: turning
// the type expressions the parser produced into checked types, and then
// following alias chains to a canonical, alias-free form with cycle
// detection.
//
// Canonical forms are memoised on the Type itself (see internal/types) so
// a second call against the same node is O(1); cycle detection uses a
// "visiting" mark per alias declaration, following the Design Notes'
// guidance to treat named-type references as table indices rather than
// owning pointers.
package typeresolver

import (
	"github.com/emberlang/emberc/internal/ast"
	"github.com/emberlang/emberc/internal/diag"
	"github.com/emberlang/emberc/internal/scope"
	"github.com/emberlang/emberc/internal/source"
	"github.com/emberlang/emberc/internal/types"
)

var builtinByName = map[string]types.BuiltinKind{
	"void": types.Void, "bool": types.Bool, "char": types.Char,
	"i8": types.I8, "u8": types.U8, "i16": types.I16, "u16": types.U16,
	"i32": types.I32, "u32": types.U32, "i64": types.I64, "u64": types.U64,
	"f32": types.F32, "f64": types.F64,
}

// Resolver checks and canonicalises type expressions for one file.
type Resolver struct {
	scope    *scope.Scope
	file     *ast.File
	sink     diag.Sink
	visiting map[types.Handle]bool
}

func New(s *scope.Scope, file *ast.File, sink diag.Sink) *Resolver {
	return &Resolver{scope: s, file: file, sink: sink, visiting: make(map[types.Handle]bool)}
}

// CheckType validates the structure of a type expression and builds the
// (unresolved-canonical) QualifiedType it denotes. enclosingPublic is
// true when the declaration this type belongs to is public, which
// triggers the public-depends-on-private check against any named
// reference found.
func (r *Resolver) CheckType(te *ast.TypeNameExpr, enclosingPublic bool) *types.QualifiedType {
	if te == nil {
		return &types.QualifiedType{Type: types.NewBuiltin(types.Void)}
	}

	base := r.checkBaseType(te, enclosingPublic)

	qt := &types.QualifiedType{Type: base, Quals: te.Quals}
	for i := 0; i < te.Pointer; i++ {
		qt = &types.QualifiedType{Type: &types.Pointer{Elem: qt}}
	}
	if te.ArrayLen != nil {
		qt = &types.QualifiedType{Type: &types.Array{Elem: qt, Size: te.ArrayLen}, Quals: te.Quals}
	}
	return qt
}

func (r *Resolver) checkBaseType(te *ast.TypeNameExpr, enclosingPublic bool) types.Type {
	if te.Package != "" {
		return r.checkQualifiedBaseType(te)
	}

	if k, ok := builtinByName[te.Name]; ok {
		return types.NewBuiltin(k)
	}

	decl, ok := r.file.DeclByHandle(te.Handle)
	if !ok {
		decl, ok = r.scope.Lookup(te.Name)
	}
	if !ok || decl == nil {
		r.sink.Report(te.Pos(), diag.ErrUnknownIdentifier, "unknown type %q", te.Name)
		return types.Invalid
	}

	var ref types.RefKind
	switch decl.Kind {
	case ast.DeclAliasType:
		ref = types.RefAlias
	case ast.DeclStructType:
		ref = types.RefStruct
	case ast.DeclEnumType:
		ref = types.RefEnum
	default:
		r.sink.Report(te.Pos(), diag.ErrIncompatibleTypes, "%q does not name a type", te.Name)
		return types.Invalid
	}

	if enclosingPublic && !decl.Public {
		r.sink.Report(te.Pos(), diag.ErrPublicDependsOnPrivate, "public type depends on private type %q", te.Name)
	}

	return &types.Named{Ref: ref, Handle: decl.Handle, Name: te.Name}
}

// checkQualifiedBaseType resolves `alias::Name` against the package bound
// to alias, per Scope's "resolve a package-qualified identifier by
// consulting that package only" rule (4.2.d). A Table never hands back a
// private declaration, so a miss here cannot distinguish "unknown" from
// "private" — both surface as ErrUnknownIdentifier, same as the teacher's
// own lookup does for an unresolved qualified name.
func (r *Resolver) checkQualifiedBaseType(te *ast.TypeNameExpr) types.Type {
	decl, ok := r.scope.LookupQualified(te.Package, te.Name)
	if !ok {
		r.sink.Report(te.Pos(), diag.ErrUnknownIdentifier, "unknown type %q::%q", te.Package, te.Name)
		return types.Invalid
	}

	switch decl.Kind {
	case ast.DeclAliasType, ast.DeclStructType, ast.DeclEnumType:
	default:
		r.sink.Report(te.Pos(), diag.ErrIncompatibleTypes, "%q::%q does not name a type", te.Package, te.Name)
		return types.Invalid
	}

	// decl belongs to the owning package's own file, which has already run
	// its own phase 3 (sibling files are analysed before this one's
	// externals are consumed) — reuse its already-canonicalised Type
	// rather than building a fresh Named that would re-walk a chain this
	// file has no Handle space to follow.
	if decl.Type != nil {
		return decl.Type.Type
	}
	return types.Invalid
}

// ResolveCanonical follows alias chains to compute qt's canonical form,
// memoising the result. It returns false (without memoising anything
// along the chain it is currently resolving) if a cycle is detected;
// callers should treat a false result as already diagnosed and skip
// dependent checks, per the analyser's error policy.
func (r *Resolver) ResolveCanonical(qt *types.QualifiedType, pos source.Position) (*types.QualifiedType, bool) {
	if qt == nil || qt.Type == nil {
		return nil, false
	}
	if c, ok := qt.Type.Canonical(); ok {
		return c, true
	}

	var canon *types.QualifiedType
	ok := true

	switch t := qt.Type.(type) {
	case *types.Builtin:
		canon = qt

	case *types.Pointer:
		elemCanon, elemOK := r.ResolveCanonical(t.Elem, pos)
		ok = elemOK
		if ok {
			canon = &types.QualifiedType{Type: &types.Pointer{Elem: elemCanon}, Quals: qt.Quals}
		}

	case *types.Array:
		elemCanon, elemOK := r.ResolveCanonical(t.Elem, pos)
		ok = elemOK
		if ok {
			canon = &types.QualifiedType{
				Type:  &types.Array{Elem: elemCanon, Length: t.Length, LengthKnown: t.LengthKnown, Size: t.Size},
				Quals: qt.Quals,
			}
		}

	case *types.Function:
		params := make([]*types.QualifiedType, len(t.Params))
		for i, p := range t.Params {
			pc, pOK := r.ResolveCanonical(p, pos)
			if !pOK {
				ok = false
				break
			}
			params[i] = pc
		}
		var retCanon *types.QualifiedType
		if ok {
			var retOK bool
			retCanon, retOK = r.ResolveCanonical(t.Return, pos)
			ok = ok && retOK
		}
		if ok {
			canon = &types.QualifiedType{
				Type:  &types.Function{Params: params, Variadic: t.Variadic, Return: retCanon},
				Quals: qt.Quals,
			}
		}

	case *types.Named:
		switch t.Ref {
		case types.RefStruct, types.RefEnum:
			// Nominal types are their own canonical form.
			canon = qt
		case types.RefAlias:
			canon, ok = r.resolveAliasCanonical(t, qt.Quals, pos)
		}

	default:
		canon = qt
	}

	if !ok {
		return nil, false
	}
	types.Memoize(qt.Type, canon)
	return canon, true
}

func (r *Resolver) resolveAliasCanonical(named *types.Named, quals types.Qualifiers, pos source.Position) (*types.QualifiedType, bool) {
	if r.visiting[named.Handle] {
		r.sink.Report(pos, diag.ErrAliasCycle, "alias cycle through %q", named.Name)
		return nil, false
	}

	decl, ok := r.file.DeclByHandle(named.Handle)
	if !ok || decl.Type == nil {
		return nil, false
	}

	r.visiting[named.Handle] = true
	defer delete(r.visiting, named.Handle)

	targetCanon, ok := r.ResolveCanonical(decl.Type, pos)
	if !ok {
		return nil, false
	}

	merged := targetCanon.Quals | quals
	return &types.QualifiedType{Type: targetCanon.Type, Quals: merged}, true
}
