// Package funcanalyser implements phase 7, checkFunctionBodies: full
// statement and expression analysis of one function body, unified with
// the defer/goto/break/continue control-flow analysis described in the
// component design. FileAnalyser creates one Analyser per file and reuses
// it for every function body, as well as for enum-constant values (phase
// 3) and global initialisers (phase 5); AnalyseFunction resets the
// per-body state (defer stack, label table, defer depth) at the start of
// each body.
package funcanalyser

import (
	"github.com/emberlang/emberc/internal/ast"
	"github.com/emberlang/emberc/internal/diag"
	"github.com/emberlang/emberc/internal/exprtype"
	"github.com/emberlang/emberc/internal/scope"
	"github.com/emberlang/emberc/internal/types"
	"github.com/emberlang/emberc/internal/typeresolver"
)

// Bounds from the Concurrency & Resource Model: both cap recursion with a
// diagnostic instead of a stack overflow.
const (
	maxStructIndirectionDepth = 256
	maxDefers                 = 256
)

// Side distinguishes whether an expression is being analysed as an
// lvalue (assignment target) or an ordinary value.
type Side int

const (
	SideRHS Side = iota
	SideLHS
)

// Analyser checks one function body.
type Analyser struct {
	scope *scope.Scope
	types *typeresolver.Resolver
	exprs *exprtype.Analyser
	sink  diag.Sink
	file  *ast.File

	fn   *ast.Decl
	walk *deferWalk

	labels       map[string]*ast.LabelStmt
	pendingGotos []*ast.GotoStmt

	deferDepth    int
	structDepth   int
	inDefer       bool
	directContext bool // true while analysing a statement directly inside a compound's own list

	constants map[*ast.Decl]int64 // enum constants' assigned values, recorded by CheckEnumValue
}

func New(s *scope.Scope, tr *typeresolver.Resolver, sink diag.Sink, file *ast.File) *Analyser {
	return &Analyser{
		scope:     s,
		types:     tr,
		exprs:     exprtype.New(sink),
		sink:      sink,
		file:      file,
		constants: make(map[*ast.Decl]int64),
	}
}

// AnalyseFunction checks fn's body. Callers must have already pushed fn's
// parameters into the current scope frame (checkFunctionBodies' job).
func (a *Analyser) AnalyseFunction(fn *ast.Decl) {
	a.fn = fn
	a.walk = newDeferWalk()
	a.labels = make(map[string]*ast.LabelStmt)
	a.pendingGotos = nil
	a.deferDepth = 0
	a.structDepth = 0
	a.inDefer = false
	a.directContext = false

	if fn.Body == nil {
		return
	}
	a.analyseCompound(fn.Body)

	for _, g := range a.pendingGotos {
		if _, ok := a.labels[g.Label]; !ok {
			a.sink.Report(g.Pos(), diag.ErrUnresolvedGoto, "goto %q does not resolve to a label in this function", g.Label)
		}
	}

	for g, res := range a.walk.resolveGotos() {
		if _, ok := a.labels[g.Label]; !ok {
			continue
		}
		g.DeferList = res.toRun
		g.Protected = res.protected
		if res.protected {
			a.sink.Report(g.Pos(), diag.ErrJumpIntoProtectedScope,
				"goto %q jumps into a scope with defers not active at the jump site", g.Label)
		}
	}
}

// CheckInitializer typechecks a standalone expression outside of any
// function body — a global variable's initialiser or a file-scope array
// value. It shares the same expression rules as body analysis but never
// touches defer/control-flow state, since none applies at file scope.
func (a *Analyser) CheckInitializer(expr ast.Expr) *types.QualifiedType {
	return a.analyseExpr(expr, SideRHS)
}

func (a *Analyser) analyseStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.CompoundStmt:
		a.analyseCompound(st)
	case *ast.DeclStmt:
		a.analyseDeclStmt(st)
	case *ast.ExprStmt:
		a.analyseExpr(st.Expr, SideRHS)
	case *ast.IfStmt:
		a.analyseIf(st)
	case *ast.WhileStmt:
		a.analyseWhile(st)
	case *ast.DoStmt:
		a.analyseDo(st)
	case *ast.ForStmt:
		a.analyseFor(st)
	case *ast.SwitchStmt:
		a.analyseSwitch(st)
	case *ast.BreakStmt:
		a.analyseBreak(st)
	case *ast.ContinueStmt:
		a.analyseContinue(st)
	case *ast.LabelStmt:
		a.analyseLabel(st)
	case *ast.GotoStmt:
		a.analyseGoto(st)
	case *ast.ReturnStmt:
		a.analyseReturn(st)
	case *ast.DeferStmt:
		a.analyseDefer(st)
	case *ast.AsmStmt:
		// No semantics beyond existing; operands are raw text in this form.
	}
}

// analyseBodyStmt analyses s as a single-statement body (the non-brace
// arm of if/while/for/do, or a label's target), where "directly inside a
// block" is false unless s happens to be a CompoundStmt of its own.
func (a *Analyser) analyseBodyStmt(s ast.Stmt) {
	prev := a.directContext
	a.directContext = false
	a.analyseStmt(s)
	a.directContext = prev
}

func (a *Analyser) analyseCompound(st *ast.CompoundStmt) {
	a.scope.Push(scope.KindBlock)
	startLen := len(a.walk.stack)

	for _, s := range st.Stmts {
		prev := a.directContext
		a.directContext = true
		a.analyseStmt(s)
		a.directContext = prev
	}

	for len(a.walk.stack) > startLen {
		a.walk.popDefer()
		a.deferDepth--
	}
	a.scope.Pop()
}

func (a *Analyser) analyseDeclStmt(st *ast.DeclStmt) {
	d := st.Decl
	if d.VarType != nil {
		if te, ok := d.VarType.(*ast.TypeNameExpr); ok {
			d.Type = a.types.CheckType(te, false)
			a.types.ResolveCanonical(d.Type, d.Pos())
			d.IsConst = d.Type.IsConst()
		}
	}
	if d.Init != nil {
		gotType := a.analyseExpr(d.Init, SideRHS)
		if d.Type != nil {
			a.exprs.CheckAssignable(d.Init.Pos(), d.Type, gotType)
		}
	} else if d.IsConst {
		a.sink.Report(d.Pos(), diag.ErrUninitializedConstVar, "const variable %q has no initialiser", d.Name)
	}
	if !a.scope.Declare(d.Name, d) {
		a.sink.Report(d.Pos(), diag.ErrDuplicateSymbol, "%q is already declared in this scope", d.Name)
	}
}

func (a *Analyser) analyseIf(st *ast.IfStmt) {
	cond := a.analyseExpr(st.Cond, SideRHS)
	if !exprtype.IsBooleanConvertible(cond) {
		a.sink.Report(st.Cond.Pos(), diag.ErrIncompatibleTypes, "if condition must be boolean-convertible, got %s", cond)
	}
	a.analyseBodyStmt(st.Then)
	if st.Else != nil {
		a.analyseBodyStmt(st.Else)
	}
}

func (a *Analyser) analyseWhile(st *ast.WhileStmt) {
	cond := a.analyseExpr(st.Cond, SideRHS)
	if !exprtype.IsBooleanConvertible(cond) {
		a.sink.Report(st.Cond.Pos(), diag.ErrIncompatibleTypes, "while condition must be boolean-convertible, got %s", cond)
	}
	a.scope.Push(scope.KindLoop)
	a.walk.pushLoop()
	a.analyseBodyStmt(st.Body)
	a.walk.popAnchor()
	a.scope.Pop()
}

func (a *Analyser) analyseDo(st *ast.DoStmt) {
	a.scope.Push(scope.KindLoop)
	a.walk.pushLoop()
	a.analyseBodyStmt(st.Body)
	a.walk.popAnchor()
	a.scope.Pop()

	cond := a.analyseExpr(st.Cond, SideRHS)
	if !exprtype.IsBooleanConvertible(cond) {
		a.sink.Report(st.Cond.Pos(), diag.ErrIncompatibleTypes, "do-while condition must be boolean-convertible, got %s", cond)
	}
}

func (a *Analyser) analyseFor(st *ast.ForStmt) {
	a.scope.Push(scope.KindLoop)
	if st.Init != nil {
		prev := a.directContext
		a.directContext = false
		a.analyseStmt(st.Init)
		a.directContext = prev
	}
	if st.Cond != nil {
		cond := a.analyseExpr(st.Cond, SideRHS)
		if !exprtype.IsBooleanConvertible(cond) {
			a.sink.Report(st.Cond.Pos(), diag.ErrIncompatibleTypes, "for condition must be boolean-convertible, got %s", cond)
		}
	}
	a.walk.pushLoop()
	a.analyseBodyStmt(st.Body)
	a.walk.popAnchor()
	if st.Post != nil {
		prev := a.directContext
		a.directContext = false
		a.analyseStmt(st.Post)
		a.directContext = prev
	}
	a.scope.Pop()
}

func (a *Analyser) analyseSwitch(st *ast.SwitchStmt) {
	tagType := a.analyseExpr(st.Tag, SideRHS)
	enumDecl := a.scrutineeEnum(tagType)

	a.scope.Push(scope.KindSwitch)
	a.walk.pushSwitch()

	seenDefault := false
	coveredConsts := make(map[*ast.Decl]bool)
	for _, c := range st.Cases {
		if len(c.Values) == 0 {
			if seenDefault {
				a.sink.Report(c.Span.Start, diag.ErrDuplicateSymbol, "switch has more than one default case")
			}
			seenDefault = true
		}
		for _, v := range c.Values {
			vt := a.analyseExpr(v, SideRHS)
			a.exprs.CheckAssignable(v.Pos(), tagType, vt)
			if !exprtype.IsConstantFoldable(v, a.isConstIdent) {
				a.sink.Report(v.Pos(), diag.ErrNonConstantCase, "case value must be a constant expression")
			}
			if enumDecl != nil {
				if ident, ok := v.(*ast.IdentExpr); ok && ident.Resolved != nil && ident.Resolved.Kind == ast.DeclEnumConst {
					coveredConsts[ident.Resolved] = true
				}
			}
		}

		startLen := len(a.walk.stack)
		for _, s := range c.Stmts {
			prev := a.directContext
			a.directContext = true
			a.analyseStmt(s)
			a.directContext = prev
		}
		for len(a.walk.stack) > startLen {
			a.walk.popDefer()
			a.deferDepth--
		}
	}

	if enumDecl != nil && !seenDefault {
		for _, ec := range enumDecl.EnumConsts {
			if !coveredConsts[ec] {
				a.sink.Report(st.Pos(), diag.WarnNonExhaustiveSwitch,
					"switch over enum %q does not cover constant %q", enumDecl.Name, ec.Name)
			}
		}
	}

	a.walk.popAnchor()
	a.scope.Pop()
}

// scrutineeEnum reports the enum declaration tagType names, if it is an
// enum at all — switch's exhaustiveness check only applies to enum
// scrutinees, per the Statement analysis rules for Switch.
func (a *Analyser) scrutineeEnum(tagType *types.QualifiedType) *ast.Decl {
	n, ok := tagType.Type.(*types.Named)
	if !ok || n.Ref != types.RefEnum {
		return nil
	}
	d, ok := a.file.DeclByHandle(n.Handle)
	if !ok {
		return nil
	}
	return d
}

func (a *Analyser) analyseBreak(st *ast.BreakStmt) {
	if !a.scope.EnclosingLoopOrSwitch() {
		a.sink.Report(st.Pos(), diag.ErrBreakOutsideLoop, "break outside a loop or switch")
		return
	}
	if a.inDefer {
		a.sink.Report(st.Pos(), diag.ErrEscapingDeferTransfer, "break inside a defer body would escape it")
		return
	}
	if defers, ok := a.walk.onBreak(); ok {
		st.DeferList = defers
	}
}

func (a *Analyser) analyseContinue(st *ast.ContinueStmt) {
	if !a.scope.EnclosingLoop() {
		a.sink.Report(st.Pos(), diag.ErrContinueOutsideLoop, "continue outside a loop")
		return
	}
	if a.inDefer {
		a.sink.Report(st.Pos(), diag.ErrEscapingDeferTransfer, "continue inside a defer body would escape it")
		return
	}
	if defers, ok := a.walk.onContinue(); ok {
		st.DeferList = defers
	}
}

func (a *Analyser) analyseLabel(st *ast.LabelStmt) {
	if _, exists := a.labels[st.Name]; exists {
		a.sink.Report(st.Pos(), diag.ErrDuplicateLabel, "label %q already declared in this function", st.Name)
	} else {
		a.labels[st.Name] = st
		a.walk.recordLabel(st.Name)
	}
	a.analyseBodyStmt(st.Stmt)
}

func (a *Analyser) analyseGoto(st *ast.GotoStmt) {
	if a.inDefer {
		a.sink.Report(st.Pos(), diag.ErrEscapingDeferTransfer, "goto inside a defer body would escape it")
		return
	}
	a.walk.recordGoto(st)
	a.pendingGotos = append(a.pendingGotos, st)
}

func (a *Analyser) analyseReturn(st *ast.ReturnStmt) {
	if a.inDefer {
		a.sink.Report(st.Pos(), diag.ErrEscapingDeferTransfer, "return inside a defer body would escape it")
		return
	}

	// Reuse the signature's own canonicalised return type from phase 6
	// (checkFunctionProtos) rather than re-deriving a fresh, uncanonicalised
	// one from the raw AST node; SameCanonical/CheckAssignable both need
	// Canonical() already populated on both sides of the comparison.
	wantQT := &types.QualifiedType{Type: types.NewBuiltin(types.Void)}
	if a.fn.Type != nil {
		if fnType, ok := a.fn.Type.Type.(*types.Function); ok {
			wantQT = fnType.Return
		}
	}

	if st.Value != nil {
		got := a.analyseExpr(st.Value, SideRHS)
		a.exprs.CheckAssignable(st.Value.Pos(), wantQT, got)
	} else if wantQT.Type.Kind() != types.KindInvalid {
		if b, ok := wantQT.Type.(*types.Builtin); !ok || b.BuiltinKind != types.Void {
			a.sink.Report(st.Pos(), diag.ErrIncompatibleTypes, "missing return value in function returning %s", wantQT)
		}
	}

	st.DeferList = a.walk.onReturn()
}

func (a *Analyser) analyseDefer(st *ast.DeferStmt) {
	if !a.directContext {
		a.sink.Report(st.Pos(), diag.ErrDeferOutsideCompound, "defer must appear directly inside a block")
		return
	}
	if a.inDefer {
		a.sink.Report(st.Pos(), diag.ErrNestedDefer, "defer may not appear inside a defer body")
		return
	}
	if a.deferDepth >= maxDefers {
		a.sink.Report(st.Pos(), diag.ErrTooManyDefers, "function exceeds the maximum of %d active defers", maxDefers)
		return
	}

	a.walk.pushDefer(st)
	a.deferDepth++

	prevInDefer := a.inDefer
	a.inDefer = true
	if call, ok := st.Call.(*ast.CallExpr); ok {
		a.analyseExpr(call, SideRHS)
	} else {
		a.sink.Report(st.Call.Pos(), diag.ErrNotCallable, "defer requires a call expression")
	}
	a.inDefer = prevInDefer
}
