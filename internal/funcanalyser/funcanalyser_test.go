package funcanalyser

import (
	"testing"

	"github.com/emberlang/emberc/internal/ast"
	"github.com/emberlang/emberc/internal/diag"
	"github.com/emberlang/emberc/internal/pkgsym"
	"github.com/emberlang/emberc/internal/scope"
	"github.com/emberlang/emberc/internal/typeresolver"
	"github.com/emberlang/emberc/internal/types"
)

func setup(funcs ...*ast.Decl) (*Analyser, *diag.Collector, *ast.File) {
	file := ast.NewFile("a.mb", 0, "main", nil, nil, nil, funcs, nil)
	sink := diag.NewCollector(true)
	s := scope.New(file, nil, nil)
	tr := typeresolver.New(s, file, sink)
	return New(s, tr, sink, file), sink, file
}

func callStmt(name string) *ast.DeferStmt {
	return &ast.DeferStmt{Call: &ast.CallExpr{Callee: &ast.IdentExpr{Name: name}}}
}

func intLit(v int64) *ast.LiteralExpr {
	return &ast.LiteralExpr{Kind: ast.LitInt, Int: v}
}

func i32Type() *ast.TypeNameExpr { return &ast.TypeNameExpr{Name: "i32"} }

// Scenario 4: { defer A; { defer B; return 0; } } attaches [B, A] to the
// return.
func TestDeferOrderOnReturn(t *testing.T) {
	funcA := &ast.Decl{Kind: ast.DeclFunction, Name: "A", Return: i32Type()}
	funcB := &ast.Decl{Kind: ast.DeclFunction, Name: "B", Return: i32Type()}

	deferA := callStmt("A")
	deferB := callStmt("B")
	ret := &ast.ReturnStmt{Value: intLit(0)}

	inner := &ast.CompoundStmt{Stmts: []ast.Stmt{deferB, ret}}
	outer := &ast.CompoundStmt{Stmts: []ast.Stmt{deferA, inner}}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Return: i32Type(), Body: outer}

	a, _, _ := setup(funcA, funcB, fn)
	a.AnalyseFunction(fn)

	if len(ret.DeferList) != 2 || ret.DeferList[0] != deferB || ret.DeferList[1] != deferA {
		t.Fatalf("return DeferList = %v, want [B, A]", ret.DeferList)
	}
}

// Scenario 5: for (...) { defer A; if (c) break; defer B; } attaches [A]
// to the break (B is not yet entered).
func TestBreakAcrossDefers(t *testing.T) {
	funcA := &ast.Decl{Kind: ast.DeclFunction, Name: "A", Return: i32Type()}
	funcB := &ast.Decl{Kind: ast.DeclFunction, Name: "B", Return: i32Type()}
	cond := &ast.Decl{Kind: ast.DeclVar, Name: "c", VarType: &ast.TypeNameExpr{Name: "bool"}, Type: builtinQT(types.Bool)}

	deferA := callStmt("A")
	deferB := callStmt("B")
	brk := &ast.BreakStmt{}
	ifStmt := &ast.IfStmt{Cond: &ast.IdentExpr{Name: "c"}, Then: brk}

	body := &ast.CompoundStmt{Stmts: []ast.Stmt{deferA, ifStmt, deferB}}
	forStmt := &ast.ForStmt{Body: body}
	fnBody := &ast.CompoundStmt{Stmts: []ast.Stmt{
		&ast.DeclStmt{Decl: cond},
		forStmt,
	}}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Return: nil, Body: fnBody}

	a, _, _ := setup(funcA, funcB, fn)
	a.AnalyseFunction(fn)

	if len(brk.DeferList) != 1 || brk.DeferList[0] != deferA {
		t.Fatalf("break DeferList = %v, want [A] (B not yet entered)", brk.DeferList)
	}
}

func TestUnresolvedGoto(t *testing.T) {
	gotoStmt := &ast.GotoStmt{Label: "nowhere"}
	body := &ast.CompoundStmt{Stmts: []ast.Stmt{gotoStmt}}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: body}

	a, sink, _ := setup(fn)
	a.AnalyseFunction(fn)

	if !hasDiag(sink, diag.ErrUnresolvedGoto) {
		t.Errorf("expected ErrUnresolvedGoto, got %v", sink.Diagnostics())
	}
}

func TestDuplicateLabel(t *testing.T) {
	body := &ast.CompoundStmt{Stmts: []ast.Stmt{
		&ast.LabelStmt{Name: "L", Stmt: &ast.ExprStmt{Expr: intLit(1)}},
		&ast.LabelStmt{Name: "L", Stmt: &ast.ExprStmt{Expr: intLit(2)}},
	}}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: body}

	a, sink, _ := setup(fn)
	a.AnalyseFunction(fn)

	if !hasDiag(sink, diag.ErrDuplicateLabel) {
		t.Errorf("expected ErrDuplicateLabel, got %v", sink.Diagnostics())
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	body := &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.BreakStmt{}}}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: body}

	a, sink, _ := setup(fn)
	a.AnalyseFunction(fn)

	if !hasDiag(sink, diag.ErrBreakOutsideLoop) {
		t.Errorf("expected ErrBreakOutsideLoop, got %v", sink.Diagnostics())
	}
}

// The grammar only allows a call expression as a defer's body, so a
// defer can never syntactically nest inside another defer's body; the
// rule still has to hold for the case where analyseDefer itself is
// re-entered while already inside one (a defer statement appearing in a
// compound that is, in turn, the single-statement "body" passed to
// another defer's call target is not constructible, so this exercises
// the guard directly rather than through AnalyseFunction).
func TestNestedDeferForbidden(t *testing.T) {
	funcA := &ast.Decl{Kind: ast.DeclFunction, Name: "A", Return: i32Type()}
	outer := callStmt("A")

	a, sink, _ := setup(funcA)
	a.walk = newDeferWalk()
	a.inDefer = true
	a.directContext = true
	a.analyseDefer(outer)

	if !hasDiag(sink, diag.ErrNestedDefer) {
		t.Errorf("expected ErrNestedDefer, got %v", sink.Diagnostics())
	}
}

func TestDeferOutsideCompound(t *testing.T) {
	d := callStmt("A")
	cond := &ast.Decl{Kind: ast.DeclVar, Name: "c", Type: builtinQT(types.Bool)}
	ifStmt := &ast.IfStmt{Cond: &ast.IdentExpr{Name: "c"}, Then: d}
	body := &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.DeclStmt{Decl: cond}, ifStmt}}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: body}

	a, sink, _ := setup(fn)
	a.AnalyseFunction(fn)

	if !hasDiag(sink, diag.ErrDeferOutsideCompound) {
		t.Errorf("expected ErrDeferOutsideCompound, got %v", sink.Diagnostics())
	}
}

func TestTooManyDefers(t *testing.T) {
	funcA := &ast.Decl{Kind: ast.DeclFunction, Name: "A", Return: i32Type()}
	stmts := make([]ast.Stmt, 0, maxDefers+1)
	for i := 0; i < maxDefers+1; i++ {
		stmts = append(stmts, callStmt("A"))
	}
	body := &ast.CompoundStmt{Stmts: stmts}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: body}

	a, sink, _ := setup(funcA, fn)
	a.AnalyseFunction(fn)

	if !hasDiag(sink, diag.ErrTooManyDefers) {
		t.Errorf("expected ErrTooManyDefers after %d defers, got %v", maxDefers+1, sink.Diagnostics())
	}
}

func TestCheckEnumValue_OverflowAndUniqueness(t *testing.T) {
	enum := &ast.Decl{Kind: ast.DeclEnumType, Name: "Color", Underlying: &ast.TypeNameExpr{Name: "i8"}}
	tooLarge := &ast.Decl{Kind: ast.DeclEnumConst, Name: "TooLarge", Value: intLit(1000)}
	dup1 := &ast.Decl{Kind: ast.DeclEnumConst, Name: "Dup1", Value: intLit(1)}
	dup2 := &ast.Decl{Kind: ast.DeclEnumConst, Name: "Dup2", Value: intLit(1)}

	a, sink, _ := setup()
	seen := map[int64]bool{}
	a.CheckEnumValue(enum, tooLarge, 0, seen)
	a.CheckEnumValue(enum, dup1, 0, seen)
	a.CheckEnumValue(enum, dup2, 0, seen)

	if !hasDiag(sink, diag.ErrEnumValueOverflow) {
		t.Errorf("expected ErrEnumValueOverflow, got %v", sink.Diagnostics())
	}
	if !hasDiag(sink, diag.ErrDuplicateSymbol) {
		t.Errorf("expected ErrDuplicateSymbol for the repeated value, got %v", sink.Diagnostics())
	}
}

func TestCheckEnumValue_SequentialWhenUnspecified(t *testing.T) {
	enum := &ast.Decl{Kind: ast.DeclEnumType, Name: "Color", Underlying: &ast.TypeNameExpr{Name: "i32"}}
	red := &ast.Decl{Kind: ast.DeclEnumConst, Name: "Red"}
	green := &ast.Decl{Kind: ast.DeclEnumConst, Name: "Green"}

	a, _, _ := setup()
	seen := map[int64]bool{}
	next := a.CheckEnumValue(enum, red, 0, seen)
	next = a.CheckEnumValue(enum, green, next, seen)

	if red.IntValue != 0 || green.IntValue != 1 {
		t.Errorf("Red=%d Green=%d, want 0 and 1", red.IntValue, green.IntValue)
	}
	if next != 2 {
		t.Errorf("next = %d, want 2", next)
	}
}

func TestSwitch_NonConstantCaseRejected(t *testing.T) {
	x := &ast.Decl{Kind: ast.DeclVar, Name: "x", VarType: i32Type(), Type: builtinQT(types.I32)}
	sw := &ast.SwitchStmt{
		Tag: &ast.IdentExpr{Name: "x"},
		Cases: []*ast.CaseClause{
			{Values: []ast.Expr{&ast.IdentExpr{Name: "x"}}},
		},
	}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: &ast.CompoundStmt{Stmts: []ast.Stmt{
		&ast.DeclStmt{Decl: x}, sw,
	}}}

	a, sink, _ := setup(fn)
	a.AnalyseFunction(fn)

	if !hasDiag(sink, diag.ErrNonConstantCase) {
		t.Errorf("expected ErrNonConstantCase for a non-constant case value, got %v", sink.Diagnostics())
	}
}

func TestSwitch_EnumExhaustiveness(t *testing.T) {
	enum := &ast.Decl{Kind: ast.DeclEnumType, Name: "Color", Handle: 0}
	red := &ast.Decl{Kind: ast.DeclEnumConst, Name: "Red", EnumOwner: 0}
	green := &ast.Decl{Kind: ast.DeclEnumConst, Name: "Green", EnumOwner: 0}
	enum.EnumConsts = []*ast.Decl{red, green}
	enum.Type = &types.QualifiedType{Type: &types.Named{Ref: types.RefEnum, Handle: 0, Name: "Color"}}

	tagDecl := &ast.Decl{Kind: ast.DeclVar, Name: "c", Type: enum.Type}
	sw := &ast.SwitchStmt{
		Tag: &ast.IdentExpr{Name: "c", Resolved: tagDecl},
		Cases: []*ast.CaseClause{
			{Values: []ast.Expr{&ast.IdentExpr{Name: "Red", Resolved: red}}},
		},
	}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: &ast.CompoundStmt{Stmts: []ast.Stmt{sw}}}

	file := ast.NewFile("a.mb", 0, "main", nil, []*ast.Decl{enum}, nil, []*ast.Decl{fn}, nil)
	sink := diag.NewCollector(true)
	s := scope.New(file, nil, nil)
	tr := typeresolver.New(s, file, sink)
	a := New(s, tr, sink, file)
	s.Push(scope.KindFunction)
	s.Declare("c", tagDecl)

	a.AnalyseFunction(fn)
	s.Pop()

	if !hasDiag(sink, diag.WarnNonExhaustiveSwitch) {
		t.Errorf("expected WarnNonExhaustiveSwitch for uncovered Green, got %v", sink.Diagnostics())
	}
}

func TestSwitch_EnumExhaustiveness_DefaultSuppresses(t *testing.T) {
	enum := &ast.Decl{Kind: ast.DeclEnumType, Name: "Color", Handle: 0}
	red := &ast.Decl{Kind: ast.DeclEnumConst, Name: "Red", EnumOwner: 0}
	green := &ast.Decl{Kind: ast.DeclEnumConst, Name: "Green", EnumOwner: 0}
	enum.EnumConsts = []*ast.Decl{red, green}
	enum.Type = &types.QualifiedType{Type: &types.Named{Ref: types.RefEnum, Handle: 0, Name: "Color"}}

	tagDecl := &ast.Decl{Kind: ast.DeclVar, Name: "c", Type: enum.Type}
	sw := &ast.SwitchStmt{
		Tag: &ast.IdentExpr{Name: "c", Resolved: tagDecl},
		Cases: []*ast.CaseClause{
			{Values: []ast.Expr{&ast.IdentExpr{Name: "Red", Resolved: red}}},
			{Values: nil},
		},
	}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: &ast.CompoundStmt{Stmts: []ast.Stmt{sw}}}

	file := ast.NewFile("a.mb", 0, "main", nil, []*ast.Decl{enum}, nil, []*ast.Decl{fn}, nil)
	sink := diag.NewCollector(true)
	s := scope.New(file, nil, nil)
	tr := typeresolver.New(s, file, sink)
	a := New(s, tr, sink, file)
	s.Push(scope.KindFunction)
	s.Declare("c", tagDecl)

	a.AnalyseFunction(fn)
	s.Pop()

	if hasDiag(sink, diag.WarnNonExhaustiveSwitch) {
		t.Errorf("did not expect WarnNonExhaustiveSwitch when a default arm is present, got %v", sink.Diagnostics())
	}
}

func TestAnalyseQualifiedIdent_ResolvesThroughBoundAlias(t *testing.T) {
	originDecl := &ast.Decl{Kind: ast.DeclVar, Name: "Origin", Public: true, Type: builtinQT(types.I32)}
	geom := pkgsym.NewMapTable("geometry")
	geom.Add(originDecl)

	file := ast.NewFile("a.mb", 0, "main", nil, nil, nil, nil, nil)
	sink := diag.NewCollector(true)
	s := scope.New(file, nil, pkgsym.Pkgs{"geometry": geom})
	s.BindUse("geo", &ast.Decl{Kind: ast.DeclPackageUse, ImportPath: "geometry", Alias: "geo"})
	tr := typeresolver.New(s, file, sink)
	a := New(s, tr, sink, file)

	ex := &ast.QualifiedIdentExpr{Package: "geo", Name: "Origin"}
	qt := a.analyseExpr(ex, SideRHS)

	if qt.Type.Kind() != types.KindBuiltin {
		t.Fatalf("analyseExpr(geo::Origin) = %v, want i32", qt)
	}
	if ex.Resolved != originDecl {
		t.Errorf("QualifiedIdentExpr.Resolved = %v, want originDecl", ex.Resolved)
	}
	if sink.ErrorCount() != 0 {
		t.Errorf("unexpected diagnostics: %v", sink.Diagnostics())
	}
}

func TestAnalyseQualifiedIdent_UnknownMemberIsAnError(t *testing.T) {
	geom := pkgsym.NewMapTable("geometry")
	file := ast.NewFile("a.mb", 0, "main", nil, nil, nil, nil, nil)
	sink := diag.NewCollector(true)
	s := scope.New(file, nil, pkgsym.Pkgs{"geometry": geom})
	s.BindUse("geo", &ast.Decl{Kind: ast.DeclPackageUse, ImportPath: "geometry", Alias: "geo"})
	tr := typeresolver.New(s, file, sink)
	a := New(s, tr, sink, file)

	a.analyseExpr(&ast.QualifiedIdentExpr{Package: "geo", Name: "Bogus"}, SideRHS)

	if !hasDiag(sink, diag.ErrUnknownIdentifier) {
		t.Errorf("expected ErrUnknownIdentifier, got %v", sink.Diagnostics())
	}
}

func TestAnalyseMember_StaticStructFunctionDispatch(t *testing.T) {
	point := &ast.Decl{Kind: ast.DeclStructType, Name: "Point"}
	origin := &ast.Decl{
		Kind:        ast.DeclFunction,
		Name:        "origin",
		StructOwner: "Point",
		Return:      i32Type(),
		Type:        &types.QualifiedType{Type: &types.Function{Return: builtinQT(types.I32)}},
	}

	call := &ast.CallExpr{Callee: &ast.MemberExpr{Base: &ast.IdentExpr{Name: "Point"}, Name: "origin"}}
	ret := &ast.ReturnStmt{Value: call}
	fn := &ast.Decl{Kind: ast.DeclFunction, Name: "f", Body: &ast.CompoundStmt{Stmts: []ast.Stmt{ret}}}

	file := ast.NewFile("a.mb", 0, "main", nil, []*ast.Decl{point}, nil, []*ast.Decl{origin, fn}, nil)
	sink := diag.NewCollector(true)
	s := scope.New(file, nil, nil)
	tr := typeresolver.New(s, file, sink)
	a := New(s, tr, sink, file)

	qt := a.analyseExpr(call, SideRHS)

	if !origin.Used {
		t.Error("expected the static struct function to be marked used")
	}
	if qt == nil || qt.Type.Kind() != types.KindBuiltin {
		t.Errorf("analyseExpr(Point.origin()) = %v, want i32", qt)
	}
	if sink.ErrorCount() != 0 {
		t.Errorf("unexpected diagnostics: %v", sink.Diagnostics())
	}
}

func TestAnalyseMember_StaticStructFunctionRejectsUnknownName(t *testing.T) {
	point := &ast.Decl{Kind: ast.DeclStructType, Name: "Point"}
	call := &ast.MemberExpr{Base: &ast.IdentExpr{Name: "Point"}, Name: "bogus"}

	file := ast.NewFile("a.mb", 0, "main", nil, []*ast.Decl{point}, nil, nil, nil)
	sink := diag.NewCollector(true)
	s := scope.New(file, nil, nil)
	tr := typeresolver.New(s, file, sink)
	a := New(s, tr, sink, file)

	a.analyseExpr(call, SideRHS)

	if !hasDiag(sink, diag.ErrNotAStruct) {
		t.Errorf("expected ErrNotAStruct for a type with no matching static function, got %v", sink.Diagnostics())
	}
}

func TestAnalyseMember_InstanceFallsBackToStructFunction(t *testing.T) {
	point := &ast.Decl{Kind: ast.DeclStructType, Name: "Point"}
	point.Type = &types.QualifiedType{Type: &types.Named{Ref: types.RefStruct, Handle: point.Handle, Name: "Point"}}

	scale := &ast.Decl{
		Kind:        ast.DeclFunction,
		Name:        "scale",
		StructOwner: "Point",
		Return:      i32Type(),
		Type:        &types.QualifiedType{Type: &types.Function{Return: builtinQT(types.I32)}},
	}

	p := &ast.Decl{Kind: ast.DeclVar, Name: "p", Type: point.Type}
	call := &ast.CallExpr{Callee: &ast.MemberExpr{Base: &ast.IdentExpr{Name: "p", Resolved: p}, Name: "scale"}}

	file := ast.NewFile("a.mb", 0, "main", nil, []*ast.Decl{point}, []*ast.Decl{p}, []*ast.Decl{scale}, nil)
	sink := diag.NewCollector(true)
	s := scope.New(file, nil, nil)
	tr := typeresolver.New(s, file, sink)
	a := New(s, tr, sink, file)

	qt := a.analyseExpr(call, SideRHS)

	if !scale.Used {
		t.Error("expected the struct function reached through an instance to be marked used")
	}
	if qt == nil || qt.Type.Kind() != types.KindBuiltin {
		t.Errorf("analyseExpr(p.scale()) = %v, want i32", qt)
	}
	if sink.ErrorCount() != 0 {
		t.Errorf("unexpected diagnostics: %v", sink.Diagnostics())
	}
}

func hasDiag(sink *diag.Collector, id diag.ID) bool {
	for _, d := range sink.Diagnostics() {
		if d.ID == id {
			return true
		}
	}
	return false
}
