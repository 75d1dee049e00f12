package ast

import "github.com/emberlang/emberc/internal/source"

// Stmt is the tagged variant every statement kind implements. Phases switch
// on the concrete type, not on an Accept call — see the package doc.
type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct{ Span source.Span }

func (s stmtBase) Pos() source.Position { return s.Span.Start }
func (s stmtBase) End() source.Position { return s.Span.End }
func (stmtBase) stmtNode()              {}

// CompoundStmt is a `{ ... }` block. It is its own scope — FunctionAnalyser
// pushes a Scope frame on entry and pops it on exit.
type CompoundStmt struct {
	stmtBase
	Stmts []Stmt
}

// DeclStmt wraps a local variable declaration appearing inside a body.
type DeclStmt struct {
	stmtBase
	Decl *Decl
}

// ExprStmt is an expression evaluated for its side effect.
type ExprStmt struct {
	stmtBase
	Expr Expr
}

// IfStmt is `if (Cond) Then [else Else]`. Else is nil when absent.
type IfStmt struct {
	stmtBase
	Cond Expr
	Then Stmt
	Else Stmt
}

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	stmtBase
	Cond Expr
	Body Stmt
}

// DoStmt is `do Body while (Cond);`.
type DoStmt struct {
	stmtBase
	Body Stmt
	Cond Expr
}

// ForStmt is `for (Init; Cond; Post) Body`. Any of Init, Cond, Post may be
// nil.
type ForStmt struct {
	stmtBase
	Init Stmt
	Cond Expr
	Post Stmt
	Body Stmt
}

// SwitchStmt is `switch (Tag) { Cases }`.
type SwitchStmt struct {
	stmtBase
	Tag   Expr
	Cases []*CaseClause
}

// CaseClause is one `case Value:` or `default:` arm of a SwitchStmt.
// Values is empty for the default arm.
type CaseClause struct {
	Span    source.Span
	Values  []Expr
	Stmts   []Stmt
}

// BreakStmt is `break;`, optionally naming a label to break out of a
// specific enclosing loop or switch. DeferList is filled in by the defer
// walk: the defers to run before transferring, innermost first.
type BreakStmt struct {
	stmtBase
	Label     string
	DeferList []*DeferStmt
}

// ContinueStmt is `continue;`, optionally naming a label.
type ContinueStmt struct {
	stmtBase
	Label     string
	DeferList []*DeferStmt
}

// LabelStmt is `name: Stmt`.
type LabelStmt struct {
	stmtBase
	Name string
	Stmt Stmt
}

// GotoStmt is `goto name;`. DeferList and Protected are filled in by the
// defer walk's goto analysis.
type GotoStmt struct {
	stmtBase
	Label     string
	DeferList []*DeferStmt
	Protected bool
}

// ReturnStmt is `return [Value];`. Value is nil for a void return.
type ReturnStmt struct {
	stmtBase
	Value     Expr
	DeferList []*DeferStmt
}

// DeferStmt is `defer Call;`. The grammar restricts Call to a call
// expression; FunctionAnalyser's defer walk treats the whole statement as
// one unit regardless of what Call evaluates.
type DeferStmt struct {
	stmtBase
	Call Expr
}

// AsmStmt is a raw inline-assembly block. The analyser neither
// typechecks its contents nor reports anything about it.
type AsmStmt struct {
	stmtBase
	Body string
}
