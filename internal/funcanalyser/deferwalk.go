package funcanalyser

import "github.com/emberlang/emberc/internal/ast"

// anchorKind distinguishes what a control-transfer anchor stops break or
// continue from searching past.
type anchorKind int

const (
	anchorLoop anchorKind = iota
	anchorSwitch
)

// frame is one entry on the analyser's live defer/anchor stack. The stack
// mirrors the event stream the Design Notes call for (enter-scope,
// enter-defer, exit-defer, exit-scope, transfer) but is kept as a literal
// slice that grows and shrinks with the recursive walk, rather than a
// replayed log — a return statement's active defers are exactly the
// defer-kind entries on the stack at the moment it is visited.
type frame struct {
	isDefer bool
	defer_  *ast.DeferStmt
	anchor  anchorKind
}

// deferWalk accumulates the live stack during one function body's
// analysis and answers the four transfer-to-defer-list questions.
type deferWalk struct {
	stack []frame

	// labelSnapshots and gotoSnapshots record, for every label and goto
	// encountered, the slice of active DeferStmts at that point (a copy,
	// since stack is mutated after the fact). Resolved after the full
	// body has been walked, by resolveGotos.
	labelSnapshots map[string][]*ast.DeferStmt
	gotos          []gotoSite
}

type gotoSite struct {
	stmt     *ast.GotoStmt
	snapshot []*ast.DeferStmt
}

func newDeferWalk() *deferWalk {
	return &deferWalk{labelSnapshots: make(map[string][]*ast.DeferStmt)}
}

func (w *deferWalk) pushLoop()         { w.stack = append(w.stack, frame{anchor: anchorLoop}) }
func (w *deferWalk) pushSwitch()       { w.stack = append(w.stack, frame{anchor: anchorSwitch}) }
func (w *deferWalk) popAnchor()        { w.stack = w.stack[:len(w.stack)-1] }
func (w *deferWalk) pushDefer(d *ast.DeferStmt) {
	w.stack = append(w.stack, frame{isDefer: true, defer_: d})
}
func (w *deferWalk) popDefer() { w.stack = w.stack[:len(w.stack)-1] }

func (w *deferWalk) activeDefers() []*ast.DeferStmt {
	var out []*ast.DeferStmt
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].isDefer {
			out = append(out, w.stack[i].defer_)
		}
	}
	return out
}

func (w *deferWalk) snapshot() []*ast.DeferStmt {
	out := make([]*ast.DeferStmt, 0, len(w.stack))
	for _, f := range w.stack {
		if f.isDefer {
			out = append(out, f.defer_)
		}
	}
	return out
}

// onReturn returns every currently active defer, innermost first.
func (w *deferWalk) onReturn() []*ast.DeferStmt {
	return w.activeDefers()
}

// onBreak returns the defers entered since the nearest loop-or-switch
// anchor, innermost first. ok is false if there is no enclosing anchor.
func (w *deferWalk) onBreak() ([]*ast.DeferStmt, bool) {
	return w.sinceNearestAnchor(anchorLoop, anchorSwitch)
}

// onContinue returns the defers entered since the nearest loop anchor
// (switch does not stop continue — continue only ever targets a loop).
func (w *deferWalk) onContinue() ([]*ast.DeferStmt, bool) {
	return w.sinceNearestAnchor(anchorLoop)
}

func (w *deferWalk) sinceNearestAnchor(kinds ...anchorKind) ([]*ast.DeferStmt, bool) {
	var out []*ast.DeferStmt
	for i := len(w.stack) - 1; i >= 0; i-- {
		f := w.stack[i]
		if !f.isDefer {
			for _, k := range kinds {
				if f.anchor == k {
					return out, true
				}
			}
			continue
		}
		out = append(out, f.defer_)
	}
	return nil, false
}

// recordLabel stores the active-defer snapshot at a label's position.
func (w *deferWalk) recordLabel(name string) {
	w.labelSnapshots[name] = w.snapshot()
}

// recordGoto stores the active-defer snapshot at a goto's position, for
// later resolution once every label in the body has been seen.
func (w *deferWalk) recordGoto(stmt *ast.GotoStmt) {
	w.gotos = append(w.gotos, gotoSite{stmt: stmt, snapshot: w.snapshot()})
}

// gotoResult is what resolveGotos computes for one goto: the defers to
// run before the jump, and whether the jump is into a protected scope.
type gotoResult struct {
	toRun     []*ast.DeferStmt
	protected bool
}

// resolveGotos computes, for every recorded goto, the defers to run
// before the jump and whether it would enter a scope with defers not
// active at the source. A goto whose label was never recorded (unresolved
// label) is omitted — the caller has already diagnosed that separately.
func (w *deferWalk) resolveGotos() map[*ast.GotoStmt]gotoResult {
	out := make(map[*ast.GotoStmt]gotoResult, len(w.gotos))
	for _, g := range w.gotos {
		labelSnap, ok := w.labelSnapshots[g.stmt.Label]
		if !ok {
			continue
		}
		lcp := commonPrefixLen(g.snapshot, labelSnap)

		var toRun []*ast.DeferStmt
		for i := len(g.snapshot) - 1; i >= lcp; i-- {
			toRun = append(toRun, g.snapshot[i])
		}

		out[g.stmt] = gotoResult{
			toRun:     toRun,
			protected: len(labelSnap) > lcp,
		}
	}
	return out
}

func commonPrefixLen(a, b []*ast.DeferStmt) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
