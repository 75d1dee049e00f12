package diag

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/emberlang/emberc/internal/source"
)

// Collector is the Sink used by the FileAnalyser's own tests and by any
// caller that wants an in-process sink rather than wiring one into a
// driver's own error-reporting pipeline.
//
// It keeps diagnostics in the order they were reported — phases run in
// order and emit in source order within a phase, so the slice already
// satisfies the analyser's ordering guarantee without any extra sorting.
type Collector struct {
	verbose      bool
	currentPhase string
	diagnostics  []Diagnostic
}

// NewCollector creates a Collector. verbose controls whether callers should
// treat every diagnostic as significant or only report the first per phase.
func NewCollector(verbose bool) *Collector {
	return &Collector{verbose: verbose}
}

func (c *Collector) Verbose() bool { return c.verbose }

// SetPhase tags subsequently reported diagnostics with phase, for
// presenting -v output grouped by pass.
func (c *Collector) SetPhase(phase string) { c.currentPhase = phase }

func (c *Collector) Report(pos source.Position, id ID, format string, args ...interface{}) {
	d := Diagnostic{
		Pos:     pos,
		ID:      id,
		Phase:   c.currentPhase,
		Message: fmt.Sprintf(format, args...),
	}
	c.diagnostics = append(c.diagnostics, d)
}

// Diagnostics returns every diagnostic reported so far, in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diagnostics
}

// ErrorCount returns the number of reported diagnostics that are not
// warnings, across every phase reported so far.
func (c *Collector) ErrorCount() int {
	n := 0
	for _, d := range c.diagnostics {
		if !d.ID.IsWarning() {
			n++
		}
	}
	return n
}

// Err folds every non-warning diagnostic into a *multierror.Error so a
// driver that wants a single `error` to propagate (rather than walking the
// diagnostic slice itself) can get one. Returns nil when there were no
// errors, matching the "skip codegen, still finish every file" policy:
// a nil Err is the signal codegen may proceed.
func (c *Collector) Err() error {
	var result *multierror.Error
	for _, d := range c.diagnostics {
		if !d.ID.IsWarning() {
			result = multierror.Append(result, newDiagnosticError(d.Phase, d.Pos, d.ID, "%s", d.Message))
		}
	}
	return result.ErrorOrNil()
}
