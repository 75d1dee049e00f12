// Package diag defines the diagnostics contract the analyser reports
// through. The sink itself — where diagnostics ultimately get rendered or
// colourised — belongs to the driver; this package only fixes the shape of
// a report and supplies a Collector sink for tests and standalone callers.
package diag

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/emberlang/emberc/internal/source"
)

// ID names a single diagnostic the analyser may emit. The exact set is
// part of the analyser's external contract: a driver matches on ID, not on
// message text, to decide severity and to deduplicate.
type ID int

const (
	_ ID = iota

	// Lookup errors.
	ErrUnknownIdentifier
	ErrAmbiguousIdentifier
	ErrPrivateAccess
	ErrDuplicateSymbol
	ErrUnknownPackage

	// Type errors.
	ErrIncompatibleTypes
	ErrNarrowingConversion
	ErrNotAssignable
	ErrPublicDependsOnPrivate

	// Shape errors.
	ErrNotAnLvalue
	ErrNotAPointer
	ErrNotCallable
	ErrArityMismatch
	ErrNotAnArrayOrPointer
	ErrNotAStruct

	// Control-flow errors.
	ErrBreakOutsideLoop
	ErrContinueOutsideLoop
	ErrUnresolvedGoto
	ErrDuplicateLabel
	ErrJumpIntoProtectedScope

	// Defer errors.
	ErrNestedDefer
	ErrEscapingDeferTransfer
	ErrTooManyDefers
	ErrDeferOutsideCompound

	// Const errors.
	ErrWriteToConst
	ErrUninitializedConstVar

	// Cycle errors.
	ErrAliasCycle

	// Overflow errors.
	ErrEnumValueOverflow
	ErrStructIndirectionDepth

	// Switch-case shape errors.
	ErrNonConstantCase

	// Constant-evaluation errors.
	ErrNonConstantInitializer

	// Array-value shape errors.
	ErrArrayValueTarget

	// Warnings — never contribute to the error count.
	WarnUnusedPackage
	WarnUnusedVariable
	WarnUnusedFunction
	WarnUnusedType
	WarnUnusedPublic
	WarnUnusedStructMember
	WarnNonExhaustiveSwitch
)

// IsWarning reports whether id is advisory and must not increment a phase's
// error count.
func (id ID) IsWarning() bool {
	return id >= WarnUnusedPackage
}

func (id ID) String() string {
	if s, ok := idNames[id]; ok {
		return s
	}
	return fmt.Sprintf("diag.ID(%d)", id)
}

var idNames = map[ID]string{
	ErrUnknownIdentifier:      "unknown-identifier",
	ErrAmbiguousIdentifier:    "ambiguous-identifier",
	ErrPrivateAccess:          "private-access",
	ErrDuplicateSymbol:        "duplicate-symbol",
	ErrUnknownPackage:         "unknown-package",
	ErrIncompatibleTypes:      "incompatible-types",
	ErrNarrowingConversion:    "narrowing-conversion",
	ErrNotAssignable:          "not-assignable",
	ErrPublicDependsOnPrivate: "public-depends-on-private",
	ErrNotAnLvalue:            "not-an-lvalue",
	ErrNotAPointer:            "not-a-pointer",
	ErrNotCallable:            "not-callable",
	ErrArityMismatch:          "arity-mismatch",
	ErrNotAnArrayOrPointer:    "not-an-array-or-pointer",
	ErrNotAStruct:             "not-a-struct",
	ErrBreakOutsideLoop:       "break-outside-loop",
	ErrContinueOutsideLoop:    "continue-outside-loop",
	ErrUnresolvedGoto:         "unresolved-goto",
	ErrDuplicateLabel:         "duplicate-label",
	ErrJumpIntoProtectedScope: "jump-into-protected-scope",
	ErrNestedDefer:            "nested-defer",
	ErrEscapingDeferTransfer:  "escaping-defer-transfer",
	ErrTooManyDefers:          "too-many-defers",
	ErrDeferOutsideCompound:   "defer-outside-compound",
	ErrWriteToConst:           "write-to-const",
	ErrUninitializedConstVar:  "uninitialized-const-var",
	ErrAliasCycle:             "alias-cycle",
	ErrEnumValueOverflow:      "enum-value-overflow",
	ErrStructIndirectionDepth: "struct-indirection-depth",
	ErrNonConstantCase:        "non-constant-case",
	ErrNonConstantInitializer: "non-constant-initializer",
	ErrArrayValueTarget:       "array-value-target",
	WarnUnusedPackage:         "unused-package",
	WarnUnusedVariable:        "unused-variable",
	WarnUnusedFunction:        "unused-function",
	WarnUnusedType:            "unused-type",
	WarnUnusedPublic:          "unused-public",
	WarnUnusedStructMember:    "unused-struct-member",
	WarnNonExhaustiveSwitch:   "non-exhaustive-switch",
}

// Diagnostic is one reported finding, fully formed: position, id, rendered
// message and the originating phase name (for Verbose output).
type Diagnostic struct {
	Pos     source.Position
	ID      ID
	Message string
	Phase   string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.ID, d.Message)
}

// Sink is the diagnostics collaborator the analyser reports through. It is
// supplied by the driver; the analyser never constructs one itself and
// never assumes it is process-wide.
type Sink interface {
	// Report records one diagnostic at pos. args are formatted with
	// fmt.Sprintf against format.
	Report(pos source.Position, id ID, format string, args ...interface{})

	// Verbose reports whether the sink wants every diagnostic (as opposed
	// to, say, the first one per line).
	Verbose() bool
}

// newDiagnosticError wraps a Diagnostic in a cockroachdb/errors error so
// that callers who want stack traces, PII-safe redaction or Sentry
// reporting (all things cockroachdb/errors gives for free) get them
// without the analyser depending on any particular reporting backend.
func newDiagnosticError(phase string, pos source.Position, id ID, format string, args ...interface{}) error {
	d := Diagnostic{Pos: pos, ID: id, Phase: phase, Message: fmt.Sprintf(format, args...)}
	return errors.WithDetail(errors.Newf("%s", d.Error()), d.Message)
}
