// Package diag formats and reports the compiler's fatal diagnostics (§7).
//
// Every stage aborts on its first error with a single line of the form
// "ERROR: <line>: <Phase>: <message>" and a non-zero exit status; there is
// no diagnostic recovery (§1 Non-goals).
package diag

import "fmt"

// Phase names the pipeline stage that raised a diagnostic.
type Phase string

const (
	PhaseParser    Phase = "Parser"
	PhaseTypeCheck Phase = "Type-Check"
)

// Error is a single fatal compiler diagnostic: a phase, a source line, and
// a message. It implements the error interface and formats itself exactly
// as §7 requires.
type Error struct {
	Phase Phase
	Line  int
	Msg   string
}

// New builds a diagnostic for the given phase, line, and formatted message.
func New(phase Phase, line int, format string, args ...any) *Error {
	return &Error{Phase: phase, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("ERROR: %d: %s: %s", e.Line, e.Phase, e.Msg)
}

// ParseError reports a parser-phase diagnostic (§4.1): a parse error near
// the offending token's lexeme.
func ParseError(line int, nearLexeme string) *Error {
	return New(PhaseParser, line, "parse error near %s", nearLexeme)
}

// TypeError reports a type-checker-phase diagnostic (§4.5, §7).
func TypeError(line int, format string, args ...any) *Error {
	return New(PhaseTypeCheck, line, format, args...)
}
