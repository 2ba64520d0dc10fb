package token

import (
	"bufio"
	"io"
	"strconv"

	"github.com/mekotech/coolc/internal/diag"
)

// Reader consumes a token-stream file (§6.1) one record at a time.
//
// Each record is either 2 lines (line number, token type) for punctuation
// and keywords, or 3 lines (line number, token type, lexeme/value) for
// identifier, integer, type, and string tokens.
type Reader struct {
	scanner *bufio.Scanner
	lineNo  int // count of lines consumed, used only to report malformed streams
}

// NewReader wraps r as a token Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// ReadAll consumes the entire stream and returns the ordered token list.
// It returns a structural error (not a panic) on a malformed record, e.g.
// a missing payload line or an unrecognized token-type spelling, since the
// token stream is an external interchange format that may be hand-edited
// or produced by a buggy lexer.
func (r *Reader) ReadAll() ([]Token, error) {
	var toks []Token
	for {
		tok, ok, err := r.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

func (r *Reader) readLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	r.lineNo++
	return r.scanner.Text(), true
}

func (r *Reader) next() (Token, bool, error) {
	lineText, ok := r.readLine()
	if !ok {
		return Token{}, false, nil
	}

	line, err := strconv.Atoi(lineText)
	if err != nil {
		return Token{}, false, diag.New(diag.PhaseParser,0, "malformed token stream: file line %d: expected line number, got %q", r.lineNo, lineText)
	}

	typeText, ok := r.readLine()
	if !ok {
		return Token{}, false, diag.New(diag.PhaseParser,line, "malformed token stream: file line %d: missing token type after line number", r.lineNo)
	}

	typ, ok := Lookup(typeText)
	if !ok {
		return Token{}, false, diag.New(diag.PhaseParser,line, "malformed token stream: file line %d: unrecognized token type %q", r.lineNo, typeText)
	}

	tok := Token{Line: line, Type: typ}
	if typ.HasPayload() {
		payload, ok := r.readLine()
		if !ok {
			return Token{}, false, diag.New(diag.PhaseParser,line, "malformed token stream: file line %d: missing payload for %s token", r.lineNo, typ)
		}
		tok.Literal = payload
	}

	return tok, true, nil
}
