package parser

import (
	"testing"

	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/token"
)

func tok(line int, typ token.Type) token.Token { return token.Token{Line: line, Type: typ} }

func payload(line int, typ token.Type, lit string) token.Token {
	return token.Token{Line: line, Type: typ, Literal: lit}
}

// class Main inherits IO { main() : Object { out_string("hi") }; };
func mainClassTokens() []token.Token {
	return []token.Token{
		tok(1, token.CLASS), payload(1, token.TYPE, "Main"), tok(1, token.INHERITS), payload(1, token.TYPE, "IO"), tok(1, token.LBRACE),
		payload(2, token.IDENTIFIER, "main"), tok(2, token.LPAREN), tok(2, token.RPAREN), tok(2, token.COLON), payload(2, token.TYPE, "Object"), tok(2, token.LBRACE),
		payload(2, token.IDENTIFIER, "out_string"), tok(2, token.LPAREN), payload(2, token.STRING, "hi"), tok(2, token.RPAREN),
		tok(2, token.RBRACE), tok(2, token.SEMI),
		tok(3, token.RBRACE), tok(3, token.SEMI),
	}
}

func TestParseSimpleClass(t *testing.T) {
	prog, err := Parse(mainClassTokens())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(prog.Classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(prog.Classes))
	}
	c := prog.Classes[0]
	if c.Name.Text != "Main" || !c.Inherits || c.Parent.Text != "IO" {
		t.Fatalf("unexpected class header: %+v", c)
	}
	if len(c.Methods) != 1 || c.Methods[0].Name.Text != "main" {
		t.Fatalf("unexpected methods: %+v", c.Methods)
	}
	disp, ok := c.Methods[0].Body.(*ast.SelfDispatchExpr)
	if !ok {
		t.Fatalf("body is %T, want *ast.SelfDispatchExpr", c.Methods[0].Body)
	}
	if disp.Method.Text != "out_string" || len(disp.Args) != 1 {
		t.Fatalf("unexpected dispatch: %+v", disp)
	}
}

func TestParseMissingSemiIsError(t *testing.T) {
	toks := mainClassTokens()
	// Drop the final class-terminating semicolon.
	toks = toks[:len(toks)-1]
	if _, err := Parse(toks); err == nil {
		t.Fatal("expected a parse error for a missing trailing semicolon")
	}
}

// Exercises the full precedence ladder: not (1 + 2 * 3 < 4) yields
// not(lt(plus(1, times(2,3)), 4)).
func TestExpressionPrecedence(t *testing.T) {
	toks := []token.Token{
		tok(1, token.NOT), tok(1, token.LPAREN),
		payload(1, token.INTEGER, "1"), tok(1, token.PLUS),
		payload(1, token.INTEGER, "2"), tok(1, token.TIMES), payload(1, token.INTEGER, "3"),
		tok(1, token.LT), payload(1, token.INTEGER, "4"),
		tok(1, token.RPAREN),
	}
	p := New(toks)
	e := p.parseExpr()

	not, ok := e.(*ast.NotExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.NotExpr", e)
	}
	lt, ok := not.Operand.(*ast.CompareExpr)
	if !ok || lt.Op != ast.Lt {
		t.Fatalf("got %T, want lt compare", not.Operand)
	}
	plus, ok := lt.Left.(*ast.ArithExpr)
	if !ok || plus.Op != ast.Plus {
		t.Fatalf("got %T, want plus", lt.Left)
	}
	times, ok := plus.Right.(*ast.ArithExpr)
	if !ok || times.Op != ast.Times {
		t.Fatalf("got %T, want times", plus.Right)
	}
}

func TestDispatchChainAssociativity(t *testing.T) {
	// a.b().c() parses as dynamic_dispatch(dynamic_dispatch(a, b, []), c, [])
	toks := []token.Token{
		payload(1, token.IDENTIFIER, "a"), tok(1, token.DOT), payload(1, token.IDENTIFIER, "b"),
		tok(1, token.LPAREN), tok(1, token.RPAREN), tok(1, token.DOT),
		payload(1, token.IDENTIFIER, "c"), tok(1, token.LPAREN), tok(1, token.RPAREN),
	}
	p := New(toks)
	e := p.parseExpr()
	outer, ok := e.(*ast.DynamicDispatchExpr)
	if !ok || outer.Method.Text != "c" {
		t.Fatalf("got %+v", e)
	}
	inner, ok := outer.Receiver.(*ast.DynamicDispatchExpr)
	if !ok || inner.Method.Text != "b" {
		t.Fatalf("got %+v", outer.Receiver)
	}
}
