// Package parser builds an *ast.Program from a pre-lexed token stream (§4.1).
//
// Parsing is a single pass: a hand-written recursive-descent parser with an
// explicit precedence ladder for the expression grammar, matching the
// reference grammar's precedence declarations (tightest to loosest):
// `.` `@` isvoid ~ `*` `/` `+` `-` `<= < =` not `<-`. There is no error
// recovery; the first malformed construct aborts the parse (§1 Non-goals).
package parser

import (
	"fmt"

	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/diag"
	"github.com/mekotech/coolc/internal/token"
)

// Parser consumes a fixed token slice and produces an *ast.Program.
type Parser struct {
	toks []token.Token
	pos  int
}

// New returns a Parser over toks.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse parses the whole token stream into a Program. On the first syntax
// error it returns a *diag.Error describing the offending token.
func Parse(toks []token.Token) (prog *ast.Program, err error) {
	p := New(toks)
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*diag.Error)
			if !ok {
				panic(r)
			}
			err = perr
		}
	}()
	return p.parseProgram(), nil
}

func (p *Parser) cur() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	if len(p.toks) > 0 {
		return token.Token{Line: p.toks[len(p.toks)-1].Line, Type: token.ILLEGAL}
	}
	return token.Token{Line: 0, Type: token.ILLEGAL}
}

func (p *Parser) at(t token.Type) bool {
	return p.cur().Type == t
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// lexeme renders the current token the way a diagnostic would cite it.
func (p *Parser) lexeme() string {
	t := p.cur()
	if t.Type.HasPayload() {
		return fmt.Sprintf("%q", t.Literal)
	}
	return fmt.Sprintf("%q", t.Type.String())
}

func (p *Parser) fail(format string, args ...any) {
	panic(diag.ParseError(p.cur().Line, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(t token.Type) token.Token {
	if !p.at(t) {
		p.fail("%s", p.lexeme())
	}
	return p.advance()
}

func (p *Parser) expectIdentifier() ast.Identifier {
	tok := p.expect(token.IDENTIFIER)
	return ast.Identifier{Line: tok.Line, Text: tok.Literal}
}

func (p *Parser) expectType() ast.Identifier {
	tok := p.expect(token.TYPE)
	return ast.Identifier{Line: tok.Line, Text: tok.Literal}
}

// ---- program / class / feature ----------------------------------------

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	prog.Classes = append(prog.Classes, p.parseClass())
	p.expect(token.SEMI)
	for !p.atEOF() {
		prog.Classes = append(prog.Classes, p.parseClass())
		p.expect(token.SEMI)
	}
	return prog
}

func (p *Parser) atEOF() bool {
	return p.pos >= len(p.toks)
}

func (p *Parser) parseClass() *ast.Class {
	line := p.cur().Line
	p.expect(token.CLASS)
	name := p.expectType()
	c := &ast.Class{Line: line, Name: name}
	if p.at(token.INHERITS) {
		p.advance()
		c.Inherits = true
		c.Parent = p.expectType()
	}
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) {
		p.parseFeature(c)
		p.expect(token.SEMI)
	}
	p.expect(token.RBRACE)
	return c
}

func (p *Parser) parseFeature(c *ast.Class) {
	name := p.expectIdentifier()
	if p.at(token.LPAREN) {
		m := &ast.Method{Name: name}
		p.advance()
		if !p.at(token.RPAREN) {
			m.Formals = append(m.Formals, p.parseFormal())
			for p.at(token.COMMA) {
				p.advance()
				m.Formals = append(m.Formals, p.parseFormal())
			}
		}
		p.expect(token.RPAREN)
		p.expect(token.COLON)
		m.ReturnType = p.expectType()
		p.expect(token.LBRACE)
		m.Body = p.parseExpr()
		p.expect(token.RBRACE)
		c.Methods = append(c.Methods, m)
		return
	}

	a := &ast.Attribute{Name: name}
	p.expect(token.COLON)
	a.Type = p.expectType()
	if p.at(token.LARROW) {
		p.advance()
		a.Init = p.parseExpr()
	}
	c.Attributes = append(c.Attributes, a)
}

func (p *Parser) parseFormal() ast.Formal {
	name := p.expectIdentifier()
	p.expect(token.COLON)
	typ := p.expectType()
	return ast.Formal{Name: name, Type: typ}
}

// parseArgs parses a parenthesized, comma-separated expression list.
// The opening LPAREN must already have been consumed by the caller.
func (p *Parser) parseArgs() []ast.Expr {
	var args []ast.Expr
	if p.at(token.RPAREN) {
		p.advance()
		return args
	}
	args = append(args, p.parseExpr())
	for p.at(token.COMMA) {
		p.advance()
		args = append(args, p.parseExpr())
	}
	p.expect(token.RPAREN)
	return args
}

// ---- expression precedence ladder --------------------------------------
//
// Loosest to tightest: assign, not, compare, add/sub, mul/div, tilde,
// isvoid, dispatch-chain, primary. This mirrors §4.1's stated precedence
// table read tight-to-loose in reverse.

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

func (p *Parser) parseAssign() ast.Expr {
	if p.at(token.IDENTIFIER) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Type == token.LARROW {
		v := p.expectIdentifier()
		line := v.Line
		p.expect(token.LARROW)
		rhs := p.parseAssign()
		return &ast.AssignExpr{Base: ast.Base{Line: line}, Var: v, Rhs: rhs}
	}
	return p.parseNot()
}

func (p *Parser) parseNot() ast.Expr {
	if p.at(token.NOT) {
		line := p.cur().Line
		p.advance()
		operand := p.parseNot()
		return &ast.NotExpr{Base: ast.Base{Line: line}, Operand: operand}
	}
	return p.parseCompare()
}

func (p *Parser) parseCompare() ast.Expr {
	left := p.parseAdd()
	var kind ast.CompareKind
	switch p.cur().Type {
	case token.LT:
		kind = ast.Lt
	case token.LE:
		kind = ast.Le
	case token.EQUALS:
		kind = ast.Eq
	default:
		return left
	}
	line := p.cur().Line
	p.advance()
	right := p.parseAdd()
	return &ast.CompareExpr{Base: ast.Base{Line: line}, Op: kind, Left: left, Right: right}
}

func (p *Parser) parseAdd() ast.Expr {
	left := p.parseMul()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		line := p.cur().Line
		kind := ast.Plus
		if p.at(token.MINUS) {
			kind = ast.Minus
		}
		p.advance()
		right := p.parseMul()
		left = &ast.ArithExpr{Base: ast.Base{Line: line}, Op: kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMul() ast.Expr {
	left := p.parseTilde()
	for p.at(token.TIMES) || p.at(token.DIVIDE) {
		line := p.cur().Line
		kind := ast.Times
		if p.at(token.DIVIDE) {
			kind = ast.Divide
		}
		p.advance()
		right := p.parseTilde()
		left = &ast.ArithExpr{Base: ast.Base{Line: line}, Op: kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseTilde() ast.Expr {
	if p.at(token.TILDE) {
		line := p.cur().Line
		p.advance()
		operand := p.parseTilde()
		return &ast.NegateExpr{Base: ast.Base{Line: line}, Operand: operand}
	}
	return p.parseIsvoid()
}

func (p *Parser) parseIsvoid() ast.Expr {
	if p.at(token.ISVOID) {
		line := p.cur().Line
		p.advance()
		operand := p.parseIsvoid()
		return &ast.IsVoidExpr{Base: ast.Base{Line: line}, Operand: operand}
	}
	return p.parseDispatchChain()
}

func (p *Parser) parseDispatchChain() ast.Expr {
	left := p.parsePrimary()
	for {
		switch p.cur().Type {
		case token.DOT:
			line := p.cur().Line
			p.advance()
			method := p.expectIdentifier()
			p.expect(token.LPAREN)
			args := p.parseArgs()
			left = &ast.DynamicDispatchExpr{Base: ast.Base{Line: line}, Receiver: left, Method: method, Args: args}
		case token.AT:
			line := p.cur().Line
			p.advance()
			staticType := p.expectType()
			p.expect(token.DOT)
			method := p.expectIdentifier()
			p.expect(token.LPAREN)
			args := p.parseArgs()
			left = &ast.StaticDispatchExpr{Base: ast.Base{Line: line}, Receiver: left, StaticType: staticType, Method: method, Args: args}
		default:
			return left
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		return inner

	case token.LBRACE:
		p.advance()
		blk := &ast.BlockExpr{Base: ast.Base{Line: tok.Line}}
		blk.Body = append(blk.Body, p.parseExpr())
		p.expect(token.SEMI)
		for !p.at(token.RBRACE) {
			blk.Body = append(blk.Body, p.parseExpr())
			p.expect(token.SEMI)
		}
		p.expect(token.RBRACE)
		return blk

	case token.IF:
		p.advance()
		pred := p.parseExpr()
		p.expect(token.THEN)
		thenE := p.parseExpr()
		p.expect(token.ELSE)
		elseE := p.parseExpr()
		p.expect(token.FI)
		return &ast.IfExpr{Base: ast.Base{Line: tok.Line}, Predicate: pred, Then: thenE, Else: elseE}

	case token.WHILE:
		p.advance()
		pred := p.parseExpr()
		p.expect(token.LOOP)
		body := p.parseExpr()
		p.expect(token.POOL)
		return &ast.WhileExpr{Base: ast.Base{Line: tok.Line}, Predicate: pred, Body: body}

	case token.LET:
		p.advance()
		return p.parseLetBindings(tok.Line)

	case token.CASE:
		p.advance()
		scrutinee := p.parseExpr()
		p.expect(token.OF)
		ce := &ast.CaseExpr{Base: ast.Base{Line: tok.Line}, Scrutinee: scrutinee}
		ce.Branches = append(ce.Branches, p.parseCaseBranch())
		p.expect(token.SEMI)
		for !p.at(token.ESAC) {
			ce.Branches = append(ce.Branches, p.parseCaseBranch())
			p.expect(token.SEMI)
		}
		p.expect(token.ESAC)
		return ce

	case token.NEW:
		p.advance()
		return &ast.NewExpr{Base: ast.Base{Line: tok.Line}, TypeName: p.expectType()}

	case token.INTEGER:
		p.advance()
		return &ast.IntegerExpr{Base: ast.Base{Line: tok.Line}, Value: tok.Literal}

	case token.STRING:
		p.advance()
		return &ast.StringExpr{Base: ast.Base{Line: tok.Line}, Value: tok.Literal}

	case token.TRUE:
		p.advance()
		return &ast.BoolExpr{Base: ast.Base{Line: tok.Line}, Value: true}

	case token.FALSE:
		p.advance()
		return &ast.BoolExpr{Base: ast.Base{Line: tok.Line}, Value: false}

	case token.IDENTIFIER:
		id := p.expectIdentifier()
		if p.at(token.LPAREN) {
			p.advance()
			args := p.parseArgs()
			return &ast.SelfDispatchExpr{Base: ast.Base{Line: id.Line}, Method: id, Args: args}
		}
		return &ast.IdentifierExpr{Base: ast.Base{Line: id.Line}, Name: id}

	default:
		p.fail("%s", p.lexeme())
		panic("unreachable")
	}
}

func (p *Parser) parseLetBindings(line int) ast.Expr {
	var bindings []ast.LetBinding
	bindings = append(bindings, p.parseLetBinding())
	for p.at(token.COMMA) {
		p.advance()
		bindings = append(bindings, p.parseLetBinding())
	}
	p.expect(token.IN)
	body := p.parseExpr()
	return &ast.LetExpr{Base: ast.Base{Line: line}, Bindings: bindings, Body: body}
}

func (p *Parser) parseLetBinding() ast.LetBinding {
	name := p.expectIdentifier()
	p.expect(token.COLON)
	typ := p.expectType()
	lb := ast.LetBinding{Var: name, Type: typ}
	if p.at(token.LARROW) {
		p.advance()
		lb.Init = p.parseExpr()
	}
	return lb
}

func (p *Parser) parseCaseBranch() ast.CaseBranch {
	name := p.expectIdentifier()
	p.expect(token.COLON)
	typ := p.expectType()
	p.expect(token.RARROW)
	body := p.parseExpr()
	return ast.CaseBranch{Var: name, Type: typ, Body: body}
}
