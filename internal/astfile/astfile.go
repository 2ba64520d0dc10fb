// Package astfile reads and writes the parser's text-based AST interchange
// format (§4.2, §6.2): the boundary between the parser and the semantic
// analyzer. A tree written by Write and read back by Read is required to be
// structurally identical to the original (§8 Idempotent re-parsing).
//
// The grammar is a flat, line-oriented encoding: every list is a decimal
// count followed by that many elements, every identifier is two lines (line
// number, text), and every expression is a line number followed by a tag
// line and the tag's fixed children. Parenthesized expressions are never
// represented as their own node — the parser already discards them.
package astfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/mekotech/coolc/internal/ast"
)

// ---- Write ---------------------------------------------------------------

// Writer serializes a Program to the §6.2 text format.
type Writer struct {
	w   *bufio.Writer
	err error
}

// Write serializes prog to w.
func Write(w io.Writer, prog *ast.Program) error {
	bw := &Writer{w: bufio.NewWriter(w)}
	bw.program(prog)
	if bw.err != nil {
		return bw.err
	}
	return bw.w.Flush()
}

func (w *Writer) line(s string) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintln(w.w, s)
}

func (w *Writer) count(n int) {
	w.line(strconv.Itoa(n))
}

func (w *Writer) id(id ast.Identifier) {
	w.line(strconv.Itoa(id.Line))
	w.line(id.Text)
}

func (w *Writer) program(p *ast.Program) {
	w.count(len(p.Classes))
	for _, c := range p.Classes {
		w.class(c)
	}
}

func (w *Writer) class(c *ast.Class) {
	w.id(c.Name)
	if c.Inherits {
		w.line("inherits")
		w.id(c.Parent)
	} else {
		w.line("no_inherits")
	}
	w.count(len(c.Attributes) + len(c.Methods))
	for _, a := range c.Attributes {
		w.feature(a)
	}
	for _, m := range c.Methods {
		w.feature(m)
	}
}

func (w *Writer) feature(f any) {
	switch f := f.(type) {
	case *ast.Attribute:
		if f.Init == nil {
			w.line("attribute_no_init")
			w.id(f.Name)
			w.id(f.Type)
		} else {
			w.line("attribute_init")
			w.id(f.Name)
			w.id(f.Type)
			w.expr(f.Init)
		}
	case *ast.Method:
		w.line("method")
		w.id(f.Name)
		w.count(len(f.Formals))
		for _, formal := range f.Formals {
			w.formal(formal)
		}
		w.id(f.ReturnType)
		w.expr(f.Body)
	}
}

func (w *Writer) formal(f ast.Formal) {
	w.id(f.Name)
	w.id(f.Type)
}

func (w *Writer) binding(b ast.LetBinding) {
	if b.Init == nil {
		w.line("let_binding_no_init")
		w.id(b.Var)
		w.id(b.Type)
	} else {
		w.line("let_binding_init")
		w.id(b.Var)
		w.id(b.Type)
		w.expr(b.Init)
	}
}

func (w *Writer) caseBranch(b ast.CaseBranch) {
	w.id(b.Var)
	w.id(b.Type)
	w.expr(b.Body)
}

func (w *Writer) expr(e ast.Expr) {
	w.line(strconv.Itoa(e.Pos()))
	w.line(e.Tag())
	switch e := e.(type) {
	case *ast.AssignExpr:
		w.id(e.Var)
		w.expr(e.Rhs)
	case *ast.DynamicDispatchExpr:
		w.expr(e.Receiver)
		w.id(e.Method)
		w.count(len(e.Args))
		for _, a := range e.Args {
			w.expr(a)
		}
	case *ast.StaticDispatchExpr:
		w.expr(e.Receiver)
		w.id(e.StaticType)
		w.id(e.Method)
		w.count(len(e.Args))
		for _, a := range e.Args {
			w.expr(a)
		}
	case *ast.SelfDispatchExpr:
		w.id(e.Method)
		w.count(len(e.Args))
		for _, a := range e.Args {
			w.expr(a)
		}
	case *ast.IfExpr:
		w.expr(e.Predicate)
		w.expr(e.Then)
		w.expr(e.Else)
	case *ast.WhileExpr:
		w.expr(e.Predicate)
		w.expr(e.Body)
	case *ast.BlockExpr:
		w.count(len(e.Body))
		for _, b := range e.Body {
			w.expr(b)
		}
	case *ast.LetExpr:
		w.count(len(e.Bindings))
		for _, b := range e.Bindings {
			w.binding(b)
		}
		w.expr(e.Body)
	case *ast.CaseExpr:
		w.expr(e.Scrutinee)
		w.count(len(e.Branches))
		for _, b := range e.Branches {
			w.caseBranch(b)
		}
	case *ast.NewExpr:
		w.id(e.TypeName)
	case *ast.IdentifierExpr:
		w.id(e.Name)
	case *ast.IntegerExpr:
		w.line(e.Value)
	case *ast.StringExpr:
		w.line(e.Value)
	case *ast.BoolExpr:
		// no children
	case *ast.ArithExpr:
		w.expr(e.Left)
		w.expr(e.Right)
	case *ast.CompareExpr:
		w.expr(e.Left)
		w.expr(e.Right)
	case *ast.NegateExpr:
		w.expr(e.Operand)
	case *ast.NotExpr:
		w.expr(e.Operand)
	case *ast.IsVoidExpr:
		w.expr(e.Operand)
	case *ast.InternalExpr:
		w.line(e.Symbol)
	default:
		w.err = fmt.Errorf("astfile: unhandled expression kind %T", e)
	}
}

// ---- Read -----------------------------------------------------------------

// Reader deserializes a Program from the §6.2 text format.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// Read parses a full Program from r.
func Read(r io.Reader) (*ast.Program, error) {
	rd := &Reader{sc: bufio.NewScanner(r)}
	rd.sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return rd.readProgram()
}

func (r *Reader) next() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("astfile: unexpected end of input at line %d", r.line)
	}
	r.line++
	return r.sc.Text(), nil
}

func (r *Reader) nextInt() (int, error) {
	s, err := r.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("astfile: line %d: expected integer, got %q", r.line, s)
	}
	return n, nil
}

func (r *Reader) readIdentifier() (ast.Identifier, error) {
	line, err := r.nextInt()
	if err != nil {
		return ast.Identifier{}, err
	}
	text, err := r.next()
	if err != nil {
		return ast.Identifier{}, err
	}
	return ast.Identifier{Line: line, Text: text}, nil
}

func (r *Reader) readProgram() (*ast.Program, error) {
	n, err := r.nextInt()
	if err != nil {
		return nil, err
	}
	prog := &ast.Program{}
	for i := 0; i < n; i++ {
		c, err := r.readClass()
		if err != nil {
			return nil, err
		}
		prog.Classes = append(prog.Classes, c)
	}
	return prog, nil
}

func (r *Reader) readClass() (*ast.Class, error) {
	name, err := r.readIdentifier()
	if err != nil {
		return nil, err
	}
	tag, err := r.next()
	if err != nil {
		return nil, err
	}
	// A class record has no line field of its own; the class name's line
	// stands in for it.
	c := &ast.Class{Line: name.Line, Name: name}
	switch tag {
	case "inherits":
		c.Inherits = true
		if c.Parent, err = r.readIdentifier(); err != nil {
			return nil, err
		}
	case "no_inherits":
		// Parent defaults to Object (ast.Class.ParentName).
	default:
		return nil, fmt.Errorf("astfile: line %d: expected inherits/no_inherits, got %q", r.line, tag)
	}

	n, err := r.nextInt()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if err := r.readFeature(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *Reader) readFeature(c *ast.Class) error {
	tag, err := r.next()
	if err != nil {
		return err
	}
	switch tag {
	case "attribute_no_init":
		name, err := r.readIdentifier()
		if err != nil {
			return err
		}
		typ, err := r.readIdentifier()
		if err != nil {
			return err
		}
		c.Attributes = append(c.Attributes, &ast.Attribute{Name: name, Type: typ})
	case "attribute_init":
		name, err := r.readIdentifier()
		if err != nil {
			return err
		}
		typ, err := r.readIdentifier()
		if err != nil {
			return err
		}
		init, err := r.readExpr()
		if err != nil {
			return err
		}
		c.Attributes = append(c.Attributes, &ast.Attribute{Name: name, Type: typ, Init: init})
	case "method":
		name, err := r.readIdentifier()
		if err != nil {
			return err
		}
		n, err := r.nextInt()
		if err != nil {
			return err
		}
		m := &ast.Method{Name: name}
		for i := 0; i < n; i++ {
			formal, err := r.readFormal()
			if err != nil {
				return err
			}
			m.Formals = append(m.Formals, formal)
		}
		if m.ReturnType, err = r.readIdentifier(); err != nil {
			return err
		}
		if m.Body, err = r.readExpr(); err != nil {
			return err
		}
		c.Methods = append(c.Methods, m)
	default:
		return fmt.Errorf("astfile: line %d: unrecognized feature tag %q", r.line, tag)
	}
	return nil
}

func (r *Reader) readFormal() (ast.Formal, error) {
	name, err := r.readIdentifier()
	if err != nil {
		return ast.Formal{}, err
	}
	typ, err := r.readIdentifier()
	if err != nil {
		return ast.Formal{}, err
	}
	return ast.Formal{Name: name, Type: typ}, nil
}

func (r *Reader) readBinding() (ast.LetBinding, error) {
	tag, err := r.next()
	if err != nil {
		return ast.LetBinding{}, err
	}
	v, err := r.readIdentifier()
	if err != nil {
		return ast.LetBinding{}, err
	}
	typ, err := r.readIdentifier()
	if err != nil {
		return ast.LetBinding{}, err
	}
	lb := ast.LetBinding{Var: v, Type: typ}
	switch tag {
	case "let_binding_no_init":
	case "let_binding_init":
		if lb.Init, err = r.readExpr(); err != nil {
			return ast.LetBinding{}, err
		}
	default:
		return ast.LetBinding{}, fmt.Errorf("astfile: line %d: unrecognized let-binding tag %q", r.line, tag)
	}
	return lb, nil
}

func (r *Reader) readCaseBranch() (ast.CaseBranch, error) {
	v, err := r.readIdentifier()
	if err != nil {
		return ast.CaseBranch{}, err
	}
	typ, err := r.readIdentifier()
	if err != nil {
		return ast.CaseBranch{}, err
	}
	body, err := r.readExpr()
	if err != nil {
		return ast.CaseBranch{}, err
	}
	return ast.CaseBranch{Var: v, Type: typ, Body: body}, nil
}

func (r *Reader) readExprList() ([]ast.Expr, error) {
	n, err := r.nextInt()
	if err != nil {
		return nil, err
	}
	var exprs []ast.Expr
	for i := 0; i < n; i++ {
		e, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (r *Reader) readExpr() (ast.Expr, error) {
	line, err := r.nextInt()
	if err != nil {
		return nil, err
	}
	tag, err := r.next()
	if err != nil {
		return nil, err
	}
	b := ast.Base{Line: line}

	switch tag {
	case "assign":
		v, err := r.readIdentifier()
		if err != nil {
			return nil, err
		}
		rhs, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{Base: b, Var: v, Rhs: rhs}, nil

	case "dynamic_dispatch":
		recv, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		method, err := r.readIdentifier()
		if err != nil {
			return nil, err
		}
		args, err := r.readExprList()
		if err != nil {
			return nil, err
		}
		return &ast.DynamicDispatchExpr{Base: b, Receiver: recv, Method: method, Args: args}, nil

	case "static_dispatch":
		recv, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		staticType, err := r.readIdentifier()
		if err != nil {
			return nil, err
		}
		method, err := r.readIdentifier()
		if err != nil {
			return nil, err
		}
		args, err := r.readExprList()
		if err != nil {
			return nil, err
		}
		return &ast.StaticDispatchExpr{Base: b, Receiver: recv, StaticType: staticType, Method: method, Args: args}, nil

	case "self_dispatch":
		method, err := r.readIdentifier()
		if err != nil {
			return nil, err
		}
		args, err := r.readExprList()
		if err != nil {
			return nil, err
		}
		return &ast.SelfDispatchExpr{Base: b, Method: method, Args: args}, nil

	case "if":
		pred, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		thenE, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		elseE, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		return &ast.IfExpr{Base: b, Predicate: pred, Then: thenE, Else: elseE}, nil

	case "while":
		pred, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		body, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		return &ast.WhileExpr{Base: b, Predicate: pred, Body: body}, nil

	case "block":
		body, err := r.readExprList()
		if err != nil {
			return nil, err
		}
		return &ast.BlockExpr{Base: b, Body: body}, nil

	case "let":
		n, err := r.nextInt()
		if err != nil {
			return nil, err
		}
		var bindings []ast.LetBinding
		for i := 0; i < n; i++ {
			binding, err := r.readBinding()
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, binding)
		}
		body, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		return &ast.LetExpr{Base: b, Bindings: bindings, Body: body}, nil

	case "case":
		scrutinee, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		n, err := r.nextInt()
		if err != nil {
			return nil, err
		}
		var branches []ast.CaseBranch
		for i := 0; i < n; i++ {
			branch, err := r.readCaseBranch()
			if err != nil {
				return nil, err
			}
			branches = append(branches, branch)
		}
		return &ast.CaseExpr{Base: b, Scrutinee: scrutinee, Branches: branches}, nil

	case "new":
		typeName, err := r.readIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.NewExpr{Base: b, TypeName: typeName}, nil

	case "identifier":
		name, err := r.readIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.IdentifierExpr{Base: b, Name: name}, nil

	case "integer":
		v, err := r.next()
		if err != nil {
			return nil, err
		}
		return &ast.IntegerExpr{Base: b, Value: v}, nil

	case "string":
		v, err := r.next()
		if err != nil {
			return nil, err
		}
		return &ast.StringExpr{Base: b, Value: v}, nil

	case "true":
		return &ast.BoolExpr{Base: b, Value: true}, nil
	case "false":
		return &ast.BoolExpr{Base: b, Value: false}, nil

	case "plus", "minus", "times", "divide":
		left, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		right, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		kind := map[string]ast.ArithKind{"plus": ast.Plus, "minus": ast.Minus, "times": ast.Times, "divide": ast.Divide}[tag]
		return &ast.ArithExpr{Base: b, Op: kind, Left: left, Right: right}, nil

	case "lt", "le", "eq":
		left, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		right, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		kind := map[string]ast.CompareKind{"lt": ast.Lt, "le": ast.Le, "eq": ast.Eq}[tag]
		return &ast.CompareExpr{Base: b, Op: kind, Left: left, Right: right}, nil

	case "negate":
		operand, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		return &ast.NegateExpr{Base: b, Operand: operand}, nil

	case "not":
		operand, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		return &ast.NotExpr{Base: b, Operand: operand}, nil

	case "isvoid":
		operand, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		return &ast.IsVoidExpr{Base: b, Operand: operand}, nil

	case "internal":
		symbol, err := r.next()
		if err != nil {
			return nil, err
		}
		return &ast.InternalExpr{Base: b, Symbol: symbol}, nil

	default:
		return nil, fmt.Errorf("astfile: line %d: unrecognized expression tag %q", r.line, tag)
	}
}
