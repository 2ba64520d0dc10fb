package typefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/mekotech/coolc/internal/ast"
)

// ClassAttr is one entry of a class_map attribute list: already flattened
// inherited-first by the writer, so the reader does not need to recompute
// inheritance (§4.6).
type ClassAttr struct {
	Name string
	Type string
	Init ast.Expr
}

// MethodInfo is one entry of an implementation_map method list: formal
// names only (the generator calls by position, not by type, §4.7.4), the
// defining class (for dispatch-label emission), and the body.
type MethodInfo struct {
	Name          string
	Formals       []string
	DefiningClass string
	Body          ast.Expr
}

// Parsed is the fully-read annotated type file: the four sections plus
// convenience lookups, matching what the generator needs from each (§4.7).
type Parsed struct {
	ClassNames      []string // alphabetical, from class_map
	ClassAttributes map[string][]ClassAttr
	ClassMethods    map[string][]MethodInfo
	Parent          map[string]string // excludes Object
	Program         *ast.Program
}

// Read parses the full annotated type file from r.
func Read(r io.Reader) (*Parsed, error) {
	rd := &reader{sc: bufio.NewScanner(r)}
	rd.sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	p := &Parsed{
		ClassAttributes: make(map[string][]ClassAttr),
		ClassMethods:    make(map[string][]MethodInfo),
		Parent:          make(map[string]string),
	}

	if err := rd.expectHeader("class_map"); err != nil {
		return nil, err
	}
	if err := rd.readClassMap(p); err != nil {
		return nil, err
	}
	if err := rd.expectHeader("implementation_map"); err != nil {
		return nil, err
	}
	if err := rd.readImplementationMap(p); err != nil {
		return nil, err
	}
	if err := rd.expectHeader("parent_map"); err != nil {
		return nil, err
	}
	if err := rd.readParentMap(p); err != nil {
		return nil, err
	}
	prog, err := rd.readProgram()
	if err != nil {
		return nil, err
	}
	p.Program = prog
	return p, nil
}

type reader struct {
	sc   *bufio.Scanner
	line int
}

func (r *reader) next() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("typefile: unexpected end of input at line %d", r.line)
	}
	r.line++
	return r.sc.Text(), nil
}

func (r *reader) expectHeader(want string) error {
	got, err := r.next()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("typefile: line %d: expected section header %q, got %q", r.line, want, got)
	}
	return nil
}

func (r *reader) nextInt() (int, error) {
	s, err := r.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("typefile: line %d: expected integer, got %q", r.line, s)
	}
	return n, nil
}

func (r *reader) readIdentifier() (ast.Identifier, error) {
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

func (r *reader) readClassMap(p *Parsed) error {
	n, err := r.nextInt()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		name, err := r.next()
		if err != nil {
			return err
		}
		p.ClassNames = append(p.ClassNames, name)
		attrCount, err := r.nextInt()
		if err != nil {
			return err
		}
		var attrs []ClassAttr
		for j := 0; j < attrCount; j++ {
			tag, err := r.next()
			if err != nil {
				return err
			}
			attrName, err := r.next()
			if err != nil {
				return err
			}
			attrType, err := r.next()
			if err != nil {
				return err
			}
			attr := ClassAttr{Name: attrName, Type: attrType}
			if tag == "initializer" {
				if attr.Init, err = r.readExpr(); err != nil {
					return err
				}
			} else if tag != "no_initializer" {
				return fmt.Errorf("typefile: line %d: unrecognized attribute tag %q", r.line, tag)
			}
			attrs = append(attrs, attr)
		}
		p.ClassAttributes[name] = attrs
	}
	return nil
}

func (r *reader) readImplementationMap(p *Parsed) error {
	n, err := r.nextInt()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		name, err := r.next()
		if err != nil {
			return err
		}
		methodCount, err := r.nextInt()
		if err != nil {
			return err
		}
		var methods []MethodInfo
		for j := 0; j < methodCount; j++ {
			mName, err := r.next()
			if err != nil {
				return err
			}
			formalCount, err := r.nextInt()
			if err != nil {
				return err
			}
			var formals []string
			for k := 0; k < formalCount; k++ {
				f, err := r.next()
				if err != nil {
					return err
				}
				formals = append(formals, f)
			}
			defClass, err := r.next()
			if err != nil {
				return err
			}
			body, err := r.readExpr()
			if err != nil {
				return err
			}
			methods = append(methods, MethodInfo{Name: mName, Formals: formals, DefiningClass: defClass, Body: body})
		}
		p.ClassMethods[name] = methods
	}
	return nil
}

func (r *reader) readParentMap(p *Parsed) error {
	n, err := r.nextInt()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		name, err := r.next()
		if err != nil {
			return err
		}
		parent, err := r.next()
		if err != nil {
			return err
		}
		p.Parent[name] = parent
	}
	return nil
}

func (r *reader) readProgram() (*ast.Program, error) {
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

func (r *reader) readClass() (*ast.Class, error) {
	line, err := r.nextInt()
	if err != nil {
		return nil, err
	}
	name, err := r.readIdentifier()
	if err != nil {
		return nil, err
	}
	tag, err := r.next()
	if err != nil {
		return nil, err
	}
	c := &ast.Class{Line: line, Name: name}
	switch tag {
	case "inherits":
		c.Inherits = true
		if c.Parent, err = r.readIdentifier(); err != nil {
			return nil, err
		}
	case "no_inherits":
	default:
		return nil, fmt.Errorf("typefile: line %d: expected inherits/no_inherits, got %q", r.line, tag)
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

func (r *reader) readFeature(c *ast.Class) error {
	tag, err := r.next()
	if err != nil {
		return err
	}
	switch tag {
	case "attribute_no_init", "attribute_init":
		name, err := r.readIdentifier()
		if err != nil {
			return err
		}
		typ, err := r.readIdentifier()
		if err != nil {
			return err
		}
		a := &ast.Attribute{Name: name, Type: typ}
		if tag == "attribute_init" {
			if a.Init, err = r.readExpr(); err != nil {
				return err
			}
		}
		c.Attributes = append(c.Attributes, a)
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
			fname, err := r.readIdentifier()
			if err != nil {
				return err
			}
			ftype, err := r.readIdentifier()
			if err != nil {
				return err
			}
			m.Formals = append(m.Formals, ast.Formal{Name: fname, Type: ftype})
		}
		if m.ReturnType, err = r.readIdentifier(); err != nil {
			return err
		}
		if m.Body, err = r.readExpr(); err != nil {
			return err
		}
		m.DefiningClass = c.Name.Text
		c.Methods = append(c.Methods, m)
	default:
		return fmt.Errorf("typefile: line %d: unrecognized feature tag %q", r.line, tag)
	}
	return nil
}

func (r *reader) readBinding() (ast.LetBinding, error) {
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
		return ast.LetBinding{}, fmt.Errorf("typefile: line %d: unrecognized let-binding tag %q", r.line, tag)
	}
	return lb, nil
}

func (r *reader) readCaseBranch() (ast.CaseBranch, error) {
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

func (r *reader) readExprList() ([]ast.Expr, error) {
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

// readExpr reads one annotated expression node: line, type, tag, children
// (§4.6, §6.3).
func (r *reader) readExpr() (ast.Expr, error) {
	line, err := r.nextInt()
	if err != nil {
		return nil, err
	}
	typ, err := r.next()
	if err != nil {
		return nil, err
	}
	tag, err := r.next()
	if err != nil {
		return nil, err
	}
	b := ast.Base{Line: line, AnnotatedType: typ}

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
		return nil, fmt.Errorf("typefile: line %d: unrecognized expression tag %q", r.line, tag)
	}
}
