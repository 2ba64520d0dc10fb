// Package typefile reads and writes the annotated type file (§4.6, §6.3):
// the boundary between the type checker and the code generator. It
// concatenates four sections — class_map, implementation_map, parent_map,
// and the fully annotated program AST — each consumed independently by the
// generator (class_map for object layout, implementation_map for vtables
// and method bodies, parent_map for the class hierarchy, the annotated AST
// only incidentally since implementation_map already carries every body).
package typefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
)

// Write serializes tab's class hierarchy and prog's (already type-checked)
// classes to w.
func Write(w io.Writer, prog *ast.Program, tab *classtable.Table) error {
	bw := &writer{w: bufio.NewWriter(w), tab: tab}
	bw.classMap()
	bw.implementationMap()
	bw.parentMap()
	bw.program(prog)
	if bw.err != nil {
		return bw.err
	}
	return bw.w.Flush()
}

type writer struct {
	w   *bufio.Writer
	tab *classtable.Table
	err error
}

func (w *writer) line(s string) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintln(w.w, s)
}

func (w *writer) count(n int) { w.line(strconv.Itoa(n)) }

func (w *writer) id(id ast.Identifier) {
	w.line(strconv.Itoa(id.Line))
	w.line(id.Text)
}

func (w *writer) classMap() {
	names := w.tab.Names()
	w.line("class_map")
	w.count(len(names))
	for _, name := range names {
		w.line(name)
		attrs := w.tab.AllAttributes(name)
		w.count(len(attrs))
		for _, a := range attrs {
			if a.Init == nil {
				w.line("no_initializer")
			} else {
				w.line("initializer")
			}
			w.line(a.Name)
			w.line(a.Type)
			if a.Init != nil {
				w.expr(a.Init)
			}
		}
	}
}

func (w *writer) implementationMap() {
	names := w.tab.Names()
	w.line("implementation_map")
	w.count(len(names))
	for _, name := range names {
		w.line(name)
		methods := w.tab.AllMethods(name)
		w.count(len(methods))
		for _, m := range methods {
			w.line(m.Name)
			w.count(len(m.Formals))
			for _, f := range m.Formals {
				w.line(f.Name)
			}
			w.line(m.DefiningClass)
			if internal, ok := m.Body.(*ast.InternalExpr); ok {
				w.line("0")
				w.line(m.ReturnType)
				w.line("internal")
				w.line(internal.Symbol)
			} else {
				w.expr(m.Body)
			}
		}
	}
}

func (w *writer) parentMap() {
	names := w.tab.Names()
	w.line("parent_map")
	w.count(len(names) - 1) // exclude Object
	for _, name := range names {
		if name == classtable.ObjectClass {
			continue
		}
		w.line(name)
		w.line(w.tab.Parent(name))
	}
}

func (w *writer) program(p *ast.Program) {
	w.count(len(p.Classes))
	for _, c := range p.Classes {
		w.class(c)
	}
}

func (w *writer) class(c *ast.Class) {
	w.line(strconv.Itoa(c.Line))
	w.id(c.Name)
	if c.Inherits {
		w.line("inherits")
		w.id(c.Parent)
	} else {
		w.line("no_inherits")
	}
	w.count(len(c.Attributes) + len(c.Methods))
	for _, a := range c.Attributes {
		w.attributeFeature(a)
	}
	for _, m := range c.Methods {
		w.methodFeature(m)
	}
}

func (w *writer) attributeFeature(a *ast.Attribute) {
	if a.Init == nil {
		w.line("attribute_no_init")
		w.id(a.Name)
		w.id(a.Type)
		return
	}
	w.line("attribute_init")
	w.id(a.Name)
	w.id(a.Type)
	w.expr(a.Init)
}

func (w *writer) methodFeature(m *ast.Method) {
	w.line("method")
	w.id(m.Name)
	w.count(len(m.Formals))
	for _, f := range m.Formals {
		w.id(f.Name)
		w.id(f.Type)
	}
	w.id(m.ReturnType)
	w.expr(m.Body)
}

// expr writes an annotated expression node: line, annotated type, tag, then
// the tag's children (§4.6, §6.3: "each expression is line\n type\n tag\n
// children").
func (w *writer) expr(e ast.Expr) {
	w.line(strconv.Itoa(e.Pos()))
	w.line(e.Type())
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
		w.err = fmt.Errorf("typefile: unhandled expression kind %T", e)
	}
}

func (w *writer) binding(b ast.LetBinding) {
	if b.Init == nil {
		w.line("let_binding_no_init")
		w.id(b.Var)
		w.id(b.Type)
		return
	}
	w.line("let_binding_init")
	w.id(b.Var)
	w.id(b.Type)
	w.expr(b.Init)
}

func (w *writer) caseBranch(b ast.CaseBranch) {
	w.id(b.Var)
	w.id(b.Type)
	w.expr(b.Body)
}
