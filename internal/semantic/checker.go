// Package semantic implements the type checker (§4.5): a single
// bottom-up walk per method body and attribute initializer that resolves
// identifiers against a scope chain of formals, class attributes, and
// active `let`/`case` bindings, and annotates every expression node with
// its static type. The reference design splits this into a scope-only
// validation pass and an annotation pass; this implementation folds both
// into one pass since every phase-A check is subsumed by phase B's rules
// for the same construct (see DESIGN.md).
//
// A violation aborts the whole check with the first diagnostic found,
// matching the fail-fast semantics of every other compiler stage.
package semantic

import (
	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/diag"
)

// Checker walks one class's feature bodies against the class table,
// resolving SELF_TYPE against class (the class whose feature is currently
// being checked).
type Checker struct {
	classes *classtable.Table
	class   string
}

// Check type-checks every user-declared class's attributes and methods in
// tab, annotating their expression trees in place. Built-in classes have no
// source bodies to check (their methods are `internal` markers).
func Check(tab *classtable.Table) error {
	for _, name := range tab.Names() {
		if isBuiltin(name) {
			continue
		}
		if err := checkClass(tab, name); err != nil {
			return err
		}
	}
	return nil
}

func isBuiltin(name string) bool {
	switch name {
	case classtable.ObjectClass, classtable.IOClass, classtable.StringClass, classtable.IntClass, classtable.BoolClass:
		return true
	default:
		return false
	}
}

func checkClass(tab *classtable.Table, class string) error {
	entry := tab.Lookup(class)
	c := &Checker{classes: tab, class: class}

	base := NewSymbolTable()
	for _, a := range tab.AllAttributes(class) {
		base.Define(a.Name, a.Type)
	}

	for _, a := range entry.OwnAttributes {
		if a.Init == nil {
			continue
		}
		initType, err := c.annotate(a.Init, base)
		if err != nil {
			return err
		}
		declared := c.resolveSelfType(a.Type)
		if !tab.Conforms(c.resolveSelfType(initType), declared) {
			return diag.TypeError(a.Init.Pos(), "initializer type %s does not conform to declared type %s of attribute %s", initType, a.Type, a.Name)
		}
	}

	for _, m := range entry.OwnMethods {
		if _, ok := m.Body.(*ast.InternalExpr); ok {
			continue
		}
		scope := NewEnclosedSymbolTable(base)
		for _, f := range m.Formals {
			if !tab.Exists(f.Type) {
				return diag.TypeError(m.Body.Pos(), "formal %s of method %s has undefined type %s", f.Name, m.Name, f.Type)
			}
			scope.Define(f.Name, f.Type)
		}
		bodyType, err := c.annotate(m.Body, scope)
		if err != nil {
			return err
		}
		declared := c.resolveSelfType(m.ReturnType)
		if !tab.Conforms(c.resolveSelfType(bodyType), declared) {
			return diag.TypeError(m.Body.Pos(), "body type %s of method %s does not conform to declared return type %s", bodyType, m.Name, m.ReturnType)
		}
	}
	return nil
}

// resolveSelfType substitutes c.class for SELF_TYPE, leaving any other type
// name untouched (§4.5, GLOSSARY "SELF_TYPE").
func (c *Checker) resolveSelfType(t string) string {
	if t == classtable.SelfType {
		return c.class
	}
	return t
}

// annotate dispatches on e's concrete type and sets its annotated type,
// returning that type for the caller's convenience. It is the single
// per-kind rule table of §4.5 phase B.
func (c *Checker) annotate(e ast.Expr, scope *SymbolTable) (string, error) {
	var t string
	var err error

	switch e := e.(type) {
	case *ast.IntegerExpr:
		t = classtable.IntClass
	case *ast.StringExpr:
		t = classtable.StringClass
	case *ast.BoolExpr:
		t = classtable.BoolClass
	case *ast.IdentifierExpr:
		t, err = c.annotateIdentifier(e, scope)
	case *ast.NewExpr:
		t, err = c.annotateNew(e)
	case *ast.AssignExpr:
		t, err = c.annotateAssign(e, scope)
	case *ast.ArithExpr:
		t, err = c.annotateArith(e, scope)
	case *ast.CompareExpr:
		t, err = c.annotateCompare(e, scope)
	case *ast.NotExpr:
		t, err = c.annotateNot(e, scope)
	case *ast.NegateExpr:
		t, err = c.annotateNegate(e, scope)
	case *ast.IsVoidExpr:
		t, err = c.annotateIsVoid(e, scope)
	case *ast.IfExpr:
		t, err = c.annotateIf(e, scope)
	case *ast.WhileExpr:
		t, err = c.annotateWhile(e, scope)
	case *ast.BlockExpr:
		t, err = c.annotateBlock(e, scope)
	case *ast.LetExpr:
		t, err = c.annotateLet(e, scope)
	case *ast.CaseExpr:
		t, err = c.annotateCase(e, scope)
	case *ast.DynamicDispatchExpr:
		t, err = c.annotateDynamicDispatch(e, scope)
	case *ast.StaticDispatchExpr:
		t, err = c.annotateStaticDispatch(e, scope)
	case *ast.SelfDispatchExpr:
		t, err = c.annotateSelfDispatch(e, scope)
	case *ast.InternalExpr:
		t = classtable.ObjectClass // never reached in source bodies; defensive only
	default:
		return "", diag.TypeError(e.Pos(), "internal error: unhandled expression kind %T", e)
	}
	if err != nil {
		return "", err
	}
	e.SetType(t)
	return t, nil
}

// checkArgs validates args against formals (arity, then per-argument
// conformance with SELF_TYPE substituted by c.class), shared by all three
// dispatch forms (§4.5 rule table, dynamic/static/self dispatch rows).
func (c *Checker) checkArgs(line int, methodName string, formals []classtable.Formal, args []ast.Expr, scope *SymbolTable) error {
	if len(args) != len(formals) {
		return diag.TypeError(line, "method %s called with %d arguments, expected %d", methodName, len(args), len(formals))
	}
	for i, arg := range args {
		argType, err := c.annotate(arg, scope)
		if err != nil {
			return err
		}
		actual := c.resolveSelfType(argType)
		if !c.classes.Conforms(actual, formals[i].Type) {
			return diag.TypeError(arg.Pos(), "argument %d to %s has type %s, expected %s", i+1, methodName, argType, formals[i].Type)
		}
	}
	return nil
}
