package semantic

import (
	"strings"
	"testing"

	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
)

func id(name string) ast.Identifier { return ast.Identifier{Text: name} }

func build(t *testing.T, classes ...*ast.Class) *classtable.Table {
	tab, err := classtable.Build(&ast.Program{Classes: classes})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tab
}

func TestCheckMinimalProgram(t *testing.T) {
	main := &ast.Class{
		Name:     id("Main"),
		Inherits: true,
		Parent:   id("IO"),
		Methods: []*ast.Method{{
			Name:       id("main"),
			ReturnType: id("Object"),
			Body: &ast.SelfDispatchExpr{
				Method: id("out_string"),
				Args:   []ast.Expr{&ast.StringExpr{Value: "hello"}},
			},
		}},
	}
	tab := build(t, main)
	if err := Check(tab); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got := main.Methods[0].Body.Type(); got != "SELF_TYPE" {
		t.Fatalf("out_string result type = %s, want SELF_TYPE", got)
	}
}

func TestUnboundIdentifierIsError(t *testing.T) {
	main := &ast.Class{
		Name: id("Main"), Inherits: true, Parent: id("IO"),
		Methods: []*ast.Method{{
			Name:       id("main"),
			ReturnType: id("Object"),
			Body:       &ast.IdentifierExpr{Name: id("nonexistent")},
		}},
	}
	tab := build(t, main)
	err := Check(tab)
	if err == nil || !strings.Contains(err.Error(), "unbound identifier") {
		t.Fatalf("got %v, want an unbound-identifier error", err)
	}
}

func TestIfBranchesUseLub(t *testing.T) {
	a := &ast.Class{Name: id("A")}
	b := &ast.Class{Name: id("B"), Inherits: true, Parent: id("A")}
	cc := &ast.Class{Name: id("C"), Inherits: true, Parent: id("A")}
	main := &ast.Class{
		Name: id("Main"), Inherits: true, Parent: id("IO"),
		Methods: []*ast.Method{{
			Name:       id("main"),
			ReturnType: id("Object"),
			Body: &ast.IfExpr{
				Predicate: &ast.BoolExpr{Value: true},
				Then:      &ast.NewExpr{TypeName: id("B")},
				Else:      &ast.NewExpr{TypeName: id("C")},
			},
		}},
	}
	tab := build(t, a, b, cc, main)
	if err := Check(tab); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got := main.Methods[0].Body.Type(); got != "A" {
		t.Fatalf("if result type = %s, want A", got)
	}
}

func TestArithOperandMustBeInt(t *testing.T) {
	main := &ast.Class{
		Name: id("Main"), Inherits: true, Parent: id("IO"),
		Methods: []*ast.Method{{
			Name:       id("main"),
			ReturnType: id("Object"),
			Body: &ast.ArithExpr{
				Op:    ast.Plus,
				Left:  &ast.IntegerExpr{Value: "1"},
				Right: &ast.StringExpr{Value: "nope"},
			},
		}},
	}
	tab := build(t, main)
	if err := Check(tab); err == nil {
		t.Fatal("expected an error for a String operand to +")
	}
}

func TestDynamicDispatchSelfTypeSubstitution(t *testing.T) {
	// class A { copy2() : SELF_TYPE { self.copy() }; };
	a := &ast.Class{
		Name: id("A"),
		Methods: []*ast.Method{{
			Name:       id("copy2"),
			ReturnType: id("SELF_TYPE"),
			Body: &ast.DynamicDispatchExpr{
				Receiver: &ast.IdentifierExpr{Name: id("self")},
				Method:   id("copy"),
			},
		}},
	}
	main := &ast.Class{
		Name: id("Main"), Inherits: true, Parent: id("IO"),
		Methods: []*ast.Method{{Name: id("main"), ReturnType: id("Object"), Body: &ast.NewExpr{TypeName: id("Main")}}},
	}
	tab := build(t, a, main)
	if err := Check(tab); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got := a.Methods[0].Body.Type(); got != "SELF_TYPE" {
		t.Fatalf("self.copy() result type = %s, want SELF_TYPE", got)
	}
}

func TestCaseDuplicateBranchTypeIsError(t *testing.T) {
	main := &ast.Class{
		Name: id("Main"), Inherits: true, Parent: id("IO"),
		Methods: []*ast.Method{{
			Name:       id("main"),
			ReturnType: id("Object"),
			Body: &ast.CaseExpr{
				Scrutinee: &ast.NewExpr{TypeName: id("Object")},
				Branches: []ast.CaseBranch{
					{Var: id("x"), Type: id("Int"), Body: &ast.IntegerExpr{Value: "1"}},
					{Var: id("y"), Type: id("Int"), Body: &ast.IntegerExpr{Value: "2"}},
				},
			},
		}},
	}
	tab := build(t, main)
	err := Check(tab)
	if err == nil || !strings.Contains(err.Error(), "duplicate case branch") {
		t.Fatalf("got %v, want a duplicate-case-branch error", err)
	}
}
