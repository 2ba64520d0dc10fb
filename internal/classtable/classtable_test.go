package classtable

import (
	"strings"
	"testing"

	"github.com/mekotech/coolc/internal/ast"
)

func cls(name, parent string, inherits bool, methods ...*ast.Method) *ast.Class {
	c := &ast.Class{Name: ast.Identifier{Text: name}, Methods: methods}
	if inherits {
		c.Inherits = true
		c.Parent = ast.Identifier{Text: parent}
	}
	return c
}

func method(name, retType string, formals ...ast.Formal) *ast.Method {
	return &ast.Method{
		Name:       ast.Identifier{Text: name},
		Formals:    formals,
		ReturnType: ast.Identifier{Text: retType},
		Body:       &ast.IntegerExpr{Value: "0"},
	}
}

func TestBuildMinimalProgram(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.Class{
		cls("Main", "IO", true, method("main", "Object")),
	}}
	tab, err := Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !tab.Conforms("Main", "IO") || !tab.Conforms("Main", ObjectClass) {
		t.Fatalf("Main should conform to IO and Object")
	}
	if _, ok := tab.FindMethod("Main", "out_string"); !ok {
		t.Fatalf("Main should inherit out_string from IO")
	}
}

func TestMissingMainIsError(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.Class{
		cls("Foo", "", false, method("bar", "Object")),
	}}
	if _, err := Build(prog); err == nil {
		t.Fatal("expected an error for a missing Main class")
	}
}

func TestInheritanceCycleIsError(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.Class{
		cls("A", "B", true),
		cls("B", "A", true),
		cls("Main", "IO", true, method("main", "Object")),
	}}
	_, err := Build(prog)
	if err == nil {
		t.Fatal("expected an inheritance-cycle error")
	}
	if !strings.Contains(err.Error(), "inheritance cycle") {
		t.Fatalf("got %q, want it to mention an inheritance cycle", err.Error())
	}
}

func TestInheritingFromPrimitiveIsError(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.Class{
		cls("Main", "Int", true, method("main", "Object")),
	}}
	if _, err := Build(prog); err == nil {
		t.Fatal("expected an error for inheriting from a primitive class")
	}
}

func TestOverrideArityMismatchIsError(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.Class{
		cls("A", "", false, method("f", "Int", ast.Formal{Name: ast.Identifier{Text: "x"}, Type: ast.Identifier{Text: "Int"}})),
		cls("B", "A", true, method("f", "Int",
			ast.Formal{Name: ast.Identifier{Text: "x"}, Type: ast.Identifier{Text: "Int"}},
			ast.Formal{Name: ast.Identifier{Text: "y"}, Type: ast.Identifier{Text: "Int"}},
		)),
		cls("Main", "IO", true, method("main", "Object")),
	}}
	_, err := Build(prog)
	if err == nil || !strings.Contains(err.Error(), "different formals") {
		t.Fatalf("got %v, want an error mentioning different formals", err)
	}
}

func TestLubAndConforms(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.Class{
		cls("A", "", false),
		cls("B", "A", true),
		cls("C", "A", true),
		cls("Main", "IO", true, method("main", "Object")),
	}}
	tab, err := Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := tab.Lub("B", "C"); got != "A" {
		t.Fatalf("Lub(B, C) = %s, want A", got)
	}
	if got := tab.Lub("B", "B"); got != "B" {
		t.Fatalf("Lub(B, B) = %s, want B", got)
	}
	if got := tab.Lub("B", ObjectClass); got != ObjectClass {
		t.Fatalf("Lub(B, Object) = %s, want Object", got)
	}
	if tab.Lub("B", "C") != tab.Lub("C", "B") {
		t.Fatal("Lub is not commutative")
	}
}

func TestAllMethodsAppliesOverridesAtInheritedIndex(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.Class{
		cls("A", "", false, method("f", "Int"), method("g", "Int")),
		cls("B", "A", true, method("f", "Int")),
		cls("Main", "IO", true, method("main", "Object")),
	}}
	tab, err := Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	methods := tab.AllMethods("B")
	// Object's abort/type_name/copy come first, then A's f and g.
	if len(methods) != 5 {
		t.Fatalf("got %d methods, want 5", len(methods))
	}
	if methods[3].Name != "f" || methods[3].DefiningClass != "B" {
		t.Fatalf("f should be overridden in place: %+v", methods[3])
	}
	if methods[4].Name != "g" || methods[4].DefiningClass != "A" {
		t.Fatalf("g should remain inherited from A: %+v", methods[4])
	}
}
