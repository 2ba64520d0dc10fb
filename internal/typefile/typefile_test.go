package typefile

import (
	"bytes"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/semantic"
)

func buildChecked(t *testing.T, classes ...*ast.Class) (*ast.Program, *classtable.Table) {
	prog := &ast.Program{Classes: classes}
	tab, err := classtable.Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := semantic.Check(tab); err != nil {
		t.Fatalf("Check: %v", err)
	}
	return prog, tab
}

func TestWriteMatchesGolden(t *testing.T) {
	main := &ast.Class{
		Name:     ast.Identifier{Line: 1, Text: "Main"},
		Inherits: true,
		Parent:   ast.Identifier{Line: 1, Text: "IO"},
		Methods: []*ast.Method{{
			Name:       ast.Identifier{Line: 2, Text: "main"},
			ReturnType: ast.Identifier{Line: 2, Text: "Object"},
			Body: &ast.SelfDispatchExpr{
				Base:   ast.Base{Line: 2},
				Method: ast.Identifier{Line: 2, Text: "out_string"},
				Args:   []ast.Expr{&ast.StringExpr{Base: ast.Base{Line: 2}, Value: "hi"}},
			},
		}},
	}
	prog, tab := buildChecked(t, main)

	var buf bytes.Buffer
	if err := Write(&buf, prog, tab); err != nil {
		t.Fatalf("Write: %v", err)
	}
	snaps.MatchSnapshot(t, buf.String())
}

func TestReadRoundTripsClassAndParentMaps(t *testing.T) {
	a := &ast.Class{Name: ast.Identifier{Line: 1, Text: "A"}}
	b := &ast.Class{Name: ast.Identifier{Line: 2, Text: "B"}, Inherits: true, Parent: ast.Identifier{Line: 2, Text: "A"},
		Attributes: []*ast.Attribute{{Name: ast.Identifier{Line: 2, Text: "x"}, Type: ast.Identifier{Line: 2, Text: "Int"}}}}
	main := &ast.Class{
		Name: ast.Identifier{Line: 3, Text: "Main"}, Inherits: true, Parent: ast.Identifier{Line: 3, Text: "IO"},
		Methods: []*ast.Method{{
			Name:       ast.Identifier{Line: 4, Text: "main"},
			ReturnType: ast.Identifier{Line: 4, Text: "Object"},
			Body:       &ast.NewExpr{Base: ast.Base{Line: 4}, TypeName: ast.Identifier{Line: 4, Text: "Main"}},
		}},
	}
	prog, tab := buildChecked(t, a, b, main)

	var buf bytes.Buffer
	if err := Write(&buf, prog, tab); err != nil {
		t.Fatalf("Write: %v", err)
	}

	parsed, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if parsed.Parent["B"] != "A" {
		t.Fatalf("parent of B = %q, want A", parsed.Parent["B"])
	}
	if _, ok := parsed.Parent["Object"]; ok {
		t.Fatal("parent_map should exclude Object")
	}
	attrs := parsed.ClassAttributes["B"]
	if len(attrs) != 1 || attrs[0].Name != "x" || attrs[0].Type != "Int" {
		t.Fatalf("unexpected B attributes: %+v", attrs)
	}
	methods := parsed.ClassMethods["Main"]
	found := false
	for _, m := range methods {
		if m.Name == "out_string" {
			found = true
			if m.DefiningClass != "IO" {
				t.Fatalf("out_string defining class = %s, want IO", m.DefiningClass)
			}
		}
	}
	if !found {
		t.Fatal("Main should inherit out_string from IO")
	}
	if len(parsed.Program.Classes) != 3 {
		t.Fatalf("got %d classes in annotated program, want 3", len(parsed.Program.Classes))
	}
}
