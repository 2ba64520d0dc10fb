package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/semantic"
	"github.com/mekotech/coolc/internal/typefile"
)

// buildParsed runs the full pipeline a real compiler invocation would:
// class table, type checking, annotated type file round-trip. codegen only
// ever sees the result of that round-trip, never a raw *ast.Program.
func buildParsed(t *testing.T, classes ...*ast.Class) *typefile.Parsed {
	t.Helper()
	prog := &ast.Program{Classes: classes}
	tab, err := classtable.Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := semantic.Check(tab); err != nil {
		t.Fatalf("Check: %v", err)
	}

	var buf bytes.Buffer
	if err := typefile.Write(&buf, prog, tab); err != nil {
		t.Fatalf("Write: %v", err)
	}
	parsed, err := typefile.Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return parsed
}

func generate(t *testing.T, p *typefile.Parsed) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Generate(&buf, p); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return buf.String()
}

func TestGenerateHelloWorldMatchesGolden(t *testing.T) {
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
				Args:   []ast.Expr{&ast.StringExpr{Base: ast.Base{Line: 2}, Value: "hello, world\n"}},
			},
		}},
	}
	parsed := buildParsed(t, main)
	snaps.MatchSnapshot(t, generate(t, parsed))
}

// TestGenerateEmitsOneLabelPerClass checks the structural skeleton every
// program gets regardless of its classes: a constructor and a vtable per
// class, the four runtime-error stubs, and the entry point, without
// depending on exact instruction sequences (those are covered by the
// golden tests).
func TestGenerateEmitsOneLabelPerClass(t *testing.T) {
	a := &ast.Class{
		Name: ast.Identifier{Line: 1, Text: "A"},
		Attributes: []*ast.Attribute{{
			Name: ast.Identifier{Line: 1, Text: "x"},
			Type: ast.Identifier{Line: 1, Text: "Int"},
			Init: &ast.IntegerExpr{Base: ast.Base{Line: 1}, Value: "0"},
		}},
		Methods: []*ast.Method{{
			Name:       ast.Identifier{Line: 2, Text: "getX"},
			ReturnType: ast.Identifier{Line: 2, Text: "Int"},
			Body:       &ast.IdentifierExpr{Base: ast.Base{Line: 2}, Name: ast.Identifier{Line: 2, Text: "x"}},
		}},
	}
	main := &ast.Class{
		Name:     ast.Identifier{Line: 4, Text: "Main"},
		Inherits: true,
		Parent:   ast.Identifier{Line: 4, Text: "IO"},
		Methods: []*ast.Method{{
			Name:       ast.Identifier{Line: 5, Text: "main"},
			ReturnType: ast.Identifier{Line: 5, Text: "Object"},
			Body:       &ast.NewExpr{Base: ast.Base{Line: 5}, TypeName: ast.Identifier{Line: 5, Text: "A"}},
		}},
	}
	parsed := buildParsed(t, a, main)
	out := generate(t, parsed)

	for _, label := range []string{
		"A..new:", "A..vtable:", "A.getX:",
		"Main..new:", "Main..vtable:", "Main.main:",
		"Object..new:", "Object..vtable:",
		"IO..new:", "IO..vtable:",
		"String..new:", "Int..new:", "Bool..new:",
		rtDispatchVoid + ":", rtDivZero + ":", rtCaseNoMatch + ":", rtCaseVoid + ":",
		"start:",
	} {
		if !strings.Contains(out, label) {
			t.Errorf("generated assembly missing label %q", label)
		}
	}
}

// TestGenerateArithmeticDispatchCaseMatchesGolden exercises arithmetic,
// dynamic dispatch, `let`, `if`, `while` and `case` lowering together in
// one program, so a regression in any one of them changes this snapshot.
func TestGenerateArithmeticDispatchCaseMatchesGolden(t *testing.T) {
	counter := &ast.Class{
		Name: ast.Identifier{Line: 1, Text: "Counter"},
		Attributes: []*ast.Attribute{{
			Name: ast.Identifier{Line: 1, Text: "n"},
			Type: ast.Identifier{Line: 1, Text: "Int"},
		}},
		Methods: []*ast.Method{
			{
				Name:       ast.Identifier{Line: 2, Text: "bump"},
				Formals:    []ast.Formal{{Name: ast.Identifier{Line: 2, Text: "by"}, Type: ast.Identifier{Line: 2, Text: "Int"}}},
				ReturnType: ast.Identifier{Line: 2, Text: "Int"},
				Body: &ast.AssignExpr{
					Base: ast.Base{Line: 2},
					Var:  ast.Identifier{Line: 2, Text: "n"},
					Rhs: &ast.ArithExpr{
						Base: ast.Base{Line: 2},
						Op:   ast.Plus,
						Left: &ast.IdentifierExpr{Base: ast.Base{Line: 2}, Name: ast.Identifier{Line: 2, Text: "n"}},
						Right: &ast.IdentifierExpr{
							Base: ast.Base{Line: 2},
							Name: ast.Identifier{Line: 2, Text: "by"},
						},
					},
				},
			},
			{
				Name:       ast.Identifier{Line: 3, Text: "classify"},
				ReturnType: ast.Identifier{Line: 3, Text: "String"},
				Body: &ast.LetExpr{
					Base: ast.Base{Line: 3},
					Bindings: []ast.LetBinding{{
						Var:  ast.Identifier{Line: 3, Text: "obj"},
						Type: ast.Identifier{Line: 3, Text: "Object"},
						Init: &ast.SelfDispatchExpr{
							Base:   ast.Base{Line: 3},
							Method: ast.Identifier{Line: 3, Text: "copy"},
						},
					}},
					Body: &ast.CaseExpr{
						Base:      ast.Base{Line: 4},
						Scrutinee: &ast.IdentifierExpr{Base: ast.Base{Line: 4}, Name: ast.Identifier{Line: 4, Text: "obj"}},
						Branches: []ast.CaseBranch{
							{
								Var:  ast.Identifier{Line: 5, Text: "s"},
								Type: ast.Identifier{Line: 5, Text: "String"},
								Body: &ast.IdentifierExpr{Base: ast.Base{Line: 5}, Name: ast.Identifier{Line: 5, Text: "s"}},
							},
							{
								Var:  ast.Identifier{Line: 6, Text: "o"},
								Type: ast.Identifier{Line: 6, Text: "Object"},
								Body: &ast.StringExpr{Base: ast.Base{Line: 6}, Value: "other"},
							},
						},
					},
				},
			},
			{
				Name:       ast.Identifier{Line: 8, Text: "countUp"},
				ReturnType: ast.Identifier{Line: 8, Text: "Object"},
				Body: &ast.WhileExpr{
					Base: ast.Base{Line: 8},
					Predicate: &ast.CompareExpr{
						Base: ast.Base{Line: 8},
						Op:   ast.Lt,
						Left: &ast.IdentifierExpr{Base: ast.Base{Line: 8}, Name: ast.Identifier{Line: 8, Text: "n"}},
						Right: &ast.IntegerExpr{
							Base: ast.Base{Line: 8}, Value: "10",
						},
					},
					Body: &ast.IfExpr{
						Base:      ast.Base{Line: 9},
						Predicate: &ast.BoolExpr{Base: ast.Base{Line: 9}, Value: true},
						Then: &ast.SelfDispatchExpr{
							Base:   ast.Base{Line: 9},
							Method: ast.Identifier{Line: 9, Text: "bump"},
							Args:   []ast.Expr{&ast.IntegerExpr{Base: ast.Base{Line: 9}, Value: "1"}},
						},
						Else: &ast.SelfDispatchExpr{
							Base:   ast.Base{Line: 9},
							Method: ast.Identifier{Line: 9, Text: "bump"},
							Args:   []ast.Expr{&ast.IntegerExpr{Base: ast.Base{Line: 9}, Value: "0"}},
						},
					},
				},
			},
		},
	}
	main := &ast.Class{
		Name:     ast.Identifier{Line: 11, Text: "Main"},
		Inherits: true,
		Parent:   ast.Identifier{Line: 11, Text: "IO"},
		Methods: []*ast.Method{{
			Name:       ast.Identifier{Line: 12, Text: "main"},
			ReturnType: ast.Identifier{Line: 12, Text: "Object"},
			Body: &ast.DynamicDispatchExpr{
				Base:     ast.Base{Line: 12},
				Receiver: &ast.NewExpr{Base: ast.Base{Line: 12}, TypeName: ast.Identifier{Line: 12, Text: "Counter"}},
				Method:   ast.Identifier{Line: 12, Text: "countUp"},
			},
		}},
	}
	parsed := buildParsed(t, counter, main)
	snaps.MatchSnapshot(t, generate(t, parsed))
}

func TestSortedCaseBranchesOrdersMostSpecificFirst(t *testing.T) {
	a := &ast.Class{Name: ast.Identifier{Line: 1, Text: "A"}}
	b := &ast.Class{Name: ast.Identifier{Line: 2, Text: "B"}, Inherits: true, Parent: ast.Identifier{Line: 2, Text: "A"}}
	c := &ast.Class{Name: ast.Identifier{Line: 3, Text: "C"}, Inherits: true, Parent: ast.Identifier{Line: 3, Text: "B"}}
	main := &ast.Class{
		Name: ast.Identifier{Line: 4, Text: "Main"}, Inherits: true, Parent: ast.Identifier{Line: 4, Text: "IO"},
		Methods: []*ast.Method{{
			Name:       ast.Identifier{Line: 5, Text: "main"},
			ReturnType: ast.Identifier{Line: 5, Text: "Object"},
			Body:       &ast.NewExpr{Base: ast.Base{Line: 5}, TypeName: ast.Identifier{Line: 5, Text: "Main"}},
		}},
	}
	parsed := buildParsed(t, a, b, c, main)

	g := &Generator{p: parsed, classIndex: make(map[string]int), stringLabels: make(map[string]string)}
	for i, n := range parsed.ClassNames {
		g.classIndex[n] = i + 1
	}

	branches := []ast.CaseBranch{
		{Var: ast.Identifier{Text: "x"}, Type: ast.Identifier{Text: "Object"}},
		{Var: ast.Identifier{Text: "y"}, Type: ast.Identifier{Text: "C"}},
		{Var: ast.Identifier{Text: "z"}, Type: ast.Identifier{Text: "A"}},
	}
	sorted := g.sortedCaseBranches(branches)
	got := []string{sorted[0].Type.Text, sorted[1].Type.Text, sorted[2].Type.Text}
	want := []string{"C", "A", "Object"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedCaseBranches order = %v, want %v", got, want)
		}
	}
}

func TestDescendantObjectIDsIncludesSelfAndSubclasses(t *testing.T) {
	a := &ast.Class{Name: ast.Identifier{Line: 1, Text: "A"}}
	b := &ast.Class{Name: ast.Identifier{Line: 2, Text: "B"}, Inherits: true, Parent: ast.Identifier{Line: 2, Text: "A"}}
	unrelated := &ast.Class{Name: ast.Identifier{Line: 3, Text: "D"}}
	main := &ast.Class{
		Name: ast.Identifier{Line: 4, Text: "Main"}, Inherits: true, Parent: ast.Identifier{Line: 4, Text: "IO"},
		Methods: []*ast.Method{{
			Name:       ast.Identifier{Line: 5, Text: "main"},
			ReturnType: ast.Identifier{Line: 5, Text: "Object"},
			Body:       &ast.NewExpr{Base: ast.Base{Line: 5}, TypeName: ast.Identifier{Line: 5, Text: "Main"}},
		}},
	}
	parsed := buildParsed(t, a, b, unrelated, main)

	g := &Generator{p: parsed, classIndex: make(map[string]int)}
	for i, n := range parsed.ClassNames {
		g.classIndex[n] = i + 1
	}

	ids := g.descendantObjectIDs("A")
	if len(ids) != 2 {
		t.Fatalf("descendantObjectIDs(A) = %v, want 2 entries (A and B)", ids)
	}
	if ids[0] == g.classIndex["D"] || ids[1] == g.classIndex["D"] {
		t.Fatalf("descendantObjectIDs(A) must not include unrelated class D: %v", ids)
	}
}

func TestInternStringDedupesRepeatedLiterals(t *testing.T) {
	g := &Generator{stringLabels: make(map[string]string)}
	first := g.internString("hi")
	second := g.internString("hi")
	if first != second {
		t.Fatalf("internString(\"hi\") twice gave different labels: %q vs %q", first, second)
	}
	other := g.internString("bye")
	if other == first {
		t.Fatalf("internString(\"bye\") collided with internString(\"hi\")")
	}
	if len(g.stringOrder) != 2 {
		t.Fatalf("stringOrder = %v, want 2 distinct entries", g.stringOrder)
	}
}

func TestQuoteAsciz(t *testing.T) {
	got := quoteAsciz("a\"b\\c\nd")
	want := `"a\"b\\c\nd"`
	if got != want {
		t.Fatalf("quoteAsciz = %q, want %q", got, want)
	}
}
