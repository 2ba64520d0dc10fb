package astfile

import (
	"bytes"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/mekotech/coolc/internal/ast"
)

func sampleProgram() *ast.Program {
	main := &ast.Class{
		Line: 1,
		Name: ast.Identifier{Line: 1, Text: "Main"},
		Methods: []*ast.Method{
			{
				Name:       ast.Identifier{Line: 2, Text: "main"},
				ReturnType: ast.Identifier{Line: 2, Text: "Object"},
				Body: &ast.SelfDispatchExpr{
					Base:   ast.Base{Line: 2},
					Method: ast.Identifier{Line: 2, Text: "out_string"},
					Args: []ast.Expr{
						&ast.StringExpr{Base: ast.Base{Line: 2}, Value: "hi"},
					},
				},
			},
		},
	}
	return &ast.Program{Classes: []*ast.Class{main}}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	prog := sampleProgram()
	var buf bytes.Buffer
	if err := Write(&buf, prog); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var out bytes.Buffer
	if err := Write(&out, got); err != nil {
		t.Fatalf("re-Write: %v", err)
	}

	var original bytes.Buffer
	Write(&original, prog)

	if out.String() != original.String() {
		t.Fatalf("round trip mismatch:\n--- original ---\n%s\n--- round-tripped ---\n%s", original.String(), out.String())
	}
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleProgram()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	snaps.MatchSnapshot(t, buf.String())
}

func TestReadRejectsUnknownTag(t *testing.T) {
	input := "1\n1\nMain\nno_inherits\n1\nmethod\n2\nmain\n0\n2\nObject\n2\nbogus_tag\n"
	if _, err := Read(bytes.NewBufferString(input)); err == nil {
		t.Fatal("expected an error for an unrecognized expression tag")
	}
}

func TestLetAndCaseRoundTrip(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.Class{{
		Line: 1,
		Name: ast.Identifier{Line: 1, Text: "Main"},
		Methods: []*ast.Method{{
			Name:       ast.Identifier{Line: 2, Text: "main"},
			ReturnType: ast.Identifier{Line: 2, Text: "Object"},
			Body: &ast.LetExpr{
				Base: ast.Base{Line: 2},
				Bindings: []ast.LetBinding{
					{Var: ast.Identifier{Line: 2, Text: "x"}, Type: ast.Identifier{Line: 2, Text: "Int"},
						Init: &ast.IntegerExpr{Base: ast.Base{Line: 2}, Value: "0"}},
				},
				Body: &ast.CaseExpr{
					Base:      ast.Base{Line: 3},
					Scrutinee: &ast.IdentifierExpr{Base: ast.Base{Line: 3}, Name: ast.Identifier{Line: 3, Text: "x"}},
					Branches: []ast.CaseBranch{
						{Var: ast.Identifier{Line: 3, Text: "i"}, Type: ast.Identifier{Line: 3, Text: "Int"},
							Body: &ast.IdentifierExpr{Base: ast.Base{Line: 3}, Name: ast.Identifier{Line: 3, Text: "i"}}},
					},
				},
			},
		}},
	}}}

	var buf bytes.Buffer
	if err := Write(&buf, prog); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	letExpr, ok := got.Classes[0].Methods[0].Body.(*ast.LetExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.LetExpr", got.Classes[0].Methods[0].Body)
	}
	if _, ok := letExpr.Body.(*ast.CaseExpr); !ok {
		t.Fatalf("let body is %T, want *ast.CaseExpr", letExpr.Body)
	}
}
