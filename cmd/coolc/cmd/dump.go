package cmd

import (
	"fmt"
	"strings"

	"github.com/mekotech/coolc/internal/ast"
)

// dumpProgram prints an indented tree of prog to stdout for --dump-ast /
// --dump-types debugging, in the teacher's dumpASTNode style: one line per
// node naming its kind and immediate scalar fields, children indented
// beneath.
func dumpProgram(prog *ast.Program) {
	for _, c := range prog.Classes {
		dumpClass(c, 0)
	}
}

func dumpClass(c *ast.Class, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Printf("%sclass %s", pad, c.Name.Text)
	if c.Inherits {
		fmt.Printf(" inherits %s", c.Parent.Text)
	}
	fmt.Println()
	for _, a := range c.Attributes {
		fmt.Printf("%s  attribute %s : %s\n", pad, a.Name.Text, a.Type.Text)
		if a.Init != nil {
			dumpExpr(a.Init, indent+2)
		}
	}
	for _, m := range c.Methods {
		formals := make([]string, len(m.Formals))
		for i, f := range m.Formals {
			formals[i] = f.Name.Text + ":" + f.Type.Text
		}
		fmt.Printf("%s  method %s(%s) : %s\n", pad, m.Name.Text, strings.Join(formals, ", "), m.ReturnType.Text)
		dumpExpr(m.Body, indent+2)
	}
}

func dumpExpr(e ast.Expr, indent int) {
	pad := strings.Repeat("  ", indent)
	typ := ""
	if t := e.Type(); t != "" {
		typ = " : " + t
	}
	switch n := e.(type) {
	case *ast.AssignExpr:
		fmt.Printf("%sassign %s%s\n", pad, n.Var.Text, typ)
		dumpExpr(n.Rhs, indent+1)
	case *ast.DynamicDispatchExpr:
		fmt.Printf("%sdispatch .%s%s\n", pad, n.Method.Text, typ)
		dumpExpr(n.Receiver, indent+1)
		for _, a := range n.Args {
			dumpExpr(a, indent+1)
		}
	case *ast.StaticDispatchExpr:
		fmt.Printf("%sstatic_dispatch @%s.%s%s\n", pad, n.StaticType.Text, n.Method.Text, typ)
		dumpExpr(n.Receiver, indent+1)
		for _, a := range n.Args {
			dumpExpr(a, indent+1)
		}
	case *ast.SelfDispatchExpr:
		fmt.Printf("%sself_dispatch %s%s\n", pad, n.Method.Text, typ)
		for _, a := range n.Args {
			dumpExpr(a, indent+1)
		}
	case *ast.IfExpr:
		fmt.Printf("%sif%s\n", pad, typ)
		dumpExpr(n.Predicate, indent+1)
		dumpExpr(n.Then, indent+1)
		dumpExpr(n.Else, indent+1)
	case *ast.WhileExpr:
		fmt.Printf("%swhile%s\n", pad, typ)
		dumpExpr(n.Predicate, indent+1)
		dumpExpr(n.Body, indent+1)
	case *ast.BlockExpr:
		fmt.Printf("%sblock%s\n", pad, typ)
		for _, stmt := range n.Body {
			dumpExpr(stmt, indent+1)
		}
	case *ast.LetExpr:
		fmt.Printf("%slet%s\n", pad, typ)
		for _, b := range n.Bindings {
			fmt.Printf("%s  %s : %s\n", pad, b.Var.Text, b.Type.Text)
			if b.Init != nil {
				dumpExpr(b.Init, indent+2)
			}
		}
		dumpExpr(n.Body, indent+1)
	case *ast.CaseExpr:
		fmt.Printf("%scase%s\n", pad, typ)
		dumpExpr(n.Scrutinee, indent+1)
		for _, b := range n.Branches {
			fmt.Printf("%s  %s : %s =>\n", pad, b.Var.Text, b.Type.Text)
			dumpExpr(b.Body, indent+2)
		}
	case *ast.NewExpr:
		fmt.Printf("%snew %s%s\n", pad, n.TypeName.Text, typ)
	case *ast.IdentifierExpr:
		fmt.Printf("%sidentifier %s%s\n", pad, n.Name.Text, typ)
	case *ast.IntegerExpr:
		fmt.Printf("%sinteger %s%s\n", pad, n.Value, typ)
	case *ast.StringExpr:
		fmt.Printf("%sstring %q%s\n", pad, n.Value, typ)
	case *ast.BoolExpr:
		fmt.Printf("%sbool %v%s\n", pad, n.Value, typ)
	case *ast.ArithExpr:
		fmt.Printf("%s%s%s\n", pad, n.Op, typ)
		dumpExpr(n.Left, indent+1)
		dumpExpr(n.Right, indent+1)
	case *ast.CompareExpr:
		fmt.Printf("%s%s%s\n", pad, n.Op, typ)
		dumpExpr(n.Left, indent+1)
		dumpExpr(n.Right, indent+1)
	case *ast.NegateExpr:
		fmt.Printf("%snegate%s\n", pad, typ)
		dumpExpr(n.Operand, indent+1)
	case *ast.NotExpr:
		fmt.Printf("%snot%s\n", pad, typ)
		dumpExpr(n.Operand, indent+1)
	case *ast.IsVoidExpr:
		fmt.Printf("%sisvoid%s\n", pad, typ)
		dumpExpr(n.Operand, indent+1)
	case *ast.InternalExpr:
		fmt.Printf("%sinternal %s%s\n", pad, n.Symbol, typ)
	default:
		fmt.Printf("%s%T: %v\n", pad, e, e)
	}
}
