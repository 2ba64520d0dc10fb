package codegen

import (
	"fmt"

	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
)

// lower emits code that evaluates e and leaves a pointer to the resulting
// boxed object in %rax (§4.7.5, §4.7.6).
func (ctx *methodCtx) lower(e ast.Expr) {
	g := ctx.gen
	switch n := e.(type) {

	case *ast.IntegerExpr:
		g.emit("\tleaq %s(%%rip), %%rax", g.internInt(n.Value))

	case *ast.StringExpr:
		g.emit("\tleaq %s(%%rip), %%rax", g.internString(n.Value))

	case *ast.BoolExpr:
		g.emit("\tleaq %s(%%rip), %%rax", g.internBool(n.Value))

	case *ast.IdentifierExpr:
		ctx.loadVar(n.Name.Text)

	case *ast.NewExpr:
		ctx.lowerNew(n)

	case *ast.AssignExpr:
		ctx.lower(n.Rhs)
		ctx.storeVar(n.Var.Text)

	case *ast.ArithExpr:
		ctx.lowerArith(n)

	case *ast.CompareExpr:
		ctx.lowerCompare(n)

	case *ast.NotExpr:
		ctx.lower(n.Operand)
		g.emit("\tmovq 24(%%rax), %%rcx")
		g.emit("\txorq $1, %%rcx")
		ctx.boxBool("%rcx")

	case *ast.NegateExpr:
		ctx.lower(n.Operand)
		g.emit("\tmovq 24(%%rax), %%rcx")
		g.emit("\tnegq %%rcx")
		ctx.boxInt("%rcx")

	case *ast.IsVoidExpr:
		ctx.lower(n.Operand)
		g.emit("\tcmpq $0, %%rax")
		g.emit("\tsete %%cl")
		g.emit("\tmovzbq %%cl, %%rcx")
		ctx.boxBool("%rcx")

	case *ast.IfExpr:
		ctx.lowerIf(n)

	case *ast.WhileExpr:
		ctx.lowerWhile(n)

	case *ast.BlockExpr:
		for _, stmt := range n.Body {
			ctx.lower(stmt)
		}

	case *ast.LetExpr:
		ctx.lowerLet(n)

	case *ast.CaseExpr:
		ctx.lowerCase(n)

	case *ast.DynamicDispatchExpr:
		ctx.lowerDynamicDispatch(n)

	case *ast.StaticDispatchExpr:
		ctx.lowerStaticDispatch(n)

	case *ast.SelfDispatchExpr:
		ctx.lowerSelfDispatch(n)

	default:
		panic(fmt.Sprintf("codegen: unhandled expression node %T", e))
	}
}

// loadVar loads a bound name into %rax: `let`/formal scope first, then the
// current class's attribute list, then `self` itself (§4.7.4, §4.7.6).
func (ctx *methodCtx) loadVar(name string) {
	g := ctx.gen
	if name == "self" {
		g.emit("\tmovq %%rbx, %%rax")
		return
	}
	if off, ok := ctx.scope[name]; ok {
		g.emit("\tmovq %d(%%rbp), %%rax", off)
		return
	}
	for i, a := range g.p.ClassAttributes[ctx.class] {
		if a.Name == name {
			g.emit("\tmovq %d(%%rbx), %%rax", headerSize+8*i)
			return
		}
	}
	panic("codegen: unbound identifier " + name + " in " + ctx.class)
}

func (ctx *methodCtx) storeVar(name string) {
	g := ctx.gen
	if off, ok := ctx.scope[name]; ok {
		g.emit("\tmovq %%rax, %d(%%rbp)", off)
		return
	}
	for i, a := range g.p.ClassAttributes[ctx.class] {
		if a.Name == name {
			g.emit("\tmovq %%rax, %d(%%rbx)", headerSize+8*i)
			return
		}
	}
	panic("codegen: unbound identifier " + name + " in " + ctx.class)
}

func (ctx *methodCtx) lowerNew(n *ast.NewExpr) {
	g := ctx.gen
	if n.TypeName.Text == classtable.SelfType {
		g.emit("\tmovq 16(%%rbx), %%rax")
		g.emit("\tmovq 0(%%rax), %%r12")
		g.emit("\tcall *%%r12")
		return
	}
	g.emit("\tcall %s", ctorLabel(n.TypeName.Text))
}

// boxInt/boxBool allocate a fresh Int/Bool and stamp the raw value held in
// src into its payload slot, leaving the boxed pointer in %rax.
func (ctx *methodCtx) boxInt(src string) { ctx.gen.box(classtable.IntClass, src) }

func (ctx *methodCtx) boxBool(src string) { ctx.gen.box(classtable.BoolClass, src) }

// box allocates a fresh instance of class and stamps the raw value held in
// src into its payload slot (offset 24), leaving the boxed pointer in
// %rax. Used both by expression lowering and by built-in method bodies.
func (g *Generator) box(class, src string) {
	g.emit("\tpushq %s", src)
	g.emit("\tcall %s", ctorLabel(class))
	g.emit("\tpopq %%rcx")
	g.emit("\tmovq %%rcx, 24(%%rax)")
}

func (ctx *methodCtx) lowerArith(n *ast.ArithExpr) {
	g := ctx.gen
	ctx.lower(n.Left)
	g.emit("\tmovq 24(%%rax), %%rax")
	g.emit("\tpushq %%rax")
	ctx.lower(n.Right)
	g.emit("\tmovq 24(%%rax), %%rax")

	switch n.Op {
	case ast.Plus:
		g.emit("\tpopq %%rcx")
		g.emit("\taddq %%rcx, %%rax")
	case ast.Minus:
		g.emit("\tpopq %%rcx")
		g.emit("\tsubq %%rax, %%rcx")
		g.emit("\tmovq %%rcx, %%rax")
	case ast.Times:
		g.emit("\tpopq %%rcx")
		g.emit("\timulq %%rcx, %%rax")
	case ast.Divide:
		g.emit("\tmovq %%rax, %%rcx")
		g.emit("\tpopq %%rax")
		g.emit("\ttestq %%rcx, %%rcx")
		g.emit("\tmovq $%d, %%rdi", n.Line)
		g.emit("\tjz %s", rtDivZero)
		g.emit("\tcqto")
		g.emit("\tidivq %%rcx")
	}
	ctx.boxInt("%rax")
}

func (ctx *methodCtx) lowerCompare(n *ast.CompareExpr) {
	g := ctx.gen
	leftType := resolveSelfTypeLower(ctx.class, n.Left.Type())

	if leftType == classtable.StringClass {
		ctx.lower(n.Left)
		g.emit("\tpushq %%rax")
		ctx.lower(n.Right)
		g.emit("\tpopq %%rdi")
		g.emit("\tmovq %%rax, %%rsi")
		g.emit("\tcall coolstrcmp")
		// %rax now holds -1/0/1.
		switch n.Op {
		case ast.Lt:
			g.emit("\tcmpq $0, %%rax")
			g.emit("\tsetl %%cl")
		case ast.Le:
			g.emit("\tcmpq $0, %%rax")
			g.emit("\tsetle %%cl")
		case ast.Eq:
			g.emit("\tcmpq $0, %%rax")
			g.emit("\tsete %%cl")
		}
		g.emit("\tmovzbq %%cl, %%rcx")
		ctx.boxBool("%rcx")
		return
	}

	if n.Op == ast.Eq && !isUnboxedCompareType(leftType) {
		ctx.lower(n.Left)
		g.emit("\tpushq %%rax")
		ctx.lower(n.Right)
		g.emit("\tpopq %%rcx")
		g.emit("\tcmpq %%rcx, %%rax")
		g.emit("\tsete %%cl")
		g.emit("\tmovzbq %%cl, %%rcx")
		ctx.boxBool("%rcx")
		return
	}

	ctx.lower(n.Left)
	g.emit("\tmovq 24(%%rax), %%rax")
	g.emit("\tpushq %%rax")
	ctx.lower(n.Right)
	g.emit("\tmovq 24(%%rax), %%rax")
	g.emit("\tpopq %%rcx")
	g.emit("\tcmpq %%rax, %%rcx")
	switch n.Op {
	case ast.Lt:
		g.emit("\tsetl %%al")
	case ast.Le:
		g.emit("\tsetle %%al")
	case ast.Eq:
		g.emit("\tsete %%al")
	}
	g.emit("\tmovzbq %%al, %%rcx")
	ctx.boxBool("%rcx")
}

func isUnboxedCompareType(t string) bool {
	return t == classtable.IntClass || t == classtable.BoolClass
}

func resolveSelfTypeLower(class, t string) string {
	if t == classtable.SelfType {
		return class
	}
	return t
}

func (ctx *methodCtx) lowerIf(n *ast.IfExpr) {
	g := ctx.gen
	elseLabel := g.label(".Lelse")
	endLabel := g.label(".Lendif")

	ctx.lower(n.Predicate)
	g.emit("\tmovq 24(%%rax), %%rax")
	g.emit("\ttestq %%rax, %%rax")
	g.emit("\tjz %s", elseLabel)
	ctx.lower(n.Then)
	g.emit("\tjmp %s", endLabel)
	g.emit("%s:", elseLabel)
	ctx.lower(n.Else)
	g.emit("%s:", endLabel)
}

func (ctx *methodCtx) lowerWhile(n *ast.WhileExpr) {
	g := ctx.gen
	startLabel := g.label(".Lwhile")
	endLabel := g.label(".Lendwhile")

	g.emit("%s:", startLabel)
	ctx.lower(n.Predicate)
	g.emit("\tmovq 24(%%rax), %%rax")
	g.emit("\ttestq %%rax, %%rax")
	g.emit("\tjz %s", endLabel)
	ctx.lower(n.Body)
	g.emit("\tjmp %s", startLabel)
	g.emit("%s:", endLabel)
	// A `while` expression's value is always void (§4.5).
	g.emit("\tmovq $0, %%rax")
}

func (ctx *methodCtx) lowerLet(n *ast.LetExpr) {
	g := ctx.gen
	saved := make(map[string]int, len(n.Bindings))
	var shadowed []string
	for _, b := range n.Bindings {
		if b.Init != nil {
			ctx.lower(b.Init)
		} else {
			ctx.lowerDefault(b.Type.Text)
		}
		off := ctx.nextOffset
		ctx.nextOffset -= 8
		g.emit("\tsubq $8, %%rsp")
		g.emit("\tmovq %%rax, %d(%%rbp)", off)

		if prev, ok := ctx.scope[b.Var.Text]; ok {
			saved[b.Var.Text] = prev
		}
		shadowed = append(shadowed, b.Var.Text)
		ctx.scope[b.Var.Text] = off
	}

	ctx.lower(n.Body)

	for _, name := range shadowed {
		if prev, ok := saved[name]; ok {
			ctx.scope[name] = prev
		} else {
			delete(ctx.scope, name)
		}
	}
	ctx.nextOffset += 8 * len(n.Bindings)
	g.emit("\taddq $%d, %%rsp", 8*len(n.Bindings))
}

// lowerDefault leaves a `let` binding's type-defaulted value in %rax when
// it carries no initializer: 0/false/"" for the three boxed primitives,
// NULL for any class type. `emitConstructor` gives uninitialized Int/Bool
// attributes the same defaults but leaves a String attribute NULL rather
// than "" (§4.5, §9 DESIGN NOTES).
func (ctx *methodCtx) lowerDefault(typeName string) {
	g := ctx.gen
	switch typeName {
	case classtable.IntClass:
		g.emit("\tmovq $0, %%rcx")
		ctx.boxInt("%rcx")
	case classtable.BoolClass:
		g.emit("\tmovq $0, %%rcx")
		ctx.boxBool("%rcx")
	case classtable.StringClass:
		g.emit("\tleaq %s(%%rip), %%rax", g.internString(""))
	default:
		g.emit("\tmovq $0, %%rax")
	}
}

// lowerCase evaluates the scrutinee once, then tests its dynamic class
// against each branch's descendant-or-self set in most-specific-first
// order so the closest matching branch always wins (§4.5 "branch
// selection", §4.7.6).
func (ctx *methodCtx) lowerCase(n *ast.CaseExpr) {
	g := ctx.gen
	ctx.lower(n.Scrutinee)
	g.emit("\tpushq %%rax")
	g.emit("\ttestq %%rax, %%rax")
	g.emit("\tmovq $%d, %%rdi", n.Line)
	g.emit("\tjz %s", rtCaseVoid)
	g.emit("\tmovq 0(%%rsp), %%rax")
	g.emit("\tmovq 0(%%rax), %%rax") // obj_id of the dynamic class

	branches := g.sortedCaseBranches(n.Branches)
	endLabel := g.label(".Lcaseend")
	noMatch := g.label(".Lcasenomatch")
	testLabels := make([]string, len(branches))
	bodyLabels := make([]string, len(branches))
	for i := range branches {
		testLabels[i] = g.label(".Lcasetest")
		bodyLabels[i] = g.label(".Lcasebody")
	}

	for i, br := range branches {
		g.emit("%s:", testLabels[i])
		for _, id := range g.descendantObjectIDs(br.Type.Text) {
			g.emit("\tcmpq $%d, %%rax", id)
			g.emit("\tje %s", bodyLabels[i])
		}
		if i+1 < len(branches) {
			g.emit("\tjmp %s", testLabels[i+1])
		} else {
			g.emit("\tjmp %s", noMatch)
		}
	}
	for i, br := range branches {
		g.emit("%s:", bodyLabels[i])
		off := ctx.nextOffset
		ctx.nextOffset -= 8
		g.emit("\tsubq $8, %%rsp")
		g.emit("\tmovq 8(%%rsp), %%rax") // reload the saved scrutinee pointer
		g.emit("\tmovq %%rax, %d(%%rbp)", off)

		prev, had := ctx.scope[br.Var.Text]
		ctx.scope[br.Var.Text] = off
		ctx.lower(br.Body)
		if had {
			ctx.scope[br.Var.Text] = prev
		} else {
			delete(ctx.scope, br.Var.Text)
		}
		ctx.nextOffset += 8
		g.emit("\taddq $8, %%rsp")
		g.emit("\tjmp %s", endLabel)
	}

	g.emit("%s:", noMatch)
	g.emit("\tmovq $%d, %%rdi", n.Line)
	g.emit("\tcall %s", rtCaseNoMatch)
	g.emit("%s:", endLabel)
	g.emit("\taddq $8, %%rsp")
}
