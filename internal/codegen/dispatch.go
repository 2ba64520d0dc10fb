package codegen

import "github.com/mekotech/coolc/internal/ast"

// lowerDynamicDispatch evaluates the receiver, guards it against void, loads
// the call target from the receiver's own vtable before evaluating any
// argument (pushArgsAndCall keeps %r12 intact across argument evaluation,
// §9 DESIGN NOTES), then calls through it (§4.7.5).
func (ctx *methodCtx) lowerDynamicDispatch(n *ast.DynamicDispatchExpr) {
	g := ctx.gen
	recvType := resolveSelfTypeLower(ctx.class, n.Receiver.Type())
	slot := g.vtableSlotOf(recvType, n.Method.Text)

	ctx.lower(n.Receiver)
	g.emit("\tpushq %%rax")
	g.emit("\ttestq %%rax, %%rax")
	g.emit("\tmovq $%d, %%rdi", n.Line)
	g.emit("\tjz %s", rtDispatchVoid)
	g.emit("\tmovq 16(%%rax), %%rdx")
	g.emit("\tmovq %d(%%rdx), %%r12", slot)

	ctx.pushArgsAndCall(n.Args, "*%r12")
}

// lowerStaticDispatch is identical except the call target is the static
// type's method label directly: static dispatch bypasses the vtable
// entirely, so overrides in more-derived classes are never consulted.
func (ctx *methodCtx) lowerStaticDispatch(n *ast.StaticDispatchExpr) {
	g := ctx.gen
	target := methodLabel(g.definingClassOf(n.StaticType.Text, n.Method.Text), n.Method.Text)

	ctx.lower(n.Receiver)
	g.emit("\tpushq %%rax")
	g.emit("\ttestq %%rax, %%rax")
	g.emit("\tmovq $%d, %%rdi", n.Line)
	g.emit("\tjz %s", rtDispatchVoid)

	ctx.pushArgsAndCall(n.Args, target)
}

// lowerSelfDispatch calls through self's own (dynamic) vtable, resolving
// the slot from the statically-known enclosing class: override replacement
// preserves index position, so the slot is the same regardless of self's
// actual runtime class (§4.5, §9 DESIGN NOTES "Vtable consistency"). Like
// the other two forms it is preceded by the dispatch-on-void guard.
func (ctx *methodCtx) lowerSelfDispatch(n *ast.SelfDispatchExpr) {
	g := ctx.gen
	slot := g.vtableSlotOf(ctx.class, n.Method.Text)

	g.emit("\ttestq %%rbx, %%rbx")
	g.emit("\tmovq $%d, %%rdi", n.Line)
	g.emit("\tjz %s", rtDispatchVoid)
	g.emit("\tmovq 16(%%rbx), %%rdx")
	g.emit("\tmovq %d(%%rdx), %%r12", slot)
	g.emit("\tpushq %%rbx")

	ctx.pushArgsAndCall(n.Args, "*%r12")
}

// pushArgsAndCall pushes args right-to-left so arg1 ends up nearest the
// return address (matching the formal layout +16+8*i(%rbp)), retrieves the
// receiver saved on the stack below them as the `self` argument, calls
// target, then pops the full argument-plus-receiver region. When target is
// the vtable entry in %r12, %r12 is saved around each argument's
// evaluation, since a dispatch nested in the argument reloads it.
func (ctx *methodCtx) pushArgsAndCall(args []ast.Expr, target string) {
	g := ctx.gen
	for i := len(args) - 1; i >= 0; i-- {
		if target == "*%r12" {
			g.emit("\tpushq %%r12")
		}
		ctx.lower(args[i])
		if target == "*%r12" {
			g.emit("\tpopq %%r12")
		}
		g.emit("\tpushq %%rax")
	}
	g.emit("\tmovq %d(%%rsp), %%rdi", 8*len(args))
	g.emit("\tcall %s", target)
	g.emit("\taddq $%d, %%rsp", 8*(len(args)+1))
}
