package codegen

import (
	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/typefile"
)

// methodCtx is the per-body lowering context: the enclosing class (for
// self-dispatch and SELF_TYPE resolution) and the codegen-local scope
// mapping a bound name to its %rbp-relative stack offset (formals sit at
// positive offsets, `let` locals at negative ones, §4.7.4, §4.7.6).
type methodCtx struct {
	gen        *Generator
	class      string
	scope      map[string]int
	nextOffset int // next free %rbp-relative offset for a `let` local; starts at -24
}

// emitMethod emits one user-declared method: prologue, body lowered into
// %rax, epilogue (§4.7.4). %rbx is callee-saved across the body and holds
// self; formals are read directly from their caller-pushed stack slots.
func (g *Generator) emitMethod(class string, m typefile.MethodInfo) {
	g.emit("%s:", methodLabel(class, m.Name))
	g.emitPrologue()
	g.emit("\tmovq %%rdi, %%rbx")

	ctx := &methodCtx{gen: g, class: class, scope: make(map[string]int), nextOffset: -24}
	for i, f := range m.Formals {
		ctx.scope[f] = 16 + 8*i
	}

	if internal, ok := m.Body.(*ast.InternalExpr); ok {
		g.emitBuiltinBody(class, m.Name, internal.Symbol)
	} else {
		ctx.lower(m.Body)
	}

	g.emitEpilogue()
}
