package codegen

import "github.com/mekotech/coolc/internal/classtable"

// emitConstructor emits `<class>..new` (§4.7.3): allocate, stamp the object
// header, then run each attribute's initializer (or its type-defaulted zero
// value) into its slot.
func (g *Generator) emitConstructor(class string) {
	size := g.classSize(class)

	g.emit("%s:", ctorLabel(class))
	g.emitPrologue()

	g.emit("\tmovq $%d, %%rdi", size/8)
	g.emit("\tmovq $8, %%rsi")
	g.emit("\tcall calloc")
	g.emit("\tmovq %%rax, %%rbx")

	g.emit("\tmovq $%d, 0(%%rbx)", g.objectID(class))
	g.emit("\tmovq $%d, 8(%%rbx)", size)
	g.emit("\tleaq %s(%%rip), %%rax", vtableLabel(class))
	g.emit("\tmovq %%rax, 16(%%rbx)")

	switch class {
	case classtable.IntClass, classtable.BoolClass, classtable.StringClass:
		// No declared attributes; the boxed payload slot is left at the
		// calloc zero value (Int 0, Bool false, String null pointer).
	default:
		ctx := &methodCtx{gen: g, class: class, scope: map[string]int{}, nextOffset: -24}
		for i, a := range g.p.ClassAttributes[class] {
			offset := headerSize + 8*i
			if a.Init != nil {
				ctx.lower(a.Init)
				g.emit("\tmovq %%rax, %d(%%rbx)", offset)
			} else if a.Type == classtable.IntClass || a.Type == classtable.BoolClass {
				ctx.lowerDefault(a.Type)
				g.emit("\tmovq %%rax, %d(%%rbx)", offset)
			}
			// Uninitialized Int/Bool attributes get a boxed 0/false; String
			// and user-class attributes keep calloc's zero value, a NULL
			// pointer (§4.7.3, §9 DESIGN NOTES).
		}
	}

	g.emit("\tmovq %%rbx, %%rax")
	g.emitEpilogue()
}
