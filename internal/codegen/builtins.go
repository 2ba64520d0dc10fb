package codegen

import "github.com/mekotech/coolc/internal/classtable"

// emitBuiltinBody lowers one `internal` method marker to hand-written
// assembly (§4.7.7). symbol is the "Class.method" tag classtable stamps on
// every built-in method's body.
func (g *Generator) emitBuiltinBody(class, method, symbol string) {
	switch symbol {
	case "IO.out_string":
		g.emit("\tmovq 16(%%rbp), %%rdi")
		g.emit("\tcall cooloutstr")
		g.emit("\tmovq %%rbx, %%rax")

	case "IO.out_int":
		g.emit("\tmovq 16(%%rbp), %%rax")
		g.emit("\tmovq 24(%%rax), %%rsi")
		g.emit("\tleaq %s(%%rip), %%rdi", g.outIntFormat())
		g.emit("\tcall printf")
		g.emit("\tmovq %%rbx, %%rax")

	case "IO.in_int":
		g.emitInInt()

	case "IO.in_string":
		g.emitInString()

	case "Object.abort":
		g.emit("\tleaq %s(%%rip), %%rdi", g.abortMessage())
		g.emit("\tcall printf")
		g.emit("\tmovq $0, %%rdi")
		g.emit("\tcall exit")

	case "Object.copy":
		g.emit("\tmovq 8(%%rbx), %%rdi")
		g.emit("\tmovq $1, %%rsi")
		g.emit("\tcall calloc")
		g.emit("\tpushq %%rax")
		g.emit("\tmovq %%rax, %%rdi")
		g.emit("\tmovq %%rbx, %%rsi")
		g.emit("\tmovq 8(%%rbx), %%rdx")
		g.emit("\tcall memcpy")
		g.emit("\tpopq %%rax")

	case "Object.type_name":
		g.emit("\tmovq 0(%%rbx), %%rax")
		g.emit("\tdecq %%rax")
		g.emit("\tleaq %s(%%rip), %%rcx", classNameTableLabel)
		g.emit("\tmovq (%%rcx,%%rax,8), %%rax")

	case "String.length":
		g.emit("\tmovq 32(%%rbx), %%rcx")
		g.box(classtable.IntClass, "%rcx")

	case "String.concat":
		g.emitStringConcat()

	case "String.substr":
		g.emitStringSubstr()

	default:
		panic("codegen: unknown internal symbol " + symbol)
	}
}

const (
	outIntFormatLabel   = "fmt.out_int"
	inIntFormatLabel    = "fmt.in_int"
	abortMessageLabel   = "msg.abort"
	classNameTableLabel = "class.name_table"
)

func (g *Generator) outIntFormat() string { return outIntFormatLabel }
func (g *Generator) abortMessage() string { return abortMessageLabel }

// emitBuiltinData emits the fixed format/message strings the built-in
// method bodies reference, alongside the runtime error stubs.
func (g *Generator) emitBuiltinData() {
	g.emit(".data")
	g.emit("%s:", outIntFormatLabel)
	g.emit("\t.asciz %s", quoteAsciz("%ld"))
	g.emit("%s:", inIntFormatLabel)
	g.emit("\t.asciz %s", quoteAsciz("%ld"))
	g.emit("%s:", abortMessageLabel)
	g.emit("\t.asciz %s", quoteAsciz("abort\n"))
	g.emit(".text")
}

// emitClassNameTable emits the array Object.type_name indexes: one pointer
// per class, in object-ID order, to that class's name as a boxed String
// (§4.7.7 "indexes the class-name table by obj_id - 1").
func (g *Generator) emitClassNameTable() {
	names := make([]string, len(g.classIndex))
	for name, id := range g.classIndex {
		names[id-1] = name
	}
	labels := make([]string, len(names))
	for i, name := range names {
		labels[i] = g.internString(name)
	}
	g.emit(".data")
	g.emit(".align 8")
	g.emit("%s:", classNameTableLabel)
	for _, l := range labels {
		g.emit("\t.quad %s", l)
	}
	g.emit(".text")
}

// emitInInt reads a line from stdin into a scratch buffer, parses a signed
// integer via sscanf, clamps to the 32-bit range, and boxes it.
func (g *Generator) emitInInt() {
	// -8 and -16(%rbp) already hold the method prologue's saved %rbx/%r12;
	// the 64-byte read buffer and the parsed-int slot both live below that.
	g.emit("\tsubq $72, %%rsp")
	g.emit("\tleaq -80(%%rbp), %%rdi")
	g.emit("\tmovq $64, %%rsi")
	g.emit("\tcall coolgetstr")
	g.emit("\tleaq -80(%%rbp), %%rdi")
	g.emit("\tleaq %s(%%rip), %%rsi", inIntFormatLabel)
	g.emit("\tleaq -88(%%rbp), %%rdx")
	g.emit("\tcall sscanf")
	g.emit("\tmovq -88(%%rbp), %%rax")
	g.emit("\tmovq $2147483647, %%rcx")
	g.emit("\tcmpq %%rcx, %%rax")
	g.emit("\tjle .Lin_int_lo")
	g.emit("\tmovq %%rcx, %%rax")
	g.emit(".Lin_int_lo:")
	g.emit("\tmovq $-2147483648, %%rcx")
	g.emit("\tcmpq %%rcx, %%rax")
	g.emit("\tjge .Lin_int_done")
	g.emit("\tmovq %%rcx, %%rax")
	g.emit(".Lin_int_done:")
	g.emit("\taddq $72, %%rsp")
	g.box(classtable.IntClass, "%rax")
}

// emitInString reads a line from stdin into a heap buffer, measures it,
// and boxes the result.
func (g *Generator) emitInString() {
	g.emit("\tmovq $4096, %%rdi")
	g.emit("\tmovq $1, %%rsi")
	g.emit("\tcall calloc")
	g.emit("\tmovq %%rax, %%rdi")
	g.emit("\tmovq $4096, %%rsi")
	g.emit("\tcall coolgetstr")
	g.emit("\tmovq %%rax, %%rdi")
	g.emit("\tpushq %%rdi")
	g.emit("\tcall coolstrlen")
	g.emit("\tpopq %%rdi")
	g.emit("\tpushq %%rax") // length
	g.emit("\tpushq %%rdi") // chars
	g.emit("\tcall %s", ctorLabel(classtable.StringClass))
	g.emit("\tpopq %%rcx") // chars
	g.emit("\tmovq %%rcx, 24(%%rax)")
	g.emit("\tpopq %%rcx") // length
	g.emit("\tmovq %%rcx, 32(%%rax)")
}

// emitStringConcat builds a fresh String holding self's characters
// followed by the argument's.
func (g *Generator) emitStringConcat() {
	g.emit("\tmovq 32(%%rbx), %%r12") // len(self), kept live (callee-saved) throughout
	g.emit("\tmovq 16(%%rbp), %%rax") // arg
	g.emit("\tmovq 32(%%rax), %%r13") // len(arg), kept live (callee-saved) throughout
	g.emit("\tmovq %%r12, %%rdi")
	g.emit("\taddq %%r13, %%rdi")
	g.emit("\tmovq $1, %%rsi")
	g.emit("\tcall calloc")
	g.emit("\tpushq %%rax") // buffer pointer, survives the memcpy calls below
	g.emit("\tmovq %%rax, %%rdi")
	g.emit("\tmovq 24(%%rbx), %%rsi")
	g.emit("\tmovq %%r12, %%rdx")
	g.emit("\tcall memcpy")
	g.emit("\tmovq 0(%%rsp), %%rdi")
	g.emit("\taddq %%r12, %%rdi")
	g.emit("\tmovq 16(%%rbp), %%rax")
	g.emit("\tmovq 24(%%rax), %%rsi")
	g.emit("\tmovq %%r13, %%rdx")
	g.emit("\tcall memcpy")
	g.emit("\taddq %%r12, %%r13")
	g.emit("\tpushq %%r13") // total length
	g.emit("\tcall %s", ctorLabel(classtable.StringClass))
	g.emit("\tpopq %%rcx") // total length
	g.emit("\tmovq %%rcx, 32(%%rax)")
	g.emit("\tpopq %%rcx") // buffer pointer
	g.emit("\tmovq %%rcx, 24(%%rax)")
}

// emitStringSubstr builds a fresh String of the l characters starting at
// index i (formals at +16/+24(%rbp)). No bounds checking is done: an
// out-of-range i or l copies bytes from outside the source string.
func (g *Generator) emitStringSubstr() {
	g.emit("\tmovq 16(%%rbp), %%rax") // i
	g.emit("\tmovq 24(%%rax), %%r12")
	g.emit("\tmovq 24(%%rbp), %%rax") // l
	g.emit("\tmovq 24(%%rax), %%r13")
	g.emit("\tmovq %%r13, %%rdi")
	g.emit("\tmovq $1, %%rsi")
	g.emit("\tcall calloc")
	g.emit("\tmovq %%rax, %%rdi")
	g.emit("\tmovq 24(%%rbx), %%rsi")
	g.emit("\taddq %%r12, %%rsi")
	g.emit("\tmovq %%r13, %%rdx")
	g.emit("\tcall memcpy")
	g.emit("\tpushq %%r13")
	g.emit("\tpushq %%rax")
	g.emit("\tcall %s", ctorLabel(classtable.StringClass))
	g.emit("\tpopq %%rcx")
	g.emit("\tmovq %%rcx, 24(%%rax)")
	g.emit("\tpopq %%rcx")
	g.emit("\tmovq %%rcx, 32(%%rax)")
}
