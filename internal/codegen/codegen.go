// Package codegen lowers an annotated type file (§4.6, §6.3) to x86-64
// AT&T-syntax assembly (§4.7) targeting a small C runtime (`cooloutstr`,
// `coolgetstr`). Label and string-literal state is process-local, owned by
// a *Generator instance rather than package globals, so the pass is
// re-entrant across independent generation runs within one process (§9
// DESIGN NOTES, "Label/string uniqueness").
package codegen

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/mekotech/coolc/internal/typefile"
)

// Generator owns the mutable state of one code-generation run: the
// monotonic label counter and the string-literal cache (§5).
type Generator struct {
	out *bufio.Writer
	p   *typefile.Parsed

	labelCounter int
	stringLabels map[string]string
	stringOrder  []string

	classIndex map[string]int // 1-based index into the alphabetical class table (§4.7.1)
}

// Generate lowers p to AT&T assembly, writing it to w.
func Generate(w io.Writer, p *typefile.Parsed) error {
	g := &Generator{
		out:          bufio.NewWriter(w),
		p:            p,
		stringLabels: make(map[string]string),
		classIndex:   make(map[string]int),
	}
	names := append([]string(nil), p.ClassNames...)
	sort.Strings(names)
	for i, n := range names {
		g.classIndex[n] = i + 1
	}

	g.emitHeader()
	g.emitMainEntry()
	for _, name := range names {
		g.emitConstructor(name)
		for _, m := range p.ClassMethods[name] {
			if m.DefiningClass != name {
				continue // inherited, not redeclared: emitted once under its defining class
			}
			g.emitMethod(name, m)
		}
	}
	g.emitRuntimeStubs()
	g.emitClassNameTable()
	for _, name := range names {
		g.emitVtable(name)
	}
	g.emitStringLiterals()

	return g.out.Flush()
}

func (g *Generator) emit(format string, args ...any) {
	fmt.Fprintf(g.out, format, args...)
	fmt.Fprintln(g.out)
}

func (g *Generator) label(prefix string) string {
	g.labelCounter++
	return fmt.Sprintf("%s%d", prefix, g.labelCounter)
}

func (g *Generator) emitHeader() {
	g.emit(".text")
}

// emitPrologue/emitEpilogue bracket every constructor and method body.
// %rbx and %r12 are the two callee-saved registers the lowering uses as
// long-lived scratch (self, and the current dispatch target, §9 DESIGN
// NOTES "Register conventions"), so both are saved here rather than only
// where a given body happens to need them: a nested call anywhere in the
// body is otherwise free to clobber the caller's copy. `let` locals sit
// below both saved registers, at -24(%rbp) and down.
func (g *Generator) emitPrologue() {
	g.emit("\tpushq %%rbp")
	g.emit("\tmovq %%rsp, %%rbp")
	g.emit("\tpushq %%rbx")
	g.emit("\tpushq %%r12")
}

func (g *Generator) emitEpilogue() {
	g.emit("\tmovq -8(%%rbp), %%rbx")
	g.emit("\tmovq -16(%%rbp), %%r12")
	g.emit("\tmovq %%rbp, %%rsp")
	g.emit("\tpopq %%rbp")
	g.emit("\tret")
}

// emitMainEntry emits the process entry point: construct a Main object,
// load its vtable, dispatch to Main.main by vtable slot (rather than
// calling the label directly, so entry goes through the same dispatch
// convention as every other call site), then exit(0) (§4.7.8).
func (g *Generator) emitMainEntry() {
	idx := g.methodSlot("Main", "main")
	offset := (idx + 1) * 8

	g.emit(".globl start")
	g.emit("start:")
	g.emit("\tjmp main")
	g.emit("main:")
	g.emit("\tcall Main..new")
	g.emit("\tmovq %%rax, %%rbx")
	g.emit("\tmovq 16(%%rbx), %%rsi")
	g.emit("\tmovq %d(%%rsi), %%r12", offset)
	g.emit("\tmovq %%rbx, %%rdi")
	g.emit("\tcall *%%r12")
	g.emit("\tmovq $0, %%rdi")
	g.emit("\tcall exit")
}

// methodSlot returns m's 0-based index within class's inherited-first
// method list, which is exactly its vtable slot minus the constructor
// slot (§4.7.2).
func (g *Generator) methodSlot(class, m string) int {
	for i, entry := range g.p.ClassMethods[class] {
		if entry.Name == m {
			return i
		}
	}
	return -1
}
