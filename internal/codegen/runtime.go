package codegen

// Runtime error stub labels (§7 "Runtime errors"): one stub per kind,
// shared by every call site of that kind rather than inlined, each taking
// the offending line number in %rdi.
const (
	rtDispatchVoid = "rt.dispatch_void"
	rtDivZero      = "rt.div_zero"
	rtCaseNoMatch  = "rt.case_no_match"
	rtCaseVoid     = "rt.case_void"
)

// emitRuntimeStubs emits the four runtime-error stubs plus the small
// hand-rolled `coolstrcmp` helper string comparisons need: the allowed
// external surface (§6.4) has no libc `strcmp`, so lexicographic
// byte-by-byte comparison is generated inline here rather than imported.
func (g *Generator) emitRuntimeStubs() {
	g.emitErrorStub(rtDispatchVoid, "dispatch on void")
	g.emitErrorStub(rtDivZero, "division zero")
	g.emitErrorStub(rtCaseNoMatch, "case no match")
	g.emitErrorStub(rtCaseVoid, "case on void")
	g.emitBuiltinData()
	g.emitStrcmp()
	g.emitStrlen()
	g.emitOutStr()
	g.emitGetStr()
}

// emitStrlen emits `coolstrlen(%rdi=ptr) -> %rax`: the length of a
// NUL-terminated C string (§6.4).
func (g *Generator) emitStrlen() {
	g.emit("coolstrlen:")
	g.emit("\txorq %%rax, %%rax")
	g.emit("coolstrlen.loop:")
	g.emit("\tcmpb $0, (%%rdi,%%rax)")
	g.emit("\tje coolstrlen.done")
	g.emit("\tincq %%rax")
	g.emit("\tjmp coolstrlen.loop")
	g.emit("coolstrlen.done:")
	g.emit("\tret")
}

// emitOutStr emits `cooloutstr(%rdi= boxed String)`: writes the string's
// bytes to stdout and flushes (§6.4, §4.7.7).
func (g *Generator) emitOutStr() {
	g.emit("cooloutstr:")
	g.emit("\tpushq %%rbp")
	g.emit("\tmovq %%rsp, %%rbp")
	g.emit("\tpushq %%rbx")
	g.emit("\tpushq %%r12")
	g.emit("\tpushq %%r13")
	g.emit("\tmovq 32(%%rdi), %%rbx") // length
	g.emit("\tmovq 24(%%rdi), %%r12") // chars
	g.emit("\txorq %%r13, %%r13")     // index
	g.emit("cooloutstr.loop:")
	g.emit("\tcmpq %%rbx, %%r13")
	g.emit("\tje cooloutstr.done")
	g.emit("\tmovzbq (%%r12,%%r13), %%rdi")
	g.emit("\tmovq stdout(%%rip), %%rsi")
	g.emit("\tcall fputc")
	g.emit("\tincq %%r13")
	g.emit("\tjmp cooloutstr.loop")
	g.emit("cooloutstr.done:")
	g.emit("\tmovq stdout(%%rip), %%rdi")
	g.emit("\tcall fflush")
	g.emit("\tpopq %%r13")
	g.emit("\tpopq %%r12")
	g.emit("\tpopq %%rbx")
	g.emit("\tpopq %%rbp")
	g.emit("\tret")
}

// emitGetStr emits `coolgetstr(%rdi=buf, %rsi=maxlen) -> %rax=buf`: reads
// one line from stdin and strips the trailing newline, if any (§4.7.7
// "IO.in_string"/"IO.in_int" share this helper).
func (g *Generator) emitGetStr() {
	g.emit("coolgetstr:")
	g.emit("\tpushq %%rbp")
	g.emit("\tmovq %%rsp, %%rbp")
	g.emit("\tpushq %%rdi")
	g.emit("\tmovq stdin(%%rip), %%rdx")
	g.emit("\tcall fgets")
	g.emit("\tpopq %%rax")
	g.emit("\tmovq %%rax, %%rcx")
	g.emit("coolgetstr.strip:")
	g.emit("\tmovzbq (%%rcx), %%rdx")
	g.emit("\ttestq %%rdx, %%rdx")
	g.emit("\tjz coolgetstr.done")
	g.emit("\tcmpq $10, %%rdx")
	g.emit("\tje coolgetstr.found")
	g.emit("\tincq %%rcx")
	g.emit("\tjmp coolgetstr.strip")
	g.emit("coolgetstr.found:")
	g.emit("\tmovb $0, (%%rcx)")
	g.emit("coolgetstr.done:")
	g.emit("\tpopq %%rbp")
	g.emit("\tret")
}

// emitErrorStub emits a stub that prints `ERROR: <line>: Exception: <kind>`
// and exits 1 (§7), where <line> is whatever the caller left in %rdi.
func (g *Generator) emitErrorStub(label, kind string) {
	msgLabel := label + ".msg"
	g.emit(".data")
	g.emit("%s:", msgLabel)
	g.emit("\t.asciz %s", quoteAsciz("ERROR: %d: Exception: "+kind+"\n"))
	g.emit(".text")
	g.emit("%s:", label)
	g.emit("\tmovq %%rdi, %%rsi")
	g.emit("\tleaq %s(%%rip), %%rdi", msgLabel)
	g.emit("\tcall printf")
	g.emit("\tmovq $1, %%rdi")
	g.emit("\tcall exit")
}

// emitStrcmp emits `coolstrcmp(%rdi=a, %rsi=b) -> %rax in {-1,0,1}`,
// comparing two boxed String objects byte-by-byte up to their shared
// length, then by length (standard lexicographic order).
func (g *Generator) emitStrcmp() {
	g.emit("coolstrcmp:")
	g.emit("\tmovq 32(%%rdi), %%rcx") // len(a)
	g.emit("\tmovq 32(%%rsi), %%rdx") // len(b)
	g.emit("\tmovq 24(%%rdi), %%rdi") // chars(a)
	g.emit("\tmovq 24(%%rsi), %%rsi") // chars(b)
	g.emit("\tmovq %%rcx, %%r8")
	g.emit("\tcmpq %%rdx, %%r8")
	g.emit("\tcmovgq %%rdx, %%r8") // r8 = min(len(a), len(b))
	g.emit("\txorq %%r9, %%r9")    // r9 = index
	g.emit("coolstrcmp.loop:")
	g.emit("\tcmpq %%r8, %%r9")
	g.emit("\tje coolstrcmp.tiebreak")
	g.emit("\tmovzbq (%%rdi,%%r9), %%rax")
	g.emit("\tmovzbq (%%rsi,%%r9), %%r10")
	g.emit("\tcmpq %%r10, %%rax")
	g.emit("\tjl coolstrcmp.lt")
	g.emit("\tjg coolstrcmp.gt")
	g.emit("\tincq %%r9")
	g.emit("\tjmp coolstrcmp.loop")
	g.emit("coolstrcmp.tiebreak:")
	g.emit("\tcmpq %%rdx, %%rcx")
	g.emit("\tjl coolstrcmp.lt")
	g.emit("\tjg coolstrcmp.gt")
	g.emit("\tmovq $0, %%rax")
	g.emit("\tret")
	g.emit("coolstrcmp.lt:")
	g.emit("\tmovq $-1, %%rax")
	g.emit("\tret")
	g.emit("coolstrcmp.gt:")
	g.emit("\tmovq $1, %%rax")
	g.emit("\tret")
}
