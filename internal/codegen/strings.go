package codegen

import (
	"fmt"
	"strings"

	"github.com/mekotech/coolc/internal/classtable"
)

// internString/internInt/internBool intern a literal's boxed object as a
// unique static `.data` label, keyed by content so repeated literals with
// the same value share one instance (§9 DESIGN NOTES "Label/string
// uniqueness"): a content-hash map plus insertion order, process-local to
// this Generator so the pass stays re-entrant.
func (g *Generator) internString(value string) string {
	return g.intern("str$"+value, value)
}

func (g *Generator) internInt(value string) string {
	return g.intern("int$"+value, value)
}

func (g *Generator) internBool(value bool) string {
	key := "bool$false"
	if value {
		key = "bool$true"
	}
	return g.intern(key, key)
}

func (g *Generator) intern(key, payload string) string {
	if label, ok := g.stringLabels[key]; ok {
		return label
	}
	label := fmt.Sprintf("const.%d", len(g.stringOrder))
	g.stringLabels[key] = label
	g.stringOrder = append(g.stringOrder, key)
	return label
}

// emitStringLiterals emits the `.data` payload for every literal interned
// during lowering: a full boxed Int/Bool/String object for each, matching
// the same header layout `emitConstructor` would produce at runtime, so
// user code can dispatch on them (e.g. `"x".type_name()`) exactly like a
// heap-allocated instance (§4.7.1, §4.7.7).
func (g *Generator) emitStringLiterals() {
	if len(g.stringOrder) == 0 {
		return
	}
	g.emit(".data")
	g.emit(".align 8")
	for _, key := range g.stringOrder {
		label := g.stringLabels[key]
		switch {
		case strings.HasPrefix(key, "str$"):
			g.emitStringConst(label, strings.TrimPrefix(key, "str$"))
		case strings.HasPrefix(key, "int$"):
			g.emitIntConst(label, strings.TrimPrefix(key, "int$"))
		case key == "bool$true":
			g.emitBoolConst(label, 1)
		case key == "bool$false":
			g.emitBoolConst(label, 0)
		}
	}
	g.emit(".text")
}

func (g *Generator) emitIntConst(label, value string) {
	g.emit("%s:", label)
	g.emit("\t.quad %d", g.classIndex[classtable.IntClass])
	g.emit("\t.quad 32")
	g.emit("\t.quad %s", vtableLabel(classtable.IntClass))
	g.emit("\t.quad %s", value)
}

func (g *Generator) emitBoolConst(label string, value int) {
	g.emit("%s:", label)
	g.emit("\t.quad %d", g.classIndex[classtable.BoolClass])
	g.emit("\t.quad 32")
	g.emit("\t.quad %s", vtableLabel(classtable.BoolClass))
	g.emit("\t.quad %d", value)
}

func (g *Generator) emitStringConst(label, value string) {
	charsLabel := label + ".chars"
	g.emit("%s:", label)
	g.emit("\t.quad %d", g.classIndex[classtable.StringClass])
	g.emit("\t.quad 40")
	g.emit("\t.quad %s", vtableLabel(classtable.StringClass))
	g.emit("\t.quad %s", charsLabel)
	g.emit("\t.quad %d", len(value))
	g.emit("%s:", charsLabel)
	g.emit("\t.asciz %s", quoteAsciz(value))
}

// quoteAsciz renders value as a GNU-as double-quoted string literal, the
// form `.asciz` expects.
func quoteAsciz(value string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range []byte(value) {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r >= 0x7f {
				fmt.Fprintf(&b, `\%03o`, r)
			} else {
				b.WriteByte(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
