package codegen

import "github.com/mekotech/coolc/internal/classtable"

// Object header size in bytes: obj_id, size, vtable_ptr, each 8 bytes
// (§4.7.1).
const headerSize = 24

// classSize returns the heap allocation size, in bytes, of an instance of
// class (§4.7.1): fixed for the three boxed primitives, header plus one
// 8-byte slot per inherited-or-declared attribute otherwise.
func (g *Generator) classSize(class string) int {
	switch class {
	case classtable.IntClass, classtable.BoolClass:
		return 32
	case classtable.StringClass:
		return 40
	default:
		return headerSize + 8*len(g.p.ClassAttributes[class])
	}
}

func (g *Generator) objectID(class string) int {
	return g.classIndex[class]
}

func vtableLabel(class string) string { return class + "..vtable" }
func ctorLabel(class string) string   { return class + "..new" }
func methodLabel(definingClass, method string) string {
	return definingClass + "." + method
}

// emitVtable emits class's vtable: slot 0 the constructor, slots 1..N the
// inherited-first, override-applied method list (§4.7.2).
func (g *Generator) emitVtable(class string) {
	g.emit(".data")
	g.emit(".align 8")
	g.emit("%s:", vtableLabel(class))
	g.emit("\t.quad %s", ctorLabel(class))
	for _, m := range g.p.ClassMethods[class] {
		g.emit("\t.quad %s", methodLabel(m.DefiningClass, m.Name))
	}
	g.emit(".text")
}
