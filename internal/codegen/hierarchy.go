package codegen

import (
	"sort"

	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
)

// ancestorsOf returns class and every ancestor up to and including Object,
// walking the flattened parent_map (§6.3) rather than a classtable.Table:
// codegen only ever sees the already-built annotated type file.
func (g *Generator) ancestorsOf(class string) []string {
	chain := []string{class}
	for {
		parent, ok := g.p.Parent[class]
		if !ok {
			return chain
		}
		chain = append(chain, parent)
		class = parent
	}
}

func (g *Generator) conformsTo(class, ancestor string) bool {
	for _, a := range g.ancestorsOf(class) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// descendantObjectIDs returns the object IDs of every class in the program
// that conforms to branchType, i.e. the runtime values a case branch's type
// test must accept.
func (g *Generator) descendantObjectIDs(branchType string) []int {
	var ids []int
	for _, c := range g.p.ClassNames {
		if g.conformsTo(c, branchType) {
			ids = append(ids, g.classIndex[c])
		}
	}
	sort.Ints(ids)
	return ids
}

// sortedCaseBranches orders branches from most specific to least specific
// (deepest ancestor chain first) so a runtime type test against the
// branches in this order always finds the closest matching branch first,
// regardless of the scrutinee's actual dynamic class.
func (g *Generator) sortedCaseBranches(branches []ast.CaseBranch) []ast.CaseBranch {
	sorted := append([]ast.CaseBranch(nil), branches...)
	depth := make(map[string]int, len(sorted))
	for _, b := range sorted {
		if _, ok := depth[b.Type.Text]; !ok {
			depth[b.Type.Text] = len(g.ancestorsOf(b.Type.Text))
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return depth[sorted[i].Type.Text] > depth[sorted[j].Type.Text]
	})
	return sorted
}

// vtableSlotOf is methodSlot plus the constructor slot offset, returning a
// byte offset from a class's vtable base.
func (g *Generator) vtableSlotOf(class, method string) int {
	idx := g.methodSlot(class, method)
	return (idx + 1) * 8
}

func (g *Generator) definingClassOf(class, method string) string {
	for _, m := range g.p.ClassMethods[class] {
		if m.Name == method {
			return m.DefiningClass
		}
	}
	return classtable.ObjectClass
}
