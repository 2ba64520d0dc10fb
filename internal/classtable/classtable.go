// Package classtable builds and queries the class hierarchy (§4.3): the
// seeded built-in classes plus the program's user classes, linked by parent
// name rather than by pointer so the graph can be validated for cycles
// before any class is trusted to exist (§9 DESIGN NOTES, "Cyclic class
// graph"). Conformance and least-upper-bound queries walk the parent chain
// by name, mirroring the ancestor-chain algorithm of the reference semantic
// analyzer rather than precomputing a transitive closure.
package classtable

import (
	"sort"

	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/diag"
)

// ObjectClass, IOClass, StringClass, IntClass, BoolClass name the built-in
// classes every program is seeded with.
const (
	ObjectClass = "Object"
	IOClass     = "IO"
	StringClass = "String"
	IntClass    = "Int"
	BoolClass   = "Bool"
	SelfType    = "SELF_TYPE"
)

// primitive classes may not be inherited from (§4.3 step 3).
var primitive = map[string]bool{StringClass: true, IntClass: true, BoolClass: true}

// Formal is a (name, type) method parameter.
type Formal struct {
	Name string
	Type string
}

// MethodEntry is one resolved method: its signature, the class that defines
// its body, and the body itself (an `internal <Class.method>` marker for
// built-ins).
type MethodEntry struct {
	Name          string
	Formals       []Formal
	ReturnType    string
	DefiningClass string
	Body          ast.Expr
}

// AttrEntry is one resolved attribute: its declared type, the class that
// declares it, and its initializer (nil if none).
type AttrEntry struct {
	Name          string
	Type          string
	DefiningClass string
	Init          ast.Expr
}

// ClassEntry is one class's record in the table: identity, parent link, and
// the features declared directly on this class (not inherited).
type ClassEntry struct {
	Name          string
	Parent        string // "" only for Object
	Line          int    // 0 for built-ins
	OwnAttributes []AttrEntry
	OwnMethods    []MethodEntry
}

// Table is the full class hierarchy: built-ins plus user classes, keyed by
// name.
type Table struct {
	classes map[string]*ClassEntry
	names   []string // all class names, sorted, computed once Build finishes
}

// Lookup returns the class entry named name, or nil if it doesn't exist.
func (t *Table) Lookup(name string) *ClassEntry {
	return t.classes[name]
}

// Exists reports whether name is a known class.
func (t *Table) Exists(name string) bool {
	return t.classes[name] != nil
}

// Names returns every class name in alphabetical order, matching the
// ordering used for vtable and class_map emission (§4.7, §6.3).
func (t *Table) Names() []string {
	return t.names
}

// Parent returns the parent of name, or "" if name is Object or unknown.
func (t *Table) Parent(name string) string {
	if c := t.classes[name]; c != nil {
		return c.Parent
	}
	return ""
}

// Conforms reports whether sub conforms to super: sub == super, or super
// appears on sub's ancestor chain (§4.4, GLOSSARY "Conforms").
func (t *Table) Conforms(sub, super string) bool {
	if sub == super {
		return true
	}
	for cur := t.Parent(sub); cur != ""; cur = t.Parent(cur) {
		if cur == super {
			return true
		}
	}
	return false
}

// ancestors returns name and every ancestor up to and including Object, in
// order from name outward.
func (t *Table) ancestors(name string) []string {
	chain := []string{name}
	for cur := t.Parent(name); cur != ""; cur = t.Parent(cur) {
		chain = append(chain, cur)
	}
	return chain
}

// Lub returns the least upper bound (closest common ancestor) of a and b
// (§4.4, GLOSSARY "LUB"). Both must be concrete class names; SELF_TYPE must
// already be resolved by the caller.
func (t *Table) Lub(a, b string) string {
	if a == b {
		return a
	}
	bAncestors := t.ancestors(b)
	inB := make(map[string]bool, len(bAncestors))
	for _, n := range bAncestors {
		inB[n] = true
	}
	for _, n := range t.ancestors(a) {
		if inB[n] {
			return n
		}
	}
	return ObjectClass
}

// AllAttributes returns name's attributes, inherited-first, own-last, with
// no override notion (COOL forbids attribute redefinition across the
// hierarchy; that is checked in Build, not resolved here).
func (t *Table) AllAttributes(name string) []AttrEntry {
	c := t.classes[name]
	if c == nil {
		return nil
	}
	var attrs []AttrEntry
	if c.Parent != "" {
		attrs = append(attrs, t.AllAttributes(c.Parent)...)
	}
	attrs = append(attrs, c.OwnAttributes...)
	return attrs
}

// AllMethods returns name's methods, inherited-first with declared
// overrides replacing the inherited entry at the same index (§4.3 step 6,
// §8 "Vtable consistency").
func (t *Table) AllMethods(name string) []MethodEntry {
	c := t.classes[name]
	if c == nil {
		return nil
	}
	var methods []MethodEntry
	if c.Parent != "" {
		methods = append(methods, t.AllMethods(c.Parent)...)
	}
	for _, own := range c.OwnMethods {
		replaced := false
		for i, m := range methods {
			if m.Name == own.Name {
				methods[i] = own
				replaced = true
				break
			}
		}
		if !replaced {
			methods = append(methods, own)
		}
	}
	return methods
}

// FindMethod resolves name's method m by walking the ancestor chain,
// returning the most-derived definition (§4.5, dynamic dispatch lookup).
func (t *Table) FindMethod(name, m string) (MethodEntry, bool) {
	for _, entry := range t.AllMethods(name) {
		if entry.Name == m {
			return entry, true
		}
	}
	return MethodEntry{}, false
}

// FindAttribute resolves name's attribute a by walking the ancestor chain.
func (t *Table) FindAttribute(name, a string) (AttrEntry, bool) {
	for _, entry := range t.AllAttributes(name) {
		if entry.Name == a {
			return entry, true
		}
	}
	return AttrEntry{}, false
}

// MethodIndex returns m's slot index (0-based, counted from the first
// inherited-or-declared method, not counting the constructor slot) within
// name's vtable, or -1 if m is not found (§4.7.2).
func (t *Table) MethodIndex(name, m string) int {
	for i, entry := range t.AllMethods(name) {
		if entry.Name == m {
			return i
		}
	}
	return -1
}

// Build seeds the built-in classes, inserts the program's user classes,
// validates the resulting hierarchy (no redefinition of built-ins, no
// inheritance from a primitive class, no missing parent, no cycles,
// override-compatible signatures, a `Main.main` with no formals), and
// returns the completed Table. It aborts with the first diagnostic found.
func Build(prog *ast.Program) (*Table, error) {
	t := &Table{classes: seedBuiltins()}

	for _, c := range prog.Classes {
		if _, ok := t.classes[c.Name.Text]; ok {
			return nil, diag.TypeError(c.Line, "class %s is already defined", c.Name.Text)
		}
		if primitive[c.Name.Text] {
			return nil, diag.TypeError(c.Line, "cannot redefine primitive class %s", c.Name.Text)
		}
		if primitive[c.ParentName()] {
			return nil, diag.TypeError(c.Line, "class %s cannot inherit from primitive class %s", c.Name.Text, c.ParentName())
		}
		if c.ParentName() == SelfType {
			return nil, diag.TypeError(c.Line, "class %s cannot inherit from SELF_TYPE", c.Name.Text)
		}

		entry := &ClassEntry{Name: c.Name.Text, Parent: c.ParentName(), Line: c.Line}
		for _, a := range c.Attributes {
			if a.Name.Text == "self" {
				return nil, diag.TypeError(a.Name.Line, "'self' cannot be the name of an attribute")
			}
			entry.OwnAttributes = append(entry.OwnAttributes, AttrEntry{
				Name: a.Name.Text, Type: a.Type.Text, DefiningClass: c.Name.Text, Init: a.Init,
			})
		}
		for _, m := range c.Methods {
			var formals []Formal
			seen := map[string]bool{}
			for _, f := range m.Formals {
				if f.Name.Text == "self" {
					return nil, diag.TypeError(f.Name.Line, "'self' cannot be the name of a formal parameter")
				}
				if seen[f.Name.Text] {
					return nil, diag.TypeError(f.Name.Line, "formal parameter %s is multiply defined", f.Name.Text)
				}
				seen[f.Name.Text] = true
				formals = append(formals, Formal{Name: f.Name.Text, Type: f.Type.Text})
			}
			entry.OwnMethods = append(entry.OwnMethods, MethodEntry{
				Name: m.Name.Text, Formals: formals, ReturnType: m.ReturnType.Text,
				DefiningClass: c.Name.Text, Body: m.Body,
			})
			m.DefiningClass = c.Name.Text
		}
		t.classes[c.Name.Text] = entry
	}

	if err := t.checkParentsExist(); err != nil {
		return nil, err
	}
	if err := t.checkNoCycles(); err != nil {
		return nil, err
	}
	if err := t.checkNoDuplicateFeatures(); err != nil {
		return nil, err
	}
	if err := t.checkOverrides(); err != nil {
		return nil, err
	}
	if err := t.checkMainExists(); err != nil {
		return nil, err
	}

	t.names = make([]string, 0, len(t.classes))
	for name := range t.classes {
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)

	return t, nil
}

func (t *Table) checkParentsExist() error {
	for _, c := range t.classes {
		if c.Parent == "" {
			continue
		}
		if _, ok := t.classes[c.Parent]; !ok {
			return diag.TypeError(c.Line, "class %s inherits from undefined class %s", c.Name, c.Parent)
		}
	}
	return nil
}

func (t *Table) checkNoCycles() error {
	for name := range t.classes {
		seen := map[string]bool{name: true}
		prev := name
		cur := t.classes[name].Parent
		for cur != "" {
			if seen[cur] {
				return diag.TypeError(0, "inheritance cycle: %s %s", prev, cur)
			}
			seen[cur] = true
			prev = cur
			cur = t.classes[cur].Parent
		}
	}
	return nil
}

func (t *Table) checkNoDuplicateFeatures() error {
	for _, c := range t.classes {
		attrSeen := map[string]bool{}
		for _, a := range c.OwnAttributes {
			if attrSeen[a.Name] {
				return diag.TypeError(c.Line, "attribute %s is multiply defined in class %s", a.Name, c.Name)
			}
			attrSeen[a.Name] = true
			if _, ok := t.inheritedAttribute(c.Parent, a.Name); ok {
				return diag.TypeError(c.Line, "attribute %s redefines an inherited attribute in class %s", a.Name, c.Name)
			}
		}
		methodSeen := map[string]bool{}
		for _, m := range c.OwnMethods {
			if methodSeen[m.Name] {
				return diag.TypeError(c.Line, "method %s is multiply defined in class %s", m.Name, c.Name)
			}
			methodSeen[m.Name] = true
		}
	}
	return nil
}

func (t *Table) inheritedAttribute(class, name string) (AttrEntry, bool) {
	if class == "" {
		return AttrEntry{}, false
	}
	return t.FindAttribute(class, name)
}

// checkOverrides enforces that a declared method overriding an inherited
// one preserves formal types (in order) and return type (§4.3 step 6,
// §8 scenario 3).
func (t *Table) checkOverrides() error {
	for _, c := range t.classes {
		if c.Parent == "" {
			continue
		}
		for _, own := range c.OwnMethods {
			inherited, ok := t.FindMethod(c.Parent, own.Name)
			if !ok {
				continue
			}
			if len(inherited.Formals) != len(own.Formals) {
				return diag.TypeError(c.Line, "different formals")
			}
			for i := range inherited.Formals {
				if inherited.Formals[i].Type != own.Formals[i].Type {
					return diag.TypeError(c.Line, "different formals")
				}
			}
			if inherited.ReturnType != own.ReturnType {
				return diag.TypeError(c.Line, "different return types")
			}
		}
	}
	return nil
}

func (t *Table) checkMainExists() error {
	main := t.classes["Main"]
	if main == nil {
		return diag.TypeError(0, "class Main is not defined")
	}
	m, ok := t.FindMethod("Main", "main")
	if !ok || len(m.Formals) != 0 {
		return diag.TypeError(0, "Main.main with no formals is not defined")
	}
	return nil
}

func internalBody(symbol string) ast.Expr {
	return &ast.InternalExpr{Symbol: symbol}
}

// seedBuiltins returns the built-in class set (§4.3 step 1): Object, IO,
// String, Int, Bool, with the exact built-in method signatures every COOL
// program inherits.
func seedBuiltins() map[string]*ClassEntry {
	return map[string]*ClassEntry{
		ObjectClass: {
			Name: ObjectClass,
			OwnMethods: []MethodEntry{
				{Name: "abort", ReturnType: ObjectClass, DefiningClass: ObjectClass, Body: internalBody("Object.abort")},
				{Name: "type_name", ReturnType: StringClass, DefiningClass: ObjectClass, Body: internalBody("Object.type_name")},
				{Name: "copy", ReturnType: SelfType, DefiningClass: ObjectClass, Body: internalBody("Object.copy")},
			},
		},
		IOClass: {
			Name: IOClass, Parent: ObjectClass,
			OwnMethods: []MethodEntry{
				{Name: "out_string", Formals: []Formal{{Name: "x", Type: StringClass}}, ReturnType: SelfType, DefiningClass: IOClass, Body: internalBody("IO.out_string")},
				{Name: "out_int", Formals: []Formal{{Name: "x", Type: IntClass}}, ReturnType: SelfType, DefiningClass: IOClass, Body: internalBody("IO.out_int")},
				{Name: "in_string", ReturnType: StringClass, DefiningClass: IOClass, Body: internalBody("IO.in_string")},
				{Name: "in_int", ReturnType: IntClass, DefiningClass: IOClass, Body: internalBody("IO.in_int")},
			},
		},
		StringClass: {
			Name: StringClass, Parent: ObjectClass,
			OwnMethods: []MethodEntry{
				{Name: "length", ReturnType: IntClass, DefiningClass: StringClass, Body: internalBody("String.length")},
				{Name: "concat", Formals: []Formal{{Name: "s", Type: StringClass}}, ReturnType: StringClass, DefiningClass: StringClass, Body: internalBody("String.concat")},
				{Name: "substr", Formals: []Formal{{Name: "i", Type: IntClass}, {Name: "l", Type: IntClass}}, ReturnType: StringClass, DefiningClass: StringClass, Body: internalBody("String.substr")},
			},
		},
		IntClass:  {Name: IntClass, Parent: ObjectClass},
		BoolClass: {Name: BoolClass, Parent: ObjectClass},
	}
}
