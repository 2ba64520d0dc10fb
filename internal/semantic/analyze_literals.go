package semantic

import (
	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/diag"
)

// annotateIdentifier resolves a bare variable reference. `self` always
// types as SELF_TYPE; every other name must resolve in the scope chain
// (§4.5 phase A unbound-identifier check, folded into phase B here).
func (c *Checker) annotateIdentifier(e *ast.IdentifierExpr, scope *SymbolTable) (string, error) {
	if e.Name.Text == "self" {
		return classtable.SelfType, nil
	}
	t, ok := scope.Lookup(e.Name.Text)
	if !ok {
		return "", diag.TypeError(e.Line, "unbound identifier %s", e.Name.Text)
	}
	return t, nil
}

// annotateNew types `new T` as T itself. SELF_TYPE is permitted (it is
// resolved against the dynamic class at codegen time, not here).
func (c *Checker) annotateNew(e *ast.NewExpr) (string, error) {
	if e.TypeName.Text != classtable.SelfType && !c.classes.Exists(e.TypeName.Text) {
		return "", diag.TypeError(e.Line, "new of undefined class %s", e.TypeName.Text)
	}
	return e.TypeName.Text, nil
}
