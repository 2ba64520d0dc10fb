package semantic

import (
	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/diag"
)

// annotateDynamicDispatch resolves `e.m(args)` against the receiver's
// annotated static type (§9 Open Questions: the reference resolves against
// the receiver expression's line number, a documented bug; this
// implementation resolves against the receiver's annotated type instead).
func (c *Checker) annotateDynamicDispatch(e *ast.DynamicDispatchExpr, scope *SymbolTable) (string, error) {
	receiverType, err := c.annotate(e.Receiver, scope)
	if err != nil {
		return "", err
	}
	staticType := c.resolveSelfType(receiverType)
	method, ok := c.classes.FindMethod(staticType, e.Method.Text)
	if !ok {
		return "", diag.TypeError(e.Line, "class %s has no method %s", staticType, e.Method.Text)
	}
	if err := c.checkArgs(e.Line, e.Method.Text, method.Formals, e.Args, scope); err != nil {
		return "", err
	}
	if method.ReturnType == classtable.SelfType {
		return receiverType, nil
	}
	return method.ReturnType, nil
}

// annotateStaticDispatch resolves `e@T.m(args)`: e's type must conform to
// T, m is resolved on T, and a literal SELF_TYPE return is preserved
// unresolved (§4.5: "return type preserved literally").
func (c *Checker) annotateStaticDispatch(e *ast.StaticDispatchExpr, scope *SymbolTable) (string, error) {
	receiverType, err := c.annotate(e.Receiver, scope)
	if err != nil {
		return "", err
	}
	if !c.classes.Exists(e.StaticType.Text) {
		return "", diag.TypeError(e.Line, "static dispatch to undefined class %s", e.StaticType.Text)
	}
	if !c.classes.Conforms(c.resolveSelfType(receiverType), e.StaticType.Text) {
		return "", diag.TypeError(e.Line, "static dispatch: %s does not conform to %s", receiverType, e.StaticType.Text)
	}
	method, ok := c.classes.FindMethod(e.StaticType.Text, e.Method.Text)
	if !ok {
		return "", diag.TypeError(e.Line, "class %s has no method %s", e.StaticType.Text, e.Method.Text)
	}
	if err := c.checkArgs(e.Line, e.Method.Text, method.Formals, e.Args, scope); err != nil {
		return "", err
	}
	return method.ReturnType, nil
}

// annotateSelfDispatch resolves `m(args)` (implicit self receiver) against
// the current class; a SELF_TYPE return resolves to SELF_TYPE itself, since
// the receiver is exactly self (§4.5).
func (c *Checker) annotateSelfDispatch(e *ast.SelfDispatchExpr, scope *SymbolTable) (string, error) {
	method, ok := c.classes.FindMethod(c.class, e.Method.Text)
	if !ok {
		return "", diag.TypeError(e.Line, "class %s has no method %s", c.class, e.Method.Text)
	}
	if err := c.checkArgs(e.Line, e.Method.Text, method.Formals, e.Args, scope); err != nil {
		return "", err
	}
	return method.ReturnType, nil
}
