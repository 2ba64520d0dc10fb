package semantic

import (
	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/diag"
)

func (c *Checker) annotateIf(e *ast.IfExpr, scope *SymbolTable) (string, error) {
	predType, err := c.annotate(e.Predicate, scope)
	if err != nil {
		return "", err
	}
	if predType != classtable.BoolClass {
		return "", diag.TypeError(e.Line, "if predicate must be Bool, got %s", predType)
	}
	thenType, err := c.annotate(e.Then, scope)
	if err != nil {
		return "", err
	}
	elseType, err := c.annotate(e.Else, scope)
	if err != nil {
		return "", err
	}
	return c.classes.Lub(c.resolveSelfType(thenType), c.resolveSelfType(elseType)), nil
}

func (c *Checker) annotateWhile(e *ast.WhileExpr, scope *SymbolTable) (string, error) {
	predType, err := c.annotate(e.Predicate, scope)
	if err != nil {
		return "", err
	}
	if predType != classtable.BoolClass {
		return "", diag.TypeError(e.Line, "while predicate must be Bool, got %s", predType)
	}
	if _, err := c.annotate(e.Body, scope); err != nil {
		return "", err
	}
	return classtable.ObjectClass, nil
}

func (c *Checker) annotateBlock(e *ast.BlockExpr, scope *SymbolTable) (string, error) {
	var last string
	for _, sub := range e.Body {
		t, err := c.annotate(sub, scope)
		if err != nil {
			return "", err
		}
		last = t
	}
	return last, nil
}

// annotateLet type-checks each binding in turn, each seeing the bindings
// declared before it (sequential `let` scoping), then the body in a scope
// extended by every binding (§4.5).
func (c *Checker) annotateLet(e *ast.LetExpr, scope *SymbolTable) (string, error) {
	letScope := NewEnclosedSymbolTable(scope)
	for _, b := range e.Bindings {
		if b.Type.Text != classtable.SelfType && !c.classes.Exists(b.Type.Text) {
			return "", diag.TypeError(b.Var.Line, "let binding %s has undefined type %s", b.Var.Text, b.Type.Text)
		}
		if b.Var.Text == "self" {
			return "", diag.TypeError(b.Var.Line, "'self' cannot be bound in a let")
		}
		if letScope.DefinedInCurrentScope(b.Var.Text) {
			return "", diag.TypeError(b.Var.Line, "let binding %s is multiply defined in this let", b.Var.Text)
		}
		if b.Init != nil {
			initType, err := c.annotate(b.Init, letScope)
			if err != nil {
				return "", err
			}
			if b.Type.Text == classtable.SelfType {
				if _, isSelf := b.Init.(*ast.IdentifierExpr); !isSelf || b.Init.(*ast.IdentifierExpr).Name.Text != "self" {
					return "", diag.TypeError(b.Var.Line, "a SELF_TYPE let binding's initializer must be self")
				}
			} else if !c.classes.Conforms(c.resolveSelfType(initType), b.Type.Text) {
				return "", diag.TypeError(b.Var.Line, "let binding %s initializer type %s does not conform to %s", b.Var.Text, initType, b.Type.Text)
			}
		}
		letScope.Define(b.Var.Text, b.Type.Text)
	}
	return c.annotate(e.Body, letScope)
}

// annotateCase requires every branch's declared type to exist, be distinct
// across branches, and not be SELF_TYPE; the result is the lub of every
// branch body's type (§4.5).
func (c *Checker) annotateCase(e *ast.CaseExpr, scope *SymbolTable) (string, error) {
	if _, err := c.annotate(e.Scrutinee, scope); err != nil {
		return "", err
	}

	seen := map[string]bool{}
	var result string
	for i, branch := range e.Branches {
		if branch.Type.Text == classtable.SelfType {
			return "", diag.TypeError(branch.Var.Line, "case branch type cannot be SELF_TYPE")
		}
		if !c.classes.Exists(branch.Type.Text) {
			return "", diag.TypeError(branch.Var.Line, "case branch has undefined type %s", branch.Type.Text)
		}
		if seen[branch.Type.Text] {
			return "", diag.TypeError(branch.Var.Line, "duplicate case branch type %s", branch.Type.Text)
		}
		seen[branch.Type.Text] = true

		branchScope := NewEnclosedSymbolTable(scope)
		branchScope.Define(branch.Var.Text, branch.Type.Text)
		bodyType, err := c.annotate(branch.Body, branchScope)
		if err != nil {
			return "", err
		}
		if i == 0 {
			result = c.resolveSelfType(bodyType)
		} else {
			result = c.classes.Lub(result, c.resolveSelfType(bodyType))
		}
	}
	return result, nil
}
