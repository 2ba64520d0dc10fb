package semantic

import (
	"github.com/mekotech/coolc/internal/ast"
	"github.com/mekotech/coolc/internal/classtable"
	"github.com/mekotech/coolc/internal/diag"
)

// annotateAssign checks `x <- e`: x may not be self, and type(e) must
// conform to x's declared type; the result type is type(e) (§4.5).
func (c *Checker) annotateAssign(e *ast.AssignExpr, scope *SymbolTable) (string, error) {
	if e.Var.Text == "self" {
		return "", diag.TypeError(e.Line, "cannot assign to self")
	}
	declared, ok := scope.Lookup(e.Var.Text)
	if !ok {
		return "", diag.TypeError(e.Line, "unbound identifier %s", e.Var.Text)
	}
	rhsType, err := c.annotate(e.Rhs, scope)
	if err != nil {
		return "", err
	}
	actual := c.resolveSelfType(rhsType)
	target := c.resolveSelfType(declared)
	if !c.classes.Conforms(actual, target) {
		return "", diag.TypeError(e.Line, "assignment to %s: type %s does not conform to declared type %s", e.Var.Text, rhsType, declared)
	}
	return rhsType, nil
}

// annotateArith requires both operands Int, and always results in Int.
func (c *Checker) annotateArith(e *ast.ArithExpr, scope *SymbolTable) (string, error) {
	left, err := c.annotate(e.Left, scope)
	if err != nil {
		return "", err
	}
	right, err := c.annotate(e.Right, scope)
	if err != nil {
		return "", err
	}
	if left != classtable.IntClass || right != classtable.IntClass {
		return "", diag.TypeError(e.Line, "arithmetic operand is not Int: %s, %s", left, right)
	}
	return classtable.IntClass, nil
}

// annotateCompare implements both branches of the rule table: `lt`/`le`
// permit two Ints, two Strings, two Bools, or two non-primitive types;
// `eq` permits any pair as long as neither side is a mismatched primitive.
func (c *Checker) annotateCompare(e *ast.CompareExpr, scope *SymbolTable) (string, error) {
	left, err := c.annotate(e.Left, scope)
	if err != nil {
		return "", err
	}
	right, err := c.annotate(e.Right, scope)
	if err != nil {
		return "", err
	}

	if e.Op == ast.Eq {
		if isPrimitive(left) || isPrimitive(right) {
			if left != right {
				return "", diag.TypeError(e.Line, "cannot compare %s with %s", left, right)
			}
		}
		return classtable.BoolClass, nil
	}

	bothInt := left == classtable.IntClass && right == classtable.IntClass
	bothString := left == classtable.StringClass && right == classtable.StringClass
	bothBool := left == classtable.BoolClass && right == classtable.BoolClass
	bothNonPrimitive := !isPrimitive(left) && !isPrimitive(right)
	if !bothInt && !bothString && !bothBool && !bothNonPrimitive {
		return "", diag.TypeError(e.Line, "cannot compare %s with %s", left, right)
	}
	return classtable.BoolClass, nil
}

func isPrimitive(t string) bool {
	switch t {
	case classtable.IntClass, classtable.StringClass, classtable.BoolClass:
		return true
	default:
		return false
	}
}

func (c *Checker) annotateNot(e *ast.NotExpr, scope *SymbolTable) (string, error) {
	operandType, err := c.annotate(e.Operand, scope)
	if err != nil {
		return "", err
	}
	if operandType != classtable.BoolClass {
		return "", diag.TypeError(e.Line, "not operand must be Bool, got %s", operandType)
	}
	return classtable.BoolClass, nil
}

func (c *Checker) annotateNegate(e *ast.NegateExpr, scope *SymbolTable) (string, error) {
	operandType, err := c.annotate(e.Operand, scope)
	if err != nil {
		return "", err
	}
	if operandType != classtable.IntClass {
		return "", diag.TypeError(e.Line, "negation operand must be Int, got %s", operandType)
	}
	return classtable.IntClass, nil
}

func (c *Checker) annotateIsVoid(e *ast.IsVoidExpr, scope *SymbolTable) (string, error) {
	if _, err := c.annotate(e.Operand, scope); err != nil {
		return "", err
	}
	return classtable.BoolClass, nil
}
