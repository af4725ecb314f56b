package model

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Value is a candidate value for a field: either a literal that is already
// final, or a deferred expression to be evaluated once its references have
// been resolved. Exactly one of the two is set.
type Value struct {
	literal cty.Value
	expr    hcl.Expression
}

// LiteralValue wraps an already-final cty value.
func LiteralValue(v cty.Value) Value {
	return Value{literal: v}
}

// ExprValue wraps a deferred expression.
func ExprValue(e hcl.Expression) Value {
	return Value{expr: e}
}

// IsExpr reports whether the value is a deferred expression.
func (v Value) IsExpr() bool {
	return v.expr != nil
}

// Literal returns the literal value. Only meaningful when IsExpr is false.
func (v Value) Literal() cty.Value {
	return v.literal
}

// Expr returns the deferred expression, or nil for a literal.
func (v Value) Expr() hcl.Expression {
	return v.expr
}
