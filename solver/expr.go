package solver

import (
	"fmt"
	"math/big"
	"strings"
)

// Op identifies the kind of node at the root of an Expr.
type Op int

const (
	OpConst Op = iota // a rational constant
	OpVar             // a reference to a declared variable
	OpAdd             // the sum of its operands
	OpMul             // its single operand scaled by a rational constant
	OpIte             // if Condition then first operand else second operand
)

// Expr is an immutable expression tree over the variables of a Problem.
//
// Every node is linear in the variables once the branch of each OpIte node is
// fixed. The zero Expr is the constant 0.
type Expr struct {
	n *node
}

type node struct {
	op   Op
	val  *big.Rat // OpConst value or OpMul factor
	v    Var
	args []Expr
	cond Cond
}

var zero = new(big.Rat)

// Const returns the integer constant i.
func Const(i int64) Expr { return Expr{&node{op: OpConst, val: new(big.Rat).SetInt64(i)}} }

// Rat returns the rational constant r. r is copied.
func Rat(r *big.Rat) Expr { return Expr{&node{op: OpConst, val: new(big.Rat).Set(r)}} }

// Sum returns the sum of all es, 0 if es is empty.
func Sum(es ...Expr) Expr {
	switch len(es) {
	case 0:
		return Expr{}
	case 1:
		return es[0]
	}
	args := make([]Expr, len(es))
	copy(args, es)
	return Expr{&node{op: OpAdd, args: args}}
}

// Ite returns 'then' when c holds and 'els' otherwise.
func Ite(c Cond, then, els Expr) Expr {
	return Expr{&node{op: OpIte, cond: c, args: []Expr{then, els}}}
}

// Add returns e + o[0] + o[1] ...
func (e Expr) Add(o ...Expr) Expr { return Sum(append([]Expr{e}, o...)...) }

// Sub returns e - o.
func (e Expr) Sub(o Expr) Expr { return Sum(e, o.Neg()) }

// Neg returns -e.
func (e Expr) Neg() Expr { return e.Mul(big.NewRat(-1, 1)) }

// Mul returns e scaled by the constant r.
func (e Expr) Mul(r *big.Rat) Expr {
	return Expr{&node{op: OpMul, val: new(big.Rat).Set(r), args: []Expr{e}}}
}

// Times returns e multiplied by the constant expression c.
//
// It panics if c depends on a variable: products of variables are not linear.
func (e Expr) Times(c Expr) Expr {
	r, ok := c.ConstValue()
	if !ok {
		panic("solver: non constant factor in product")
	}
	return e.Mul(r)
}

// Op returns the kind of node at the root of e.
func (e Expr) Op() Op {
	if e.n == nil {
		return OpConst
	}
	return e.n.op
}

// Value returns the constant of an OpConst node, or the factor of an OpMul node.
func (e Expr) Value() *big.Rat {
	if e.n == nil {
		return zero
	}
	return e.n.val
}

// Var returns the variable of an OpVar node.
func (e Expr) Var() Var {
	if e.n == nil {
		return Var{}
	}
	return e.n.v
}

// Operands returns the operands of OpAdd, OpMul and OpIte nodes.
func (e Expr) Operands() []Expr {
	if e.n == nil {
		return nil
	}
	return e.n.args
}

// Condition returns the condition of an OpIte node.
func (e Expr) Condition() Cond {
	if e.n == nil {
		return Cond{}
	}
	return e.n.cond
}

// ConstValue returns the value of e if it does not depend on any variable.
func (e Expr) ConstValue() (*big.Rat, bool) {
	return Evaluate(e, func(Var) (*big.Rat, bool) { return nil, false })
}

// String returns a readable, parenthesized form of e.
func (e Expr) String() string {
	var b strings.Builder
	e.format(&b)
	return b.String()
}

func (e Expr) format(b *strings.Builder) {
	switch e.Op() {
	case OpConst:
		b.WriteString(e.Value().RatString())
	case OpVar:
		b.WriteString(e.Var().Name())
	case OpAdd:
		b.WriteString("(")
		for i, a := range e.Operands() {
			if i > 0 {
				b.WriteString(" + ")
			}
			a.format(b)
		}
		b.WriteString(")")
	case OpMul:
		fmt.Fprintf(b, "%s*", e.Value().RatString())
		e.Operands()[0].format(b)
	case OpIte:
		b.WriteString("(if ")
		b.WriteString(e.Condition().String())
		b.WriteString(" then ")
		e.Operands()[0].format(b)
		b.WriteString(" else ")
		e.Operands()[1].format(b)
		b.WriteString(")")
	}
}
