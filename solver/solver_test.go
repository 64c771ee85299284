package solver

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblem_DeclareIsLookupByName(t *testing.T) {
	p := NewProblem()
	x := p.Int("VTI")
	y := p.Int("VXUS")
	again := p.Int("VTI")

	assert.Equal(t, x, again)
	assert.NotEqual(t, x.ID(), y.ID())

	got, ok := p.Lookup("VXUS")
	require.True(t, ok)
	assert.Equal(t, y, got)

	_, ok = p.Lookup("BND")
	assert.False(t, ok)
	assert.Len(t, p.Vars(), 2)
}

func TestProblem_RedeclareWithAnotherKindPanics(t *testing.T) {
	p := NewProblem()
	p.Int("x")
	assert.Panics(t, func() { p.Real("x") })
}

func TestProblemsAreIndependent(t *testing.T) {
	p, q := NewProblem(), NewProblem()
	p.Int("x")
	p.Assert(p.Int("x").Expr().Ge(Const(0)))

	_, ok := q.Lookup("x")
	assert.False(t, ok)
	assert.Empty(t, q.Constraints())
}

func TestEvaluate(t *testing.T) {
	p := NewProblem()
	x := p.Int("x")
	y := p.Real("y")
	values := map[Var]*big.Rat{
		x: big.NewRat(3, 1),
		y: big.NewRat(-1, 2),
	}
	value := func(v Var) (*big.Rat, bool) { r, ok := values[v]; return r, ok }

	tests := []struct {
		name string
		expr Expr
		want *big.Rat
	}{
		{"zero value", Expr{}, big.NewRat(0, 1)},
		{"constant", Const(7), big.NewRat(7, 1)},
		{"sum", x.Expr().Add(y.Expr(), Const(1)), big.NewRat(7, 2)},
		{"scaled", x.Expr().Mul(big.NewRat(19457, 1000)), big.NewRat(58371, 1000)},
		{"difference", x.Expr().Sub(y.Expr()), big.NewRat(7, 2)},
		{"abs of negative", abs(y.Expr()), big.NewRat(1, 2)},
		{"abs of positive", abs(x.Expr()), big.NewRat(3, 1)},
		{"times constant", y.Expr().Times(Const(4)), big.NewRat(-2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Evaluate(tt.expr, value)
			require.True(t, ok)
			assert.Zero(t, tt.want.Cmp(got), "got %v want %v", got.RatString(), tt.want.RatString())
		})
	}
}

func abs(e Expr) Expr { return Ite(e.Lt(Const(0)), e.Neg(), e) }

func TestEvaluate_UnknownVariable(t *testing.T) {
	p := NewProblem()
	x := p.Int("x")
	_, ok := Evaluate(x.Expr().Add(Const(1)), func(Var) (*big.Rat, bool) { return nil, false })
	assert.False(t, ok)

	_, ok = x.Expr().ConstValue()
	assert.False(t, ok)
	c, ok := Const(2).Add(Const(3)).ConstValue()
	require.True(t, ok)
	assert.Equal(t, "5", c.RatString())
}

func TestHolds(t *testing.T) {
	value := func(Var) (*big.Rat, bool) { return nil, false }
	tests := []struct {
		c    Cond
		want bool
	}{
		{Const(1).Lt(Const(2)), true},
		{Const(2).Lt(Const(2)), false},
		{Const(2).Le(Const(2)), true},
		{Const(2).Eq(Const(2)), true},
		{Const(3).Ge(Const(2)), true},
		{Const(2).Gt(Const(2)), false},
	}
	for _, tt := range tests {
		t.Run(tt.c.String(), func(t *testing.T) {
			got, ok := Holds(tt.c, value)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssignment(t *testing.T) {
	p := NewProblem()
	x := p.Int("x")
	y := p.Real("y")
	p.Minimize(x.Expr().Mul(big.NewRat(10, 1)))

	a := NewAssignment(p, map[Var]*big.Rat{x: big.NewRat(9, 1), y: big.NewRat(1, 3)})

	n, ok := a.Int(x)
	require.True(t, ok)
	assert.EqualValues(t, 9, n)

	_, ok = a.Int(y)
	assert.False(t, ok, "a non integer value is not an Int")

	assert.Equal(t, "90", a.Objective().RatString())

	q := NewProblem()
	z := q.Int("z")
	q.Int("w")
	_, ok = NewAssignment(q, map[Var]*big.Rat{z: big.NewRat(1, 1)}).Int(q.Int("w"))
	assert.False(t, ok)
}

func TestExprString(t *testing.T) {
	p := NewProblem()
	x := p.Int("x")
	e := abs(x.Expr().Sub(Const(3)))
	assert.Equal(t, "(if (x + -1*3) < 0 then -1*(x + -1*3) else (x + -1*3))", e.String())
}
