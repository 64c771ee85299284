package milp

import (
	"context"
	"math/big"
	"testing"

	"github.com/etnz/rebalance/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rat(a, b int64) *big.Rat { return big.NewRat(a, b) }

func abs(e solver.Expr) solver.Expr {
	return solver.Ite(e.Lt(solver.Const(0)), e.Neg(), e)
}

func requireInt(t *testing.T, sol solver.Solution, v solver.Var, want int64) {
	t.Helper()
	got, ok := sol.Int(v)
	require.True(t, ok, "no value for %s", v)
	assert.Equal(t, want, got, "value of %s", v)
}

func requireObjective(t *testing.T, sol solver.Solution, want *big.Rat) {
	t.Helper()
	got := sol.Objective()
	require.NotNil(t, got)
	assert.Zero(t, want.Cmp(got), "objective = %s, want %s", got.RatString(), want.RatString())
}

func TestSolve_StrictBudget(t *testing.T) {
	// one fund at 10, budget 100: spending exactly 100 is not allowed.
	p := solver.NewProblem()
	x := p.Int("X")
	bought := x.Expr().Mul(rat(10, 1))
	p.Assert(x.Expr().Ge(solver.Const(0)))
	p.Assert(bought.Lt(solver.Const(100)))
	p.Minimize(solver.Const(100).Sub(bought))

	sol, err := New().Solve(context.Background(), p)
	require.NoError(t, err)
	requireInt(t, sol, x, 9)
	requireObjective(t, sol, rat(10, 1))
}

func TestSolve_Infeasible(t *testing.T) {
	p := solver.NewProblem()
	x := p.Int("X")
	p.Assert(x.Expr().Ge(solver.Const(0)))
	p.Assert(x.Expr().Mul(rat(10, 1)).Lt(solver.Const(0)))
	p.Minimize(x.Expr())

	_, err := New().Solve(context.Background(), p)
	assert.ErrorIs(t, err, solver.ErrNoSolution)
}

func TestSolve_ConstantlyFalseConstraint(t *testing.T) {
	p := solver.NewProblem()
	p.Int("X")
	p.Assert(solver.Const(1).Lt(solver.Const(0)))

	_, err := New().Solve(context.Background(), p)
	assert.ErrorIs(t, err, solver.ErrNoSolution)
}

func TestSolve_IntegerProgram(t *testing.T) {
	// maximize 5x + 4y s.t. 6x + 4y <= 24, x + 2y <= 6.
	// The relaxation optimum (3, 1.5) is not integral, the integer one is (4, 0).
	p := solver.NewProblem()
	x, y := p.Int("x"), p.Int("y")
	p.Assert(
		x.Expr().Ge(solver.Const(0)),
		y.Expr().Ge(solver.Const(0)),
		x.Expr().Mul(rat(6, 1)).Add(y.Expr().Mul(rat(4, 1))).Le(solver.Const(24)),
		x.Expr().Add(y.Expr().Mul(rat(2, 1))).Le(solver.Const(6)),
	)
	p.Minimize(x.Expr().Mul(rat(5, 1)).Add(y.Expr().Mul(rat(4, 1))).Neg())

	sol, err := New().Solve(context.Background(), p)
	require.NoError(t, err)
	requireInt(t, sol, x, 4)
	requireInt(t, sol, y, 0)
	requireObjective(t, sol, rat(-20, 1))
}

func TestSolve_AbsoluteValue(t *testing.T) {
	// minimize |x - 7/2| for integer x in [0, 10]: 3 and 4 are both optimal.
	p := solver.NewProblem()
	x := p.Int("x")
	p.Assert(x.Expr().Ge(solver.Const(0)), x.Expr().Le(solver.Const(10)))
	p.Minimize(abs(x.Expr().Sub(solver.Rat(rat(7, 2)))))

	sol, err := New().Solve(context.Background(), p)
	require.NoError(t, err)
	requireObjective(t, sol, rat(1, 2))
	got, ok := sol.Int(x)
	require.True(t, ok)
	assert.Contains(t, []int64{3, 4}, got)
}

func TestSolve_EqualityCondition(t *testing.T) {
	// (if x == 2 then 0 else 10) + x is minimal at x = 2.
	p := solver.NewProblem()
	x := p.Int("x")
	p.Assert(x.Expr().Ge(solver.Const(0)), x.Expr().Le(solver.Const(5)))
	p.Minimize(solver.Ite(x.Expr().Eq(solver.Const(2)), solver.Const(0), solver.Const(10)).Add(x.Expr()))

	sol, err := New().Solve(context.Background(), p)
	require.NoError(t, err)
	requireInt(t, sol, x, 2)
	requireObjective(t, sol, rat(2, 1))
}

func TestSolve_SumOfDeviations(t *testing.T) {
	// two assets at 10 and 20, none held, half each, budget 100.
	// The objective reduces to 100 - 2*min(10a, 20b): 4/2 and 5/2 both reach 20.
	p := solver.NewProblem()
	a, b := p.Int("A"), p.Int("B")
	bought := a.Expr().Mul(rat(10, 1)).Add(b.Expr().Mul(rat(20, 1)))
	p.Assert(a.Expr().Ge(solver.Const(0)), b.Expr().Ge(solver.Const(0)), bought.Lt(solver.Const(100)))
	half := rat(1, 2)
	devA := a.Expr().Mul(rat(10, 1)).Sub(bought.Mul(half))
	devB := b.Expr().Mul(rat(20, 1)).Sub(bought.Mul(half))
	p.Minimize(solver.Sum(abs(devA), abs(devB), solver.Const(100).Sub(bought)))

	sol, err := New().Solve(context.Background(), p)
	require.NoError(t, err)
	requireObjective(t, sol, rat(20, 1))
	spent, ok := sol.Eval(bought)
	require.True(t, ok)
	assert.Contains(t, []string{"80", "90"}, spent.RatString())
}

func TestSolve_RationalVariable(t *testing.T) {
	p := solver.NewProblem()
	y := p.Real("y")
	p.Assert(y.Expr().Ge(solver.Rat(rat(3, 2))))
	p.Minimize(y.Expr())

	sol, err := New().Solve(context.Background(), p)
	require.NoError(t, err)
	requireObjective(t, sol, rat(3, 2))
	_, ok := sol.Int(y)
	assert.False(t, ok)
}

func TestSolve_CancelledContext(t *testing.T) {
	p := solver.NewProblem()
	x := p.Int("x")
	p.Assert(x.Expr().Ge(solver.Const(0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Solve(ctx, p)
	assert.ErrorIs(t, err, solver.ErrNoSolution)
}

func TestSolve_NodeLimitWithoutIncumbent(t *testing.T) {
	// maximize x + y + z s.t. 3x + 5y + 7z == 101: neither rounding of the
	// relaxation optimum is a solution, the first node cannot find one.
	p := solver.NewProblem()
	x, y, z := p.Int("x"), p.Int("y"), p.Int("z")
	p.Assert(
		x.Expr().Ge(solver.Const(0)),
		y.Expr().Ge(solver.Const(0)),
		z.Expr().Ge(solver.Const(0)),
		solver.Sum(x.Expr().Mul(rat(3, 1)), y.Expr().Mul(rat(5, 1)), z.Expr().Mul(rat(7, 1))).Eq(solver.Const(101)),
	)
	p.Minimize(solver.Sum(x.Expr(), y.Expr(), z.Expr()).Neg())

	_, err := New(Options{MaxNodes: 1}).Solve(context.Background(), p)
	assert.ErrorIs(t, err, solver.ErrNoSolution)

	sol, err := New().Solve(context.Background(), p)
	require.NoError(t, err)
	requireObjective(t, sol, rat(-33, 1))
}

func TestSolve_DoesNotModifyProblem(t *testing.T) {
	p := solver.NewProblem()
	x := p.Int("x")
	p.Assert(x.Expr().Ge(solver.Const(0)), x.Expr().Lt(solver.Const(3)))
	p.Minimize(x.Expr().Neg())

	for i := 0; i < 2; i++ {
		sol, err := New().Solve(context.Background(), p)
		require.NoError(t, err)
		requireInt(t, sol, x, 2)
	}
	assert.Len(t, p.Vars(), 1)
	assert.Len(t, p.Constraints(), 2)
}

// holding is one fund of a rebalancing problem, in decimal notation.
type holding struct{ price, shares, target string }

func parseRat(t *testing.T, s string) *big.Rat {
	t.Helper()
	r, ok := new(big.Rat).SetString(s)
	require.True(t, ok, "invalid number %q", s)
	return r
}

// rebalancing builds the purchase problem of funds under budget: buy whole
// shares, spend strictly less than budget, minimize the deviations from the
// targets plus what is left unspent. It returns the problem, the amount spent
// and, per variable, the most shares the budget can buy.
func rebalancing(t *testing.T, budget string, funds ...holding) (*solver.Problem, solver.Expr, []int64) {
	t.Helper()
	p := solver.NewProblem()
	b := parseRat(t, budget)
	var bought, values []solver.Expr
	var limits []int64
	for i, f := range funds {
		x := p.Int(string(rune('A' + i)))
		price := parseRat(t, f.price)
		p.Assert(x.Expr().Ge(solver.Const(0)))
		bought = append(bought, x.Expr().Mul(price))
		values = append(values, x.Expr().Add(solver.Rat(parseRat(t, f.shares))).Mul(price))
		limits = append(limits, floor(new(big.Rat).Quo(b, price)).Int64())
	}
	spent := solver.Sum(bought...)
	total := solver.Sum(values...)
	var terms []solver.Expr
	for i, f := range funds {
		terms = append(terms, abs(values[i].Sub(total.Mul(parseRat(t, f.target)))))
	}
	p.Assert(spent.Lt(solver.Rat(b)))
	p.Minimize(solver.Sum(append(terms, solver.Rat(b).Sub(spent))...))
	return p, spent, limits
}

// enumerate returns the best objective over every integer point with
// 0 <= x[i] <= limits[i].
func enumerate(p *solver.Problem, limits []int64) *big.Rat {
	vars := p.Vars()
	values := make(map[solver.Var]*big.Rat)
	value := func(v solver.Var) (*big.Rat, bool) {
		r, ok := values[v]
		return r, ok
	}
	var best *big.Rat
	var walk func(i int)
	walk = func(i int) {
		if i == len(vars) {
			for _, c := range p.Constraints() {
				if holds, ok := solver.Holds(c, value); !ok || !holds {
					return
				}
			}
			obj, ok := solver.Evaluate(p.Objective(), value)
			if ok && (best == nil || obj.Cmp(best) < 0) {
				best = obj
			}
			return
		}
		for k := int64(0); k <= limits[i]; k++ {
			values[vars[i]] = big.NewRat(k, 1)
			walk(i + 1)
		}
	}
	walk(0)
	return best
}

func TestSolve_Rebalancing(t *testing.T) {
	tests := []struct {
		name   string
		budget string
		funds  []holding
		want   string
	}{
		{
			// the relaxations of this one used to make the simplex panic.
			name:   "two funds",
			budget: "263.06",
			funds:  []holding{{"2.675", "12.278", "0.571"}, {"27.995", "6.819", "0.429"}},
			want:   "2445779581/100000000",
		},
		{
			// a numerically singular basis once pruned every node.
			name:   "nothing worth buying",
			budget: "12.66",
			funds:  []holding{{"45.68", "5.792", "0.151"}, {"20.411", "16.865", "0.417"}, {"28.787", "13.92", "0.432"}},
			want:   "23694053527/100000000",
		},
		{
			name:   "empty portfolio",
			budget: "100",
			funds:  []holding{{"10", "0", "0.5"}, {"20", "0", "0.5"}},
			want:   "20",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, spent, limits := rebalancing(t, tt.budget, tt.funds...)
			var sol solver.Solution
			var err error
			require.NotPanics(t, func() { sol, err = New().Solve(context.Background(), p) })
			require.NoError(t, err)
			requireObjective(t, sol, parseRat(t, tt.want))
			requireObjective(t, sol, enumerate(p, limits))

			s, ok := sol.Eval(spent)
			require.True(t, ok)
			assert.Negative(t, s.Cmp(parseRat(t, tt.budget)), "spent %s", s.RatString())
		})
	}
}

func TestSolve_NoBudget(t *testing.T) {
	p, _, _ := rebalancing(t, "0", holding{"10", "1", "1"})
	_, err := New().Solve(context.Background(), p)
	assert.ErrorIs(t, err, solver.ErrNoSolution)
	assert.ErrorContains(t, err, "infeasible relaxation")
}
