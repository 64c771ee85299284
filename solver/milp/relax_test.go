package milp

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lin returns Σ coefs[i] x[i] + c.
func lin(c int64, coefs ...int64) linear {
	ls := []linear{constant(big.NewRat(c, 1))}
	ks := []*big.Rat{one}
	for v, a := range coefs {
		ls = append(ls, variable(v))
		ks = append(ks, big.NewRat(a, 1))
	}
	return combine(ls, ks)
}

func rats(vs ...int64) []*big.Rat {
	res := make([]*big.Rat, len(vs))
	for i, v := range vs {
		res[i] = big.NewRat(v, 1)
	}
	return res
}

func freeBounds(n int) []interval {
	b := make([]interval, n)
	for i := range b {
		b[i] = free
	}
	return b
}

func TestSimplexRat(t *testing.T) {
	t.Run("inequalities", func(t *testing.T) {
		// minimize -x - y s.t. x + 2y <= 4, 3x + y <= 6.
		y, err := simplexRat(rats(-1, -1), [][]*big.Rat{rats(1, 2), rats(3, 1)}, rats(4, 6), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "8/5", y[0].RatString())
		assert.Equal(t, "6/5", y[1].RatString())
	})
	t.Run("negative right hand side and equality", func(t *testing.T) {
		// minimize x + y s.t. x + y >= 2, x - y == 1.
		y, err := simplexRat(rats(1, 1), [][]*big.Rat{rats(-1, -1)}, rats(-2), [][]*big.Rat{rats(1, -1)}, rats(1))
		require.NoError(t, err)
		assert.Equal(t, "3/2", y[0].RatString())
		assert.Equal(t, "1/2", y[1].RatString())
	})
	t.Run("redundant equalities", func(t *testing.T) {
		y, err := simplexRat(rats(1), nil, nil, [][]*big.Rat{rats(1), rats(2), rats(3)}, rats(2, 4, 6))
		require.NoError(t, err)
		assert.Equal(t, "2", y[0].RatString())
	})
	t.Run("infeasible", func(t *testing.T) {
		_, err := simplexRat(rats(0, 0), [][]*big.Rat{rats(1, 1), rats(-1, 0)}, rats(1, -2), nil, nil)
		assert.ErrorIs(t, err, errInfeasible)
	})
	t.Run("unbounded", func(t *testing.T) {
		_, err := simplexRat(rats(-1, 0), [][]*big.Rat{rats(-1, 1)}, rats(1), nil, nil)
		assert.ErrorIs(t, err, errUnbounded)
	})
}

func TestRelaxation_Solve(t *testing.T) {
	tests := []struct {
		name   string
		rows   []row
		bounds []interval
		cost   linear
		want   []float64
		err    error
	}{
		{
			name:   "free variable",
			rows:   []row{{lin(-5, -1), le}},
			bounds: freeBounds(1),
			cost:   lin(0, 1),
			want:   []float64{-5},
		},
		{
			name:   "more rows than columns",
			rows:   []row{{lin(-2, 1), eq}, {lin(-4, 2), eq}, {lin(-6, 3), eq}},
			bounds: freeBounds(1),
			cost:   lin(0, 1),
			want:   []float64{2},
		},
		{
			name:   "fixed and unused variables",
			rows:   []row{{lin(-10, 1, 1), le}},
			bounds: []interval{{3, 3}, {0, math.Inf(1)}, {-1, 4}},
			cost:   lin(0, 0, -1, 1),
			want:   []float64{3, 7, -1},
		},
		{
			name:   "upper bounds only",
			rows:   []row{{lin(-1, 1), le}},
			bounds: []interval{{math.Inf(-1), 8}},
			cost:   lin(0, -1),
			want:   []float64{1},
		},
		{
			name:   "contradicting bounds",
			rows:   []row{{lin(-10, 1), le}, {lin(20, -1), le}},
			bounds: []interval{{0, 100}},
			cost:   lin(0, 1),
			err:    errInfeasible,
		},
		{
			name:   "unbounded",
			rows:   []row{{lin(-1, -1, 1), le}},
			bounds: freeBounds(2),
			cost:   lin(0, 0, -1),
			err:    errUnbounded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := &relaxation{n: len(tt.bounds), rows: tt.rows, bounds: tt.bounds, cost: tt.cost}
			var x []float64
			var err error
			require.NotPanics(t, func() { x, _, err = rel.solve() })
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, x, 1e-9)
		})
	}
}

func TestTightenBounds(t *testing.T) {
	// 12278a + 6819b <= 263059 with a, b >= 0 integers.
	rows := []row{
		{lin(0, -1, 0), le},
		{lin(0, 0, -1), le},
		{lin(-263059, 12278, 6819), le},
	}
	bounds := freeBounds(2)
	require.True(t, tightenBounds(rows, bounds, []bool{true, true}))
	assert.Equal(t, interval{0, 21}, bounds[0])
	assert.Equal(t, interval{0, 38}, bounds[1])

	// a >= 22 is more than the budget allows.
	rows = append(rows, row{lin(22, -1, 0), le})
	assert.False(t, tightenBounds(rows, freeBounds(2), []bool{true, true}))
}

func TestEnvelope(t *testing.T) {
	// |x0 - 3|
	e := lin(-3, 1)
	alts := []alternative{
		{conds: []row{{e, lt}}, value: e.neg()},
		{conds: []row{{e.neg(), le}}, value: e},
	}
	cuts := envelope(1, alts)
	require.Len(t, cuts, 2)
	// both values are below the auxiliary variable.
	x := []float64{5, 2}
	assert.True(t, satisfied(cuts, x))
	x[1] = 1.5
	assert.False(t, satisfied(cuts, x))

	// if x0 == 2 then 0 else 10 is neither a maximum nor a minimum.
	d := lin(-2, 1)
	alts = []alternative{
		{conds: []row{{d, eq}}, value: lin(0)},
		{conds: []row{{d, lt}}, value: lin(10)},
		{conds: []row{{d.neg(), lt}}, value: lin(10)},
	}
	assert.Empty(t, envelope(1, alts))
}
