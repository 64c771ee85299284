package milp

import "math/big"

// tableau is a dense simplex tableau in rational arithmetic. The last column
// of each row holds the right hand side.
type tableau struct {
	rows  [][]*big.Rat
	basis []int
	z     []*big.Rat // reduced costs, the last entry is minus the objective
}

func ratRow(n int) []*big.Rat {
	r := make([]*big.Rat, n)
	for i := range r {
		r[i] = new(big.Rat)
	}
	return r
}

// simplexRat solves
//
//	minimize c·y subject to g·y <= h, a·y = b, y >= 0
//
// exactly, using the two phase method with Bland's rule.
func simplexRat(c []*big.Rat, g [][]*big.Rat, h []*big.Rat, a [][]*big.Rat, b []*big.Rat) ([]*big.Rat, error) {
	n, ng := len(c), len(g)
	m := ng + len(a)

	// one artificial column per row that has no feasible slack.
	var artificial []int
	for i := range g {
		if h[i].Sign() < 0 {
			artificial = append(artificial, i)
		}
	}
	for i := range a {
		artificial = append(artificial, ng+i)
	}
	width := n + ng + len(artificial)
	t := &tableau{basis: make([]int, m)}
	for i := 0; i < m; i++ {
		t.rows = append(t.rows, ratRow(width+1))
	}
	for i := range g {
		for j, v := range g[i] {
			t.rows[i][j].Set(v)
		}
		t.rows[i][n+i].SetInt64(1)
		t.rows[i][width].Set(h[i])
		t.basis[i] = n + i
	}
	for i := range a {
		for j, v := range a[i] {
			t.rows[ng+i][j].Set(v)
		}
		t.rows[ng+i][width].Set(b[i])
	}
	for k, i := range artificial {
		if t.rows[i][width].Sign() < 0 {
			for _, v := range t.rows[i] {
				v.Neg(v)
			}
		}
		t.rows[i][n+ng+k].SetInt64(1)
		t.basis[i] = n + ng + k
	}
	isArtificial := func(j int) bool { return j >= n+ng }

	if len(artificial) > 0 {
		cost := ratRow(width)
		for k := range artificial {
			cost[n+ng+k].SetInt64(1)
		}
		t.price(cost)
		if err := t.optimize(func(int) bool { return true }); err != nil {
			return nil, err
		}
		if t.z[width].Sign() != 0 {
			return nil, errInfeasible
		}
		for i, j := range t.basis {
			if !isArtificial(j) {
				continue
			}
			for k := 0; k < n+ng; k++ {
				if t.rows[i][k].Sign() != 0 {
					t.pivot(i, k)
					break
				}
			}
		}
	}

	cost := ratRow(width)
	for j := range c {
		cost[j].Set(c[j])
	}
	t.price(cost)
	if err := t.optimize(func(j int) bool { return !isArtificial(j) }); err != nil {
		return nil, err
	}
	y := ratRow(n)
	for i, j := range t.basis {
		if j < n {
			y[j].Set(t.rows[i][width])
		}
	}
	return y, nil
}

// price sets the reduced costs for cost and the current basis.
func (t *tableau) price(cost []*big.Rat) {
	width := len(cost)
	t.z = ratRow(width + 1)
	for j := range cost {
		t.z[j].Set(cost[j])
	}
	tmp := new(big.Rat)
	for i, bj := range t.basis {
		cb := cost[bj]
		if cb.Sign() == 0 {
			continue
		}
		for j, v := range t.rows[i] {
			t.z[j].Sub(t.z[j], tmp.Mul(cb, v))
		}
	}
}

// optimize pivots until no allowed column improves the objective.
func (t *tableau) optimize(allowed func(int) bool) error {
	width := len(t.z) - 1
	ratio, best := new(big.Rat), new(big.Rat)
	for {
		enter := -1
		for j := 0; j < width; j++ {
			if t.z[j].Sign() < 0 && allowed(j) {
				enter = j
				break
			}
		}
		if enter < 0 {
			return nil
		}
		leave := -1
		for i, r := range t.rows {
			if r[enter].Sign() <= 0 {
				continue
			}
			ratio.Quo(r[width], r[enter])
			if leave < 0 || ratio.Cmp(best) < 0 || (ratio.Cmp(best) == 0 && t.basis[i] < t.basis[leave]) {
				leave = i
				best.Set(ratio)
			}
		}
		if leave < 0 {
			return errUnbounded
		}
		t.pivot(leave, enter)
	}
}

// pivot makes column j basic in row r.
func (t *tableau) pivot(r, j int) {
	p := new(big.Rat).Inv(t.rows[r][j])
	for _, v := range t.rows[r] {
		v.Mul(v, p)
	}
	tmp := new(big.Rat)
	eliminate := func(row []*big.Rat) {
		k := new(big.Rat).Set(row[j])
		if k.Sign() == 0 {
			return
		}
		for c, v := range t.rows[r] {
			row[c].Sub(row[c], tmp.Mul(k, v))
		}
	}
	for i, row := range t.rows {
		if i != r {
			eliminate(row)
		}
	}
	eliminate(t.z)
	t.basis[r] = j
}
