package milp

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// interval is a closed range of values, possibly infinite.
type interval struct{ lo, hi float64 }

var free = interval{math.Inf(-1), math.Inf(1)}

func (i interval) intersect(o interval) interval {
	return interval{math.Max(i.lo, o.lo), math.Min(i.hi, o.hi)}
}

func (i interval) hull(o interval) interval {
	return interval{math.Min(i.lo, o.lo), math.Max(i.hi, o.hi)}
}

func (i interval) finite() bool { return !math.IsInf(i.lo, 0) && !math.IsInf(i.hi, 0) }

// empty tells whether the interval is empty beyond the numerical tolerance.
func (i interval) empty() bool { return i.lo > i.hi+tolerance(i.lo, i.hi) }

// widen loosens finite bounds by the numerical tolerance.
func (i interval) widen() interval {
	t := tolerance(i.lo, i.hi)
	return interval{i.lo - t, i.hi + t}
}

// integral rounds the bounds of an integer variable inwards.
func (i interval) integral() interval {
	w := i.widen()
	return interval{math.Ceil(w.lo), math.Floor(w.hi)}
}

// tolerance is the slack granted to floating point comparisons around values.
func tolerance(values ...float64) float64 {
	m := 1.0
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			m = math.Max(m, math.Abs(v))
		}
	}
	return 1e-9 * m
}

// rangeOf computes the interval of l for variables within bounds.
func rangeOf(l linear, bounds []interval) interval {
	c, _ := l.c.Float64()
	res := interval{c, c}
	for _, t := range l.terms {
		a, _ := t.a.Float64()
		b := bounds[t.v]
		if a > 0 {
			res.lo += a * b.lo
			res.hi += a * b.hi
		} else {
			res.lo += a * b.hi
			res.hi += a * b.lo
		}
	}
	return res
}

// tightenBounds narrows bounds so that every row can still hold, one
// variable at a time, until a fixed point. It returns false when some row
// cannot hold within bounds.
func tightenBounds(rows []row, bounds []interval, integer []bool) bool {
	var sides []linear
	for _, r := range rows {
		sides = append(sides, r.expr)
		if r.op == eq {
			sides = append(sides, r.expr.neg())
		}
	}
	for pass := 0; pass < 20; pass++ {
		changed := false
		for _, l := range sides {
			// l <= 0
			c, _ := l.c.Float64()
			low, infinite := c, 0
			for _, t := range l.terms {
				a, _ := t.a.Float64()
				m := minTerm(a, bounds[t.v])
				if math.IsInf(m, -1) {
					infinite++
				} else {
					low += m
				}
			}
			if infinite == 0 && low > tolerance(low, c) {
				return false
			}
			if infinite > 1 {
				continue
			}
			for _, t := range l.terms {
				a, _ := t.a.Float64()
				m := minTerm(a, bounds[t.v])
				var rest float64
				switch {
				case math.IsInf(m, -1):
					rest = low
				case infinite > 0:
					continue
				default:
					rest = low - m
				}
				// a*x <= -rest
				limit := -rest / a
				b := bounds[t.v]
				nb := b
				if a > 0 {
					nb.hi = math.Min(b.hi, limit+tolerance(limit, rest))
				} else {
					nb.lo = math.Max(b.lo, limit-tolerance(limit, rest))
				}
				if integer[t.v] {
					nb = nb.integral()
				}
				if nb.empty() {
					return false
				}
				if significant(b.lo, nb.lo) || significant(b.hi, nb.hi) {
					changed = true
				}
				bounds[t.v] = nb
			}
		}
		if !changed {
			break
		}
	}
	return true
}

// minTerm returns the smallest value of a*x for x within b.
func minTerm(a float64, b interval) float64 {
	if a > 0 {
		return a * b.lo
	}
	return a * b.hi
}

// significant tells whether moving a bound from old to new is worth another pass.
func significant(old, new float64) bool {
	if math.IsInf(old, 0) {
		return !math.IsInf(new, 0)
	}
	return math.Abs(old-new) > 1e-6*math.Max(1, math.Abs(old))
}

var (
	errInfeasible = errors.New("infeasible relaxation")
	errUnbounded  = errors.New("unbounded relaxation")
)

// relaxation is a linear program over continuous variables:
//
//	minimize cost·x subject to rows and bounds.
//
// The constant of cost is ignored.
type relaxation struct {
	n      int
	rows   []row
	bounds []interval
	cost   linear
}

// solve returns an optimal point and its cost. It returns errInfeasible or
// errUnbounded when relevant.
//
// The program is first solved with gonum's simplex in floating point. When
// gonum fails, or its answer is not an optimal point within the tolerance,
// the program is solved again in exact arithmetic, so numerical trouble
// never decides the outcome.
func (r *relaxation) solve() (x []float64, f float64, err error) {
	sf, err := r.standardForm()
	if err != nil {
		return nil, 0, err
	}
	y, err := sf.solveFloat()
	if err != nil || !sf.satisfied(y) {
		y, err = sf.solveExact()
		if err != nil {
			return nil, 0, err
		}
	}
	x = sf.point(y)
	for _, t := range r.cost.terms {
		a, _ := t.a.Float64()
		f += a * x[t.v]
	}
	return x, f, nil
}

// column is a non negative variable y of the standard form, x[v] moves by sign*y.
type column struct {
	v    int
	sign int
}

// standard is the relaxation in the form
//
//	minimize cost·y subject to g·y <= h, a·y = b, y >= 0
//
// where each variable is x = shift + Σ sign·y over its columns. Columns that
// appear in no row are left out and stay at 0.
type standard struct {
	shift []*big.Rat
	cols  []column
	cost  []*big.Rat
	g, a  [][]*big.Rat
	h, b  []*big.Rat
}

func ratOf(f float64) *big.Rat { return new(big.Rat).SetFloat64(f) }

func (r *relaxation) standardForm() (*standard, error) {
	s := &standard{shift: make([]*big.Rat, r.n)}
	used := make([]bool, r.n)
	for _, rw := range r.rows {
		for _, t := range rw.expr.terms {
			used[t.v] = true
		}
	}
	costOf := make([]*big.Rat, r.n)
	for _, t := range r.cost.terms {
		costOf[t.v] = t.a
	}

	colsOf := make([][]int, r.n)
	var uppers []int // columns bounded above by hi - lo
	addColumn := func(v, sign int) int {
		s.cols = append(s.cols, column{v, sign})
		c := new(big.Rat)
		if costOf[v] != nil {
			c.SetInt64(int64(sign)).Mul(c, costOf[v])
		}
		s.cost = append(s.cost, c)
		colsOf[v] = append(colsOf[v], len(s.cols)-1)
		return len(s.cols) - 1
	}
	for v := 0; v < r.n; v++ {
		b := r.bounds[v]
		lo, hi := !math.IsInf(b.lo, -1), !math.IsInf(b.hi, 1)
		switch {
		case lo && hi && b.hi <= b.lo:
			s.shift[v] = ratOf(b.lo)
		case !used[v]:
			// only the cost can move it: to its best bound.
			s.shift[v] = new(big.Rat)
			sign := 0
			if costOf[v] != nil {
				sign = costOf[v].Sign()
			}
			switch {
			case sign > 0 && !lo, sign < 0 && !hi:
				return nil, errUnbounded
			case sign < 0, sign == 0 && !lo && hi:
				s.shift[v] = ratOf(b.hi)
			case lo:
				s.shift[v] = ratOf(b.lo)
			}
		case lo:
			s.shift[v] = ratOf(b.lo)
			k := addColumn(v, 1)
			if hi {
				uppers = append(uppers, k)
			}
		case hi:
			s.shift[v] = ratOf(b.hi)
			addColumn(v, -1)
		default:
			s.shift[v] = new(big.Rat)
			addColumn(v, 1)
			addColumn(v, -1)
		}
	}

	// substitute returns the coefficients over columns and the constant of l.
	substitute := func(l linear) ([]*big.Rat, *big.Rat, bool) {
		coef := make([]*big.Rat, len(s.cols))
		for k := range coef {
			coef[k] = new(big.Rat)
		}
		c := new(big.Rat).Set(l.c)
		nonzero := false
		tmp := new(big.Rat)
		for _, t := range l.terms {
			c.Add(c, tmp.Mul(t.a, s.shift[t.v]))
			for _, k := range colsOf[t.v] {
				if s.cols[k].sign > 0 {
					coef[k].Add(coef[k], t.a)
				} else {
					coef[k].Sub(coef[k], t.a)
				}
				nonzero = true
			}
		}
		return coef, c, nonzero
	}
	for _, rw := range r.rows {
		coef, c, nonzero := substitute(rw.expr)
		if !nonzero {
			f, _ := c.Float64()
			if f > tolerance(f) || (rw.op == eq && f < -tolerance(f)) {
				return nil, errInfeasible
			}
			continue
		}
		rhs := c.Neg(c)
		if rw.op == eq {
			s.a, s.b = append(s.a, coef), append(s.b, rhs)
		} else {
			// strict rows are relaxed to their closure.
			s.g, s.h = append(s.g, coef), append(s.h, rhs)
		}
	}
	for _, k := range uppers {
		coef := make([]*big.Rat, len(s.cols))
		for j := range coef {
			coef[j] = new(big.Rat)
		}
		coef[k].SetInt64(1)
		b := r.bounds[s.cols[k].v]
		s.g = append(s.g, coef)
		s.h = append(s.h, new(big.Rat).Sub(ratOf(b.hi), ratOf(b.lo)))
	}
	return s.prune()
}

// prune removes the columns that appear in no row. They stay at 0, which is
// optimal unless their cost is negative.
func (s *standard) prune() (*standard, error) {
	keep := make([]bool, len(s.cols))
	for _, rows := range [][][]*big.Rat{s.g, s.a} {
		for _, rw := range rows {
			for k, c := range rw {
				if c.Sign() != 0 {
					keep[k] = true
				}
			}
		}
	}
	var idx []int
	for k, ok := range keep {
		if ok {
			idx = append(idx, k)
		} else if s.cost[k].Sign() < 0 {
			return nil, errUnbounded
		}
	}
	if len(idx) == len(s.cols) {
		return s, nil
	}
	pick := func(v []*big.Rat) []*big.Rat {
		res := make([]*big.Rat, len(idx))
		for i, k := range idx {
			res[i] = v[k]
		}
		return res
	}
	p := &standard{shift: s.shift, h: s.h, b: s.b, cost: pick(s.cost)}
	for _, k := range idx {
		p.cols = append(p.cols, s.cols[k])
	}
	for _, rw := range s.g {
		p.g = append(p.g, pick(rw))
	}
	for _, rw := range s.a {
		p.a = append(p.a, pick(rw))
	}
	return p, nil
}

// point maps a solution of the standard form back to the variables.
func (s *standard) point(y []float64) []float64 {
	x := make([]float64, len(s.shift))
	for v, sh := range s.shift {
		x[v], _ = sh.Float64()
	}
	for k, c := range s.cols {
		x[c.v] += float64(c.sign) * y[k]
	}
	return x
}

func floats(v []*big.Rat) []float64 {
	res := make([]float64, len(v))
	for i, r := range v {
		res[i], _ = r.Float64()
	}
	return res
}

// scaled returns the row and its right hand side divided by the largest
// coefficient of the row.
func scaled(coef []*big.Rat, rhs *big.Rat) ([]float64, float64) {
	row := floats(coef)
	h, _ := rhs.Float64()
	m := 0.0
	for _, a := range row {
		m = math.Max(m, math.Abs(a))
	}
	if m == 0 {
		return row, h
	}
	for i := range row {
		row[i] /= m
	}
	return row, h / m
}

// solveFloat solves the standard form with gonum's simplex. Slack variables
// turn inequalities into equalities. Panics of the simplex are reported as
// errors.
func (s *standard) solveFloat() (y []float64, err error) {
	n, ng := len(s.cols), len(s.g)
	if n == 0 {
		return nil, nil
	}
	m := ng + len(s.a)
	if m == 0 {
		return make([]float64, n), nil
	}
	defer func() {
		if p := recover(); p != nil {
			y, err = nil, fmt.Errorf("simplex: %v", p)
		}
	}()

	a := mat.NewDense(m, n+ng, nil)
	b := make([]float64, m)
	for i := range s.g {
		row, h := scaled(s.g[i], s.h[i])
		for j, v := range row {
			a.Set(i, j, v)
		}
		a.Set(i, n+i, 1)
		b[i] = h
	}
	for i := range s.a {
		row, h := scaled(s.a[i], s.b[i])
		for j, v := range row {
			a.Set(ng+i, j, v)
		}
		b[ng+i] = h
	}
	c := make([]float64, n+ng)
	copy(c, floats(s.cost))

	_, x, err := lp.Simplex(c, a, b, 1e-10, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, errInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return nil, errUnbounded
	case err != nil:
		return nil, err
	}
	return x[:n], nil
}

// satisfied tells whether y is a point of the standard form, up to the
// tolerance.
func (s *standard) satisfied(y []float64) bool {
	if len(y) != len(s.cols) {
		return false
	}
	for _, v := range y {
		if v < -1e-7 || math.IsNaN(v) {
			return false
		}
	}
	check := func(coef []*big.Rat, rhs *big.Rat, equal bool) bool {
		row, h := scaled(coef, rhs)
		lhs, size := 0.0, math.Abs(h)
		for j, a := range row {
			lhs += a * y[j]
			size = math.Max(size, math.Abs(a*y[j]))
		}
		tol := 1e-7 * math.Max(1, size)
		return lhs <= h+tol && (!equal || lhs >= h-tol)
	}
	for i := range s.g {
		if !check(s.g[i], s.h[i], false) {
			return false
		}
	}
	for i := range s.a {
		if !check(s.a[i], s.b[i], true) {
			return false
		}
	}
	return true
}

// solveExact solves the standard form in rational arithmetic.
func (s *standard) solveExact() ([]float64, error) {
	y, err := simplexRat(s.cost, s.g, s.h, s.a, s.b)
	if err != nil {
		return nil, err
	}
	return floats(y), nil
}
