package milp

import (
	"context"
	"errors"
	"math"
	"math/big"

	"github.com/etnz/rebalance/solver"
)

// search is a depth-first branch-and-bound over one problem.
type search struct {
	ctx  context.Context
	p    *solver.Problem
	opts Options

	ites      []*disjunction
	n         int // variables, auxiliary ones included
	integer   []bool
	base      []row
	cost      linear
	objConst  float64
	root      []interval   // variable bounds valid in the whole search
	altRanges [][]interval // value range of each alternative of each disjunction

	nodes         int
	best          map[solver.Var]*big.Rat
	bestObjective *big.Rat
	bestF         float64
}

func newSearch(ctx context.Context, p *solver.Problem, opts Options) (*search, error) {
	c := newCompiler(p)
	s := &search{ctx: ctx, p: p, opts: opts}
	for _, cd := range p.Constraints() {
		r := c.cond(cd)
		if len(r.expr.terms) == 0 {
			if !r.constHolds() {
				return nil, errInfeasible
			}
			continue
		}
		s.base = append(s.base, r)
	}
	s.cost = c.expr(p.Objective())
	s.objConst, _ = s.cost.c.Float64()
	s.base = append(s.base, c.cuts...)

	// kinds are complete only once everything is compiled.
	for i := range s.base {
		s.base[i] = c.tighten(s.base[i])
	}
	for _, d := range c.ites {
		for _, alt := range d.alts {
			for k := range alt.conds {
				alt.conds[k] = c.tighten(alt.conds[k])
			}
		}
	}

	s.ites, s.n = c.ites, len(c.kinds)
	s.integer = make([]bool, s.n)
	for v, k := range c.kinds {
		s.integer[v] = k == solver.Integer
	}
	if err := s.presolve(); err != nil {
		return nil, err
	}
	return s, nil
}

// extent returns the range of l over rows and bounds.
func (s *search) extent(rows []row, bounds []interval, l linear) (interval, error) {
	c, _ := l.c.Float64()
	res := free
	for _, sign := range []*big.Rat{one, minusOne} {
		rel := &relaxation{n: s.n, rows: rows, bounds: bounds, cost: l.scale(sign)}
		_, f, err := rel.solve()
		switch {
		case errors.Is(err, errUnbounded):
			continue
		case err != nil:
			return res, err
		}
		if sign.Sign() > 0 {
			res.lo = f + c
		} else {
			res.hi = -f + c
		}
	}
	return res, nil
}

// presolve computes the root bounds of every variable.
func (s *search) presolve() error {
	s.root = make([]interval, s.n)
	for v := range s.root {
		s.root[v] = free
	}
	if !tightenBounds(s.base, s.root, s.integer) {
		return errInfeasible
	}
	for _, v := range s.p.Vars() {
		r, err := s.extent(s.base, s.root, variable(v.ID()))
		if err != nil {
			return err
		}
		if v.Kind() == solver.Integer {
			r = r.integral()
		} else {
			r = r.widen()
		}
		s.root[v.ID()] = s.root[v.ID()].intersect(r)
		if s.root[v.ID()].empty() {
			return errInfeasible
		}
	}

	s.altRanges = make([][]interval, len(s.ites))
	for i, d := range s.ites {
		ranges := make([]interval, len(d.alts))
		hull := interval{math.Inf(1), math.Inf(-1)}
		for a, alt := range d.alts {
			rows := append(append([]row(nil), s.base...), alt.conds...)
			r, err := s.extent(rows, s.root, alt.value)
			switch {
			case errors.Is(err, errInfeasible):
				r = interval{math.Inf(1), math.Inf(-1)}
			case err != nil:
				return err
			default:
				r = r.widen()
			}
			ranges[a] = r
			hull = hull.hull(r)
		}
		s.altRanges[i] = ranges
		s.root[d.aux] = s.root[d.aux].intersect(hull)
		if s.root[d.aux].empty() {
			return errInfeasible
		}
	}
	if !tightenBounds(s.base, s.root, s.integer) {
		return errInfeasible
	}
	return nil
}

type node struct {
	bounds []interval
	choice []int    // chosen alternative per disjunction, -1 when undecided
	dead   [][]bool // refuted alternatives per disjunction
}

func (n *node) clone() *node {
	m := &node{
		bounds: append([]interval(nil), n.bounds...),
		choice: append([]int(nil), n.choice...),
		dead:   make([][]bool, len(n.dead)),
	}
	for i, d := range n.dead {
		m.dead[i] = append([]bool(nil), d...)
	}
	return m
}

func (s *search) run() error {
	root := &node{
		bounds: append([]interval(nil), s.root...),
		choice: make([]int, len(s.ites)),
		dead:   make([][]bool, len(s.ites)),
	}
	for i, ranges := range s.altRanges {
		root.choice[i] = -1
		root.dead[i] = make([]bool, len(ranges))
		for a, r := range ranges {
			root.dead[i][a] = r.empty()
		}
	}
	return s.visit(root)
}

func (s *search) visit(n *node) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.nodes++
	if s.opts.MaxNodes > 0 && s.nodes > s.opts.MaxNodes {
		return errNodeLimit
	}
	if !s.propagate(n) {
		return nil
	}
	for i, d := range s.ites {
		if n.choice[i] < 0 && !n.bounds[d.aux].finite() {
			// no useful relaxation yet.
			return s.branchAlternatives(n, i, nil)
		}
	}

	rel := &relaxation{n: s.n, rows: s.rows(n), bounds: n.bounds, cost: s.cost}
	x, f, err := rel.solve()
	switch {
	case errors.Is(err, errInfeasible):
		return nil
	case errors.Is(err, errUnbounded):
		return errors.New("objective is unbounded")
	case err != nil:
		return err
	}
	bound := f + s.objConst
	if s.best != nil && bound >= s.bestF-tolerance(s.bestF) {
		return nil
	}
	s.round(x)

	// a disjunction whose auxiliary variable already takes the value of an
	// alternative that holds at x needs no branching.
	for i := range s.ites {
		if n.choice[i] < 0 && !s.consistent(n, i, x) {
			return s.branchAlternatives(n, i, x)
		}
	}
	for _, v := range s.p.Vars() {
		j := v.ID()
		if v.Kind() == solver.Integer && math.Abs(x[j]-math.Round(x[j])) > 1e-6 {
			return s.branchInteger(n, j, x[j])
		}
	}
	if s.candidate(x) {
		return nil
	}
	// x was only consistent within the tolerance.
	for i := range s.ites {
		if n.choice[i] < 0 {
			return s.branchAlternatives(n, i, x)
		}
	}
	return nil
}

// consistent tells whether the auxiliary variable of disjunction i equals the
// value of a live alternative whose conditions hold at x.
func (s *search) consistent(n *node, i int, x []float64) bool {
	d := s.ites[i]
	for a, alt := range d.alts {
		if n.dead[i][a] || !satisfied(alt.conds, x) {
			continue
		}
		v := alt.value.eval(x)
		if math.Abs(x[d.aux]-v) <= 1e-7*math.Max(1, math.Abs(v)) {
			return true
		}
	}
	return false
}

// round offers the roundings of x as candidates, they often give an early
// incumbent to prune with.
func (s *search) round(x []float64) {
	for _, r := range []func(float64) float64{math.Round, math.Floor} {
		y := append([]float64(nil), x...)
		for _, v := range s.p.Vars() {
			if v.Kind() == solver.Integer {
				y[v.ID()] = r(y[v.ID()] + 1e-9)
			}
		}
		s.candidate(y)
	}
}

// rows returns the constraints of the relaxation at n.
func (s *search) rows(n *node) []row {
	rows := append([]row(nil), s.base...)
	for i, d := range s.ites {
		if n.choice[i] < 0 {
			continue
		}
		alt := d.alts[n.choice[i]]
		rows = append(rows, alt.conds...)
		rows = append(rows, row{variable(d.aux).sub(alt.value), eq})
	}
	return rows
}

// propagate narrows n using interval arithmetic. It returns false if n
// cannot contain any solution.
func (s *search) propagate(n *node) bool {
	for _, b := range n.bounds {
		if b.empty() {
			return false
		}
	}
	if !tightenBounds(s.rows(n), n.bounds, s.integer) {
		return false
	}
	for pass := 0; pass < 10; pass++ {
		changed := false
		for i, d := range s.ites {
			if c := n.choice[i]; c >= 0 {
				r := rangeOf(d.alts[c].value, n.bounds).widen().intersect(s.altRanges[i][c])
				n.bounds[d.aux] = n.bounds[d.aux].intersect(r)
				if n.bounds[d.aux].empty() {
					return false
				}
				continue
			}
			alive, last := 0, -1
			hull := interval{math.Inf(1), math.Inf(-1)}
			for a, alt := range d.alts {
				if n.dead[i][a] {
					continue
				}
				r := rangeOf(alt.value, n.bounds).widen().intersect(s.altRanges[i][a])
				if r.empty() || refuted(alt.conds, n.bounds) {
					n.dead[i][a], changed = true, true
					continue
				}
				if entailed(alt.conds, n.bounds) {
					// alternatives are exclusive.
					for b := range d.alts {
						n.dead[i][b] = b != a
					}
					alive, last, hull = 1, a, r
					break
				}
				alive, last = alive+1, a
				hull = hull.hull(r)
			}
			if alive == 0 {
				return false
			}
			if alive == 1 {
				n.choice[i], changed = last, true
			}
			n.bounds[d.aux] = n.bounds[d.aux].intersect(hull)
			if n.bounds[d.aux].empty() {
				return false
			}
		}
		if !changed {
			break
		}
	}
	return true
}

// refuted tells whether some row is certainly false within bounds.
func refuted(rows []row, bounds []interval) bool {
	for _, r := range rows {
		rg := rangeOf(r.expr, bounds)
		tol := tolerance(rg.lo, rg.hi)
		if rg.lo > tol || (r.op == eq && rg.hi < -tol) {
			return true
		}
	}
	return false
}

// entailed tells whether every row is certainly true within bounds.
func entailed(rows []row, bounds []interval) bool {
	for _, r := range rows {
		rg := rangeOf(r.expr, bounds)
		if r.op == eq || rg.hi >= -tolerance(rg.lo, rg.hi) {
			return false
		}
	}
	return true
}

// satisfied tells whether every row holds at x, up to the tolerance.
func satisfied(rows []row, x []float64) bool {
	for _, r := range rows {
		v := r.expr.eval(x)
		tol := tolerance(v)
		if v > tol || (r.op == eq && v < -tol) {
			return false
		}
	}
	return true
}

func (s *search) branchAlternatives(n *node, i int, x []float64) error {
	d := s.ites[i]
	var order, later []int
	for a, alt := range d.alts {
		switch {
		case n.dead[i][a]:
		case x != nil && satisfied(alt.conds, x):
			order = append(order, a)
		default:
			later = append(later, a)
		}
	}
	for _, a := range append(order, later...) {
		child := n.clone()
		child.choice[i] = a
		if err := s.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (s *search) branchInteger(n *node, j int, xj float64) error {
	fl := math.Floor(xj)
	down, up := n.clone(), n.clone()
	down.bounds[j].hi = fl
	up.bounds[j].lo = fl + 1
	children := []*node{down, up}
	if xj-fl > 0.5 {
		children = []*node{up, down}
	}
	for _, child := range children {
		if err := s.visit(child); err != nil {
			return err
		}
	}
	return nil
}

// candidate checks x exactly and keeps it if it improves the best solution.
// It returns false if x is not a solution.
func (s *search) candidate(x []float64) bool {
	values := make(map[solver.Var]*big.Rat)
	for _, v := range s.p.Vars() {
		xv := x[v.ID()]
		if v.Kind() == solver.Integer {
			values[v] = new(big.Rat).SetFloat64(math.Round(xv))
		} else {
			values[v] = new(big.Rat).SetFloat64(xv)
		}
	}
	value := func(v solver.Var) (*big.Rat, bool) {
		r, ok := values[v]
		return r, ok
	}
	for _, c := range s.p.Constraints() {
		if holds, ok := solver.Holds(c, value); !ok || !holds {
			s.opts.Logger.Trace().Str("constraint", c.String()).Msg("candidate rejected")
			return false
		}
	}
	obj, ok := solver.Evaluate(s.p.Objective(), value)
	if !ok {
		return false
	}
	if s.best == nil || obj.Cmp(s.bestObjective) < 0 {
		s.best, s.bestObjective = values, obj
		s.bestF, _ = obj.Float64()
		s.opts.Logger.Debug().Int("node", s.nodes).Float64("objective", s.bestF).Msg("new incumbent")
	}
	return true
}

func (s *search) solution() solver.Solution {
	return solver.NewAssignment(s.p, s.best)
}
