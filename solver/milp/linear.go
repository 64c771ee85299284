package milp

import (
	"math/big"
	"sort"

	"github.com/etnz/rebalance/solver"
)

// term is a * x[v].
type term struct {
	v int
	a *big.Rat
}

// linear is Σ terms + c, terms sorted by variable, no zero coefficient.
type linear struct {
	terms []term
	c     *big.Rat
}

func constant(c *big.Rat) linear { return linear{c: new(big.Rat).Set(c)} }

func variable(v int) linear {
	return linear{terms: []term{{v, big.NewRat(1, 1)}}, c: new(big.Rat)}
}

// combine returns Σ k[i] * ls[i].
func combine(ls []linear, k []*big.Rat) linear {
	coef := make(map[int]*big.Rat)
	c := new(big.Rat)
	for i, l := range ls {
		for _, t := range l.terms {
			x, ok := coef[t.v]
			if !ok {
				x = new(big.Rat)
				coef[t.v] = x
			}
			x.Add(x, new(big.Rat).Mul(t.a, k[i]))
		}
		c.Add(c, new(big.Rat).Mul(l.c, k[i]))
	}
	res := linear{c: c}
	for v, a := range coef {
		if a.Sign() != 0 {
			res.terms = append(res.terms, term{v, a})
		}
	}
	sort.Slice(res.terms, func(i, j int) bool { return res.terms[i].v < res.terms[j].v })
	return res
}

func (l linear) add(o linear) linear { return combine([]linear{l, o}, []*big.Rat{one, one}) }
func (l linear) sub(o linear) linear { return combine([]linear{l, o}, []*big.Rat{one, minusOne}) }
func (l linear) scale(k *big.Rat) linear {
	return combine([]linear{l}, []*big.Rat{k})
}
func (l linear) neg() linear { return l.scale(minusOne) }

var (
	one      = big.NewRat(1, 1)
	minusOne = big.NewRat(-1, 1)
)

// eval computes l at x in floating point.
func (l linear) eval(x []float64) float64 {
	f, _ := l.c.Float64()
	for _, t := range l.terms {
		a, _ := t.a.Float64()
		f += a * x[t.v]
	}
	return f
}

// op is the relation of a row to zero.
type op int

const (
	le op = iota // expr <= 0
	lt           // expr < 0
	eq           // expr == 0
)

// row is the constraint 'expr op 0'.
type row struct {
	expr linear
	op   op
}

// constHolds evaluates a row without variables.
func (r row) constHolds() bool {
	s := r.expr.c.Sign()
	switch r.op {
	case le:
		return s <= 0
	case lt:
		return s < 0
	}
	return s == 0
}

// negations returns the alternatives that together make 'not r'.
func (r row) negations() []row {
	switch r.op {
	case lt: // not (e < 0) is -e <= 0
		return []row{{r.expr.neg(), le}}
	case le: // not (e <= 0) is -e < 0
		return []row{{r.expr.neg(), lt}}
	}
	// not (e == 0) is e < 0 or -e < 0
	return []row{{r.expr, lt}, {r.expr.neg(), lt}}
}

// alternative is one way to satisfy a disjunction: when all conds hold the
// auxiliary variable equals value.
type alternative struct {
	conds []row
	value linear
}

// disjunction binds the auxiliary variable aux to exactly one alternative.
type disjunction struct {
	aux  int
	alts []alternative
}

// compiler turns expression trees into linear rows. Each if/then/else node
// becomes an auxiliary rational variable bound by a disjunction.
type compiler struct {
	kinds []solver.Kind
	names []string
	ites  []*disjunction
	cuts  []row // valid for every solution, they strengthen relaxations
}

func newCompiler(p *solver.Problem) *compiler {
	c := new(compiler)
	for _, v := range p.Vars() {
		c.kinds = append(c.kinds, v.Kind())
		c.names = append(c.names, v.Name())
	}
	return c
}

func (c *compiler) expr(e solver.Expr) linear {
	switch e.Op() {
	case solver.OpVar:
		return variable(e.Var().ID())
	case solver.OpAdd:
		ops := e.Operands()
		ls := make([]linear, len(ops))
		ks := make([]*big.Rat, len(ops))
		for i, o := range ops {
			ls[i], ks[i] = c.expr(o), one
		}
		return combine(ls, ks)
	case solver.OpMul:
		return c.expr(e.Operands()[0]).scale(e.Value())
	case solver.OpIte:
		return c.ite(e)
	}
	return constant(e.Value())
}

// cond compiles a comparison into a single row.
func (c *compiler) cond(cd solver.Cond) row {
	d := c.expr(cd.Left).sub(c.expr(cd.Right))
	switch cd.Rel {
	case solver.Lt:
		return row{d, lt}
	case solver.Le:
		return row{d, le}
	case solver.Gt:
		return row{d.neg(), lt}
	case solver.Ge:
		return row{d.neg(), le}
	}
	return row{d, eq}
}

func (c *compiler) ite(e solver.Expr) linear {
	r := c.cond(e.Condition())
	then := c.expr(e.Operands()[0])
	els := c.expr(e.Operands()[1])

	candidates := []alternative{{conds: []row{r}, value: then}}
	for _, n := range r.negations() {
		candidates = append(candidates, alternative{conds: []row{n}, value: els})
	}
	// constant conditions decide the branch right away.
	var alts []alternative
	for _, a := range candidates {
		if len(a.conds[0].expr.terms) == 0 {
			if !a.conds[0].constHolds() {
				continue
			}
			a.conds = nil
		}
		alts = append(alts, a)
	}
	if len(alts) == 1 && len(alts[0].conds) == 0 {
		return alts[0].value
	}

	aux := len(c.kinds)
	c.kinds = append(c.kinds, solver.Rational)
	c.names = append(c.names, "ite")
	c.ites = append(c.ites, &disjunction{aux: aux, alts: alts})
	c.cuts = append(c.cuts, envelope(aux, alts)...)
	return variable(aux)
}

// envelope returns the rows bounding aux by the values of alts when the
// if/then/else is the maximum of its values, like an absolute value, or
// their minimum.
//
// It is a maximum when, for every pair of alternatives a and b, va - vb is
// k times the condition of a with k <= 0: where that condition holds, va is
// the largest. The minimum is symmetric with k >= 0.
func envelope(aux int, alts []alternative) []row {
	isMax, isMin := true, true
	for _, a := range alts {
		if len(a.conds) != 1 {
			return nil
		}
		for _, b := range alts {
			k, ok := proportional(a.value.sub(b.value), a.conds[0].expr)
			switch {
			case !ok:
				return nil
			case a.conds[0].op == eq:
				// the values are equal where the condition holds.
			default:
				isMax = isMax && k.Sign() <= 0
				isMin = isMin && k.Sign() >= 0
			}
		}
	}
	var cuts []row
	for _, a := range alts {
		switch {
		case isMax:
			cuts = append(cuts, row{a.value.sub(variable(aux)), le})
		case isMin:
			cuts = append(cuts, row{variable(aux).sub(a.value), le})
		}
	}
	return cuts
}

// proportional returns k such that x == k*y, if any.
func proportional(x, y linear) (*big.Rat, bool) {
	if len(x.terms) == 0 && x.c.Sign() == 0 {
		return new(big.Rat), true
	}
	if len(y.terms) == 0 || len(x.terms) == 0 {
		return nil, false
	}
	if x.terms[0].v != y.terms[0].v {
		return nil, false
	}
	k := new(big.Rat).Quo(x.terms[0].a, y.terms[0].a)
	d := x.sub(y.scale(k))
	if len(d.terms) != 0 || d.c.Sign() != 0 {
		return nil, false
	}
	return k, true
}

// integral tells whether every variable of l is an integer.
func (c *compiler) integral(l linear) bool {
	for _, t := range l.terms {
		if c.kinds[t.v] != solver.Integer {
			return false
		}
	}
	return true
}

// tighten rewrites an inequality over integer variables only into the
// equivalent non strict one with integer coefficients, rounding the bound.
// Other rows are returned unchanged.
func (c *compiler) tighten(r row) row {
	if r.op == eq || len(r.expr.terms) == 0 || !c.integral(r.expr) {
		return r
	}
	// Scale to integer coefficients.
	m := big.NewInt(1)
	for _, t := range r.expr.terms {
		m = lcm(m, t.a.Denom())
	}
	mr := new(big.Rat).SetInt(m)
	coefs := make([]*big.Int, len(r.expr.terms))
	g := new(big.Int)
	for i, t := range r.expr.terms {
		coefs[i] = new(big.Rat).Mul(t.a, mr).Num()
		g.GCD(nil, nil, g, new(big.Int).Abs(coefs[i]))
	}
	// Σ coefs x  (op)  q
	q := new(big.Rat).Neg(r.expr.c)
	q.Mul(q, mr)
	var bound *big.Int
	if r.op == lt {
		bound = ceil(q)
		bound.Sub(bound, big.NewInt(1))
	} else {
		bound = floor(q)
	}
	bound = floor(new(big.Rat).SetFrac(bound, g))

	res := row{op: le, expr: linear{c: new(big.Rat).SetInt(new(big.Int).Neg(bound))}}
	for i, t := range r.expr.terms {
		res.expr.terms = append(res.expr.terms, term{t.v, new(big.Rat).SetInt(new(big.Int).Quo(coefs[i], g))})
	}
	return res
}

func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, a, b)
	res := new(big.Int).Mul(a, b)
	return res.Quo(res, g)
}

func floor(q *big.Rat) *big.Int {
	// Div is Euclidean, denominators are positive: it rounds down.
	return new(big.Int).Div(q.Num(), q.Denom())
}

func ceil(q *big.Rat) *big.Int {
	f := floor(q)
	if !q.IsInt() {
		f.Add(f, big.NewInt(1))
	}
	return f
}
