package solver

import "math/big"

// Evaluate computes e exactly, reading variables through value.
// It returns false if e depends on a variable value does not know.
func Evaluate(e Expr, value func(Var) (*big.Rat, bool)) (*big.Rat, bool) {
	switch e.Op() {
	case OpConst:
		return new(big.Rat).Set(e.Value()), true
	case OpVar:
		v, ok := value(e.Var())
		if !ok || v == nil {
			return nil, false
		}
		return new(big.Rat).Set(v), true
	case OpAdd:
		sum := new(big.Rat)
		for _, a := range e.Operands() {
			x, ok := Evaluate(a, value)
			if !ok {
				return nil, false
			}
			sum.Add(sum, x)
		}
		return sum, true
	case OpMul:
		x, ok := Evaluate(e.Operands()[0], value)
		if !ok {
			return nil, false
		}
		return x.Mul(x, e.Value()), true
	case OpIte:
		holds, ok := Holds(e.Condition(), value)
		if !ok {
			return nil, false
		}
		if holds {
			return Evaluate(e.Operands()[0], value)
		}
		return Evaluate(e.Operands()[1], value)
	}
	return nil, false
}

// Holds tells whether c is true, reading variables through value.
// It returns false as second value if c cannot be evaluated.
func Holds(c Cond, value func(Var) (*big.Rat, bool)) (holds, ok bool) {
	l, ok := Evaluate(c.Left, value)
	if !ok {
		return false, false
	}
	r, ok := Evaluate(c.Right, value)
	if !ok {
		return false, false
	}
	cmp := l.Cmp(r)
	switch c.Rel {
	case Lt:
		return cmp < 0, true
	case Le:
		return cmp <= 0, true
	case Eq:
		return cmp == 0, true
	case Ge:
		return cmp >= 0, true
	case Gt:
		return cmp > 0, true
	}
	return false, false
}
