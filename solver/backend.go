// Package solver defines the optimization backend used to plan purchases.
//
// A Problem declares integer and rational variables, linear constraints built
// from Expr trees (including if/then/else nodes), and an objective to minimize.
// A Backend turns a Problem into a Solution, an immutable assignment that can
// evaluate any expression of that problem exactly.
//
// The package does not solve anything itself: see package milp for a concrete
// Backend.
package solver

import (
	"context"
	"errors"
	"math/big"
)

// ErrNoSolution is returned (possibly wrapped) by a Backend that could not
// produce a Solution: the problem is infeasible, unbounded, or the search
// stopped before finding a witness.
var ErrNoSolution = errors.New("no solution")

// Backend solves problems.
type Backend interface {
	// Solve minimizes p's objective subject to its constraints.
	// Solve must not modify p.
	Solve(ctx context.Context, p *Problem) (Solution, error)
}

// Solution is the result of a successful solve.
type Solution interface {
	// Int returns the value of an integer variable.
	Int(v Var) (int64, bool)
	// Value returns the value of any variable.
	Value(v Var) (*big.Rat, bool)
	// Eval computes any expression of the solved problem.
	Eval(e Expr) (*big.Rat, bool)
	// Objective returns the value of the objective.
	Objective() *big.Rat
}

// Assignment is a Solution made of an explicit value per variable.
type Assignment struct {
	values    map[int]*big.Rat
	objective *big.Rat
}

// NewAssignment returns the Solution assigning values to p's variables.
// The objective is evaluated from p.
func NewAssignment(p *Problem, values map[Var]*big.Rat) *Assignment {
	a := &Assignment{values: make(map[int]*big.Rat, len(values))}
	for v, x := range values {
		a.values[v.id] = new(big.Rat).Set(x)
	}
	a.objective, _ = a.Eval(p.Objective())
	return a
}

func (a *Assignment) Value(v Var) (*big.Rat, bool) {
	x, ok := a.values[v.id]
	if !ok {
		return nil, false
	}
	return new(big.Rat).Set(x), true
}

func (a *Assignment) Int(v Var) (int64, bool) {
	x, ok := a.values[v.id]
	if !ok || !x.IsInt() || !x.Num().IsInt64() {
		return 0, false
	}
	return x.Num().Int64(), true
}

func (a *Assignment) Eval(e Expr) (*big.Rat, bool) { return Evaluate(e, a.Value) }

// Objective returns nil when the objective depends on an unassigned variable.
func (a *Assignment) Objective() *big.Rat {
	if a.objective == nil {
		return nil
	}
	return new(big.Rat).Set(a.objective)
}
