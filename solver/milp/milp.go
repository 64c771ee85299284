// Package milp implements solver.Backend with an exact branch-and-bound.
//
// Linear relaxations are solved in floating point with gonum's simplex. When
// gonum fails or returns a point that does not hold, the relaxation is solved
// again with an exact rational simplex: only a proven infeasibility prunes a
// node. Variable bounds are tightened from the constraints before any
// relaxation is solved, so every relaxation of a bounded problem is boxed.
// Every candidate is then checked against the original constraints with exact
// rational arithmetic, and its objective is evaluated exactly, so a returned
// Solution always satisfies the problem. Optimality is certified up to a
// relative gap of 1e-9 on the objective.
//
// If/then/else expressions are handled as disjunctions: each one becomes an
// auxiliary variable equal to the value of the branch whose condition holds,
// and the search branches on which condition holds when the relaxation does
// not already agree with one. An if/then/else that is the maximum of its
// branches, like an absolute value, is also bounded below by each branch.
//
// Strict inequalities over integer variables only are rewritten exactly into
// non strict ones. Strict inequalities involving rational variables are
// relaxed to their closure and only enforced by the exact check.
package milp

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/rebalance/solver"
	"github.com/rs/zerolog"
)

// Options tunes the search.
type Options struct {
	// MaxNodes bounds the number of explored nodes, 0 means no limit.
	MaxNodes int
	// Logger receives search progress. Zero value discards everything.
	Logger zerolog.Logger
}

// Backend is a solver.Backend.
type Backend struct {
	opts Options
}

// New returns a Backend. Options are optional.
func New(opts ...Options) *Backend {
	b := &Backend{opts: Options{Logger: zerolog.Nop()}}
	if len(opts) > 0 {
		b.opts = opts[0]
	}
	return b
}

var errNodeLimit = errors.New("node limit reached")

// Solve implements solver.Backend.
func (b *Backend) Solve(ctx context.Context, p *solver.Problem) (solver.Solution, error) {
	s, err := newSearch(ctx, p, b.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", solver.ErrNoSolution, err)
	}
	err = s.run()
	log := b.opts.Logger
	switch {
	case errors.Is(err, errNodeLimit) && s.best != nil:
		log.Warn().Int("nodes", s.nodes).Msg("node limit reached, returning the best solution found")
	case err != nil:
		return nil, fmt.Errorf("%w: %v", solver.ErrNoSolution, err)
	case s.best == nil:
		return nil, fmt.Errorf("%w: infeasible", solver.ErrNoSolution)
	}
	log.Debug().Int("nodes", s.nodes).Str("objective", s.bestObjective.RatString()).Msg("solved")
	return s.solution(), nil
}
