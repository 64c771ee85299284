package rebalance

import (
	"context"
	"time"

	"github.com/etnz/rebalance/solver"
	"github.com/rs/zerolog"
)

// Option configures Optimize.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

// WithLogger sends pipeline progress to l.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Optimize computes the purchase plan of p with backend.
//
// It validates p, builds the model, solves it and extracts the plan. The
// first failing stage aborts: errors are *ValidationError,
// *NoSolutionError or *EvaluationError. Cancelling ctx, or reaching its
// deadline, makes the backend give up and yields a *NoSolutionError.
func Optimize(ctx context.Context, p Portfolio, backend solver.Backend, opts ...Option) (*Plan, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.With().Str("component", "rebalance").Logger()

	if err := Validate(p); err != nil {
		log.Debug().Err(err).Msg("invalid portfolio")
		return nil, err
	}
	log.Debug().Int("funds", len(p.Funds)).Float64("target_buy", p.TargetBuy).Msg("portfolio validated")

	m := BuildModel(p)
	log.Debug().
		Int("variables", len(m.Problem.Vars())).
		Int("constraints", len(m.Problem.Constraints())).
		Msg("model built")

	start := time.Now()
	sol, err := backend.Solve(ctx, m.Problem)
	if err != nil {
		log.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("no solution")
		return nil, &NoSolutionError{TargetBuy: p.TargetBuy, Err: err}
	}
	ev := log.Info().Dur("elapsed", time.Since(start))
	if obj := sol.Objective(); obj != nil {
		ev = ev.Str("objective", obj.RatString())
	}
	ev.Msg("model solved")

	return Extract(sol, m, p)
}
