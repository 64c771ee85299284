package rebalance

import "fmt"

// NoSolutionError is returned when the backend could not find a plan: the
// budget cannot be respected (for instance a budget ≤ 0), or the search
// stopped without a witness.
type NoSolutionError struct {
	TargetBuy float64
	Err       error
}

func (e *NoSolutionError) Error() string {
	return fmt.Sprintf("no purchase plan spends less than %v: %v", e.TargetBuy, e.Err)
}

func (e *NoSolutionError) Unwrap() error { return e.Err }

// EvaluationError is returned when a solution exists but some quantity of a
// fund cannot be computed from it. It is an internal inconsistency between
// the model and the backend.
type EvaluationError struct {
	Symbol   string
	Quantity string // what could not be evaluated
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate %s for %s", e.Quantity, e.Symbol)
}
