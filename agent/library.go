package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/rebalance"
	"google.golang.org/genai"
)

// Library resolves function calls made by a model.
type Library func(context.Context, *genai.FunctionCall) *genai.FunctionResponse

type Function interface {
	// Declare this function
	Declaration() *genai.FunctionDeclaration
	// Call this function
	Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

var (
	// ErrUnknownFunction is reported to a model calling a function that is not declared.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrInvalidArgument is reported to a model calling a function with arguments of the wrong type.
	ErrInvalidArgument = errors.New("invalid argument")
)

// CallError is the failure of a function called by a model.
type CallError struct {
	Function string
	Err      error
}

func (e *CallError) Error() string { return fmt.Sprintf("%s: %v", e.Function, e.Err) }
func (e *CallError) Unwrap() error { return e.Err }

// Kind classifies the failure for the model: whether the portfolio is
// invalid, no plan exists, or the call itself was wrong.
func (e *CallError) Kind() string {
	var (
		verr *rebalance.ValidationError
		nerr *rebalance.NoSolutionError
		eerr *rebalance.EvaluationError
	)
	switch {
	case errors.As(e.Err, &verr):
		return "invalid_portfolio"
	case errors.As(e.Err, &nerr):
		return "no_plan"
	case errors.As(e.Err, &eerr):
		return "evaluation"
	case errors.Is(e.Err, ErrUnknownFunction):
		return "unknown_function"
	case errors.Is(e.Err, ErrInvalidArgument):
		return "invalid_argument"
	}
	return "failed"
}

// Symbol returns the fund the failure is about, if any.
func (e *CallError) Symbol() string {
	var (
		verr *rebalance.ValidationError
		eerr *rebalance.EvaluationError
	)
	switch {
	case errors.As(e.Err, &verr):
		return verr.Symbol
	case errors.As(e.Err, &eerr):
		return eerr.Symbol
	}
	return ""
}

// NewLibrary dispatches calls to functions by name. The first function
// declaring a name wins.
func NewLibrary[T Function](functions []T) Library {
	byName := make(map[string]T, len(functions))
	for _, f := range functions {
		name := f.Declaration().Name
		if _, ok := byName[name]; !ok {
			byName[name] = f
		}
	}
	return func(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
		f, ok := byName[call.Name]
		if !ok {
			return errorResponse(call.ID, &CallError{Function: call.Name, Err: ErrUnknownFunction})
		}
		return f.Call(ctx, call.ID, call.Args)
	}
}

func NewDeclaration[T Function](functions []T) []*genai.FunctionDeclaration {
	result := make([]*genai.FunctionDeclaration, 0, len(functions))
	for _, e := range functions {
		result = append(result, e.Declaration())
	}
	return result
}

func errorResponse(id string, err *CallError) *genai.FunctionResponse {
	r := map[string]any{"error": err.Err.Error(), "kind": err.Kind()}
	if s := err.Symbol(); s != "" {
		r["symbol"] = s
	}
	return &genai.FunctionResponse{ID: id, Name: err.Function, Response: r}
}

func outputResponse(id, name, output string) *genai.FunctionResponse {
	return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"output": output}}
}
