package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

const (
	defaultQuestion = "Explain this purchase plan: which funds are below their target, why some are not bought and what is left over."
	failureQuestion = "Explain why no purchase plan could be computed for this portfolio."
)

type explainCmd struct {
	configFlags
	solveFlags
	interactive bool
}

func (*explainCmd) Name() string     { return "explain" }
func (*explainCmd) Synopsis() string { return "explain the purchase plan with Gemini" }
func (*explainCmd) Usage() string {
	return `rebal explain [-c <config>] [-i] [<question>...]

  Computes the plan like 'rebal plan' and asks Gemini to explain it, or to
  answer the question. When the portfolio is invalid or no plan fits the
  budget, Gemini explains why instead. Requires GEMINI_API_KEY.
  See 'rebal topic explain'.

`
}

func (c *explainCmd) SetFlags(f *flag.FlagSet) {
	c.configFlags.SetFlags(f)
	c.solveFlags.SetFlags(f)
	f.BoolVar(&c.interactive, "i", false, "Keep asking questions from the standard input.")
}

func (c *explainCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, _, err := c.load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	question := defaultQuestion
	plan, planErr := c.optimize(ctx, p)
	var (
		verr *rebalance.ValidationError
		nerr *rebalance.NoSolutionError
	)
	switch {
	case planErr == nil:
	case errors.As(planErr, &verr), errors.As(planErr, &nerr):
		// the Analyst explains the failure.
		logger().Warn().Err(planErr).Msg("no purchase plan")
		question = failureQuestion
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", planErr)
		return subcommands.ExitFailure
	}
	if f.NArg() > 0 {
		question = strings.Join(f.Args(), " ")
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	analyst := agent.NewAnalyst(p, plan, planErr)
	researcher := agent.NewResearcher()
	for _, e := range []*agent.Expert{analyst, researcher} {
		e.Logger = logger()
	}
	a := agent.New(os.Stdout, os.Stdin, analyst, researcher)
	a.Interactive = c.interactive
	if err := a.Run(ctx, client, question); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
