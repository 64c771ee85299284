package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/renderer"
	"github.com/etnz/rebalance/solver/milp"
	"github.com/google/subcommands"
)

// solveFlags tune the optimization.
type solveFlags struct {
	maxNodes int
	timeout  time.Duration
}

func (s *solveFlags) SetFlags(f *flag.FlagSet) {
	f.IntVar(&s.maxNodes, "max-nodes", 0, "Maximum number of search nodes, 0 for no limit. The best plan found so far is used when the limit is reached.")
	f.DurationVar(&s.timeout, "timeout", time.Minute, "Maximum solve time, 0 for no limit.")
}

// optimize computes the plan of p.
func (s *solveFlags) optimize(ctx context.Context, p rebalance.Portfolio) (*rebalance.Plan, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	backend := milp.New(milp.Options{MaxNodes: s.maxNodes, Logger: logger()})
	return rebalance.Optimize(ctx, p, backend, rebalance.WithLogger(logger()))
}

type planCmd struct {
	configFlags
	solveFlags
	json  bool
	plain bool
}

func (*planCmd) Name() string     { return "plan" }
func (*planCmd) Synopsis() string { return "compute the shares to buy to rebalance the portfolio" }
func (*planCmd) Usage() string {
	return `rebal plan [-c <config>] [-d] [-t <target-buy>] [-json|-plain]

  Computes the number of shares of each fund to buy so that the portfolio
  gets as close as possible to its target proportions, spending strictly less
  than the target buy. See 'rebal topic model'.

`
}

func (c *planCmd) SetFlags(f *flag.FlagSet) {
	c.configFlags.SetFlags(f)
	c.solveFlags.SetFlags(f)
	f.BoolVar(&c.json, "json", false, "Print the plan as JSON.")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown.")
}

func (c *planCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, updates, err := c.load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	plan, err := c.optimize(ctx, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	md := renderer.PlanMarkdown(plan)
	if len(updates) > 0 {
		md = renderer.PricesMarkdown(updates, plan.Currency) + "\n" + md
	}
	if c.plain {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
