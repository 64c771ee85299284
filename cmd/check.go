package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/google/subcommands"
)

type checkCmd struct {
	configFlags
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validate a portfolio configuration" }
func (*checkCmd) Usage() string {
	return `rebal check [-c <config>] [-d]

  Validates the configuration without computing a plan. See 'rebal topic configuration'.

`
}

func (c *checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, _, err := c.load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := rebalance.Validate(p); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s is valid: %d funds, target proportions sum to %.2f\n", c.path, len(p.Funds), p.ProportionSum())
	return subcommands.ExitSuccess
}
