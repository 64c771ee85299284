package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

type pricesCmd struct {
	configFlags
	plain bool
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "show the latest prices of the portfolio's funds" }
func (*pricesCmd) Usage() string {
	return `rebal prices [-c <config>] [-provider eodhd|yahoo]

  Fetches the latest close of every fund and shows it next to the configured
  price. The configuration file is not modified. See 'rebal topic prices'.

`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	c.configFlags.SetFlags(f)
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown.")
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.download = true
	p, updates, err := c.load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	md := renderer.PricesMarkdown(updates, p.Currency)
	if c.plain {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
