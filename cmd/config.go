package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/eodhd"
	"github.com/etnz/rebalance/yahoo"
)

// configFlags are the flags shared by commands reading a portfolio.
type configFlags struct {
	path        string
	download    bool
	provider    string
	eodhdKey    string
	concurrency int
	targetBuy   *float64 // nil when the configuration's budget applies
}

func (c *configFlags) SetFlags(f *flag.FlagSet) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		path = "portfolio.toml"
	}
	f.StringVar(&c.path, "c", path, "Portfolio configuration file (.toml, .yaml, .yml or .json). Defaults to $"+EnvConfig+".")
	f.BoolVar(&c.download, "d", false, "Download current prices before planning.")
	f.StringVar(&c.provider, "provider", "eodhd", "Price provider: eodhd or yahoo.")
	f.StringVar(&c.eodhdKey, "eodhd-api-key", "", "EODHD API key. This flag takes precedence over the "+eodhd.APIKeyEnv+" environment variable. You can get one at https://eodhd.com/")
	f.IntVar(&c.concurrency, "concurrency", rebalance.DefaultConcurrency, "Maximum number of concurrent price requests.")
	f.Func("t", "Target buy, overrides the configuration's target_buy.", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		c.targetBuy = &v
		return nil
	})
}

// priceProvider returns the selected provider.
func (c *configFlags) priceProvider() (rebalance.PriceProvider, error) {
	switch c.provider {
	case "eodhd":
		key := c.eodhdKey
		if key == "" {
			key = os.Getenv(eodhd.APIKeyEnv)
		}
		if key == "" {
			return nil, fmt.Errorf("eodhd requires an API key, use -eodhd-api-key or set %s", eodhd.APIKeyEnv)
		}
		return eodhd.New(key, logger()), nil
	case "yahoo":
		return yahoo.New(logger()), nil
	}
	return nil, fmt.Errorf("unknown price provider %q, want eodhd or yahoo", c.provider)
}

// load reads the portfolio, refreshes its prices when requested and applies
// the budget override.
func (c *configFlags) load(ctx context.Context) (rebalance.Portfolio, []rebalance.PriceUpdate, error) {
	p, err := rebalance.LoadPortfolio(c.path)
	if err != nil {
		return p, nil, err
	}
	var updates []rebalance.PriceUpdate
	if c.download {
		if updates, err = c.refresh(ctx, &p); err != nil {
			return p, nil, err
		}
	}
	if c.targetBuy != nil {
		p.TargetBuy = *c.targetBuy
	}
	logger().Debug().Str("config", c.path).Int("funds", len(p.Funds)).Float64("target_buy", p.TargetBuy).Msg("portfolio loaded")
	return p, updates, nil
}

func (c *configFlags) refresh(ctx context.Context, p *rebalance.Portfolio) ([]rebalance.PriceUpdate, error) {
	provider, err := c.priceProvider()
	if err != nil {
		return nil, err
	}
	return rebalance.RefreshPrices(ctx, p, provider, c.concurrency)
}
