package rebalance

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PriceProvider returns the most recent closing price of a symbol.
type PriceProvider interface {
	LatestClose(ctx context.Context, symbol string) (float64, error)
}

// PriceUpdate records a refreshed price.
type PriceUpdate struct {
	Symbol string
	Old    float64
	New    float64
}

// DefaultConcurrency is the number of concurrent provider calls used by
// RefreshPrices when none is given.
const DefaultConcurrency = 4

// RefreshPrices replaces the price of every fund of p with the provider's
// latest close. Symbols are queried concurrently, at most concurrency at a
// time. Any failure cancels the other queries and leaves p unchanged.
//
// Updates are returned in fund order.
func RefreshPrices(ctx context.Context, p *Portfolio, provider PriceProvider, concurrency int) ([]PriceUpdate, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	prices := make([]float64, len(p.Funds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, f := range p.Funds {
		i, f := i, f
		g.Go(func() error {
			price, err := provider.LatestClose(ctx, f.Symbol)
			if err != nil {
				return fmt.Errorf("cannot refresh price of %s: %w", f.Symbol, err)
			}
			prices[i] = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	updates := make([]PriceUpdate, len(p.Funds))
	for i := range p.Funds {
		updates[i] = PriceUpdate{Symbol: p.Funds[i].Symbol, Old: p.Funds[i].Price, New: prices[i]}
		p.Funds[i].Price = prices[i]
	}
	return updates, nil
}
