package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/etnz/rebalance"
	md "github.com/nao1215/markdown"
)

// PortfolioMarkdown renders the current holdings of p next to their targets.
func PortfolioMarkdown(p rebalance.Portfolio) string {
	cur := p.Currency
	if cur == "" {
		cur = rebalance.DefaultCurrency
	}
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")
	doc.PlainText(fmt.Sprintf("Target buy: %s", rebalance.M(p.TargetBuy, cur)))

	total := p.Value()
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Fund", "Shares", "Price", "Value", "Proportion", "Target"},
	}
	for _, f := range p.Funds {
		var proportion float64
		if total > 0 {
			proportion = f.Value() / total
		}
		table.Rows = append(table.Rows, []string{
			f.Symbol,
			strconv.FormatFloat(f.Shares, 'f', -1, 64),
			rebalance.M(f.Price, cur).String(),
			rebalance.M(f.Value(), cur).String(),
			rebalance.Ratio(proportion).String(),
			rebalance.Ratio(f.TargetProportion).String(),
		})
	}
	table.Rows = append(table.Rows, []string{md.Bold("Total"), "", "", md.Bold(rebalance.M(total, cur).String()), "", ""})
	doc.Table(table)
	return doc.String()
}
