// Package renderer formats plans and price updates as markdown.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/rebalance"
	md "github.com/nao1215/markdown"
)

// PlanMarkdown renders the purchases of plan as a table followed by its totals.
func PlanMarkdown(plan *rebalance.Plan) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Purchase Plan")
	doc.PlainText(fmt.Sprintf("Budget: %s", plan.TargetBuy))

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Fund", "Shares to Buy", "Buy Amt", "New Proportion", "Target"},
	}
	for _, x := range plan.Purchases {
		table.Rows = append(table.Rows, []string{
			x.Symbol,
			fmt.Sprintf("%d", x.Shares),
			x.Amount.String(),
			rebalance.Ratio(x.NewProportion).String(),
			rebalance.Ratio(x.TargetProportion).String(),
		})
	}
	doc.Table(table)

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Total purchase"), md.Bold(plan.TotalPurchase.String())},
		Rows: [][]string{
			{"Left over", plan.Leftover().String()},
			{"New portfolio total", plan.NewPortfolioTotal.String()},
		},
	})
	return doc.String()
}
