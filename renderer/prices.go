package renderer

import (
	"bytes"

	"github.com/etnz/rebalance"
	md "github.com/nao1215/markdown"
)

// PricesMarkdown renders refreshed prices, with their change when a
// previous price was known.
func PricesMarkdown(updates []rebalance.PriceUpdate, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Prices")
	if len(updates) == 0 {
		doc.PlainText("No fund to price.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Fund", "Previous", "Latest", "Change"},
	}
	for _, u := range updates {
		previous, change := "-", "-"
		if u.Old > 0 {
			previous = rebalance.M(u.Old, currency).String()
			change = rebalance.Ratio(u.New/u.Old - 1).SignedString()
		}
		table.Rows = append(table.Rows, []string{
			u.Symbol,
			previous,
			rebalance.M(u.New, currency).String(),
			change,
		})
	}
	doc.Table(table)
	return doc.String()
}
