package renderer

import (
	"bytes"
	"strings"

	"github.com/etnz/dough"
	"github.com/etnz/dough/date"
	md "github.com/nao1215/markdown"
)

// BalancesMarkdown renders the current balances of every account that has
// one, in chart order, with children indented under their parent.
func BalancesMarkdown(b *dough.Balances, title string) string {
	return balancesMarkdown(b, title, b.Current)
}

// BalancesOnMarkdown renders the balances at the end of day on.
func BalancesOnMarkdown(b *dough.Balances, title string, on date.Date) string {
	return balancesMarkdown(b, title, func(accountID, currency string) dough.Balance {
		return b.AsOf(accountID, currency, on)
	})
}

func balancesMarkdown(b *dough.Balances, title string, balance func(accountID, currency string) dough.Balance) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Account", "Currency", "Actual", "Budget", "Remaining"},
		Rows:   [][]string{},
	}
	chart := b.Chart()
	chart.Walk(func(a *dough.Account, depth int) {
		for _, cur := range b.Currencies(a.ID) {
			bal := balance(a.ID, cur)
			table.Rows = append(table.Rows, []string{
				indent(depth) + a.DisplayName,
				cur,
				Amount(bal.Actual, cur),
				Amount(bal.Budget, cur),
				Amount(bal.Budget-bal.Actual, cur),
			})
		}
	})
	if len(table.Rows) == 0 {
		doc.PlainText("No balance.")
		return doc.String()
	}
	doc.Table(table)
	return doc.String()
}

// indent prefixes nested account names; markdown tables trim plain spaces.
func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
