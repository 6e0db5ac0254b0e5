package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/dough"
	md "github.com/nao1215/markdown"
)

// HistoryMarkdown renders the running balances of an account in currency,
// one row per entry that affected it.
func HistoryMarkdown(b *dough.Balances, a *dough.Account, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("History of %s in %s", b.Chart().Path(a), currency))

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Kind", "Memo", "Amount", "Actual", "Budget"},
		Rows:   [][]string{},
	}
	for _, e := range b.Entries(a.ID) {
		if e.LegOf().Currency != currency {
			continue
		}
		running := e.Running[currency]
		table.Rows = append(table.Rows, []string{
			e.Date().String(),
			string(e.Entry.Kind),
			e.Entry.Memo,
			Amount(b.Adjustment(e), currency),
			Amount(running.Actual, currency),
			Amount(running.Budget, currency),
		})
	}
	if len(table.Rows) == 0 {
		doc.PlainText("No entry.")
		return doc.String()
	}
	doc.Table(table)
	current := b.Current(a.ID, currency)
	doc.PlainText(fmt.Sprintf("Current balance: %s actual, %s budget.", Amount(current.Actual, currency), Amount(current.Budget, currency)))
	return doc.String()
}
