package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/dough"
)

// AccountsMarkdown renders the chart of accounts as a nested list.
func AccountsMarkdown(chart *dough.Chart) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chart of Accounts\n\n")
	chart.Walk(func(a *dough.Account, depth int) {
		fmt.Fprintf(&b, "%s- **%s** `%s` (%s)", strings.Repeat("  ", depth), a.DisplayName, a.ID, chart.Polarity(a))
		if a.Description != "" {
			fmt.Fprintf(&b, ": %s", a.Description)
		}
		fmt.Fprintf(&b, "\n")
	})
	return b.String()
}
