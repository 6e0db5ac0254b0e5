package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/dough"
	"github.com/etnz/dough/date"
	"github.com/etnz/dough/renderer"
	"github.com/google/subcommands"
)

type balancesCmd struct {
	account  string
	currency string
	from, to string
	on       string
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "display balances, or the history of one account" }
func (*balancesCmd) Usage() string {
	return `dough balances [-a <account> [-cur <currency>]] [-on <date>] [-from <date> -to <date>]

  Displays the actual and budget balances of every account, at the end of
  day -on if given. With -a, displays the running balances of that account
  instead.

  -from and -to restrict the replayed journal entries to [from, to).
  Nothing is written.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "account name, optionally qualified with its ancestors")
	f.StringVar(&c.currency, "cur", dough.DefaultCurrency, "currency of the account history")
	f.StringVar(&c.on, "on", "", "display balances at the end of this date (YYYY-MM-DD)")
	f.StringVar(&c.from, "from", "", "replay journal entries from this date (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "replay journal entries before this date (YYYY-MM-DD)")
}

func (c *balancesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var replay *date.Window
	if c.from != "" || c.to != "" {
		w, err := date.ParseWindow(c.from, c.to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -from and -to: %v\n", err)
			return subcommands.ExitUsageError
		}
		replay = &w
	}
	var on date.Date
	if c.on != "" {
		d, err := date.Parse(c.on)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -on: %v\n", err)
			return subcommands.ExitUsageError
		}
		on = d
	}

	app, err := OpenApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	b, err := app.Balances(ctx, replay)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing balances: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.account == "" {
		title := fmt.Sprintf("Balances of %s", app.Journal.Name)
		if on.IsZero() {
			printMarkdown(renderer.BalancesMarkdown(b, title))
		} else {
			printMarkdown(renderer.BalancesOnMarkdown(b, fmt.Sprintf("%s on %s", title, on), on))
		}
		return subcommands.ExitSuccess
	}
	a, err := b.Chart().Find(c.account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	printMarkdown(renderer.HistoryMarkdown(b, a, c.currency))
	return subcommands.ExitSuccess
}
