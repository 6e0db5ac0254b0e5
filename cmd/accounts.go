package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/dough"
	"github.com/etnz/dough/renderer"
	"github.com/google/subcommands"
)

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "display the chart of accounts" }
func (*accountsCmd) Usage() string {
	return `dough accounts

  Displays the chart of accounts of the journal, with the effective polarity
  of each account.
`
}

func (*accountsCmd) SetFlags(f *flag.FlagSet) {}

func (*accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := OpenApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	chart, err := dough.NewChart(app.Journal.ChartOfAccounts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.AccountsMarkdown(chart))
	return subcommands.ExitSuccess
}
