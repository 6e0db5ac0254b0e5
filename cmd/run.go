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

type runCmd struct {
	quiet bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "ingest new transactions and classifications, and report balances" }
func (*runCmd) Usage() string {
	return `dough run [-q]

  Loads new transactions from the downloaded feed and the scheduled source
  transactions, records the classifications approved in the review report,
  rewrites the review report, and prints the balances.

  Nothing is written if anything fails.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "q", false, "do not print the balances")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := OpenApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	res, err := app.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "%d new transactions, %d classified, %d to review (%d suggested) in %s\n",
		res.NewSources, res.Classified, res.Unclassified, res.Suggested, app.Path(dough.ReviewFile))
	if !c.quiet {
		printMarkdown(renderer.BalancesMarkdown(res.Balances, fmt.Sprintf("Balances of %s", app.Journal.Name)))
	}
	return subcommands.ExitSuccess
}
