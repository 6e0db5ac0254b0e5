package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type unclassifyCmd struct{}

func (*unclassifyCmd) Name() string     { return "unclassify" }
func (*unclassifyCmd) Synopsis() string { return "revert the classification of transactions" }
func (*unclassifyCmd) Usage() string {
	return `dough unclassify <transactionId>...

  Appends reverts of the classification and of the journal entry of each
  source transaction. The transactions show up again in the next review
  report.
`
}

func (*unclassifyCmd) SetFlags(f *flag.FlagSet) {}

func (*unclassifyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing transaction id\n")
		return subcommands.ExitUsageError
	}
	app, err := OpenApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, id := range f.Args() {
		if err := app.Unclassify(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error unclassifying %q: %v\n", id, err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
