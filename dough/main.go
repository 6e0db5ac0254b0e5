// Command dough keeps a personal double-entry ledger.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/etnz/dough/cmd"
	"github.com/etnz/dough/docs"
	"github.com/etnz/dough/logger"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	name := path.Base(os.Args[0])
	completion(name).Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logger.WithContext(ctx, logger.New(*cmd.Verbose))
	os.Exit(int(commander.Execute(ctx)))
}

// completion describes the command line for shell completion.
func completion(name string) *complete.Command {
	global := map[string]complete.Predictor{
		"config": predict.Files("*.yaml"),
		"c":      predict.Something,
		"v":      predict.Nothing,
		"html":   predict.Nothing,
	}
	sub := make(map[string]*complete.Command)
	for _, c := range cmd.Commands {
		flags := make(map[string]complete.Predictor)
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		fs.VisitAll(func(f *flag.Flag) { flags[f.Name] = predict.Something })
		sub[c.Name()] = &complete.Command{Flags: flags}
	}
	if topics, err := docs.GetAllTopics(); err == nil {
		sub["topic"].Args = predict.Set(topics)
	}
	return &complete.Command{Sub: sub, Flags: global}
}
