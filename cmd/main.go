// Package cmd implements the dough command line application.
package cmd

import (
	"context"
	"flag"

	"github.com/etnz/dough"
	"github.com/etnz/dough/logger"
	"github.com/google/subcommands"
)

// Commands lists the dough subcommands, in help order.
var Commands = []subcommands.Command{
	&runCmd{},
	&unclassifyCmd{},
	&balancesCmd{},
	&accountsCmd{},
	&checkCmd{},
	&topicCmd{},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, "")
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the configuration file. Defaults to $"+dough.ConfigFileEnv+", then dough.yaml.")
var journalName = flag.String("c", "", "Journal to work on. Defaults to the only journal if one is configured.")

// Verbose enables debug logs.
var Verbose = flag.Bool("v", false, "Verbose: log debug messages.")

// OpenApp loads the configuration and returns the app of the selected journal.
func OpenApp(ctx context.Context) (*dough.App, error) {
	cfg, err := dough.LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}
	return dough.NewApp(cfg, *journalName, logger.FromContext(ctx))
}
