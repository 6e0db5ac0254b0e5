package cmd

import (
	"flag"
	"strings"
	"testing"
)

func TestCommands(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Commands {
		t.Run(c.Name(), func(t *testing.T) {
			if seen[c.Name()] {
				t.Errorf("command %q is declared twice", c.Name())
			}
			seen[c.Name()] = true
			if want := "dough " + c.Name(); !strings.HasPrefix(c.Usage(), want) {
				t.Errorf("Usage() = %q, want prefix %q", c.Usage(), want)
			}
			if c.Synopsis() == "" {
				t.Error("Synopsis() is empty")
			}
			// flags must not collide with the global ones
			f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(f)
			f.VisitAll(func(fl *flag.Flag) {
				if flag.Lookup(fl.Name) != nil {
					t.Errorf("flag -%s shadows a global flag", fl.Name)
				}
			})
		})
	}
}
