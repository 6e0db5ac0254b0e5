package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var htmlOutput = flag.Bool("html", false, "Print reports as HTML instead of terminal styled markdown.")

// printMarkdown prints a markdown report on stdout, styled for the terminal,
// or converted to HTML with -html.
func printMarkdown(md string) {
	if *htmlOutput {
		conv := goldmark.New(goldmark.WithExtensions(extension.GFM))
		if err := conv.Convert([]byte(md), os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error converting to HTML: %v\n", err)
			fmt.Print(md)
		}
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		// raw markdown is still readable
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
