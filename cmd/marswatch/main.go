// marswatch shows a live Mars clock table for a site catalog in the
// terminal, updating once per second.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mars/marsclock/internal/display"
	"github.com/mars/marsclock/internal/site"
)

func main() {
	sitesFile := flag.String("sites", "", "path to a YAML site catalog (default: built-in sites)")
	flag.Parse()

	sites := site.Defaults()
	if *sitesFile != "" {
		loaded, err := site.Load(*sitesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "marswatch: %v\n", err)
			os.Exit(1)
		}
		sites = loaded
	}

	p := tea.NewProgram(display.NewModel(sites))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "marswatch: %v\n", err)
		os.Exit(1)
	}
}
