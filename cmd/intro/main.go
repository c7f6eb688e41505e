// cmd/intro/main.go
//
// Plays the landing page chat intro in the terminal, on the same timeline the
// page uses. Handy for checking timing changes without a browser.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/namahsea/sellmo-landing-page/internal/sequencer"
	"github.com/namahsea/sellmo-landing-page/internal/tui"
)

func main() {
	seq, err := sequencer.New(sequencer.DefaultBoard())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building intro: %v\n", err)
		os.Exit(1)
	}

	updates, unsubscribe := seq.Subscribe(8)
	defer unsubscribe()

	p := tea.NewProgram(
		tui.NewIntro(seq, updates, nil),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running intro: %v\n", err)
		os.Exit(1)
	}
}
