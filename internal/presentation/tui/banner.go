package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the startup banner for interactive sessions.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` _     _ _ _                          _   `, "#38bdf8"},
		{`| |__ (_) | |   __ _  __ _  ___ _ __ | |_ `, "#22d3ee"},
		{`| '_ \| | | |  / _` + "`" + ` |/ _` + "`" + ` |/ _ \ '_ \| __|`, "#2dd4bf"},
		{`| |_) | | | | | (_| | (_| |  __/ | | | |_ `, "#34d399"},
		{`|_.__/|_|_|_|  \__,_|\__, |\___|_| |_|\__|`, "#4ade80"},
		{`                     |___/                `, "#a3e635"},
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println(termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Printf("  travel reimbursement agent %s\n\n", strings.TrimSpace(version))
}
