// Package ui provides terminal output helpers for the larder CLI.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Banner writes the startup message with the serving root and URL. Color is
// applied only when w is the interactive stdout.
func Banner(w io.Writer, root, url string) {
	line := fmt.Sprintf("Serving %s on %s", root, url)
	if w == os.Stdout && IsInteractive() {
		c := color.New(color.FgGreen)
		c.Fprintln(w, line)
		return
	}
	fmt.Fprintln(w, line)
}

// IsInteractive checks if the current session is interactive (i.e., running in
// a terminal).
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
