// Package terminal inspects the console lannet runs in.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Prompt returns the prompt to show before reading a line from stdin, or
// the empty string when stdin is not a terminal.
func Prompt(stdin *os.File) string {
	if !IsInteractive(stdin) {
		return ""
	}
	return "> "
}
