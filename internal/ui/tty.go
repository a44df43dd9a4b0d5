package ui

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminalFunc checks whether the given file descriptor is a terminal.
// It is a variable so tests can override it.
var IsTerminalFunc = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether stdin is connected to a terminal.
func IsInteractive() bool {
	return IsTerminalFunc(os.Stdin.Fd())
}

// ErrNotInteractive is returned when a confirmation prompt is attempted
// without a terminal attached to stdin. Unattended runs pass --yes instead.
var ErrNotInteractive = errors.New("confirmation requires a terminal; use --yes for unattended runs")
