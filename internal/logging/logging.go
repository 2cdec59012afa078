// Package logging builds this service's log/slog.Logger, auto-selecting a
// human-friendly text handler for an interactive terminal and a
// machine-parseable JSON handler otherwise, the same auto-selection the
// house logger performs.
package logging

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// New builds a *slog.Logger. format, if non-empty, forces "text" or "json";
// an empty format auto-selects based on whether stdout is a terminal.
func New(format string) *slog.Logger {
	if format == "" {
		if isatty.IsTerminal(os.Stdout.Fd()) {
			format = "text"
		} else {
			format = "json"
		}
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
