// Package logging configures the process-wide leveled logger.
//
// Output is plain text on a single line per record, without timestamps:
//
//	level=INFO msg="Prerequisites met"
//	level=DEBUG msg="Renaming directory" from=modules/x/functions/a to=modules/x/functions/fn_a
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w. When debug is true individual
// renames and command lines are shown; otherwise only info and above.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(h)
}

// Setup builds a logger with New and installs it as the slog default.
// It is called once at process start; there is nothing to tear down.
func Setup(w io.Writer, debug bool) *slog.Logger {
	l := New(w, debug)
	slog.SetDefault(l)
	return l
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
