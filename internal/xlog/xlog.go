// Package xlog wires the process-wide zerolog logger every other package
// logs through.
package xlog

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global zerolog logger. When stderr is a terminal it uses
// zerolog's ConsoleWriter through go-colorable (the same TTY-detection +
// ANSI-safe-writer combination the isatty/colorable dependencies exist
// for); otherwise it writes newline-delimited JSON, which is what a
// shell's stderr should carry when piped or logged to a file.
func Init(debug bool) {
	var w io.Writer = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		w = zerolog.ConsoleWriter{Out: colorable.NewColorable(os.Stderr), TimeFormat: "15:04:05"}
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
}
