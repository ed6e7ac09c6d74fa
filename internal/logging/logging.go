// Package logging builds the slog loggers used by the binaries.
package logging

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// New returns a slog logger that writes through charmbracelet/log, with
// timestamps formatted as "HH:MM:SS.ms". slog and charm levels share their
// numeric values, so level converts directly.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           charmlog.Level(level),
	})
	return slog.New(handler)
}
