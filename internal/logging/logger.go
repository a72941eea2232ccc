// =============================================================================
// Telemetry XLSX Converter - Logging
// =============================================================================
//
// This package builds the slog logger used by every command. Records go to
// the writer the caller passes in (stderr for the CLI).
//
// OUTPUT FORMATS:
//   - text : human-readable key=value lines
//   - json : one JSON object per line
//   - auto : text on a terminal, JSON otherwise
//
// =============================================================================

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/ginjaninja78/telemetry-xlsx/internal/config"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatAuto = "auto"
)

// New creates a logger writing to w with the configured level and format.
// The "auto" format picks text when w is a terminal and JSON otherwise.
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	if resolveFormat(cfg.Format, w) == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func resolveFormat(format string, w io.Writer) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return FormatJSON
	case FormatAuto:
		if IsTerminal(w) {
			return FormatText
		}
		return FormatJSON
	default:
		return FormatText
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
