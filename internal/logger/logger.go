// Package logger provides levelled logging for the harvester.
// Messages are printf-style and written through zerolog: a terminal gets
// human-readable console lines, anything else gets JSON lines.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu     sync.RWMutex
	level            = zerolog.InfoLevel
	format           = FormatAuto
	output io.Writer = os.Stderr
	log              = build()
)

// build creates the zerolog logger for the current settings (caller must hold lock
// or be in package init).
func build() zerolog.Logger {
	var w io.Writer = output
	if useConsole() {
		w = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(output),
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func useConsole() bool {
	switch format {
	case FormatConsole:
		return true
	case FormatJSON:
		return false
	default:
		return isTerminal(output)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Configure sets level and format in one step, e.g. from the config file.
// Unknown levels fall back to info, unknown formats to auto.
func Configure(levelName, formatName string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelName)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
		if levelName != "" {
			err = fmt.Errorf("unknown log level %q", levelName)
		} else {
			err = nil
		}
	}

	mu.Lock()
	defer mu.Unlock()
	level = lvl
	switch formatName {
	case FormatConsole, FormatJSON:
		format = formatName
	default:
		format = FormatAuto
	}
	log = build()
	return err
}

// SetVerbose switches between debug and info level.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	if v {
		level = zerolog.DebugLevel
	} else {
		level = zerolog.InfoLevel
	}
	log = build()
}

// IsVerbose returns true if debug messages are written.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return level <= zerolog.DebugLevel
}

// SetOutput sets the output writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = build()
}

// SetFormat selects console, json or auto output.
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()
	format = f
	log = build()
}

// Logger returns the underlying zerolog logger for structured fields.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Trace logs at trace level.
func Trace(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Trace().Msgf(msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debug().Msgf(msg, args...)
}

// Section marks the start of a harvesting phase at debug level.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debug().Str("section", name).Msgf("=== %s ===", name)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Info().Msgf(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warn().Msgf(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Error().Msgf(msg, args...)
}
