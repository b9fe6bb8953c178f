// ABOUTME: Structured, levelled logger construction.
// ABOUTME: Components take a *log.Logger; tests use Discard.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Levels accepted by ParseLevel.
var Levels = []string{"debug", "info", "warn", "error"}

// New returns a logger writing to w at the given level.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "fitlog",
	})
}

// ParseLevel maps a level name to a log.Level. Empty means info.
func ParseLevel(s string) (log.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return log.InfoLevel, nil
	}
	for _, known := range Levels {
		if s == known {
			return log.ParseLevel(s)
		}
	}
	return log.InfoLevel, fmt.Errorf("unknown log level %q (want one of %s)", s, strings.Join(Levels, ", "))
}

// Stderr returns a logger on stderr at the named level.
func Stderr(level string) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return New(os.Stderr, lvl), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
