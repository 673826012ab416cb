// Package diag provides the engine's leveled operational logger. It writes
// to stderr (never stdout, which the MCP stdio transport owns exclusively)
// and emits one line per phase transition in the teacher's terse style
// rather than structured JSON logging.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger wraps a *log.Logger with a quiet flag so components can log
// unconditionally and let the CLI's --quiet flag decide whether anything
// reaches the terminal.
type Logger struct {
	mu    sync.Mutex
	inner *log.Logger
	quiet bool
}

// New builds a Logger writing to w with the given quiet setting.
func New(w io.Writer, quiet bool) *Logger {
	return &Logger{inner: log.New(w, "", log.LstdFlags), quiet: quiet}
}

// Default returns a Logger writing to stderr, not quiet.
func Default() *Logger {
	return New(os.Stderr, false)
}

// Quiet returns a Logger writing to stderr with output suppressed.
func Quiet() *Logger {
	return New(os.Stderr, true)
}

// Printf logs a formatted line unless the logger is quiet.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.quiet {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.Printf(format, args...)
}

// Phase logs a one-line phase transition, e.g. "scan: discovered 412 files in 38ms".
func (l *Logger) Phase(phase, format string, args ...any) {
	l.Printf("%s: %s", phase, fmt.Sprintf(format, args...))
}

// SetQuiet toggles quiet mode at runtime (used by the CLI's --quiet flag).
func (l *Logger) SetQuiet(quiet bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quiet = quiet
}
