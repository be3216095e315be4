// Package util holds the small shared pieces: the levelled stderr
// logger, address helpers, and the stdin/stdout relay.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet LogLevel = iota // errors only
	LogNormal
	LogVerbose
	LogDebug
)

// Logger prints tagged, levelled lines. Output defaults to stderr so
// log text never mixes with relayed data on stdout.
type Logger struct {
	level      LogLevel
	output     io.Writer
	mu         sync.Mutex
	timestamps bool
}

// NewLogger maps a -v count onto a Logger (0 = quiet, 1 = normal,
// 2 = verbose, 3+ = debug with timestamps).
func NewLogger(verbosity int) *Logger {
	return &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3,
	}
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) { l.timestamps = on }

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) { l.output = w }

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Error always prints, tagged [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogQuiet, "ERR", format, args...)
}

// Info prints at normal verbosity and above, tagged [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogNormal, "INF", format, args...)
}

// Warn prints at normal verbosity and above, tagged [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogNormal, "WRN", format, args...)
}

// Verbose prints at -vv and above, tagged [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.logf(LogVerbose, "VRB", format, args...)
}

// Debug prints at -vvv, tagged [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogDebug, "DBG", format, args...)
}

// logf emits one line when the logger's level reaches min.
func (l *Logger) logf(min LogLevel, tag, format string, args ...interface{}) {
	if l.level < min {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timestamps {
		fmt.Fprintf(l.output, "%s ", time.Now().Format("15:04:05.000"))
	}
	fmt.Fprintf(l.output, "[%s] %s\n", tag, fmt.Sprintf(format, args...))
}
