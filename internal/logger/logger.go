// Package logger traces indexing runs and the stages of each turn.
// Nothing is written unless --verbose enabled it.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level tags a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// state is guarded by a plain mutex so lines from concurrent indexing
// workers never interleave on the writer.
var state = struct {
	sync.Mutex
	verbose bool
	out     io.Writer
}{out: os.Stderr}

// SetVerbose turns logging on or off.
func SetVerbose(v bool) {
	state.Lock()
	defer state.Unlock()
	state.verbose = v
}

// IsVerbose reports whether logging is on.
func IsVerbose() bool {
	state.Lock()
	defer state.Unlock()
	return state.verbose
}

// SetOutput redirects log lines, os.Stderr by default.
func SetOutput(w io.Writer) {
	state.Lock()
	defer state.Unlock()
	state.out = w
}

func write(line string) {
	state.Lock()
	defer state.Unlock()
	if state.verbose {
		_, _ = io.WriteString(state.out, line)
	}
}

// Log writes one line at the given level.
func Log(level Level, format string, args ...any) {
	write("[" + level.String() + "] " + fmt.Sprintf(format, args...) + "\n")
}

func Debug(format string, args ...any) { Log(LevelDebug, format, args...) }
func Info(format string, args ...any)  { Log(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { Log(LevelWarn, format, args...) }

// Section starts a block of related lines, e.g. one pipeline stage.
func Section(name string) {
	write("\n=== " + name + " ===\n")
}

// Timed logs the start of a named stage and returns a func that logs its duration.
//
//	defer logger.Timed("embed query")()
func Timed(name string) func() {
	start := time.Now()
	Debug("%s: started", name)
	return func() {
		Debug("%s: done in %s", name, time.Since(start).Round(time.Millisecond))
	}
}
