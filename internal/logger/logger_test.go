package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture enables verbose output into a buffer and restores defaults afterwards.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{name: "debug", log: func() { Debug("test message %s", "arg") }, want: "[DEBUG] test message arg\n"},
		{name: "info", log: func() { Info("info message %d", 42) }, want: "[INFO] info message 42\n"},
		{name: "warn", log: func() { Warn("skipping %s", "notes.pdf") }, want: "[WARN] skipping notes.pdf\n"},
		{name: "section", log: func() { Section("Router") }, want: "\n=== Router ===\n"},
		{name: "percent in argument", log: func() { Info("%s", "15% rate") }, want: "[INFO] 15% rate\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestQuietWhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")
	Timed("hidden")()

	assert.Zero(t, buf.Len())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestConcurrentLinesDoNotInterleave(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debug("worker %d embedded batch", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.Regexp(t, `^\[DEBUG\] worker \d+ embedded batch$`, line)
	}
}

func TestTimed(t *testing.T) {
	buf := capture(t, true)

	done := Timed("router")
	done()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[DEBUG] router: started", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[DEBUG] router: done in "), lines[1])
}
