package status

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())
	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())

	defaults := NewBar(nil, nil)
	assert.NotNil(t, defaults.styles)
	assert.NotNil(t, defaults.keymap)
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Bar)
		state State
		want  string
	}{
		{"ready", func(*Bar) {}, StateReady, "Ready"},
		{"thinking", func(b *Bar) { b.Thinking("*") }, StateThinking, "* Thinking..."},
		{"answered", func(b *Bar) { b.Answered(3) }, StateAnswered, "Answered from 3 passages"},
		{"answered one", func(b *Bar) { b.Answered(1) }, StateAnswered, "Answered from 1 passage"},
		{"refused", func(b *Bar) { b.Refused() }, StateRefused, "Out of scope"},
		{"failed", func(b *Bar) { b.Failed("store offline") }, StateError, "Error: store offline"},
		{"failed quietly", func(b *Bar) { b.Failed("") }, StateError, "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			tt.setup(bar)

			assert.Equal(t, tt.state, bar.State())
			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_ShowsKeyHints(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)

	assert.Contains(t, bar.View(), "ctrl+c: quit")
}

func TestBar_FitsOnOneLine(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)
	bar.Answered(12)

	view := bar.View()
	assert.NotContains(t, view, "\n")
	assert.Equal(t, 160, lipgloss.Width(view))
}

func TestBar_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(5)

	assert.NotEmpty(t, bar.View())
}

func TestBar_Reset(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)
	bar.Answered(4)
	bar.Failed("boom")

	bar.Reset()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.detail)
	assert.Zero(t, bar.passages)
	assert.Equal(t, 120, bar.width)
}
