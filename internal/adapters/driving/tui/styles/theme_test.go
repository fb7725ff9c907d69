package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

func TestLedgerPalette_EveryColourHasBothVariants(t *testing.T) {
	p := LedgerPalette()
	for name, c := range map[string]lipgloss.AdaptiveColor{
		"accent": p.Accent, "cite": p.Cite, "text": p.Text, "dim": p.Dim, "good": p.Good,
		"caution": p.Caution, "bad": p.Bad, "frame": p.Frame, "bar": p.Bar,
	} {
		assert.NotEmpty(t, c.Light, name)
		assert.NotEmpty(t, c.Dark, name)
	}
}

func TestLedgerPalette_StatusColoursDiffer(t *testing.T) {
	p := LedgerPalette()
	seen := map[string]bool{}
	for _, c := range []lipgloss.AdaptiveColor{p.Accent, p.Cite, p.Good, p.Caution, p.Bad} {
		assert.False(t, seen[c.Dark], "duplicate colour %s", c.Dark)
		seen[c.Dark] = true
	}
}

func TestNew_KeepsPalette(t *testing.T) {
	p := LedgerPalette()
	p.Accent = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	assert.Equal(t, p, New(p).Palette())
}

func TestStyles_ForTurn(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.Answer, s.ForTurn(domain.TurnReturned))
	assert.Equal(t, s.Refusal, s.ForTurn(domain.TurnRejected))
	assert.Equal(t, s.Failure, s.ForTurn(domain.TurnFailed))
}

func TestStyles_RenderKeepsText(t *testing.T) {
	s := DefaultStyles()
	for _, style := range []lipgloss.Style{s.Title, s.Question, s.Answer, s.Refusal, s.Failure, s.Source, s.StatusBar} {
		assert.Contains(t, style.Render("VAT is 15%"), "VAT is 15%")
	}
}
