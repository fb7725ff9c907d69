// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// PassageList displays retrieved passages in a navigable list.
type PassageList struct {
	passages []domain.Passage
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates a new passage list component.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &PassageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (p *PassageList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (p *PassageList) Update(msg tea.Msg) (*PassageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			p.MoveUp()
		case tea.KeyDown:
			p.MoveDown()
		default:
		}
	}
	return p, nil
}

// View renders the list.
func (p *PassageList) View() string {
	if len(p.passages) == 0 {
		return p.styles.Muted.Render("No passages")
	}

	lines := make([]string, 0, len(p.passages)*2+2)
	lines = append(lines, p.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(p.passages))), "")

	// Each passage takes two lines
	visibleCount := (p.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if p.selected >= visibleCount {
		start = p.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(p.passages) {
		end = len(p.passages)
	}

	for i := start; i < end; i++ {
		lines = append(lines, p.renderPassage(i, &p.passages[i]))
	}

	return strings.Join(lines, "\n")
}

func (p *PassageList) renderPassage(index int, passage *domain.Passage) string {
	indicator := "  "
	if index == p.selected {
		indicator = "> "
	}

	title := fmt.Sprintf("%s #%d", passage.Source, passage.ChunkIndex)
	maxTitleLen := p.width - 12
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	title = truncate(title, maxTitleLen)
	score := fmt.Sprintf("%.2f", passage.Score)

	var titleLine string
	if index == p.selected {
		titleLine = p.styles.Subtitle.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxTitleLen, title, score))
	} else {
		titleLine = p.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitleLen, title)) +
			p.styles.Muted.Render(score)
	}

	maxPreviewLen := p.width - 6
	if maxPreviewLen < 20 {
		maxPreviewLen = 20
	}
	preview := truncate(strings.Join(strings.Fields(passage.Text), " "), maxPreviewLen)

	return titleLine + "\n" + p.styles.Muted.Render("    "+preview)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetPassages replaces the list contents and resets the selection.
func (p *PassageList) SetPassages(passages []domain.Passage) {
	p.passages = passages
	p.selected = 0
}

// Passages returns the current passages.
func (p *PassageList) Passages() []domain.Passage {
	return p.passages
}

// Selected returns the index of the selected passage.
func (p *PassageList) Selected() int {
	return p.selected
}

// SelectedPassage returns the selected passage, or nil if the list is empty.
func (p *PassageList) SelectedPassage() *domain.Passage {
	if len(p.passages) == 0 || p.selected < 0 || p.selected >= len(p.passages) {
		return nil
	}
	return &p.passages[p.selected]
}

// MoveUp moves selection up.
func (p *PassageList) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down.
func (p *PassageList) MoveDown() {
	if p.selected < len(p.passages)-1 {
		p.selected++
	}
}

// SetDimensions sets the component dimensions.
func (p *PassageList) SetDimensions(width, height int) {
	p.width = width
	p.height = height
}

// Count returns the number of passages.
func (p *PassageList) Count() int {
	return len(p.passages)
}

// IsEmpty returns whether the list is empty.
func (p *PassageList) IsEmpty() bool {
	return len(p.passages) == 0
}
