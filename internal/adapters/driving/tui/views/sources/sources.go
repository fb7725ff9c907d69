// Package sources provides the indexed sources view for the TUI.
package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
)

// ErrIndexUnavailable is shown when no index service was wired.
var ErrIndexUnavailable = errors.New("index service not available")

// View lists the documents held by the vector store.
type View struct {
	styles       *styles.Styles
	indexService driving.IndexService
	ctx          context.Context

	status   *domain.IndexStatus
	paths    []string
	selected int
	width    int
	height   int
	err      error
	loading  bool
}

// NewView creates a new sources view.
func NewView(s *styles.Styles, indexService driving.IndexService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:       s,
		indexService: indexService,
		ctx:          context.Background(),
		width:        80,
		height:       24,
	}
}

// WithContext sets the context used to query the store.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the store summary.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadStatus()
}

func (v *View) loadStatus() tea.Cmd {
	index := v.indexService
	ctx := v.ctx
	return func() tea.Msg {
		if index == nil {
			return messages.StatusLoaded{Err: ErrIndexUnavailable}
		}
		status, err := index.Status(ctx)
		return messages.StatusLoaded{Status: status, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.StatusLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.setStatus(msg.Status)
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "pgup":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "pgdown":
		if v.selected < len(v.paths)-1 {
			v.selected++
		}
	case "ctrl+r":
		v.loading = true
		return v, v.loadStatus()
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
	}
	return v, nil
}

func (v *View) setStatus(status *domain.IndexStatus) {
	v.status = status
	v.paths = v.paths[:0]
	if status != nil {
		for path := range status.Sources {
			v.paths = append(v.paths, path)
		}
	}
	sort.Strings(v.paths)
	if v.selected >= len(v.paths) {
		v.selected = 0
	}
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Indexed Sources"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading index status..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.status == nil || v.status.Metadata == nil:
		b.WriteString(v.styles.Muted.Render("The index is empty. Run 'taxadvisor index' first."))
	default:
		b.WriteString(v.renderSummary())
		b.WriteString("\n\n")
		b.WriteString(v.renderSources())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] move  [ctrl+r] reload  [esc] back  [ctrl+c] quit"))
	return b.String()
}

func (v *View) renderSummary() string {
	meta := v.status.Metadata
	lines := []string{
		v.styles.Muted.Render("Backend:  ") + v.styles.Normal.Render(v.status.Backend),
		v.styles.Muted.Render("Model:    ") +
			v.styles.Normal.Render(fmt.Sprintf("%s (%d dimensions)", meta.EmbeddingModel, meta.Dimensions)),
		v.styles.Muted.Render("Contents: ") +
			v.styles.Normal.Render(fmt.Sprintf("%d sources, %d chunks", len(v.paths), v.status.TotalChunks())),
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderSources() string {
	visible := v.height - 12
	if visible < 1 {
		visible = 1
	}
	start := 0
	if v.selected >= visible {
		start = v.selected - visible + 1
	}
	end := start + visible
	if end > len(v.paths) {
		end = len(v.paths)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		path := v.paths[i]
		line := fmt.Sprintf("%5d  %s", v.status.Sources[path].Chunks, path)
		if i == v.selected {
			lines = append(lines, v.styles.Subtitle.Render("> "+line))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Paths returns the indexed source paths in display order.
func (v *View) Paths() []string {
	return v.paths
}

// SelectedIndex returns the currently selected source index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
