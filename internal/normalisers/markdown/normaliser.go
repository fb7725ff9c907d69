// Package markdown reduces Markdown documents to readable text, so chunk
// sizes are measured over what the model will read rather than markup.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/normalisers"
)

var _ driven.Normaliser = (*Normaliser)(nil)

var (
	blockPrefix = regexp.MustCompile(`^(\s*>\s*)?(#{1,6}\s+|\s*[-*+]\s+|\s*\d+\.\s+)?`)
	rule        = regexp.MustCompile(`^[-*_]{3,}$`)
	image       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	link        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	code        = regexp.MustCompile("`([^`]+)`")
	emphasis    = strings.NewReplacer("**", "", "__", "", "*", "")
	blankRun    = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles domain.FormatMarkdown.
type Normaliser struct{}

func New() *Normaliser { return &Normaliser{} }

func (n *Normaliser) Format() domain.DocumentFormat { return domain.FormatMarkdown }

// Normalise titles the document with its first H1, or the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	src := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	return normalisers.NewDocument(raw, extractMarkdownTitle(src, raw.Path), stripMarkdown(src)), nil
}

func extractMarkdownTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		if heading, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(heading)
		}
	}
	return normalisers.TitleFromPath(path)
}

// stripMarkdown drops fenced code, images and rules, and unwraps headings,
// quotes, list items, links and emphasis. A fenced block leaves one blank line.
func stripMarkdown(content string) string {
	var out []string
	fenced := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if fenced {
				out = append(out, "")
			}
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}
		if rule.MatchString(strings.TrimSpace(line)) {
			out = append(out, "")
			continue
		}
		out = append(out, inline(blockPrefix.ReplaceAllString(line, "")))
	}

	text := strings.Join(out, "\n")
	return strings.TrimSpace(blankRun.ReplaceAllString(text, "\n\n"))
}

func inline(line string) string {
	line = image.ReplaceAllString(line, "")
	line = link.ReplaceAllString(line, "$1")
	line = code.ReplaceAllString(line, "$1")
	return emphasis.Replace(line)
}
