// Package plaintext handles .txt documents, which are indexed as written
// apart from a leading byte order mark and CRLF line endings.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/normalisers"
)

var _ driven.Normaliser = (*Normaliser)(nil)

const bom = "\ufeff"

var crlf = strings.NewReplacer("\r\n", "\n")

// Normaliser handles domain.FormatPlainText. Titles come from the file name.
type Normaliser struct{}

func New() *Normaliser { return &Normaliser{} }

func (n *Normaliser) Format() domain.DocumentFormat { return domain.FormatPlainText }

func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	text := crlf.Replace(strings.TrimPrefix(string(raw.Content), bom))
	return normalisers.NewDocument(raw, normalisers.TitleFromPath(raw.Path), text), nil
}
