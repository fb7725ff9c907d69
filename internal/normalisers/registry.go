package normalisers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps document formats to their normalisers.
type Registry struct {
	normalisers map[domain.DocumentFormat]driven.Normaliser
}

// NewRegistry creates a registry with the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{
		normalisers: make(map[domain.DocumentFormat]driven.Normaliser),
	}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser, replacing any previous one for the same format.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.normalisers[normaliser.Format()] = normaliser
}

// Normalise transforms a raw document using the normaliser for its format.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	n, ok := r.normalisers[raw.Format]
	if !ok {
		return nil, fmt.Errorf("no normaliser for format %q: %w", raw.Format, domain.ErrUnsupportedFormat)
	}
	return n.Normalise(ctx, raw)
}

// Formats returns all registered formats in sorted order.
func (r *Registry) Formats() []domain.DocumentFormat {
	formats := make([]domain.DocumentFormat, 0, len(r.normalisers))
	for f := range r.normalisers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// NewDocument builds the Document shared by every normaliser: identity from
// the path, hash from the raw bytes.
func NewDocument(raw *domain.RawDocument, title, content string) *domain.Document {
	sum := sha256.Sum256(raw.Content)
	return &domain.Document{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(raw.Path)).String(),
		Path:        raw.Path,
		Title:       title,
		Content:     content,
		Format:      raw.Format,
		ContentHash: hex.EncodeToString(sum[:]),
		ModifiedAt:  raw.ModifiedAt,
	}
}

// TitleFromPath extracts a human-readable title from a file path.
func TitleFromPath(p string) string {
	filename := path.Base(p)

	// Remove extension for cleaner title
	if ext := path.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
