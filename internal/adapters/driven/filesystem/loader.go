// Package filesystem reads tax documents from a local directory and watches it for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// maxFileSize bounds how much of a single file is read.
const maxFileSize = 10 << 20

// formatByExt maps supported extensions to document formats.
var formatByExt = map[string]domain.DocumentFormat{
	".txt":      domain.FormatPlainText,
	".text":     domain.FormatPlainText,
	".md":       domain.FormatMarkdown,
	".markdown": domain.FormatMarkdown,
}

// DetectFormat returns the format for a path, or "" if the extension is unsupported.
func DetectFormat(path string) domain.DocumentFormat {
	return formatByExt[strings.ToLower(filepath.Ext(path))]
}

// Loader enumerates documents on the local filesystem.
type Loader struct{}

// NewLoader creates a filesystem loader.
func NewLoader() *Loader {
	return &Loader{}
}

// List walks root and returns every visible regular file, sorted by relative path.
func (l *Loader) List(ctx context.Context, root string) ([]domain.FileRef, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve documents path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("documents path %s does not exist: %w", absRoot, domain.ErrConfiguration)
		}
		return nil, fmt.Errorf("stat documents path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents path %s is not a directory: %w", absRoot, domain.ErrConfiguration)
	}

	var refs []domain.FileRef
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// Unreadable directories are skipped, not fatal.
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return walkErr
		}
		if path != absRoot && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		refs = append(refs, domain.FileRef{
			Path:    filepath.ToSlash(rel),
			AbsPath: path,
			Format:  DetectFormat(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk documents path: %w", err)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

// Ref resolves a path relative to root.
func (l *Loader) Ref(_ context.Context, root, path string) (domain.FileRef, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("resolve documents path: %w", err)
	}

	rel := filepath.FromSlash(path)
	if filepath.IsAbs(rel) {
		if rel, err = filepath.Rel(absRoot, rel); err != nil {
			return domain.FileRef{}, fmt.Errorf("%s is outside %s: %w", path, absRoot, domain.ErrInvalidInput)
		}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return domain.FileRef{}, fmt.Errorf("%s is outside %s: %w", path, absRoot, domain.ErrInvalidInput)
	}

	abs := filepath.Join(absRoot, rel)
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.FileRef{}, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return domain.FileRef{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return domain.FileRef{}, fmt.Errorf("%s is not a regular file: %w", path, domain.ErrInvalidInput)
	}

	return domain.FileRef{
		Path:    filepath.ToSlash(rel),
		AbsPath: abs,
		Format:  DetectFormat(abs),
	}, nil
}

// Read returns the raw bytes of a file.
func (l *Loader) Read(_ context.Context, ref domain.FileRef) (*domain.RawDocument, error) {
	info, err := os.Stat(ref.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", ref.Path, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%s is %d bytes, larger than %d: %w", ref.Path, info.Size(), maxFileSize, domain.ErrInvalidInput)
	}

	content, err := os.ReadFile(ref.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref.Path, err)
	}

	return &domain.RawDocument{
		Path:       ref.Path,
		Format:     ref.Format,
		Content:    content,
		ModifiedAt: info.ModTime(),
	}, nil
}

// isHidden reports whether a file or directory name is hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
