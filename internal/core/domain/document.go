package domain

import "time"

// DocumentFormat identifies how a document's text is marked up.
type DocumentFormat string

// Supported document formats.
const (
	// FormatPlainText is an unformatted .txt file.
	FormatPlainText DocumentFormat = "plain"

	// FormatMarkdown is a .md or .markdown file.
	FormatMarkdown DocumentFormat = "markdown"
)

// Document represents a tax document read from the documents directory.
// It is the canonical representation after normalisation.
type Document struct {
	// ID is the identifier of the document, derived from its path.
	ID string

	// Path is the source path relative to the documents root.
	// It is the ownership key for every chunk produced from this document.
	Path string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// Format is the markup the file was written in.
	Format DocumentFormat

	// ContentHash is the hex SHA-256 of the raw file bytes.
	ContentHash string

	// ModifiedAt is the file modification time.
	ModifiedAt time.Time
}

// Chunk represents a contiguous slice of a Document.
// Chunks outlive the in-memory Document once persisted.
type Chunk struct {
	// Key is the deterministic upsert key derived from (Source, Index).
	Key string

	// Source is the owning document's path.
	Source string

	// Index is the ordinal position within the document.
	Index int

	// Content is the text content of this chunk.
	Content string

	// Embedding is the vector representation for semantic search.
	Embedding []float32
}

// FileRef identifies a candidate file under the documents root.
type FileRef struct {
	// Path is relative to the documents root, using forward slashes.
	Path string

	// AbsPath is the absolute filesystem path.
	AbsPath string

	// Format is the detected format. Empty when the extension is unsupported.
	Format DocumentFormat
}

// Supported reports whether the file has a supported extension.
func (f FileRef) Supported() bool {
	return f.Format != ""
}
