package domain

import "time"

// RawDocument is a file as read from disk, keyed by its slash-separated path
// relative to the documents root.
type RawDocument struct {
	Path       string
	Format     DocumentFormat
	Content    []byte
	ModifiedAt time.Time
}

// ChangeType classifies a watcher event.
type ChangeType int

const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

var changeNames = [...]string{"created", "updated", "deleted"}

func (c ChangeType) String() string {
	if c < 0 || int(c) >= len(changeNames) {
		return "unknown"
	}
	return changeNames[c]
}

// FileChange is one debounced change under the documents root. A delete
// removes the file's entries; anything else re-indexes it.
type FileChange struct {
	Type ChangeType
	Path string
}
