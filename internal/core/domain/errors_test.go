package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelMismatchError(t *testing.T) {
	err := &ModelMismatchError{Indexed: "all-minilm", Current: "nomic-embed-text"}

	assert.ErrorIs(t, err, ErrEmbeddingModelMismatch)
	assert.Contains(t, err.Error(), `"all-minilm"`)
	assert.Contains(t, err.Error(), `"nomic-embed-text"`)

	wrapped := fmt.Errorf("retrieve: %w", err)
	assert.ErrorIs(t, wrapped, ErrEmbeddingModelMismatch)

	var target *ModelMismatchError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "all-minilm", target.Indexed)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{name: "nil", err: nil, contains: ""},
		{
			name:     "rate limited",
			err:      fmt.Errorf("%w: %w", ErrSynthesis, ErrRateLimited),
			contains: "quota exceeded",
		},
		{
			name:     "model mismatch",
			err:      &ModelMismatchError{Indexed: "a", Current: "b"},
			contains: "index --rebuild",
		},
		{
			name:     "invalid input",
			err:      fmt.Errorf("ask: %w", ErrInvalidInput),
			contains: "Please enter a valid question.",
		},
		{
			name:     "timeout",
			err:      fmt.Errorf("%w: %w", ErrSynthesis, ErrTimeout),
			contains: "timed out",
		},
		{
			name:     "generic",
			err:      fmt.Errorf("%w: boom", ErrSynthesis),
			contains: "Error while processing query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := UserMessage(tt.err)
			if tt.contains == "" {
				assert.Empty(t, msg)
				return
			}
			assert.Contains(t, msg, tt.contains)
		})
	}
}
