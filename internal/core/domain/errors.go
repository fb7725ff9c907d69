package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors, which adapters wrap with them.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a missing credential, path or invalid option.
	// It is fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnsupportedFormat indicates a file extension that cannot be indexed.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrIndexing indicates the indexing run was aborted.
	ErrIndexing = errors.New("indexing failed")

	// ErrRetrievalUnavailable indicates the vector store could not be searched.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrClassificationParse indicates router output did not match the expected format.
	ErrClassificationParse = errors.New("classification output could not be parsed")

	// ErrSynthesis indicates the answer could not be generated.
	ErrSynthesis = errors.New("synthesis failed")

	// ErrTimeout indicates an external call exceeded its deadline.
	ErrTimeout = errors.New("timed out")

	// ErrEmbeddingModelMismatch indicates the index was built with a different embedding model.
	ErrEmbeddingModelMismatch = errors.New("embedding model mismatch")

	// ErrRateLimited indicates the provider rejected the call for quota reasons.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store could not be opened.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)

// ModelMismatchError reports the two models involved in a mismatch.
// It matches ErrEmbeddingModelMismatch with errors.Is.
type ModelMismatchError struct {
	Indexed string
	Current string
}

func (e *ModelMismatchError) Error() string {
	return fmt.Sprintf("%s: index built with %q, current model is %q",
		ErrEmbeddingModelMismatch, e.Indexed, e.Current)
}

// Is implements errors.Is matching.
func (e *ModelMismatchError) Is(target error) bool {
	return target == ErrEmbeddingModelMismatch
}

// UserMessage maps a turn-level error to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "LLM quota exceeded. Please try again later or switch LLM provider."
	case errors.Is(err, ErrEmbeddingModelMismatch):
		return fmt.Sprintf("The document index was built with a different embedding model (%v). "+
			"Run 'taxadvisor index --rebuild' to re-index.", err)
	case errors.Is(err, ErrInvalidInput):
		return "Please enter a valid question."
	case errors.Is(err, ErrTimeout):
		return fmt.Sprintf("The request timed out: %v", err)
	default:
		return fmt.Sprintf("Error while processing query: %v", err)
	}
}
