package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCaptions means the video has no caption track at all. It is
	// different from a track that exists but holds no text.
	ErrNoCaptions = errors.New("no captions available")

	ErrEmptyQuestion = errors.New("question is empty")
	// ErrTopKTooLarge means a request asked for more sources than the
	// pipeline retrieves.
	ErrTopKTooLarge = errors.New("top_k is too large")

	// ErrIndexMismatch means the store was built with a different embedding model.
	ErrIndexMismatch = errors.New("index was built with a different embedding model")
)

// ProviderError wraps a failed call to an external provider.
type ProviderError struct {
	Provider string // "embedding", "llm", "vectorstore", "captions"
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError returns nil when err is nil.
func NewProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}
