package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Error kinds surfaced by the pipeline. Callers match them with errors.Is.
var (
	// ErrUnsupportedFormat indicates a file type with no registered decoder.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDimensionMismatch indicates stored and query embeddings differ in
	// length. This is a configuration error and is never recovered from.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrProvider indicates the embedding or summarization backend failed.
	// Requests failing with it may be retried.
	ErrProvider = errors.New("provider failure")

	// ErrSegmentation indicates the segmenter rejected the input text.
	ErrSegmentation = errors.New("segmentation failed")

	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// FileKind names a supported document format.
type FileKind string

const (
	KindText FileKind = "txt"
	KindPDF  FileKind = "pdf"
	KindDOCX FileKind = "docx"
)

// KindFromFilename derives the file kind from a file name's extension.
func KindFromFilename(name string) (FileKind, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch FileKind(ext) {
	case KindText, KindPDF, KindDOCX:
		return FileKind(ext), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// OpError records the operation and document an error happened in.
type OpError struct {
	Op         string
	DocumentID string
	File       string
	Err        error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.DocumentID != "" {
		b.WriteString(" document=")
		b.WriteString(e.DocumentID)
	}
	if e.File != "" {
		b.WriteString(" file=")
		b.WriteString(e.File)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *OpError) Unwrap() error { return e.Err }

// ProviderError wraps a failure of an external embedding or summarization
// backend.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrProvider, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error { return []error{ErrProvider, e.Err} }

// Retryable reports whether the failed request may be retried.
func (e *ProviderError) Retryable() bool { return true }

// NewProviderError wraps err as a ProviderError unless it already is one.
func NewProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}
