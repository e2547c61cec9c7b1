// Package extract decodes uploaded files into plain text. Decoders never
// fail on bad content: an unreadable file yields an empty string.
package extract

import (
	"fmt"

	"docassist/internal/domain"
)

// Registry resolves decoders by file kind.
type Registry struct {
	extractors map[domain.FileKind]domain.Extractor
}

// NewRegistry returns a registry with the given extractors.
func NewRegistry(extractors ...domain.Extractor) *Registry {
	r := &Registry{extractors: make(map[domain.FileKind]domain.Extractor, len(extractors))}
	for _, e := range extractors {
		r.extractors[e.Kind()] = e
	}
	return r
}

// Default returns a registry for plain text, PDF and DOCX.
func Default() *Registry {
	return NewRegistry(Text{}, PDF{}, DOCX{})
}

// Supports reports whether a decoder exists for the file name.
func (r *Registry) Supports(filename string) error {
	_, err := r.lookup(filename)
	return err
}

// Extract decodes content according to the file name's extension.
func (r *Registry) Extract(filename string, content []byte) (string, error) {
	e, err := r.lookup(filename)
	if err != nil {
		return "", err
	}
	return e.Extract(content)
}

func (r *Registry) lookup(filename string) (domain.Extractor, error) {
	kind, err := domain.KindFromFilename(filename)
	if err != nil {
		return nil, err
	}
	e, ok := r.extractors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filename)
	}
	return e, nil
}
