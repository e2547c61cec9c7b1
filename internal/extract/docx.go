package extract

import (
	"bytes"

	"code.sajari.com/docconv/v2"

	"docassist/internal/domain"
)

// DOCX extracts the paragraph text of a Word document.
type DOCX struct{}

func (DOCX) Kind() domain.FileKind { return domain.KindDOCX }

func (DOCX) Extract(content []byte) (string, error) {
	body, _, err := docconv.ConvertDocx(bytes.NewReader(content))
	if err != nil {
		return "", nil
	}
	return body, nil
}
