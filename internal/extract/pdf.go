package extract

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"

	"docassist/internal/domain"
)

// PDF extracts the text layer of a PDF. Scanned documents without one
// yield an empty string.
type PDF struct{}

func (PDF) Kind() domain.FileKind { return domain.KindPDF }

func (PDF) Extract(content []byte) (text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", nil
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", nil
	}
	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", nil
	}
	return buf.String(), nil
}
