package extract

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"docassist/internal/domain"
)

// Text decodes plain text files. UTF-8 is assumed unless a UTF-16 byte
// order mark says otherwise; invalid sequences become U+FFFD.
type Text struct{}

func (Text) Kind() domain.FileKind { return domain.KindText }

func (Text) Extract(content []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, content)
	if err != nil {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return strings.ToValidUTF8(string(out), "�"), nil
}
