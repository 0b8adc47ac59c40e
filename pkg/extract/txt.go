package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const utf8BOM = "\uFEFF"

// PlainText decodes data as UTF-8, falling back to Latin-1 when the bytes are
// not valid UTF-8. It never fails.
func PlainText(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), utf8BOM)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
