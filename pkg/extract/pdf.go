package extract

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"
)

// PDFText returns the plain text of every readable page joined by blank lines.
// Pages whose text cannot be decoded are skipped; an unreadable file yields "".
func PDFText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	reader, err := openPDF(data)
	if err != nil {
		slog.Warn("pdf open failed", "err", err)
		return ""
	}
	total := pageCount(reader)
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		text, ok := pageText(reader, i)
		if !ok {
			continue
		}
		pages = append(pages, text)
	}
	return joinNonBlank(pages, "\n\n")
}

func openPDF(data []byte) (reader *pdf.Reader, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageCount(reader *pdf.Reader) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return reader.NumPage()
}

func pageText(reader *pdf.Reader, i int) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("pdf page skipped", "page", i, "panic", r)
			text, ok = "", false
		}
	}()
	page := reader.Page(i)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		slog.Debug("pdf page skipped", "page", i, "err", err)
		return "", false
	}
	return text, true
}
