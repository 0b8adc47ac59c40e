// Package extract turns uploaded document bytes into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Kind is a supported upload format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindPPTX Kind = "pptx"
	KindTXT  Kind = "txt"
)

var (
	ErrUnsupportedKind = errors.New("unsupported file type")
	ErrMalformedFile   = errors.New("malformed document")
)

// maxPartBytes caps how much of a single archive member is decompressed.
const maxPartBytes = 64 << 20

// ParseKind maps a filename extension onto a Kind.
func ParseKind(filename string) (Kind, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(filename))), ".")
	switch Kind(ext) {
	case KindPDF, KindDOCX, KindPPTX, KindTXT:
		return Kind(ext), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, ext)
	}
}

// Extract returns the text content of data interpreted as kind.
// PDF input that cannot be read yields "" rather than an error; callers treat
// empty text as a failed extraction.
func Extract(data []byte, kind Kind) (string, error) {
	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text = PDFText(data)
	case KindDOCX:
		text, err = DOCXText(data)
	case KindPPTX:
		text, err = PPTXText(data)
	case KindTXT:
		text = PlainText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	if err != nil {
		return "", err
	}
	return sanitize(text), nil
}

// sanitize drops bytes that text columns cannot store.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.ToValidUTF8(text, "")
}

func openArchive(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return zr, nil
}

func readArchiveFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformedFile, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMalformedFile, f.Name, err)
	}
	return data, nil
}

func joinNonBlank(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
