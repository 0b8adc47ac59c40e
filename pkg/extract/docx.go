package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DOCXText returns the body paragraphs of a Word document followed by the
// cells of its top-level tables, skipping blank entries, joined by blank lines.
func DOCXText(data []byte) (string, error) {
	zr, err := openArchive(data)
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		raw, err := readArchiveFile(f)
		if err != nil {
			return "", err
		}
		paragraphs, cells, err := parseWordDocument(raw)
		if err != nil {
			return "", err
		}
		return joinNonBlank(append(paragraphs, cells...), "\n\n"), nil
	}
	return "", fmt.Errorf("%w: word/document.xml missing", ErrMalformedFile)
}

// parseWordDocument walks document.xml once. Paragraphs nested in tables
// belong to cells, not to the body paragraph list; nested tables and text
// boxes are ignored.
func parseWordDocument(raw []byte) (paragraphs, cells []string, err error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var (
		tableDepth int
		paraDepth  int
		inText     bool
		para       strings.Builder
		inCell     bool
		cellParas  []string
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tc":
				if tableDepth == 1 {
					inCell = true
					cellParas = cellParas[:0]
				}
			case "p":
				paraDepth++
				if paraDepth == 1 {
					para.Reset()
				}
			case "t":
				inText = paraDepth == 1
			case "tab":
				if paraDepth == 1 {
					para.WriteString("\t")
				}
			case "br", "cr":
				if paraDepth == 1 {
					para.WriteString("\n")
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if paraDepth == 1 {
					switch {
					case tableDepth == 0:
						paragraphs = append(paragraphs, para.String())
					case tableDepth == 1 && inCell:
						cellParas = append(cellParas, para.String())
					}
				}
				paraDepth--
			case "tc":
				if tableDepth == 1 && inCell {
					cells = append(cells, strings.Join(cellParas, "\n"))
					inCell = false
				}
			case "tbl":
				tableDepth--
			}
		}
	}
	return paragraphs, cells, nil
}
