package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const (
	presentationNS = "http://schemas.openxmlformats.org/presentationml/2006/main"
	drawingNS      = "http://schemas.openxmlformats.org/drawingml/2006/main"
)

type slidePart struct {
	number int
	data   []byte
}

// PPTXText returns the text of every top-level shape on every slide, slides
// in numeric order, skipping blank shapes, joined by blank lines.
func PPTXText(data []byte) (string, error) {
	zr, err := openArchive(data)
	if err != nil {
		return "", err
	}
	var slides []slidePart
	for _, f := range zr.File {
		n, ok := slideNumber(f.Name)
		if !ok {
			continue
		}
		raw, err := readArchiveFile(f)
		if err != nil {
			return "", err
		}
		slides = append(slides, slidePart{number: n, data: raw})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var shapes []string
	for _, s := range slides {
		texts, err := parseSlide(s.data)
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.number, err)
		}
		shapes = append(shapes, texts...)
	}
	return joinNonBlank(shapes, "\n\n"), nil
}

func slideNumber(name string) (int, bool) {
	const prefix, suffix = "ppt/slides/slide", ".xml"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseSlide returns one entry per top-level p:sp shape: its a:p paragraphs
// joined by newlines. Shapes inside groups are ignored.
func parseSlide(raw []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var (
		shapes     []string
		groupDepth int
		inShape    bool
		inBody     bool
		inText     bool
		paras      []string
		para       strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == presentationNS && t.Name.Local == "grpSp":
				groupDepth++
			case t.Name.Space == presentationNS && t.Name.Local == "sp" && groupDepth == 0:
				inShape = true
				paras = paras[:0]
			case t.Name.Space == presentationNS && t.Name.Local == "txBody" && inShape:
				inBody = true
			case t.Name.Space == drawingNS && t.Name.Local == "p" && inBody:
				para.Reset()
			case t.Name.Space == drawingNS && t.Name.Local == "t" && inBody:
				inText = true
			case t.Name.Space == drawingNS && t.Name.Local == "br" && inBody:
				para.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Space == presentationNS && t.Name.Local == "grpSp":
				groupDepth--
			case t.Name.Space == drawingNS && t.Name.Local == "t":
				inText = false
			case t.Name.Space == drawingNS && t.Name.Local == "p" && inBody:
				paras = append(paras, para.String())
			case t.Name.Space == presentationNS && t.Name.Local == "txBody":
				inBody = false
			case t.Name.Space == presentationNS && t.Name.Local == "sp" && inShape:
				if len(paras) > 0 {
					shapes = append(shapes, strings.Join(paras, "\n"))
				}
				inShape = false
			}
		}
	}
	return shapes, nil
}
