package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// readDocx returns the text of word/document.xml with one line per paragraph.
func readDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx is not a zip archive", ErrMalformedDocument)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: open document.xml: %v", ErrMalformedDocument, err)
		}
		text, err := docxText(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: parse document.xml: %v", ErrMalformedDocument, err)
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: word/document.xml not found", ErrMalformedDocument)
}

// docxText walks the document tokens. Text is taken from every run,
// including runs nested in tables and hyperlinks. Paragraph ends and soft
// breaks become newlines; tabs inside runs are kept.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		inRun  int
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				inRun++
			case "t":
				inText = inRun > 0
			case "br", "cr":
				if inRun > 0 {
					sb.WriteByte('\n')
				}
			case "tab":
				// w:tabs/w:tab in paragraph properties are tab stops, not text
				if inRun > 0 {
					sb.WriteByte('\t')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				if inRun > 0 {
					inRun--
				}
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
