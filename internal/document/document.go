// Package document reads uploaded question files into either plain text for
// the line grammar or pre-split question units for structured formats.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"testdesk/internal/questiondoc"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMalformedDocument = errors.New("malformed document")
)

type Kind string

const (
	KindText Kind = "text"
	KindDocx Kind = "docx"
	KindXLSX Kind = "xlsx"
	KindYAML Kind = "yaml"
	KindJSON Kind = "json"
	KindTOML Kind = "toml"
)

// Document is the decoded content of one upload. Text is set for text-like
// kinds, Units for spreadsheets and question banks.
type Document struct {
	Name  string             `json:"name"`
	Kind  Kind               `json:"kind"`
	Text  string             `json:"-"`
	Units []questiondoc.Unit `json:"-"`
}

func (d *Document) Structured() bool {
	return d.Kind == KindXLSX || d.Kind == KindYAML || d.Kind == KindJSON || d.Kind == KindTOML
}

// KindOf resolves the document kind from a file name.
func KindOf(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case "", ".txt", ".text", ".md":
		return KindText, nil
	case ".docx":
		return KindDocx, nil
	case ".xlsx":
		return KindXLSX, nil
	case ".yaml", ".yml":
		return KindYAML, nil
	case ".json":
		return KindJSON, nil
	case ".toml":
		return KindTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

func Read(name string, data []byte) (*Document, error) {
	kind, err := KindOf(name)
	if err != nil {
		return nil, err
	}

	doc := &Document{Name: filepath.Base(name), Kind: kind}
	switch kind {
	case KindText:
		doc.Text, err = decodeText(data)
	case KindDocx:
		doc.Text, err = readDocx(data)
	case KindXLSX:
		doc.Units, err = readSheet(data)
	case KindYAML:
		doc.Units, err = readYAMLBank(data)
	case KindJSON:
		doc.Units, err = readJSONBank(data)
	case KindTOML:
		doc.Units, err = readTOMLBank(data)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Open reads a document from disk.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Read(path, data)
}

// FromText wraps pasted text.
func FromText(text string) *Document {
	return &Document{Name: "pasted", Kind: KindText, Text: text}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrMalformedDocument)
	}
	return string(data), nil
}
