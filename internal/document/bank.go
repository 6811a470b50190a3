package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"testdesk/internal/questiondoc"
)

// bankFile is the structured question bank shared by the YAML, JSON and TOML
// readers.
type bankFile struct {
	Questions []bankQuestion `yaml:"questions" json:"questions" toml:"questions"`
}

type bankQuestion struct {
	Text    string   `yaml:"text" json:"text" toml:"text"`
	Options []string `yaml:"options" json:"options" toml:"options"`
	Answer  string   `yaml:"answer" json:"answer" toml:"answer"`
}

func readYAMLBank(data []byte) ([]questiondoc.Unit, error) {
	var bank bankFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bank); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: yaml: %v", ErrMalformedDocument, err)
	}
	return bank.units(), nil
}

func readJSONBank(data []byte) ([]questiondoc.Unit, error) {
	var bank bankFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&bank); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrMalformedDocument, err)
	}
	return bank.units(), nil
}

func readTOMLBank(data []byte) ([]questiondoc.Unit, error) {
	var bank bankFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&bank); err != nil {
		return nil, fmt.Errorf("%w: toml: %v", ErrMalformedDocument, err)
	}
	return bank.units(), nil
}

func (b bankFile) units() []questiondoc.Unit {
	out := make([]questiondoc.Unit, 0, len(b.Questions))
	for i, q := range b.Questions {
		out = append(out, questiondoc.Unit{
			Line:    i + 1,
			Format:  questiondoc.FormatBank,
			Text:    q.Text,
			Options: q.Options,
			Answer:  q.Answer,
		})
	}
	return out
}
