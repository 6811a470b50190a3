// Package questiondoc turns informally formatted question documents into the
// normalized one-question-per-line payload accepted by the test API.
package questiondoc

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrUnrecognized       = errors.New("line is neither an inline question nor a block start")
	ErrMissingText        = errors.New("question text is empty")
	ErrMissingOptions     = errors.New("options line not found")
	ErrMissingAnswer      = errors.New("answer not found")
	ErrOptionCount        = errors.New("question must have exactly 4 options")
	ErrEmptyOption        = errors.New("option is empty")
	ErrAnswerNotInOptions = errors.New("answer does not match any option")
	ErrNotRoundTrip       = errors.New("question cannot be serialized without changing meaning")
)

const (
	blockQuestionPrefix = "Question:"
	blockAnswerPrefix   = "Answer:"
)

var inlinePattern = regexp.MustCompile(`^(.*?)\s*\((.*?)\)\s*\[(.*?)\]$`)

type Format int

const (
	FormatUnrecognized Format = iota
	FormatInline
	FormatBlock
	// FormatSheet and FormatBank mark units built from spreadsheets and
	// structured question banks rather than from text lines.
	FormatSheet
	FormatBank
)

func (f Format) String() string {
	switch f {
	case FormatInline:
		return "inline"
	case FormatBlock:
		return "block"
	case FormatSheet:
		return "sheet"
	case FormatBank:
		return "bank"
	default:
		return "unrecognized"
	}
}

func (f Format) structured() bool {
	return f == FormatSheet || f == FormatBank
}

// DetectFormat classifies a single line of a text document.
func DetectFormat(line string) Format {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, blockQuestionPrefix):
		return FormatBlock
	case inlinePattern.MatchString(line):
		return FormatInline
	default:
		return FormatUnrecognized
	}
}

type ParsedQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// Unit is a candidate question that has not passed validation yet.
type Unit struct {
	Line    int
	Format  Format
	Text    string
	Options []string
	Answer  string
}

type Reason string

const (
	ReasonUnrecognized       Reason = "unrecognized"
	ReasonMissingText        Reason = "missing_text"
	ReasonMissingOptions     Reason = "missing_options"
	ReasonMissingAnswer      Reason = "missing_answer"
	ReasonOptionCount        Reason = "option_count"
	ReasonEmptyOption        Reason = "empty_option"
	ReasonAnswerNotInOptions Reason = "answer_not_in_options"
	ReasonNotRoundTrip       Reason = "not_round_trippable"
)

var reasonByErr = []struct {
	err    error
	reason Reason
}{
	{ErrUnrecognized, ReasonUnrecognized},
	{ErrMissingText, ReasonMissingText},
	{ErrMissingOptions, ReasonMissingOptions},
	{ErrMissingAnswer, ReasonMissingAnswer},
	{ErrOptionCount, ReasonOptionCount},
	{ErrEmptyOption, ReasonEmptyOption},
	{ErrAnswerNotInOptions, ReasonAnswerNotInOptions},
	{ErrNotRoundTrip, ReasonNotRoundTrip},
}

// ReasonOf maps a validation error to its skip reason code.
func ReasonOf(err error) Reason {
	for _, rb := range reasonByErr {
		if errors.Is(err, rb.err) {
			return rb.reason
		}
	}
	return ReasonUnrecognized
}

// Skip records a line or unit that was dropped and why.
type Skip struct {
	Line    int    `json:"line"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
	Raw     string `json:"raw,omitempty"`
}

func newSkip(line int, raw string, err error) Skip {
	return Skip{
		Line:    line,
		Reason:  ReasonOf(err),
		Message: err.Error(),
		Raw:     raw,
	}
}

type Result struct {
	Accepted []ParsedQuestion `json:"accepted"`
	Skipped  []Skip           `json:"skipped"`
}

// SkipCounts groups the skip list by reason.
func (r Result) SkipCounts() map[Reason]int {
	out := make(map[Reason]int, len(r.Skipped))
	for _, s := range r.Skipped {
		out[s.Reason]++
	}
	return out
}
