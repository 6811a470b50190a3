package questiondoc

import (
	"fmt"
	"strings"
)

const optionCount = 4

// validate applies the acceptance gate: exactly four non-empty options and an
// answer equal to one of them. Comparison is case-sensitive on trimmed values.
func validate(u Unit, strict bool) (ParsedQuestion, error) {
	if u.Options == nil {
		return ParsedQuestion{}, ErrMissingOptions
	}

	opts := make([]string, 0, len(u.Options))
	for _, o := range u.Options {
		opts = append(opts, strings.TrimSpace(o))
	}
	if len(opts) != optionCount {
		return ParsedQuestion{}, fmt.Errorf("%w: got %d", ErrOptionCount, len(opts))
	}
	for i, o := range opts {
		if o == "" {
			return ParsedQuestion{}, fmt.Errorf("%w: option %d", ErrEmptyOption, i+1)
		}
	}

	answer := strings.TrimSpace(u.Answer)
	if answer == "" {
		return ParsedQuestion{}, ErrMissingAnswer
	}
	if u.Format.structured() {
		answer = resolveLetter(answer, opts)
	}
	if !contains(opts, answer) {
		return ParsedQuestion{}, fmt.Errorf("%w: %q", ErrAnswerNotInOptions, answer)
	}

	q := ParsedQuestion{
		Text:    strings.TrimSpace(u.Text),
		Options: opts,
		Answer:  answer,
	}
	if strict {
		if q.Text == "" {
			return ParsedQuestion{}, ErrMissingText
		}
		if !roundTrips(q) {
			return ParsedQuestion{}, ErrNotRoundTrip
		}
	}
	return q, nil
}

// resolveLetter maps a bare A-D answer to the option at that position unless
// the letter is itself one of the options.
func resolveLetter(answer string, opts []string) string {
	if len(answer) != 1 || contains(opts, answer) {
		return answer
	}
	c := answer[0]
	if c >= 'a' && c <= 'd' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'D' {
		return answer
	}
	return opts[c-'A']
}

func contains(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}

// roundTrips reports whether the serialized line parses back to q.
func roundTrips(q ParsedQuestion) bool {
	m := inlinePattern.FindStringSubmatch(Line(q))
	if m == nil {
		return false
	}
	if strings.TrimSpace(m[1]) != q.Text || strings.TrimSpace(m[3]) != q.Answer {
		return false
	}
	opts := splitComma(m[2])
	if len(opts) != len(q.Options) {
		return false
	}
	for i := range opts {
		if opts[i] != q.Options[i] {
			return false
		}
	}
	return true
}
