package questiondoc

import (
	"strings"
)

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}

// scan splits a text document into units. Lines that cannot start a unit and
// blocks missing their options or answer come back as skips.
func scan(raw string) ([]Unit, []Skip) {
	lines := splitLines(raw)
	units := make([]Unit, 0, len(lines))
	var skips []Skip

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		switch DetectFormat(line) {
		case FormatInline:
			m := inlinePattern.FindStringSubmatch(line)
			units = append(units, Unit{
				Line:    i + 1,
				Format:  FormatInline,
				Text:    strings.TrimSpace(m[1]),
				Options: splitComma(m[2]),
				Answer:  strings.TrimSpace(m[3]),
			})
		case FormatBlock:
			u, next, skip := scanBlock(lines, i)
			if skip != nil {
				skips = append(skips, *skip)
			} else {
				units = append(units, u)
			}
			i = next
		default:
			skips = append(skips, newSkip(i+1, line, ErrUnrecognized))
		}
	}
	return units, skips
}

// scanBlock reads a Question:/options/Answer: group starting at lines[start].
// It returns the index of the last line it consumed.
func scanBlock(lines []string, start int) (Unit, int, *Skip) {
	head := strings.TrimSpace(lines[start])
	u := Unit{
		Line:   start + 1,
		Format: FormatBlock,
		Text:   strings.TrimSpace(strings.TrimPrefix(head, blockQuestionPrefix)),
	}

	optIdx := nextNonBlank(lines, start+1)
	if optIdx < 0 {
		s := newSkip(u.Line, head, ErrMissingOptions)
		return u, start, &s
	}
	optLine := strings.TrimSpace(lines[optIdx])
	if strings.HasPrefix(optLine, blockQuestionPrefix) {
		s := newSkip(u.Line, head, ErrMissingOptions)
		return u, start, &s
	}
	if strings.HasPrefix(optLine, blockAnswerPrefix) {
		// the stray answer belongs to this broken block
		s := newSkip(u.Line, head, ErrMissingOptions)
		return u, optIdx, &s
	}
	u.Options = splitOptions(optLine)

	ansIdx := nextNonBlank(lines, optIdx+1)
	if ansIdx < 0 || !strings.HasPrefix(strings.TrimSpace(lines[ansIdx]), blockAnswerPrefix) {
		s := newSkip(u.Line, head, ErrMissingAnswer)
		return u, optIdx, &s
	}
	u.Answer = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[ansIdx]), blockAnswerPrefix))
	return u, ansIdx, nil
}

func nextNonBlank(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

// splitOptions tokenizes a block options line, which is either a comma list
// or a run of labelled options such as "A) foo B) bar C) baz D) qux". Text in
// front of the A label ("Options:") is dropped.
func splitOptions(s string) []string {
	s = strings.TrimSpace(s)
	if start := labelStart(s); start >= 0 {
		return splitLabelled(s[start:])
	}
	return splitComma(s)
}

// labelStart returns the index of the first A label that is followed by a B
// label, or -1 when the line is not labelled.
func labelStart(s string) int {
	for i := 0; i < len(s); i++ {
		if isLabel(s, i, 'A') && nextLabel(s, i+2, 'B') >= 0 {
			return i
		}
	}
	return -1
}

func nextLabel(s string, from int, letter byte) int {
	for i := from; i < len(s); i++ {
		if isLabel(s, i, letter) {
			return i
		}
	}
	return -1
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// splitLabelled walks labels in alphabetical order, so a stray "B." inside
// option A's text only counts once label A has been seen and only after a
// space, tab, comma or semicolon.
func splitLabelled(s string) []string {
	var starts []int
	want := byte('A')
	for i := 0; i < len(s); i++ {
		if isLabel(s, i, want) {
			starts = append(starts, i)
			want++
			i++
		}
	}

	out := make([]string, 0, len(starts))
	for n, st := range starts {
		end := len(s)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		opt := strings.TrimSpace(s[st+2 : end])
		opt = strings.TrimSpace(strings.TrimRight(opt, ",;"))
		out = append(out, opt)
	}
	return out
}

func isLabel(s string, i int, letter byte) bool {
	if i+1 >= len(s) || s[i] != letter {
		return false
	}
	if s[i+1] != ')' && s[i+1] != '.' {
		return false
	}
	if i == 0 {
		return true
	}
	switch s[i-1] {
	case ' ', '\t', ',', ';':
		return true
	}
	return false
}
