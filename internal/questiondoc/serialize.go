package questiondoc

import "strings"

// Line renders one question in the inline wire form text(o1,o2,o3,o4)[answer].
func Line(q ParsedQuestion) string {
	var sb strings.Builder
	sb.WriteString(q.Text)
	sb.WriteByte('(')
	sb.WriteString(strings.Join(q.Options, ","))
	sb.WriteString(")[")
	sb.WriteString(q.Answer)
	sb.WriteByte(']')
	return sb.String()
}

// Serialize joins questions with "\n", without a trailing newline.
func Serialize(qs []ParsedQuestion) string {
	lines := make([]string, 0, len(qs))
	for _, q := range qs {
		lines = append(lines, Line(q))
	}
	return strings.Join(lines, "\n")
}
