package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"testdesk/internal/questiondoc"
)

var sheetOptionColumns = [][]string{
	{"option_a", "a"},
	{"option_b", "b"},
	{"option_c", "c"},
	{"option_d", "d"},
}

// readSheet reads the first sheet. Row 1 is a header naming the question,
// option and answer columns; each later non-empty row becomes one unit whose
// line is the sheet row number.
func readSheet(data []byte) ([]questiondoc.Unit, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open excel: %v", ErrMalformedDocument, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: excel has no sheets", ErrMalformedDocument)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrMalformedDocument, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: excel sheet is empty", ErrMalformedDocument)
	}

	header := map[string]int{}
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"question", "answer"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: missing required column: %s", ErrMalformedDocument, col)
		}
	}
	optionIdx := make([]int, 0, len(sheetOptionColumns))
	for _, names := range sheetOptionColumns {
		idx := -1
		for _, n := range names {
			if i, ok := header[n]; ok {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: missing required column: %s", ErrMalformedDocument, names[0])
		}
		optionIdx = append(optionIdx, idx)
	}

	units := make([]questiondoc.Unit, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		cell := func(idx int) string {
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if isBlankRow(row) {
			continue
		}

		opts := make([]string, 0, len(optionIdx))
		for _, idx := range optionIdx {
			opts = append(opts, cell(idx))
		}
		units = append(units, questiondoc.Unit{
			Line:    i + 1,
			Format:  questiondoc.FormatSheet,
			Text:    cell(header["question"]),
			Options: opts,
			Answer:  cell(header["answer"]),
		})
	}
	return units, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
