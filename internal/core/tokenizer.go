package core

// tokenizer.go implements the delimited-text scanner.
//
// The scanner is a single left-to-right pass with one piece of state, inQuotes:
//
//	outside quotes: '"' opens quoting, the delimiter ends the cell,
//	                "\n", "\r\n" and "\r" end the row
//	inside quotes:  '""' emits a literal quote, a single '"' closes quoting,
//	                everything else (delimiter and newlines included) is literal
//
// Cells are trimmed after assembly and rows whose cells are all empty are
// dropped. End of input flushes the pending row.

import "strings"

// ParseDelimited splits text into rows of trimmed cells.
func ParseDelimited(text string, delim rune) [][]string {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	endCell := func() {
		row = append(row, strings.TrimSpace(cell.String()))
		cell.Reset()
	}
	endRow := func() {
		endCell()
		if !allEmpty(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if inQuotes {
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					cell.WriteRune('"')
					i++
				} else {
					inQuotes = false
				}
				continue
			}
			cell.WriteRune(c)
			continue
		}

		switch {
		case c == '"':
			inQuotes = true
		case c == delim:
			endCell()
		case c == '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRow()
		case c == '\n':
			endRow()
		default:
			cell.WriteRune(c)
		}
	}

	if cell.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}

// SerializeDelimited writes rows so that ParseDelimited reads them back
// unchanged. Cells containing the delimiter, quotes or line breaks are quoted.
func SerializeDelimited(rows [][]string, delim rune) string {
	var b strings.Builder
	for _, row := range rows {
		for j, c := range row {
			if j > 0 {
				b.WriteRune(delim)
			}
			if strings.ContainsRune(c, delim) || strings.ContainsAny(c, "\"\r\n") {
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(c, `"`, `""`))
				b.WriteByte('"')
			} else {
				b.WriteString(c)
			}
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

func allEmpty(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
