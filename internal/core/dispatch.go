package core

// dispatch.go selects a parsing strategy from the file extension.
//
//	.csv, .txt   delimited text via ParseDelimited
//	.xlsx, .xls  first worksheet via excelize
//	.json        array of objects via gjson; the union of keys becomes the header
//
// Every strategy produces the same ParsedTable shape so the mapping session
// never needs to know where rows came from.

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

// DispatchOptions carries the per-schedule parsing settings.
type DispatchOptions struct {
	Delimiter   rune  // Cell separator for delimited text (default ',')
	HasHeader   bool  // First row holds column names (ignored for JSON)
	MaxFileSize int64 // Reject larger inputs; 0 disables the check
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dispatch parses data according to the extension of fileName.
func Dispatch(fileName string, data []byte, opts DispatchOptions) (*ParsedTable, error) {
	if opts.MaxFileSize > 0 && int64(len(data)) > opts.MaxFileSize {
		return nil, &FormatError{
			FileName: fileName,
			Reason:   fmt.Sprintf("file too large: %d bytes exceeds limit of %d", len(data), opts.MaxFileSize),
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &FormatError{FileName: fileName, Reason: "empty file"}
	}

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv", ".txt":
		return dispatchDelimited(fileName, data, opts)
	case ".xlsx", ".xls":
		return dispatchSpreadsheet(fileName, data, opts)
	case ".json":
		return DispatchJSON(fileName, data)
	default:
		if ext == "" {
			ext = "(none)"
		}
		return nil, &FormatError{FileName: fileName, Reason: "unsupported file extension " + ext}
	}
}

func dispatchDelimited(fileName string, data []byte, opts DispatchOptions) (*ParsedTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &FormatError{FileName: fileName, Reason: "encoding error: file is not valid UTF-8"}
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	return newParsedTable(ParseDelimited(string(data), delim), opts.HasHeader), nil
}

func dispatchSpreadsheet(fileName string, data []byte, opts DispatchOptions) (*ParsedTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{FileName: fileName, Reason: "cannot open spreadsheet", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FormatError{FileName: fileName, Reason: "spreadsheet has no sheets"}
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &FormatError{FileName: fileName, Reason: "cannot read sheet " + sheets[0], Err: err}
	}

	grid := make([][]string, 0, len(raw))
	for _, r := range raw {
		row := make([]string, len(r))
		for i, c := range r {
			row[i] = strings.TrimSpace(c)
		}
		if !allEmpty(row) {
			grid = append(grid, row)
		}
	}
	return newParsedTable(grid, opts.HasHeader), nil
}

// DispatchJSON parses a JSON array of objects. Headers are the union of object
// keys in first-seen order; objects lacking a key get an empty cell.
func DispatchJSON(fileName string, data []byte) (*ParsedTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !gjson.ValidBytes(data) {
		return nil, &FormatError{FileName: fileName, Reason: "invalid json"}
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, &FormatError{FileName: fileName, Reason: "expected a JSON array of objects"}
	}

	var (
		headers []string
		index   = map[string]int{}
		records []map[string]string
		bad     = -1
	)

	n := 0
	doc.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			bad = n
			return false
		}
		rec := map[string]string{}
		value.ForEach(func(key, v gjson.Result) bool {
			k := strings.TrimSpace(key.String())
			if _, ok := index[k]; !ok {
				index[k] = len(headers)
				headers = append(headers, k)
			}
			rec[k] = jsonCell(v)
			return true
		})
		records = append(records, rec)
		n++
		return true
	})
	if bad >= 0 {
		return nil, &FormatError{FileName: fileName, Reason: "element " + strconv.Itoa(bad) + " is not an object"}
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(headers))
		for k, v := range rec {
			row[index[k]] = v
		}
		if !allEmpty(row) {
			rows = append(rows, row)
		}
	}

	return &ParsedTable{Headers: headers, Rows: rows}, nil
}

func jsonCell(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.True, gjson.False, gjson.Number:
		return v.Raw
	default:
		return strings.TrimSpace(v.Raw)
	}
}

// newParsedTable wraps a grid, taking the first row as the header when
// hasHeader is set and synthesizing "Column N" names otherwise.
func newParsedTable(grid [][]string, hasHeader bool) *ParsedTable {
	t := &ParsedTable{Rows: grid}
	if hasHeader && len(grid) > 0 {
		t.Headers = append([]string(nil), grid[0]...)
		t.HeaderRow = true
		return t
	}

	width := 0
	for _, r := range grid {
		if len(r) > width {
			width = len(r)
		}
	}
	t.Headers = make([]string, width)
	for i := range t.Headers {
		t.Headers[i] = "Column " + strconv.Itoa(i+1)
	}
	return t
}
