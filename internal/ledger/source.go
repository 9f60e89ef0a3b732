package ledger

import (
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"strings"

	"fjacquet/finances/internal/ledgererror"
	"fjacquet/finances/internal/models"
)

// Row is one data row of an import source with every field trimmed. Missing
// trailing fields are empty; extra fields are ignored.
type Row struct {
	Line     int
	Title    string
	Type     string
	Value    string
	Category string
}

// Blank reports whether the row lacks a title, type or value and must be
// dropped silently.
func (r Row) Blank() bool {
	return r.Title == "" || r.Type == "" || r.Value == ""
}

// ReadRows returns a single-pass sequence over the data rows of a delimited
// source. The first record is the header and is always skipped. A malformed
// stream yields one SourceUnreadableError and ends the sequence.
func ReadRows(r io.Reader, delimiter rune) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		reader := csv.NewReader(r)
		reader.Comma = delimiter
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		reader.LazyQuotes = true
		reader.ReuseRecord = true

		header := true
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Row{}, &ledgererror.SourceUnreadableError{Err: err})
				return
			}
			if header {
				header = false
				continue
			}

			line, _ := reader.FieldPos(0)
			row := Row{
				Line:     line,
				Title:    field(record, models.ColumnTitle),
				Type:     field(record, models.ColumnType),
				Value:    field(record, models.ColumnValue),
				Category: field(record, models.ColumnCategory),
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
