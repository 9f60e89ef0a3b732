// Package common provides the CSV export shared by the commands.
package common

import (
	"encoding/csv"
	"fmt"
	"io"

	"fjacquet/finances/internal/fileutils"
	"fjacquet/finances/internal/logging"
	"fjacquet/finances/internal/models"

	"github.com/gocarina/gocsv"
)

// ExportRow is one transaction as written by exports. Its columns match the
// import layout, so an export can be imported again.
type ExportRow struct {
	Title    string `csv:"title"`
	Type     string `csv:"type"`
	Value    string `csv:"value"`
	Category string `csv:"category"`
}

// ToExportRows converts transactions, formatting values with two decimals.
func ToExportRows(transactions []models.Transaction) []ExportRow {
	rows := make([]ExportRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, ExportRow{
			Title:    tx.Title,
			Type:     tx.Type.String(),
			Value:    tx.Value.StringFixed(2),
			Category: tx.CategoryTitle(),
		})
	}
	return rows
}

// WriteTransactionsCSV writes transactions to w with a header row.
func WriteTransactionsCSV(w io.Writer, transactions []models.Transaction, delimiter rune) error {
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	rows := ToExportRows(transactions)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// ExportTransactionsToCSV writes transactions to the file at path.
func ExportTransactionsToCSV(path string, transactions []models.Transaction, delimiter rune, logger logging.Logger) (err error) {
	if logger == nil {
		logger = logging.Nop()
	}

	file, err := fileutils.CreateFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing CSV file: %w", cerr)
		}
	}()

	if err := WriteTransactionsCSV(file, transactions, delimiter); err != nil {
		logger.WithError(err).Error("Failed to export transactions")
		return err
	}

	logger.WithFields(
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(transactions)),
	).Info("Exported transactions to CSV file")
	return nil
}

// ReadCSVFile reads a delimited file into a slice of structs using gocsv.
// TCSVRow is the struct type that maps to the CSV columns.
func ReadCSVFile[TCSVRow any](path string, delimiter rune) ([]TCSVRow, error) {
	file, err := fileutils.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}
	return rows, nil
}

// VerifyExportFile reads an exported file back and checks that it holds
// exactly the rows of transactions, in order.
func VerifyExportFile(path string, transactions []models.Transaction, delimiter rune) error {
	rows, err := ReadCSVFile[ExportRow](path, delimiter)
	if err != nil {
		return err
	}
	want := ToExportRows(transactions)
	if len(rows) != len(want) {
		return fmt.Errorf("export %s has %d rows, expected %d", path, len(rows), len(want))
	}
	for i := range want {
		if rows[i] != want[i] {
			return fmt.Errorf("export %s row %d is %+v, expected %+v", path, i+1, rows[i], want[i])
		}
	}
	return nil
}
