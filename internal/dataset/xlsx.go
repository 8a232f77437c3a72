// =============================================================================
// Retail Schema Loader - XLSX Reader
// =============================================================================
//
// Reader for the original "Online Retail.xlsx" workbook. The first sheet is
// read in full (excelize materializes sheets anyway) and wrapped in the same
// Source interface as the CSV reader.
//
// Cell values arrive as display strings, so a date cell renders according to
// its number format rather than the CSV export's fixed text form; the
// sanitizer's fallback layouts absorb the difference.
//
// =============================================================================

package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource yields rows from the first sheet of an XLSX workbook.
type XLSXSource struct {
	rows    [][]string
	cols    columnMap
	current Row
	index   int
	yielded int
	maxRows int
}

// OpenXLSX opens an XLSX dataset file and reads its first sheet.
//
// PARAMETERS:
//   - path: The XLSX file path.
//   - maxRows: Cap on the number of data rows yielded. 0 means no cap.
//
// RETURNS:
//   - An XLSXSource positioned before the first data row.
//   - An error if the file cannot be opened or has no sheets.
func OpenXLSX(path string, maxRows int) (*XLSXSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	return &XLSXSource{
		rows:    rows,
		cols:    mapColumns(rows[0]),
		index:   0,
		maxRows: maxRows,
	}, nil
}

// Next advances to the next data row. Empty records are skipped.
func (s *XLSXSource) Next() bool {
	if s.maxRows > 0 && s.yielded >= s.maxRows {
		return false
	}

	for s.index+1 < len(s.rows) {
		s.index++
		record := s.rows[s.index]
		if isRecordEmpty(record) {
			continue
		}

		s.current = bindRow(record, s.cols, s.index+1)
		s.yielded++
		return true
	}
	return false
}

// Row returns the current row.
func (s *XLSXSource) Row() Row {
	return s.current
}

// Err always returns nil; the sheet is fully read at open time.
func (s *XLSXSource) Err() error {
	return nil
}

// Close is a no-op; the workbook handle is released by OpenXLSX.
func (s *XLSXSource) Close() error {
	return nil
}

// HasCustomerID reports whether the header carried a customer id column.
func (s *XLSXSource) HasCustomerID() bool {
	return s.cols.customerID >= 0
}
