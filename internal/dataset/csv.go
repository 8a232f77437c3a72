// =============================================================================
// Retail Schema Loader - CSV Reader
// =============================================================================
//
// Streaming CSV reader for the dataset. The full CSV export runs to half a
// million lines, so rows are yielded one at a time instead of materializing
// the whole file. The reader is configured permissively:
//   - variable field counts per record (truncated exports exist in the wild)
//   - lazy quotes (descriptions contain stray double quotes)
//   - leading whitespace trimmed
//
// =============================================================================

package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVSource streams rows from a CSV dataset file.
type CSVSource struct {
	file    *os.File
	reader  *csv.Reader
	cols    columnMap
	current Row
	line    int
	yielded int
	maxRows int
	err     error
}

// OpenCSV opens a CSV dataset file and reads its header row.
//
// PARAMETERS:
//   - path: The CSV file path.
//   - maxRows: Cap on the number of data rows yielded. 0 means no cap.
//
// RETURNS:
//   - A CSVSource positioned before the first data row.
//   - An error if the file cannot be opened or the header cannot be read.
func OpenCSV(path string, maxRows int) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		file.Close()
		return nil, fmt.Errorf("dataset file is empty")
	}
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	return &CSVSource{
		file:    file,
		reader:  reader,
		cols:    mapColumns(header),
		line:    1,
		maxRows: maxRows,
	}, nil
}

// Next advances to the next data row. Empty records are skipped.
func (s *CSVSource) Next() bool {
	if s.err != nil {
		return false
	}
	if s.maxRows > 0 && s.yielded >= s.maxRows {
		return false
	}

	for {
		record, err := s.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			s.err = fmt.Errorf("error reading record %d: %w", s.line+1, err)
			return false
		}

		s.line++
		if isRecordEmpty(record) {
			continue
		}

		s.current = bindRow(record, s.cols, s.line)
		s.yielded++
		return true
	}
}

// Row returns the current row.
func (s *CSVSource) Row() Row {
	return s.current
}

// Err returns the first read error, if any.
func (s *CSVSource) Err() error {
	return s.err
}

// Close closes the underlying file.
func (s *CSVSource) Close() error {
	return s.file.Close()
}

// HasCustomerID reports whether the header carried a customer id column.
func (s *CSVSource) HasCustomerID() bool {
	return s.cols.customerID >= 0
}
