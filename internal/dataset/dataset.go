// =============================================================================
// Retail Schema Loader - Dataset Access
// =============================================================================
//
// This package reads the "Online Retail" dataset from disk and yields its
// rows as raw string records. Both distribution formats are supported:
//   - CSV export (streamed, suitable for the full multi-hundred-MB file)
//   - The original XLSX workbook (first sheet, materialized by the reader)
//
// The readers do no interpretation beyond header binding and whitespace
// trimming; typing (dates, numbers) happens later in the sanitizer so that
// CSV text and spreadsheet display values go through the same code path.
//
// =============================================================================

package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// =============================================================================
// SOURCE INTERFACE
// =============================================================================

// Source yields dataset rows one at a time.
//
// USAGE:
//   src, err := dataset.Open(path, maxRows)
//   if err != nil {
//       return err
//   }
//   defer src.Close()
//
//   for src.Next() {
//       row := src.Row()
//       // Process the row...
//   }
//
//   if err := src.Err(); err != nil {
//       return err
//   }
type Source interface {
	// Next advances to the next data row. Returns false at end of input
	// or on error; empty rows are skipped transparently.
	Next() bool

	// Row returns the current row. Only valid after Next returned true.
	Row() Row

	// Err returns the first error encountered while reading, if any.
	Err() error

	// Close releases the underlying file.
	Close() error

	// HasCustomerID reports whether the file carries a customer identifier
	// column at all. Some dataset variants omit it entirely, which makes
	// the customer-centric schema impossible to populate.
	HasCustomerID() bool
}

// Open opens a dataset file, dispatching on the file extension.
//
// PARAMETERS:
//   - path: The dataset file. ".csv" selects the CSV reader; anything else
//     is treated as an XLSX workbook.
//   - maxRows: Cap on the number of data rows yielded. 0 means no cap.
//
// RETURNS:
//   - A Source positioned before the first data row.
//   - An error if the file cannot be opened or has no usable header.
func Open(path string, maxRows int) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return OpenCSV(path, maxRows)
	}
	return OpenXLSX(path, maxRows)
}

// ReadAll drains a source into a slice and closes it.
func ReadAll(src Source) ([]Row, error) {
	defer src.Close()

	var rows []Row
	for src.Next() {
		rows = append(rows, src.Row())
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return rows, nil
}
