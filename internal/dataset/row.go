// =============================================================================
// Retail Schema Loader - Row Binding
// =============================================================================
//
// This module binds raw header names to the dataset's well-known columns.
// Header spellings drift between dataset exports ("CustomerID" vs
// "Customer ID"), so matching is case-insensitive with spaces and
// underscores stripped.
//
// =============================================================================

package dataset

import "strings"

// Row is one dataset line with its fields still in raw text form.
// Absent columns yield empty strings; typing is the sanitizer's job.
type Row struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    string
	InvoiceDate string
	UnitPrice   string
	CustomerID  string
	Country     string

	// Line is the 1-based record number in the source file, counting the
	// header. Used for diagnostics only.
	Line int
}

// columnMap holds the resolved index of each well-known column, -1 if the
// header does not carry it.
type columnMap struct {
	invoiceNo   int
	stockCode   int
	description int
	quantity    int
	invoiceDate int
	unitPrice   int
	customerID  int
	country     int
}

// mapColumns resolves a header row into a columnMap.
func mapColumns(headers []string) columnMap {
	cols := columnMap{
		invoiceNo:   -1,
		stockCode:   -1,
		description: -1,
		quantity:    -1,
		invoiceDate: -1,
		unitPrice:   -1,
		customerID:  -1,
		country:     -1,
	}

	for i, header := range headers {
		switch normalizeHeader(header) {
		case "invoiceno":
			cols.invoiceNo = i
		case "stockcode":
			cols.stockCode = i
		case "description":
			cols.description = i
		case "quantity":
			cols.quantity = i
		case "invoicedate":
			cols.invoiceDate = i
		case "unitprice":
			cols.unitPrice = i
		case "customerid":
			cols.customerID = i
		case "country":
			cols.country = i
		}
	}

	return cols
}

// normalizeHeader lowercases a header and strips spaces and underscores.
func normalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	header = strings.ReplaceAll(header, " ", "")
	header = strings.ReplaceAll(header, "_", "")
	return header
}

// bindRow maps one raw record into a Row using the resolved columns.
// Values are whitespace-trimmed; indexes beyond the record length bind empty.
func bindRow(record []string, cols columnMap, line int) Row {
	cell := func(index int) string {
		if index >= 0 && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	return Row{
		InvoiceNo:   cell(cols.invoiceNo),
		StockCode:   cell(cols.stockCode),
		Description: cell(cols.description),
		Quantity:    cell(cols.quantity),
		InvoiceDate: cell(cols.invoiceDate),
		UnitPrice:   cell(cols.unitPrice),
		CustomerID:  cell(cols.customerID),
		Country:     cell(cols.country),
		Line:        line,
	}
}

// isRecordEmpty checks if a record contains only empty cells.
func isRecordEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
