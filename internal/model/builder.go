// =============================================================================
// Retail Schema Loader - Document Builders
// =============================================================================
//
// Builders turn a group of raw rows sharing one invoice number into the two
// document forms. Rows of one invoice are assumed homogeneous on the header
// fields (date, customer, country): the first row wins and no reconciliation
// across differing values is attempted.
//
// The null-on-failure policy for unparseable fields is applied here, once,
// via the nullable* helpers; the sanitizer itself reports errors.
//
// =============================================================================

package model

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/retail-schema-loader/internal/dataset"
	"github.com/ginjaninja78/retail-schema-loader/internal/sanitize"
)

// =============================================================================
// INVOICE GROUPING
// =============================================================================

// Group is the set of rows belonging to one invoice, in source order.
type Group struct {
	// InvoiceNo is the shared invoice number.
	InvoiceNo string

	// Rows are the member rows in the order they appeared.
	Rows []dataset.Row
}

// GroupByInvoice partitions rows by invoice number.
//
// Both orders are preserved: groups appear in first-occurrence order of their
// invoice number, and rows keep their source order within each group, so
// repeated loads of the same file build identical documents.
func GroupByInvoice(rows []dataset.Row) []Group {
	index := make(map[string]int, len(rows))
	var groups []Group

	for _, row := range rows {
		i, seen := index[row.InvoiceNo]
		if !seen {
			i = len(groups)
			index[row.InvoiceNo] = i
			groups = append(groups, Group{InvoiceNo: row.InvoiceNo})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	return groups
}

// =============================================================================
// BUILDERS
// =============================================================================

// BuildInvoiceDocument builds the transaction-centric document for one
// invoice group.
//
// PARAMETERS:
//   - g: A non-empty group of rows sharing one invoice number.
//
// RETURNS:
//   - The invoice document, one item per row in row order.
//   - An error only for an empty group; bad field values become nulls.
func BuildInvoiceDocument(g Group) (InvoiceDocument, error) {
	if len(g.Rows) == 0 {
		return InvoiceDocument{}, fmt.Errorf("invoice %q: empty row group", g.InvoiceNo)
	}

	first := g.Rows[0]
	doc := InvoiceDocument{
		InvoiceNo:   g.InvoiceNo,
		InvoiceDate: nullableDate(first.InvoiceDate),
		Customer: CustomerRef{
			ID:      nullableInt(first.CustomerID),
			Country: nullableString(first.Country),
		},
		Items:          make([]InvoiceItem, 0, len(g.Rows)),
		IsCancellation: sanitize.IsCancellation(g.InvoiceNo),
	}

	for _, row := range g.Rows {
		doc.Items = append(doc.Items, InvoiceItem{
			StockCode:   row.StockCode,
			Description: nullableString(row.Description),
			UnitPrice:   nullableFloat(row.UnitPrice),
			Quantity:    nullableInt(row.Quantity),
		})
	}

	return doc, nil
}

// BuildCustomerUpsert builds the customer-centric append operation for one
// invoice group.
//
// Unlike the invoice document, the customer id is load-bearing here — it is
// the document key — so a group whose customer id does not parse is an error
// rather than a null-keyed document.
func BuildCustomerUpsert(g Group) (CustomerUpsert, error) {
	if len(g.Rows) == 0 {
		return CustomerUpsert{}, fmt.Errorf("invoice %q: empty row group", g.InvoiceNo)
	}

	first := g.Rows[0]
	customerID, err := sanitize.ParseInt(first.CustomerID)
	if err != nil {
		return CustomerUpsert{}, fmt.Errorf("invoice %q: bad customer id: %w", g.InvoiceNo, err)
	}

	items := make([]EmbeddedItem, 0, len(g.Rows))
	for _, row := range g.Rows {
		items = append(items, EmbeddedItem{
			StockCode: row.StockCode,
			Quantity:  nullableInt(row.Quantity),
			UnitPrice: nullableFloat(row.UnitPrice),
		})
	}

	return CustomerUpsert{
		CustomerID: customerID,
		Country:    nullableString(first.Country),
		Invoice: EmbeddedInvoice{
			InvoiceNo:      g.InvoiceNo,
			InvoiceDate:    nullableDate(first.InvoiceDate),
			Items:          items,
			IsCancellation: sanitize.IsCancellation(g.InvoiceNo),
		},
	}, nil
}

// =============================================================================
// NULL POLICY
// =============================================================================

func nullableDate(raw string) *time.Time {
	ts, err := sanitize.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &ts
}

func nullableInt(raw string) *int64 {
	n, err := sanitize.ParseInt(raw)
	if err != nil {
		return nil
	}
	return &n
}

func nullableFloat(raw string) *float64 {
	f, err := sanitize.ParseFloat(raw)
	if err != nil {
		return nil
	}
	return &f
}

func nullableString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}
