// =============================================================================
// Retail Schema Loader - Document Types
// =============================================================================
//
// This package defines the two document schemas the loader maintains, plus
// the builders that produce them from raw dataset rows. Types live here so
// that the loader, the store, and the benchmark all share one definition.
//
// TRANSACTION-CENTRIC ("invoices_txn"): one document per invoice, keyed by
// invoice number, embedding its line items:
//
//   { "_id": "536365",
//     "invoice_date": ISODate("2010-12-01T08:26:00Z"),
//     "customer": { "id": 17850, "country": "United Kingdom" },
//     "items": [ { "stock_code": "85123A",
//                  "description": "WHITE HANGING HEART T-LIGHT HOLDER",
//                  "unit_price": 2.55,
//                  "quantity": 6 } ],
//     "is_cancellation": false }
//
// CUSTOMER-CENTRIC ("customers_centric"): one document per customer, keyed by
// customer id, embedding that customer's invoices. Embedded items carry no
// description, and country is written only when the document is first created:
//
//   { "_id": 17850,
//     "country": "United Kingdom",
//     "invoices": [ { "invoice_no": "536365",
//                     "invoice_date": ISODate("2010-12-01T08:26:00Z"),
//                     "items": [ { "stock_code": "85123A",
//                                  "quantity": 6,
//                                  "unit_price": 2.55 } ],
//                     "is_cancellation": false } ] }
//
// Fields that failed to parse are nil and marshal as BSON null, keeping the
// document shape stable regardless of input quality.
//
// =============================================================================

package model

import "time"

// =============================================================================
// TRANSACTION-CENTRIC SCHEMA
// =============================================================================

// InvoiceDocument is one transaction-centric invoice.
type InvoiceDocument struct {
	// InvoiceNo is the document key. Unique per invoice; a leading "C"
	// marks a cancellation.
	InvoiceNo string `bson:"_id"`

	// InvoiceDate is nil when the source value did not parse.
	InvoiceDate *time.Time `bson:"invoice_date"`

	// Customer references the owning customer. Both fields may be nil on
	// dataset variants with sparse customer data.
	Customer CustomerRef `bson:"customer"`

	// Items holds the invoice lines in source row order.
	Items []InvoiceItem `bson:"items"`

	// IsCancellation is derived from the invoice number prefix.
	IsCancellation bool `bson:"is_cancellation"`
}

// CustomerRef is the embedded customer reference of an invoice document.
type CustomerRef struct {
	ID      *int64  `bson:"id"`
	Country *string `bson:"country"`
}

// InvoiceItem is one invoice line in the transaction-centric form.
type InvoiceItem struct {
	StockCode   string   `bson:"stock_code"`
	Description *string  `bson:"description"`
	UnitPrice   *float64 `bson:"unit_price"`
	Quantity    *int64   `bson:"quantity"`
}

// =============================================================================
// CUSTOMER-CENTRIC SCHEMA
// =============================================================================

// CustomerDocument is one customer-centric document.
type CustomerDocument struct {
	// CustomerID is the document key.
	CustomerID int64 `bson:"_id"`

	// Country is set on first creation only and never overwritten by later
	// invoices for the same customer.
	Country *string `bson:"country"`

	// Invoices holds the embedded invoices in append order.
	Invoices []EmbeddedInvoice `bson:"invoices"`
}

// EmbeddedInvoice is the invoice form embedded in a customer document.
// Structurally the transaction-centric document minus the customer reference
// and the item descriptions.
type EmbeddedInvoice struct {
	InvoiceNo      string         `bson:"invoice_no"`
	InvoiceDate    *time.Time     `bson:"invoice_date"`
	Items          []EmbeddedItem `bson:"items"`
	IsCancellation bool           `bson:"is_cancellation"`
}

// EmbeddedItem is one invoice line in the customer-centric form.
type EmbeddedItem struct {
	StockCode string   `bson:"stock_code"`
	Quantity  *int64   `bson:"quantity"`
	UnitPrice *float64 `bson:"unit_price"`
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// CustomerUpsert is one append-an-invoice operation against the customer
// collection: create the customer document if absent (setting country once),
// then append the embedded invoice. Multiple upserts may target the same
// customer within a pass, one per invoice.
type CustomerUpsert struct {
	CustomerID int64
	Country    *string
	Invoice    EmbeddedInvoice
}
