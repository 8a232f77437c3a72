// =============================================================================
// Retail Schema Loader - Relational Normalization
// =============================================================================
//
// The counterpart exercise to the document schemas: the same dataset broken
// into a normalized SQLite schema.
//
// SCHEMA:
//   Customers(CustomerID PK, Country)
//   Products(StockCode PK, Description, UnitPrice)
//   Invoices(InvoiceNo PK, InvoiceDate, CustomerID -> Customers)
//   InvoiceItems(InvoiceNo -> Invoices, StockCode -> Products, Quantity)
//
// A normalize run replaces the whole schema: tables are dropped and
// recreated, then every usable row is inserted inside one transaction.
// Dimension tables deduplicate on their primary key with INSERT OR IGNORE,
// so the first occurrence of a customer, product, or invoice wins - the
// same first-write policy the document loaders use. InvoiceItems keeps one
// row per dataset row.
//
// =============================================================================

package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/retail-schema-loader/internal/dataset"
	"github.com/ginjaninja78/retail-schema-loader/internal/sanitize"
)

// timestampFormat is how invoice dates are stored; SQLite has no native
// datetime type and this form sorts and compares correctly as text.
const timestampFormat = "2006-01-02 15:04:05"

const schema = `
CREATE TABLE Customers (
	CustomerID INTEGER PRIMARY KEY,
	Country    TEXT
);

CREATE TABLE Products (
	StockCode   TEXT PRIMARY KEY,
	Description TEXT,
	UnitPrice   REAL
);

CREATE TABLE Invoices (
	InvoiceNo   TEXT PRIMARY KEY,
	InvoiceDate TIMESTAMP,
	CustomerID  INTEGER NOT NULL REFERENCES Customers(CustomerID)
);

CREATE TABLE InvoiceItems (
	InvoiceNo TEXT NOT NULL REFERENCES Invoices(InvoiceNo),
	StockCode TEXT NOT NULL REFERENCES Products(StockCode),
	Quantity  INTEGER
);

CREATE INDEX idx_invoice_items_invoice ON InvoiceItems(InvoiceNo);
`

// Store is a SQLite database holding the normalized schema.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Result accumulates the counts of one normalize run.
type Result struct {
	// RowsRead is the number of dataset rows considered.
	RowsRead int

	// RowsDropped is the number of rows missing an invoice number, stock
	// code, or customer id, or whose customer id does not parse. Such rows
	// cannot be keyed anywhere in the schema.
	RowsDropped int

	// Customers, Products, and Invoices count distinct rows that landed in
	// each dimension table; duplicates of an already-seen key are not
	// counted.
	Customers int
	Products  int
	Invoices  int

	// Items is the number of InvoiceItems rows, one per kept dataset row.
	Items int

	// ProcessingTime is the wall-clock duration of the run.
	ProcessingTime time.Duration
}

// Open opens (creating if needed) the SQLite database at path.
// Use ":memory:" for an in-memory database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Replace drops the normalized tables and recreates them empty.
func (s *Store) Replace(ctx context.Context) error {
	// Children before parents, foreign keys are on.
	drops := []string{"InvoiceItems", "Invoices", "Products", "Customers"}
	for _, table := range drops {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.log.Debug().Msg("relational schema replaced")
	return nil
}

// LoadRows normalizes dataset rows into the four tables.
//
// Rows missing any of {invoice number, stock code, customer id} are dropped,
// as are rows whose customer id does not parse as an integer; quantity, price,
// date, and description degrade to NULL instead. All inserts run in a single
// transaction so a failed run leaves the tables as Replace made them.
//
// PARAMETERS:
//   - ctx: Operation context.
//   - rows: The dataset rows to normalize.
//
// RETURNS:
//   - Per-table counts for the run.
//   - The first insert error, after rolling back.
func (s *Store) LoadRows(ctx context.Context, rows []dataset.Row) (Result, error) {
	start := time.Now()
	result := Result{}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmts := struct {
		customer, product, invoice, item *sql.Stmt
	}{}

	prepared := []struct {
		target **sql.Stmt
		query  string
	}{
		{&stmts.customer, "INSERT OR IGNORE INTO Customers (CustomerID, Country) VALUES (?, ?)"},
		{&stmts.product, "INSERT OR IGNORE INTO Products (StockCode, Description, UnitPrice) VALUES (?, ?, ?)"},
		{&stmts.invoice, "INSERT OR IGNORE INTO Invoices (InvoiceNo, InvoiceDate, CustomerID) VALUES (?, ?, ?)"},
		{&stmts.item, "INSERT INTO InvoiceItems (InvoiceNo, StockCode, Quantity) VALUES (?, ?, ?)"},
	}
	for _, p := range prepared {
		stmt, err := tx.PrepareContext(ctx, p.query)
		if err != nil {
			return result, fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()
		*p.target = stmt
	}

	for _, row := range rows {
		result.RowsRead++

		if row.InvoiceNo == "" || row.StockCode == "" || row.CustomerID == "" {
			result.RowsDropped++
			continue
		}
		customerID, err := sanitize.ParseInt(row.CustomerID)
		if err != nil {
			result.RowsDropped++
			s.log.Debug().Int("line", row.Line).Str("customer_id", row.CustomerID).
				Msg("dropping row with unparseable customer id")
			continue
		}

		if err := s.insertRow(ctx, stmts.customer, stmts.product, stmts.invoice, stmts.item,
			row, customerID, &result); err != nil {
			return result, err
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit normalize run: %w", err)
	}

	result.ProcessingTime = time.Since(start)
	s.log.Info().
		Int("rows", result.RowsRead).
		Int("customers", result.Customers).
		Int("products", result.Products).
		Int("invoices", result.Invoices).
		Int("items", result.Items).
		Dur("elapsed", result.ProcessingTime).
		Msg("normalize run complete")

	return result, nil
}

// insertRow writes one dataset row across the four tables, parents first so
// the foreign keys always resolve.
func (s *Store) insertRow(ctx context.Context, customer, product, invoice, item *sql.Stmt,
	row dataset.Row, customerID int64, result *Result) error {

	res, err := customer.ExecContext(ctx, customerID, nullIfEmpty(row.Country))
	if err != nil {
		return fmt.Errorf("failed to insert customer %d: %w", customerID, err)
	}
	result.Customers += int(affected(res))

	res, err = product.ExecContext(ctx, row.StockCode, nullIfEmpty(row.Description), nullableFloat(row.UnitPrice))
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", row.StockCode, err)
	}
	result.Products += int(affected(res))

	res, err = invoice.ExecContext(ctx, row.InvoiceNo, nullableTimestamp(row.InvoiceDate), customerID)
	if err != nil {
		return fmt.Errorf("failed to insert invoice %s: %w", row.InvoiceNo, err)
	}
	result.Invoices += int(affected(res))

	if _, err = item.ExecContext(ctx, row.InvoiceNo, row.StockCode, nullableInt(row.Quantity)); err != nil {
		return fmt.Errorf("failed to insert item %s/%s: %w", row.InvoiceNo, row.StockCode, err)
	}
	result.Items++

	return nil
}

// affected reads RowsAffected, treating an unsupported result as zero.
func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func nullIfEmpty(raw string) interface{} {
	if raw == "" {
		return nil
	}
	return raw
}

func nullableFloat(raw string) interface{} {
	f, err := sanitize.ParseFloat(raw)
	if err != nil {
		return nil
	}
	return f
}

func nullableInt(raw string) interface{} {
	n, err := sanitize.ParseInt(raw)
	if err != nil {
		return nil
	}
	return n
}

func nullableTimestamp(raw string) interface{} {
	t, err := sanitize.ParseDate(raw)
	if err != nil {
		return nil
	}
	return t.Format(timestampFormat)
}
