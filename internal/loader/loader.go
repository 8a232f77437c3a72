// =============================================================================
// Retail Schema Loader - Load Pass
// =============================================================================
//
// This module drives one load pass over a dataset and performs every write
// needed to populate both collections.
//
// LOAD PIPELINE (per chunk, or once for the whole dataset):
//   1. Clean the rows (drop unusable records)
//   2. Group the survivors by invoice number
//   3. Build the transaction-centric documents and customer append ops
//   4. Bulk-insert the invoice documents (duplicates tolerated)
//   5. Bulk-upsert the customer operations (duplicates tolerated)
//
// DELIVERY GUARANTEE:
//   At-least-once with idempotent-ish conflict handling, not atomicity: a
//   failed chunk does not roll back earlier chunks, and a re-run of the same
//   input is a no-op for the invoice collection while the customer
//   collection appends duplicate embeds unless dedupe is enabled.
//
// CHUNK BOUNDARIES:
//   Dataset rows of one invoice are contiguous, so the chunker extends a
//   chunk past its nominal size until the invoice number changes. An invoice
//   split across chunks would otherwise insert truncated and be shadowed by
//   the duplicate filter on the second half.
//
// =============================================================================

package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/retail-schema-loader/internal/dataset"
	"github.com/ginjaninja78/retail-schema-loader/internal/model"
	"github.com/ginjaninja78/retail-schema-loader/internal/mongostore"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the slice of the MongoDB store the load pass needs.
type Store interface {
	InsertInvoices(ctx context.Context, docs []model.InvoiceDocument) (mongostore.BulkResult, error)
	UpsertCustomers(ctx context.Context, ops []model.CustomerUpsert, dedupe bool) (mongostore.BulkResult, error)
}

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options control one load pass.
type Options struct {
	// ChunkSize streams the dataset in chunks of roughly this many rows.
	// 0 processes the whole dataset as a single pass.
	ChunkSize int

	// Dedupe switches the customer-centric append to set semantics, so
	// re-running a load does not duplicate embedded invoices.
	Dedupe bool
}

// Result accumulates the statistics of one load pass.
type Result struct {
	// RowsRead is the number of data rows taken from the source.
	RowsRead int

	// RowsDropped is the number of rows missing a required field
	// (invoice number, stock code, or quantity).
	RowsDropped int

	// RowsMissingCustomer is the number of rows dropped for lacking a
	// customer identifier; such rows are unusable for the customer-centric
	// schema and are excluded before either builder runs.
	RowsMissingCustomer int

	// Invoices is the number of transaction-centric documents written.
	Invoices int

	// InvoiceDuplicates counts invoice inserts skipped as re-run conflicts.
	InvoiceDuplicates int

	// CustomerOps is the number of customer append operations applied.
	CustomerOps int

	// CustomerOpDuplicates counts customer ops skipped as conflicts.
	CustomerOpDuplicates int

	// CustomersCreated is the number of customer documents newly created.
	CustomersCreated int

	// GroupsSkipped counts invoice groups whose customer id did not parse,
	// which have no valid customer-centric target.
	GroupsSkipped int

	// Chunks is the number of chunks processed.
	Chunks int

	// ProcessingTime is the wall-clock duration of the pass.
	ProcessingTime time.Duration
}

// =============================================================================
// LOADER
// =============================================================================

// Loader runs load passes against a store.
type Loader struct {
	store Store
	opts  Options
	log   zerolog.Logger
}

// New creates a Loader.
func New(store Store, opts Options, log zerolog.Logger) *Loader {
	return &Loader{
		store: store,
		opts:  opts,
		log:   log,
	}
}

// Run drains the source and loads both collections.
//
// RETURNS:
//   - The pass statistics, also populated on error for the completed part.
//   - The first non-recoverable error; duplicate-key conflicts are never one.
func (l *Loader) Run(ctx context.Context, src dataset.Source) (Result, error) {
	start := time.Now()
	result := Result{}

	// A dataset variant without a customer id column cannot feed the
	// customer-centric schema at all; loading only half the model would
	// leave the collections permanently out of step.
	if !src.HasCustomerID() {
		l.log.Warn().Msg("dataset has no customer id column; nothing loaded")
		result.ProcessingTime = time.Since(start)
		return result, nil
	}

	chunks := &chunker{src: src, size: l.opts.ChunkSize}
	for {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("load interrupted: %w", err)
		}

		chunk := chunks.next()
		if len(chunk) == 0 {
			break
		}

		result.Chunks++
		l.log.Debug().Int("chunk", result.Chunks).Int("rows", len(chunk)).Msg("processing chunk")

		if err := l.processChunk(ctx, chunk, &result); err != nil {
			result.ProcessingTime = time.Since(start)
			return result, fmt.Errorf("chunk %d: %w", result.Chunks, err)
		}
	}

	if err := src.Err(); err != nil {
		result.ProcessingTime = time.Since(start)
		return result, fmt.Errorf("failed to read dataset: %w", err)
	}

	result.ProcessingTime = time.Since(start)
	l.log.Info().
		Int("rows", result.RowsRead).
		Int("invoices", result.Invoices).
		Int("invoice_duplicates", result.InvoiceDuplicates).
		Int("customer_ops", result.CustomerOps).
		Int("customers_created", result.CustomersCreated).
		Int("chunks", result.Chunks).
		Dur("elapsed", result.ProcessingTime).
		Msg("load pass complete")

	return result, nil
}

// processChunk runs the clean/group/build/write steps for one chunk.
func (l *Loader) processChunk(ctx context.Context, chunk []dataset.Row, result *Result) error {
	// =========================================================================
	// STEP 1: CLEAN
	// =========================================================================
	// Rows missing any of {invoice number, stock code, quantity} are
	// unusable in either schema; rows missing a customer id cannot be keyed
	// in the customer-centric one. Both are dropped before grouping.

	kept := make([]dataset.Row, 0, len(chunk))
	for _, row := range chunk {
		result.RowsRead++

		if row.InvoiceNo == "" || row.StockCode == "" || row.Quantity == "" {
			result.RowsDropped++
			l.log.Debug().Int("line", row.Line).Msg("dropping row with missing required field")
			continue
		}
		if row.CustomerID == "" {
			result.RowsMissingCustomer++
			continue
		}
		kept = append(kept, row)
	}

	if len(kept) == 0 {
		return nil
	}

	// =========================================================================
	// STEP 2: GROUP AND BUILD
	// =========================================================================

	groups := model.GroupByInvoice(kept)

	docs := make([]model.InvoiceDocument, 0, len(groups))
	ops := make([]model.CustomerUpsert, 0, len(groups))

	for _, g := range groups {
		doc, err := model.BuildInvoiceDocument(g)
		if err != nil {
			return fmt.Errorf("failed to build invoice document: %w", err)
		}
		docs = append(docs, doc)

		op, err := model.BuildCustomerUpsert(g)
		if err != nil {
			// The rows passed cleaning, so the id was present but does not
			// parse as an integer. The invoice document still loads.
			result.GroupsSkipped++
			l.log.Warn().Str("invoice", g.InvoiceNo).Err(err).Msg("skipping customer op")
			continue
		}
		ops = append(ops, op)
	}

	// =========================================================================
	// STEP 3: WRITE INVOICES
	// =========================================================================

	insertRes, err := l.store.InsertInvoices(ctx, docs)
	if err != nil {
		return err
	}
	result.Invoices += insertRes.Written
	result.InvoiceDuplicates += insertRes.Duplicates

	// =========================================================================
	// STEP 4: WRITE CUSTOMERS
	// =========================================================================

	upsertRes, err := l.store.UpsertCustomers(ctx, ops, l.opts.Dedupe)
	if err != nil {
		return err
	}
	result.CustomerOps += upsertRes.Written
	result.CustomerOpDuplicates += upsertRes.Duplicates
	result.CustomersCreated += upsertRes.Created

	return nil
}

// =============================================================================
// CHUNKER
// =============================================================================

// chunker cuts the source into chunks, extending each past the nominal size
// while the invoice number keeps repeating so one invoice never straddles a
// chunk boundary. A row read past the boundary is carried into the next
// chunk.
type chunker struct {
	src     dataset.Source
	size    int
	pending *dataset.Row
}

func (c *chunker) next() []dataset.Row {
	var rows []dataset.Row

	if c.pending != nil {
		rows = append(rows, *c.pending)
		c.pending = nil
	}

	for (c.size <= 0 || len(rows) < c.size) && c.src.Next() {
		rows = append(rows, c.src.Row())
	}

	if c.size <= 0 || len(rows) < c.size {
		return rows
	}

	last := rows[len(rows)-1].InvoiceNo
	for c.src.Next() {
		row := c.src.Row()
		if row.InvoiceNo != last {
			c.pending = &row
			break
		}
		rows = append(rows, row)
	}

	return rows
}
