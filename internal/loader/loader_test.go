package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/retail-schema-loader/internal/dataset"
	"github.com/ginjaninja78/retail-schema-loader/internal/model"
	"github.com/ginjaninja78/retail-schema-loader/internal/mongostore"
)

// sliceSource feeds a fixed set of rows through the dataset.Source interface.
type sliceSource struct {
	rows        []dataset.Row
	idx         int
	cur         dataset.Row
	noCustomer  bool
	readErr     error
	closeCalled bool
}

func (s *sliceSource) Next() bool {
	if s.idx >= len(s.rows) {
		return false
	}
	s.cur = s.rows[s.idx]
	s.idx++
	return true
}

func (s *sliceSource) Row() dataset.Row { return s.cur }

func (s *sliceSource) Err() error { return s.readErr }

func (s *sliceSource) Close() error {
	s.closeCalled = true
	return nil
}

func (s *sliceSource) HasCustomerID() bool { return !s.noCustomer }

// fakeStore records bulk calls and returns canned results.
type fakeStore struct {
	insertCalls [][]model.InvoiceDocument
	upsertCalls [][]model.CustomerUpsert
	dedupeSeen  []bool

	insertDuplicates int
	createdPerCall   int
	insertErr        error
	upsertErr        error
}

func (f *fakeStore) InsertInvoices(_ context.Context, docs []model.InvoiceDocument) (mongostore.BulkResult, error) {
	f.insertCalls = append(f.insertCalls, docs)
	if f.insertErr != nil {
		return mongostore.BulkResult{}, f.insertErr
	}
	dups := f.insertDuplicates
	if dups > len(docs) {
		dups = len(docs)
	}
	return mongostore.BulkResult{Written: len(docs) - dups, Duplicates: dups}, nil
}

func (f *fakeStore) UpsertCustomers(_ context.Context, ops []model.CustomerUpsert, dedupe bool) (mongostore.BulkResult, error) {
	f.upsertCalls = append(f.upsertCalls, ops)
	f.dedupeSeen = append(f.dedupeSeen, dedupe)
	if f.upsertErr != nil {
		return mongostore.BulkResult{}, f.upsertErr
	}
	return mongostore.BulkResult{Written: len(ops), Created: f.createdPerCall}, nil
}

func row(invoice, stock, quantity, customer string) dataset.Row {
	return dataset.Row{
		InvoiceNo:   invoice,
		StockCode:   stock,
		Description: "WHITE HANGING HEART T-LIGHT HOLDER",
		Quantity:    quantity,
		InvoiceDate: "01-12-2010 08:26",
		UnitPrice:   "2.55",
		CustomerID:  customer,
	}
}

func TestRunSinglePass(t *testing.T) {
	src := &sliceSource{rows: []dataset.Row{
		row("536365", "85123A", "6", "17850"),
		row("536365", "71053", "6", "17850"),
		row("536366", "22633", "6", "17850"),
		row("", "85123A", "6", "17850"),      // missing invoice number
		row("536367", "", "6", "13047"),      // missing stock code
		row("536367", "84879", "", "13047"),  // missing quantity
		row("536368", "22960", "6", ""),      // missing customer id
		row("536369", "21756", "3", "13047"), // fine
	}}
	store := &fakeStore{createdPerCall: 2}

	ldr := New(store, Options{}, zerolog.Nop())
	res, err := ldr.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 8, res.RowsRead)
	assert.Equal(t, 3, res.RowsDropped)
	assert.Equal(t, 1, res.RowsMissingCustomer)
	assert.Equal(t, 1, res.Chunks)

	require.Len(t, store.insertCalls, 1)
	require.Len(t, store.insertCalls[0], 3)
	assert.Equal(t, "536365", store.insertCalls[0][0].InvoiceNo)
	assert.Len(t, store.insertCalls[0][0].Items, 2)
	assert.Equal(t, "536366", store.insertCalls[0][1].InvoiceNo)
	assert.Equal(t, "536369", store.insertCalls[0][2].InvoiceNo)

	require.Len(t, store.upsertCalls, 1)
	require.Len(t, store.upsertCalls[0], 3)
	assert.Equal(t, int64(17850), store.upsertCalls[0][0].CustomerID)
	assert.False(t, store.dedupeSeen[0])

	assert.Equal(t, 3, res.Invoices)
	assert.Equal(t, 3, res.CustomerOps)
	assert.Equal(t, 2, res.CustomersCreated)
	assert.Zero(t, res.GroupsSkipped)
}

func TestRunChunked(t *testing.T) {
	src := &sliceSource{rows: []dataset.Row{
		row("536365", "85123A", "6", "17850"),
		row("536365", "71053", "6", "17850"),
		row("536366", "22633", "6", "17850"),
		row("536366", "22632", "6", "17850"),
		row("536367", "84879", "32", "13047"),
	}}
	store := &fakeStore{}

	ldr := New(store, Options{ChunkSize: 2}, zerolog.Nop())
	res, err := ldr.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 5, res.RowsRead)
	assert.Equal(t, 3, res.Chunks)
	require.Len(t, store.insertCalls, 3)
	assert.Len(t, store.insertCalls[0], 1)
	assert.Len(t, store.insertCalls[1], 1)
	assert.Len(t, store.insertCalls[2], 1)
}

func TestRunChunkExtendsOverInvoiceRun(t *testing.T) {
	// All five rows belong to one invoice; a chunk size of 2 must not split
	// the invoice, so the whole run lands in a single chunk.
	src := &sliceSource{rows: []dataset.Row{
		row("536365", "85123A", "6", "17850"),
		row("536365", "71053", "6", "17850"),
		row("536365", "84406B", "8", "17850"),
		row("536365", "84029G", "6", "17850"),
		row("536365", "84029E", "6", "17850"),
	}}
	store := &fakeStore{}

	ldr := New(store, Options{ChunkSize: 2}, zerolog.Nop())
	res, err := ldr.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Chunks)
	require.Len(t, store.insertCalls, 1)
	require.Len(t, store.insertCalls[0], 1)
	assert.Len(t, store.insertCalls[0][0].Items, 5)
}

func TestRunDedupeFlagReachesStore(t *testing.T) {
	src := &sliceSource{rows: []dataset.Row{
		row("536365", "85123A", "6", "17850"),
	}}
	store := &fakeStore{}

	ldr := New(store, Options{Dedupe: true}, zerolog.Nop())
	_, err := ldr.Run(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, store.dedupeSeen, 1)
	assert.True(t, store.dedupeSeen[0])
}

func TestRunWithoutCustomerColumn(t *testing.T) {
	src := &sliceSource{
		rows:       []dataset.Row{row("536365", "85123A", "6", "")},
		noCustomer: true,
	}
	store := &fakeStore{}

	ldr := New(store, Options{}, zerolog.Nop())
	res, err := ldr.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Zero(t, res.RowsRead)
	assert.Zero(t, res.Chunks)
	assert.Empty(t, store.insertCalls)
	assert.Empty(t, store.upsertCalls)
}

func TestRunSkipsUnparseableCustomerID(t *testing.T) {
	src := &sliceSource{rows: []dataset.Row{
		row("536365", "85123A", "6", "17850"),
		row("536366", "22633", "6", "not-a-number"),
	}}
	store := &fakeStore{}

	ldr := New(store, Options{}, zerolog.Nop())
	res, err := ldr.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, res.GroupsSkipped)
	// The invoice document still loads; only the customer op is skipped.
	require.Len(t, store.insertCalls, 1)
	assert.Len(t, store.insertCalls[0], 2)
	require.Len(t, store.upsertCalls, 1)
	assert.Len(t, store.upsertCalls[0], 1)
}

func TestRunCountsDuplicates(t *testing.T) {
	src := &sliceSource{rows: []dataset.Row{
		row("536365", "85123A", "6", "17850"),
		row("536366", "22633", "6", "17850"),
	}}
	store := &fakeStore{insertDuplicates: 1}

	ldr := New(store, Options{}, zerolog.Nop())
	res, err := ldr.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Invoices)
	assert.Equal(t, 1, res.InvoiceDuplicates)
}

func TestRunInsertErrorAborts(t *testing.T) {
	src := &sliceSource{rows: []dataset.Row{
		row("536365", "85123A", "6", "17850"),
	}}
	store := &fakeStore{insertErr: errors.New("server selection timeout")}

	ldr := New(store, Options{}, zerolog.Nop())
	res, err := ldr.Run(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 1")
	assert.Equal(t, 1, res.RowsRead)
	assert.Empty(t, store.upsertCalls)
}

func TestRunSourceErrorSurfaces(t *testing.T) {
	src := &sliceSource{
		rows:    []dataset.Row{row("536365", "85123A", "6", "17850")},
		readErr: errors.New("truncated record"),
	}
	store := &fakeStore{}

	ldr := New(store, Options{}, zerolog.Nop())
	_, err := ldr.Run(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read dataset")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &sliceSource{rows: []dataset.Row{
		row("536365", "85123A", "6", "17850"),
	}}
	store := &fakeStore{}

	ldr := New(store, Options{}, zerolog.Nop())
	_, err := ldr.Run(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.insertCalls)
}
