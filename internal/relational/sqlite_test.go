package relational

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/retail-schema-loader/internal/dataset"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "retail.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Replace(context.Background()))
	return store
}

func sampleRows() []dataset.Row {
	return []dataset.Row{
		{
			InvoiceNo: "536365", StockCode: "85123A",
			Description: "WHITE HANGING HEART T-LIGHT HOLDER",
			Quantity:    "6", InvoiceDate: "01-12-2010 08:26",
			UnitPrice: "2.55", CustomerID: "17850", Country: "United Kingdom",
		},
		{
			InvoiceNo: "536365", StockCode: "71053",
			Description: "WHITE METAL LANTERN",
			Quantity:    "6", InvoiceDate: "01-12-2010 08:26",
			UnitPrice: "3.39", CustomerID: "17850", Country: "United Kingdom",
		},
		{
			InvoiceNo: "536367", StockCode: "84879",
			Description: "ASSORTED COLOUR BIRD ORNAMENT",
			Quantity:    "32", InvoiceDate: "01-12-2010 08:34",
			UnitPrice: "1.69", CustomerID: "13047", Country: "France",
		},
	}
}

func TestLoadRowsNormalizes(t *testing.T) {
	store := openTestStore(t)

	res, err := store.LoadRows(context.Background(), sampleRows())
	require.NoError(t, err)

	assert.Equal(t, 3, res.RowsRead)
	assert.Zero(t, res.RowsDropped)
	assert.Equal(t, 2, res.Customers)
	assert.Equal(t, 3, res.Products)
	assert.Equal(t, 2, res.Invoices)
	assert.Equal(t, 3, res.Items)

	var country string
	err = store.db.QueryRow("SELECT Country FROM Customers WHERE CustomerID = 17850").Scan(&country)
	require.NoError(t, err)
	assert.Equal(t, "United Kingdom", country)

	var invoiceDate string
	var customerID int64
	err = store.db.QueryRow("SELECT InvoiceDate, CustomerID FROM Invoices WHERE InvoiceNo = '536365'").
		Scan(&invoiceDate, &customerID)
	require.NoError(t, err)
	assert.Equal(t, "2010-12-01 08:26:00", invoiceDate)
	assert.Equal(t, int64(17850), customerID)

	var price float64
	err = store.db.QueryRow("SELECT UnitPrice FROM Products WHERE StockCode = '71053'").Scan(&price)
	require.NoError(t, err)
	assert.InDelta(t, 3.39, price, 1e-9)

	var items int
	err = store.db.QueryRow("SELECT COUNT(*) FROM InvoiceItems WHERE InvoiceNo = '536365'").Scan(&items)
	require.NoError(t, err)
	assert.Equal(t, 2, items)
}

func TestLoadRowsFirstOccurrenceWins(t *testing.T) {
	store := openTestStore(t)

	rows := sampleRows()
	// Same customer shows up again with a different country; the dimension
	// row keeps the first one.
	rows = append(rows, dataset.Row{
		InvoiceNo: "536370", StockCode: "22728",
		Quantity: "24", InvoiceDate: "01-12-2010 08:45",
		UnitPrice: "3.75", CustomerID: "17850", Country: "France",
	})

	res, err := store.LoadRows(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Customers)

	var country string
	err = store.db.QueryRow("SELECT Country FROM Customers WHERE CustomerID = 17850").Scan(&country)
	require.NoError(t, err)
	assert.Equal(t, "United Kingdom", country)
}

func TestLoadRowsDropsUnkeyableRows(t *testing.T) {
	store := openTestStore(t)

	rows := []dataset.Row{
		{InvoiceNo: "", StockCode: "85123A", Quantity: "6", CustomerID: "17850"},
		{InvoiceNo: "536365", StockCode: "", Quantity: "6", CustomerID: "17850"},
		{InvoiceNo: "536365", StockCode: "85123A", Quantity: "6", CustomerID: ""},
		{InvoiceNo: "536365", StockCode: "85123A", Quantity: "6", CustomerID: "not-a-number"},
		{
			InvoiceNo: "536365", StockCode: "85123A", Quantity: "6",
			InvoiceDate: "01-12-2010 08:26", UnitPrice: "2.55",
			CustomerID: "17850", Country: "United Kingdom",
		},
	}

	res, err := store.LoadRows(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 5, res.RowsRead)
	assert.Equal(t, 4, res.RowsDropped)
	assert.Equal(t, 1, res.Items)
}

func TestLoadRowsDegradesBadValuesToNull(t *testing.T) {
	store := openTestStore(t)

	rows := []dataset.Row{{
		InvoiceNo: "536365", StockCode: "85123A",
		Quantity: "abc", InvoiceDate: "not a date", UnitPrice: "free",
		CustomerID: "17850",
	}}

	res, err := store.LoadRows(context.Background(), rows)
	require.NoError(t, err)
	assert.Zero(t, res.RowsDropped)

	var quantity sql.NullInt64
	err = store.db.QueryRow("SELECT Quantity FROM InvoiceItems WHERE InvoiceNo = '536365'").Scan(&quantity)
	require.NoError(t, err)
	assert.False(t, quantity.Valid)

	var invoiceDate sql.NullString
	err = store.db.QueryRow("SELECT InvoiceDate FROM Invoices WHERE InvoiceNo = '536365'").Scan(&invoiceDate)
	require.NoError(t, err)
	assert.False(t, invoiceDate.Valid)

	var price sql.NullFloat64
	err = store.db.QueryRow("SELECT UnitPrice FROM Products WHERE StockCode = '85123A'").Scan(&price)
	require.NoError(t, err)
	assert.False(t, price.Valid)
}

func TestLoadRowsFloatShapedCustomerID(t *testing.T) {
	store := openTestStore(t)

	rows := []dataset.Row{{
		InvoiceNo: "536365", StockCode: "85123A", Quantity: "6",
		CustomerID: "17850.0", Country: "United Kingdom",
	}}

	res, err := store.LoadRows(context.Background(), rows)
	require.NoError(t, err)
	assert.Zero(t, res.RowsDropped)

	var n int
	err = store.db.QueryRow("SELECT COUNT(*) FROM Customers WHERE CustomerID = 17850").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReplaceClearsPreviousRun(t *testing.T) {
	store := openTestStore(t)

	_, err := store.LoadRows(context.Background(), sampleRows())
	require.NoError(t, err)

	require.NoError(t, store.Replace(context.Background()))

	var n int
	err = store.db.QueryRow("SELECT COUNT(*) FROM InvoiceItems").Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)

	// A fresh load after the replace works against the recreated tables.
	res, err := store.LoadRows(context.Background(), sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Items)
}

func TestLoadRowsEmptyInput(t *testing.T) {
	store := openTestStore(t)

	res, err := store.LoadRows(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.RowsRead)
	assert.Zero(t, res.Items)
}
