package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTempXLSX(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "retail.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestOpenXLSXReadsRows(t *testing.T) {
	path := writeTempXLSX(t, [][]interface{}{
		{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"},
		{"536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 6, "01-12-2010 08:26", 2.55, 17850, "United Kingdom"},
		{"C536379", "D", "Discount", -1, "01-12-2010 09:41", 27.5, 14527, "United Kingdom"},
	})

	src, err := OpenXLSX(path, 0)
	require.NoError(t, err)
	assert.True(t, src.HasCustomerID())

	rows, err := ReadAll(src)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "536365", rows[0].InvoiceNo)
	assert.Equal(t, "6", rows[0].Quantity)
	assert.Equal(t, "2.55", rows[0].UnitPrice)
	assert.Equal(t, "17850", rows[0].CustomerID)
	assert.Equal(t, 2, rows[0].Line)

	assert.Equal(t, "C536379", rows[1].InvoiceNo)
	assert.Equal(t, "-1", rows[1].Quantity)
}

func TestOpenXLSXMaxRows(t *testing.T) {
	path := writeTempXLSX(t, [][]interface{}{
		{"InvoiceNo", "StockCode", "Quantity", "CustomerID"},
		{"1", "A", 1, 10},
		{"2", "B", 2, 11},
		{"3", "C", 3, 12},
	})

	src, err := OpenXLSX(path, 2)
	require.NoError(t, err)

	rows, err := ReadAll(src)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestOpenXLSXViaDispatch(t *testing.T) {
	path := writeTempXLSX(t, [][]interface{}{
		{"InvoiceNo", "StockCode", "Quantity", "CustomerID"},
		{"1", "A", 1, 10},
	})

	src, err := Open(path, 0)
	require.NoError(t, err)
	defer src.Close()

	_, ok := src.(*XLSXSource)
	assert.True(t, ok)
}
