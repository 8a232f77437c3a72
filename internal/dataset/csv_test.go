package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retail.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,01-12-2010 08:26,2.55,17850,United Kingdom
536365,71053,WHITE METAL LANTERN,6,01-12-2010 08:26,3.39,17850,United Kingdom
C536379,D,Discount,-1,01-12-2010 09:41,27.50,14527,United Kingdom
`

func TestOpenCSVReadsAllRows(t *testing.T) {
	src, err := OpenCSV(writeTempCSV(t, sampleCSV), 0)
	require.NoError(t, err)
	assert.True(t, src.HasCustomerID())

	rows, err := ReadAll(src)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "536365", first.InvoiceNo)
	assert.Equal(t, "85123A", first.StockCode)
	assert.Equal(t, "WHITE HANGING HEART T-LIGHT HOLDER", first.Description)
	assert.Equal(t, "6", first.Quantity)
	assert.Equal(t, "01-12-2010 08:26", first.InvoiceDate)
	assert.Equal(t, "2.55", first.UnitPrice)
	assert.Equal(t, "17850", first.CustomerID)
	assert.Equal(t, "United Kingdom", first.Country)
	assert.Equal(t, 2, first.Line, "first data row follows the header line")

	assert.Equal(t, "C536379", rows[2].InvoiceNo)
	assert.Equal(t, 4, rows[2].Line)
}

func TestOpenCSVMaxRows(t *testing.T) {
	src, err := OpenCSV(writeTempCSV(t, sampleCSV), 2)
	require.NoError(t, err)

	rows, err := ReadAll(src)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCSVHeaderSpellingVariants(t *testing.T) {
	content := "Invoice No,Stock Code,description,QUANTITY,Invoice_Date,Unit Price,Customer ID,COUNTRY\n" +
		"536365,85123A,d,6,01-12-2010 08:26,2.55,17850,United Kingdom\n"

	src, err := OpenCSV(writeTempCSV(t, content), 0)
	require.NoError(t, err)
	require.True(t, src.HasCustomerID())

	rows, err := ReadAll(src)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "536365", rows[0].InvoiceNo)
	assert.Equal(t, "17850", rows[0].CustomerID)
	assert.Equal(t, "01-12-2010 08:26", rows[0].InvoiceDate)
}

func TestCSVSkipsEmptyAndShortRows(t *testing.T) {
	content := "InvoiceNo,StockCode,Quantity,CustomerID\n" +
		"536365,85123A,6,17850\n" +
		",,,\n" +
		"536366,71053\n"

	src, err := OpenCSV(writeTempCSV(t, content), 0)
	require.NoError(t, err)

	rows, err := ReadAll(src)
	require.NoError(t, err)
	require.Len(t, rows, 2, "the all-empty row is skipped")

	short := rows[1]
	assert.Equal(t, "536366", short.InvoiceNo)
	assert.Equal(t, "", short.Quantity, "missing cells bind empty")
	assert.Equal(t, "", short.CustomerID)
}

func TestCSVWithoutCustomerIDColumn(t *testing.T) {
	content := "InvoiceNo,StockCode,Quantity\n536365,85123A,6\n"

	src, err := OpenCSV(writeTempCSV(t, content), 0)
	require.NoError(t, err)
	defer src.Close()

	assert.False(t, src.HasCustomerID())
}

func TestOpenCSVEmptyFile(t *testing.T) {
	_, err := OpenCSV(writeTempCSV(t, ""), 0)
	assert.Error(t, err)
}

func TestOpenDispatchesByExtension(t *testing.T) {
	src, err := Open(writeTempCSV(t, sampleCSV), 0)
	require.NoError(t, err)
	defer src.Close()

	_, ok := src.(*CSVSource)
	assert.True(t, ok)
}
