package inventory

import (
	"bytes"
	"testing"

	"workshop-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadCatalogSheet(t *testing.T) {
	buf := workbook(t, [][]any{
		{"sku", "name", "type", "brand", "purchase_price", "selling_price", "stock", "description"},
		{"oil-5w30", "Engine oil 5W30", "part", "Castrol", "12.50", "19.90", "40", "1 litre"},
		{"LABOUR-1H", "Labour hour", "service", "", "0", "45", "", ""},
	})

	rows, err := ReadCatalogSheet(buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	parsed, errs := parseCatalogRows(rows)
	assert.Empty(t, errs)
	require.Len(t, parsed, 2)

	oil := parsed[0]
	assert.Equal(t, 2, oil.row)
	assert.Equal(t, "oil-5w30", oil.input.SKU)
	assert.Equal(t, models.ProductTypePart, oil.input.Type)
	assert.Equal(t, "19.9", oil.input.SellingPrice.String())
	require.NotNil(t, oil.input.StockQuantity)
	assert.Equal(t, 40, *oil.input.StockQuantity)

	labour := parsed[1]
	assert.Equal(t, models.ProductTypeService, labour.input.Type)
	assert.Nil(t, labour.input.StockQuantity)
}

func TestReadCatalogSheetRejectsGarbage(t *testing.T) {
	_, err := ReadCatalogSheet(bytes.NewBufferString("not a workbook"))
	assert.Error(t, err)
}

func TestParseCatalogRowsReportsBadCells(t *testing.T) {
	rows := [][]string{
		{"P1", "Filter", "", "", "abc"},
		{"P2", "Belt", "part", "", "1", "2", "many"},
		{},
		{"P3", "Pad", "part", "", "3,5", "7,25", "4"},
	}

	parsed, errs := parseCatalogRows(rows)
	require.Len(t, errs, 2)
	assert.Equal(t, 1, errs[0].Row)
	assert.Contains(t, errs[0].Message, "purchase_price")
	assert.Equal(t, 2, errs[1].Row)
	assert.Contains(t, errs[1].Message, "stock")

	require.Len(t, parsed, 1)
	assert.Equal(t, 4, parsed[0].row)
	assert.Equal(t, "3.5", parsed[0].input.PurchasePrice.String())
}

func TestNewProductRules(t *testing.T) {
	stock := 3
	_, err := newProduct(ProductInput{SKU: "S1", Name: "Labour", Type: models.ProductTypeService, StockQuantity: &stock})
	assert.Error(t, err, "services carry no stock")

	p, err := newProduct(ProductInput{SKU: " p1 ", Name: "Filter", Type: models.ProductTypePart})
	require.NoError(t, err)
	assert.Equal(t, "P1", p.ID)
	require.NotNil(t, p.StockQuantity)
	assert.Equal(t, 0, *p.StockQuantity)

	_, err = newProduct(ProductInput{SKU: "bad sku", Name: "x", Type: models.ProductTypePart})
	assert.Error(t, err)

	neg := -1
	_, err = newProduct(ProductInput{SKU: "P2", Name: "x", Type: models.ProductTypePart, StockQuantity: &neg})
	assert.Error(t, err)
}
