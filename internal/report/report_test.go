package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vickotoAguilera/BoletasScaner/constants"
	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
	"github.com/vickotoAguilera/BoletasScaner/internal/report"
)

func rec(t *testing.T, merchant string, gross int64, cat constants.Category, city string, date time.Time, items ...int64) *entity.Receipt {
	t.Helper()
	r := &entity.Receipt{
		OwnerID:       "user-1",
		MerchantName:  merchant,
		City:          city,
		PurchaseDate:  date,
		TotalGross:    gross,
		PaymentMethod: constants.PaymentEfectivo,
		Category:      cat,
	}
	r.TotalTax = gross - gross*100/119
	r.TotalNet = gross - r.TotalTax
	for _, unit := range items {
		it, err := entity.NewLineItem(1, "item", unit)
		require.NoError(t, err)
		r.Items = append(r.Items, it)
	}
	return r
}

func sample(t *testing.T) []*entity.Receipt {
	t.Helper()
	// Deliberately out of order: the report must sort oldest-first.
	return []*entity.Receipt{
		rec(t, "Jumbo", 8000, constants.Supermercado, "Santiago", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 3000, 5000),
		rec(t, "Lider", 11900, constants.Supermercado, "Santiago", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), 11900),
		rec(t, "Cruz Verde", 5000, constants.Farmacia, "Valparaíso", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)),
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestBuildWorkbook_Sheets(t *testing.T) {
	data, name, err := report.BuildWorkbook(sample(t), "gastos-enero")
	require.NoError(t, err)
	assert.Equal(t, "gastos-enero.xlsx", name)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{
		report.SheetResumen,
		report.SheetDetalle,
		report.SheetPorCategoria,
		report.SheetPorCiudad,
		report.SheetPorMes,
		report.SheetEstadisticas,
	}, f.GetSheetList())
}

func TestBuildWorkbook_ResumenChronological(t *testing.T) {
	data, _, err := report.BuildWorkbook(sample(t), "x")
	require.NoError(t, err)
	f := openWorkbook(t, data)

	rows, err := f.GetRows(report.SheetResumen)
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 records

	assert.Equal(t, "N°", rows[0][0])
	assert.Equal(t, "2025-01-05", rows[1][1])
	assert.Equal(t, "2025-01-20", rows[2][1])
	assert.Equal(t, "2025-02-01", rows[3][1])
	assert.Equal(t, "Lider", rows[1][3])
	assert.Equal(t, "10000", rows[1][8])
	assert.Equal(t, "1900", rows[1][9])
	assert.Equal(t, "11900", rows[1][10])
}

func TestBuildWorkbook_DetalleRowCount(t *testing.T) {
	set := sample(t)
	data, _, err := report.BuildWorkbook(set, "x")
	require.NoError(t, err)
	f := openWorkbook(t, data)

	rows, err := f.GetRows(report.SheetDetalle)
	require.NoError(t, err)

	var wantItems int
	for _, r := range set {
		wantItems += len(r.Items)
	}
	require.Len(t, rows, wantItems+1)

	// Record chronological order first, then item insertion order.
	assert.Equal(t, "Lider", rows[1][1])
	assert.Equal(t, "Jumbo", rows[2][1])
	assert.Equal(t, "3000", rows[2][5])
	assert.Equal(t, "5000", rows[3][5])
}

func TestBuildWorkbook_PorCategoriaTotalRow(t *testing.T) {
	data, _, err := report.BuildWorkbook(sample(t), "x")
	require.NoError(t, err)
	f := openWorkbook(t, data)

	rows, err := f.GetRows(report.SheetPorCategoria)
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 2 buckets + TOTAL

	assert.Equal(t, "supermercado", rows[1][0])
	assert.Equal(t, "farmacia", rows[2][0])
	last := rows[3]
	assert.Equal(t, "TOTAL", last[0])
	assert.Equal(t, "3", last[1])
	assert.Equal(t, "24900", last[4])
	assert.Equal(t, "100%", last[5])
}

func TestBuildWorkbook_PorMes(t *testing.T) {
	data, _, err := report.BuildWorkbook(sample(t), "x")
	require.NoError(t, err)
	f := openWorkbook(t, data)

	rows, err := f.GetRows(report.SheetPorMes)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2025-01", rows[1][0])
	assert.Equal(t, "16900", rows[1][4])
	assert.Equal(t, "8450", rows[1][5])
	assert.Equal(t, "2025-02", rows[2][0])
}

func TestBuildWorkbook_Estadisticas(t *testing.T) {
	data, _, err := report.BuildWorkbook(sample(t), "x")
	require.NoError(t, err)
	f := openWorkbook(t, data)

	rows, err := f.GetRows(report.SheetEstadisticas)
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, []string{"Cantidad de boletas", "3"}, rows[0][:2])
	assert.Equal(t, "2025-01-05 – 2025-02-01", rows[1][1])
	assert.Equal(t, "Categoría más frecuente", rows[8][0])
	assert.Equal(t, "supermercado", rows[8][1])
	assert.Equal(t, "Santiago", rows[9][1])
}

func TestBuildWorkbook_Empty(t *testing.T) {
	data, name, err := report.BuildWorkbook(nil, "")
	require.NoError(t, err)
	assert.Contains(t, name, "mis-gastos-")

	f := openWorkbook(t, data)
	rows, err := f.GetRows(report.SheetResumen)
	require.NoError(t, err)
	require.Len(t, rows, 1) // headers only

	rows, err = f.GetRows(report.SheetPorCategoria)
	require.NoError(t, err)
	require.Len(t, rows, 1) // no TOTAL row on an empty set
}

func TestBuildQuickSheet(t *testing.T) {
	data, name, err := report.BuildQuickSheet(sample(t), "rapido")
	require.NoError(t, err)
	assert.Equal(t, "rapido.xlsx", name)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{report.SheetResumen}, f.GetSheetList())

	rows, err := f.GetRows(report.SheetResumen)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Historical 3-column breakdown: Subtotal is Total − IVA.
	assert.Equal(t, "Subtotal", rows[0][5])
	assert.Equal(t, "10000", rows[1][5])
	assert.Equal(t, "1900", rows[1][6])
	assert.Equal(t, "11900", rows[1][7])
}
