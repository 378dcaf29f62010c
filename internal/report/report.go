// Package report renders a receipt snapshot into XLSX workbooks: the full
// six-sheet export and the single-sheet quick download.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
	"github.com/vickotoAguilera/BoletasScaner/internal/money"
	"github.com/vickotoAguilera/BoletasScaner/internal/stats"
)

// Sheet names are part of the export contract; downstream users key on them.
const (
	SheetResumen      = "Resumen"
	SheetDetalle      = "Detalle Productos"
	SheetPorCategoria = "Por Categoría"
	SheetPorCiudad    = "Por Ciudad"
	SheetPorMes       = "Por Mes"
	SheetEstadisticas = "Estadísticas"
)

const dateLayout = "2006-01-02"

// DefaultBaseName returns the date-stamped base used when the caller does not
// name the export.
func DefaultBaseName(now time.Time) string {
	return "mis-gastos-" + now.Format(dateLayout)
}

// BuildWorkbook renders the full multi-sheet report. The returned filename is
// baseName plus the xlsx extension. An empty snapshot produces a valid
// headers-only workbook.
func BuildWorkbook(records []*entity.Receipt, baseName string) ([]byte, string, error) {
	if baseName == "" {
		baseName = DefaultBaseName(time.Now())
	}
	ordered := chronological(records)
	agg := stats.Aggregate(ordered)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetResumen); err != nil {
		return nil, "", err
	}
	for _, name := range []string{SheetDetalle, SheetPorCategoria, SheetPorCiudad, SheetPorMes, SheetEstadisticas} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, "", err
		}
	}

	if err := writeResumen(f, ordered); err != nil {
		return nil, "", err
	}
	if err := writeDetalle(f, ordered); err != nil {
		return nil, "", err
	}
	if err := writeBuckets(f, SheetPorCategoria, "Categoría", agg.ByCategory, &agg.Grand); err != nil {
		return nil, "", err
	}
	if err := writeBuckets(f, SheetPorCiudad, "Ciudad", agg.ByCity, nil); err != nil {
		return nil, "", err
	}
	if err := writePorMes(f, agg.ByMonth); err != nil {
		return nil, "", err
	}
	if err := writeEstadisticas(f, agg.Grand); err != nil {
		return nil, "", err
	}

	if idx, err := f.GetSheetIndex(SheetResumen); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), baseName + ".xlsx", nil
}

// BuildQuickSheet renders the reduced single-sheet variant for fast
// downloads. It keeps the historical 3-column cost breakdown (Subtotal
// computed as Total − IVA) and is intentionally not reconciled with the full
// report's per-record normalization.
func BuildQuickSheet(records []*entity.Receipt, baseName string) ([]byte, string, error) {
	if baseName == "" {
		baseName = DefaultBaseName(time.Now())
	}
	ordered := chronological(records)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetResumen); err != nil {
		return nil, "", err
	}

	headers := []string{"Fecha", "Tienda", "RUT", "N° Boleta", "Categoría", "Subtotal", "IVA", "Total", "Método Pago"}
	if err := writeRow(f, SheetResumen, 1, toAny(headers)); err != nil {
		return nil, "", err
	}
	for i, r := range ordered {
		row := []any{
			r.PurchaseDate.Format(dateLayout),
			r.MerchantName,
			deref(r.MerchantTaxID),
			deref(r.ReceiptNumber),
			string(r.Category),
			r.TotalGross - r.TotalTax,
			r.TotalTax,
			r.TotalGross,
			string(r.PaymentMethod),
		}
		if err := writeRow(f, SheetResumen, i+2, row); err != nil {
			return nil, "", err
		}
	}
	setWidths(f, SheetResumen, []float64{12, 25, 15, 12, 15, 12, 10, 12, 15})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), baseName + ".xlsx", nil
}

func writeResumen(f *excelize.File, ordered []*entity.Receipt) error {
	headers := []string{"N°", "Fecha", "Hora", "Tienda", "Ciudad", "RUT", "N° Boleta", "Categoría", "Neto", "IVA", "Total", "Método Pago"}
	if err := writeRow(f, SheetResumen, 1, toAny(headers)); err != nil {
		return err
	}
	for i, r := range ordered {
		row := []any{
			i + 1,
			r.PurchaseDate.Format(dateLayout),
			deref(r.PurchaseTime),
			r.MerchantName,
			r.City,
			deref(r.MerchantTaxID),
			deref(r.ReceiptNumber),
			string(r.Category),
			r.TotalNet,
			r.TotalTax,
			r.TotalGross,
			string(r.PaymentMethod),
		}
		if err := writeRow(f, SheetResumen, i+2, row); err != nil {
			return err
		}
	}
	setWidths(f, SheetResumen, []float64{5, 12, 10, 25, 16, 15, 12, 15, 12, 10, 12, 15})
	return nil
}

func writeDetalle(f *excelize.File, ordered []*entity.Receipt) error {
	headers := []string{
		"Fecha", "Tienda", "N° Boleta", "Producto", "Cantidad",
		"Precio Unit.", "Neto Unit.", "IVA Unit.",
		"Subtotal", "Subtotal Neto", "IVA Subtotal",
	}
	if err := writeRow(f, SheetDetalle, 1, toAny(headers)); err != nil {
		return err
	}
	row := 2
	for _, r := range ordered {
		for _, it := range r.Items {
			vals := []any{
				r.PurchaseDate.Format(dateLayout),
				r.MerchantName,
				deref(r.ReceiptNumber),
				it.Description,
				it.Quantity,
				it.UnitPriceGross,
				it.UnitPriceNet,
				it.UnitTax,
				it.LineTotalGross,
				it.LineTotalNet,
				it.LineTotalTax,
			}
			if err := writeRow(f, SheetDetalle, row, vals); err != nil {
				return err
			}
			row++
		}
	}
	setWidths(f, SheetDetalle, []float64{12, 25, 12, 35, 10, 12, 12, 12, 12, 13, 12})
	return nil
}

func writeBuckets(f *excelize.File, sheet, keyHeader string, buckets []stats.Bucket, total *stats.Grand) error {
	headers := []string{keyHeader, "Cantidad", "Neto", "IVA", "Total", "Porcentaje"}
	if err := writeRow(f, sheet, 1, toAny(headers)); err != nil {
		return err
	}
	row := 2
	for _, b := range buckets {
		vals := []any{b.Key, b.Count, b.NetSum, b.TaxSum, b.GrossSum, b.PercentLabel}
		if err := writeRow(f, sheet, row, vals); err != nil {
			return err
		}
		row++
	}
	if total != nil && total.RecordCount > 0 {
		vals := []any{"TOTAL", total.RecordCount, total.TotalNet, total.TotalTax, total.TotalGross, "100%"}
		if err := writeRow(f, sheet, row, vals); err != nil {
			return err
		}
	}
	setWidths(f, sheet, []float64{18, 10, 12, 12, 12, 12})
	return nil
}

func writePorMes(f *excelize.File, months []stats.MonthBucket) error {
	headers := []string{"Mes", "Cantidad", "Neto", "IVA", "Total", "Promedio"}
	if err := writeRow(f, SheetPorMes, 1, toAny(headers)); err != nil {
		return err
	}
	for i, m := range months {
		vals := []any{m.Label(), m.Count, m.NetSum, m.TaxSum, m.GrossSum, m.Average}
		if err := writeRow(f, SheetPorMes, i+2, vals); err != nil {
			return err
		}
	}
	setWidths(f, SheetPorMes, []float64{10, 10, 12, 12, 12, 12})
	return nil
}

func writeEstadisticas(f *excelize.File, g stats.Grand) error {
	period := ""
	if g.DateMin != nil && g.DateMax != nil {
		period = g.DateMin.Format(dateLayout) + " – " + g.DateMax.Format(dateLayout)
	}
	rows := [][2]any{
		{"Cantidad de boletas", g.RecordCount},
		{"Período", period},
		{"Total bruto", money.FormatCLP(g.TotalGross)},
		{"Total neto", money.FormatCLP(g.TotalNet)},
		{"Total IVA", money.FormatCLP(g.TotalTax)},
		{"Promedio por boleta", money.FormatCLP(g.AverageGross)},
		{"Compra máxima", money.FormatCLP(g.MaxGross)},
		{"Compra mínima", money.FormatCLP(g.MinGross)},
		{"Categoría más frecuente", g.MostFrequentCategory},
		{"Ciudad con más gasto", g.TopCityByGross},
	}
	for i, r := range rows {
		if err := writeRow(f, SheetEstadisticas, i+1, []any{r[0], r[1]}); err != nil {
			return err
		}
	}
	setWidths(f, SheetEstadisticas, []float64{24, 24})
	return nil
}

// chronological returns a copy sorted oldest-first by purchase date. Exports
// read like a statement, unlike the ledger's newest-first live view. Equal
// dates keep their input order.
func chronological(records []*entity.Receipt) []*entity.Receipt {
	out := make([]*entity.Receipt, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchaseDate.Before(out[j].PurchaseDate)
	})
	return out
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func setWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			continue
		}
		_ = f.SetColWidth(sheet, col, col, w)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
