package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"middleman/pkg/domain"
)

// ExcelGenerator генератор XLSX отчётов: листы Summary, Unit Profit, Allocation, Routes
type ExcelGenerator struct {
	baseGenerator
}

// Format возвращает формат генератора
func (g *ExcelGenerator) Format() Format {
	return FormatXLSX
}

// Имена листов
const (
	SheetSummary    = "Summary"
	SheetProfits    = "Unit Profit"
	SheetAllocation = "Allocation"
	SheetRoutes     = "Routes"
)

// sheetWriter обёртка над листом, запоминающая первую ошибку
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, value any) {
	if w.err != nil {
		return
	}
	if v, ok := value.(float64); ok && !domain.IsFinite(v) {
		value = fmt.Sprint(v)
	}
	w.err = w.f.SetCellValue(w.sheet, CellByIndex(col, row), value)
}

func (w *sheetWriter) style(fromCol, fromRow, toCol, toRow, style int) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, CellByIndex(fromCol, fromRow), CellByIndex(toCol, toRow), style)
}

func (w *sheetWriter) merge(fromCol, fromRow, toCol, toRow int) {
	if w.err != nil {
		return
	}
	w.err = w.f.MergeCell(w.sheet, CellByIndex(fromCol, fromRow), CellByIndex(toCol, toRow))
}

func (w *sheetWriter) width(fromCol, toCol int, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(w.sheet, ColName(fromCol), ColName(toCol), width)
}

type excelStyles struct {
	title    int
	header   int
	number   int
	positive int
	notice   int
}

// Generate генерирует XLSX отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   g.title(),
		Creator: g.author(),
	}); err != nil {
		return nil, fmt.Errorf("excel properties: %w", err)
	}

	styles, err := g.newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("excel styles: %w", err)
	}

	// лист по умолчанию становится сводкой
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("excel sheet: %w", err)
	}
	for _, name := range []string{SheetProfits, SheetAllocation, SheetRoutes} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("excel sheet %s: %w", name, err)
		}
	}

	p := data.Problem
	writers := []func() error{
		func() error { return g.writeSummary(f, styles, data) },
		func() error {
			return g.writeMatrix(f, styles, SheetProfits, "Unit Profit (selling - purchase - cost)", p, data.Solution.Profits)
		},
		func() error {
			return g.writeMatrix(f, styles, SheetAllocation, "Allocation", p, data.Solution.Allocation)
		},
		func() error { return g.writeRoutes(f, styles, data) },
	}
	for _, write := range writers {
		if err := write(); err != nil {
			return nil, fmt.Errorf("excel write error: %w", err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) newStyles(f *excelize.File) (*excelStyles, error) {
	numFmt := "0"
	if g.opts.Precision > 0 {
		numFmt += "." + strings.Repeat("0", int(g.opts.Precision))
	}

	var err error
	add := func(style *excelize.Style) int {
		if err != nil {
			return 0
		}
		var id int
		id, err = f.NewStyle(style)
		return id
	}

	s := &excelStyles{
		title: add(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}),
		header: add(&excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}),
		number: add(&excelize.Style{CustomNumFmt: &numFmt}),
		positive: add(&excelize.Style{
			CustomNumFmt: &numFmt,
			Font:         &excelize.Font{Bold: true},
			Fill:         excelize.Fill{Type: "pattern", Color: []string{"E2EFDA"}, Pattern: 1},
		}),
		notice: add(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "C00000"}}),
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (g *ExcelGenerator) writeSummary(f *excelize.File, s *excelStyles, data *Data) error {
	w := &sheetWriter{f: f, sheet: SheetSummary}

	row := 1
	w.set(0, row, g.title())
	w.merge(0, row, 1, row)
	w.style(0, row, 1, row, s.title)
	row++
	w.set(0, row, "Generated")
	w.set(1, row, formatTimestamp(data.generatedAt()))
	row += 2

	w.set(0, row, "Metric")
	w.set(1, row, "Value")
	w.style(0, row, 1, row, s.header)
	row++
	for _, kv := range g.summary(data) {
		w.set(0, row, kv.Key)
		w.set(1, row, kv.Value)
		row++
	}

	if data.Empty() {
		row++
		w.set(0, row, EmptyNotice)
		w.style(0, row, 0, row, s.notice)
	}

	w.width(0, 0, 22)
	w.width(1, 1, 36)
	return w.err
}

func (g *ExcelGenerator) writeMatrix(f *excelize.File, s *excelStyles, sheet, title string, p *domain.BalancedProblem, m domain.Matrix) error {
	w := &sheetWriter{f: f, sheet: sheet}

	w.set(0, 1, title)
	w.style(0, 1, 0, 1, s.title)

	header := 3
	for j, name := range recipientNames(p) {
		w.set(j+1, header, name)
	}
	w.style(0, header, p.Recipients, header, s.header)

	for i, row := range m {
		r := header + 1 + i
		w.set(0, r, p.SupplierName(i))
		for j, v := range row {
			w.set(j+1, r, v)
			if v > 0 && sheet == SheetAllocation {
				w.style(j+1, r, j+1, r, s.positive)
			} else {
				w.style(j+1, r, j+1, r, s.number)
			}
		}
	}

	w.width(0, 0, 20)
	if p.Recipients > 0 {
		w.width(1, p.Recipients, 16)
	}
	return w.err
}

func (g *ExcelGenerator) writeRoutes(f *excelize.File, s *excelStyles, data *Data) error {
	w := &sheetWriter{f: f, sheet: SheetRoutes}

	if data.Empty() {
		w.set(0, 1, EmptyNotice)
		w.style(0, 1, 0, 1, s.notice)
		return w.err
	}

	headers := []string{"Supplier", "Recipient", "Quantity", "Unit Profit", "Route Profit", "Dummy"}
	for c, h := range headers {
		w.set(c, 1, h)
	}
	w.style(0, 1, len(headers)-1, 1, s.header)

	row := 2
	for _, r := range data.Routes {
		w.set(0, row, r.SupplierName)
		w.set(1, row, r.RecipientName)
		w.set(2, row, r.Quantity)
		w.set(3, row, r.UnitProfit)
		w.set(4, row, r.Profit)
		w.set(5, row, r.Dummy)
		w.style(2, row, 4, row, s.number)
		row++
	}

	w.set(0, row, "Total")
	total, _ := routesTotal(data.Routes).Float64()
	w.set(4, row, total)
	w.style(0, row, 0, row, s.header)
	w.style(4, row, 4, row, s.positive)

	w.width(0, 1, 20)
	w.width(2, 5, 14)
	return w.err
}
