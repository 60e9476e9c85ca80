package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSVGenerator генератор CSV отчётов
type CSVGenerator struct {
	baseGenerator
}

// Format возвращает формат генератора
func (g *CSVGenerator) Format() Format {
	return FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record ...string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Generate генерирует CSV отчёт. Секции разделены пустой строкой.
func (g *CSVGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	cw.Write("Report", g.title())
	cw.Write("Generated", formatTimestamp(data.generatedAt()))
	cw.Write()

	cw.Write("Summary")
	cw.Write("Metric", "Value")
	for _, kv := range g.summary(data) {
		cw.Write(kv.Key, kv.Value)
	}
	cw.Write()

	p := data.Problem
	g.writeMatrix(cw, "Unit Profit", data.Solution.Profits, recipientNames(p), supplierNames(p))
	cw.Write()
	g.writeMatrix(cw, "Allocation", data.Solution.Allocation, recipientNames(p), supplierNames(p))
	cw.Write()

	cw.Write("Routes")
	if data.Empty() {
		cw.Write(EmptyNotice)
	} else {
		cw.Write("Supplier", "Recipient", "Quantity", "Unit Profit", "Route Profit", "Dummy")
		for _, r := range data.Routes {
			cw.Write(r.SupplierName, r.RecipientName,
				g.number(r.Quantity), g.number(r.UnitProfit), g.number(r.Profit),
				strconv.FormatBool(r.Dummy))
		}
		cw.Write("Total", "", "", "", routesTotal(data.Routes).StringFixed(g.opts.Precision), "")
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *CSVGenerator) writeMatrix(cw *csvWriter, title string, m [][]float64, cols, rows []string) {
	cw.Write(title)
	cw.Write(append([]string{""}, cols...)...)
	for i, row := range m {
		record := make([]string, 0, len(row)+1)
		record = append(record, rows[i])
		for _, v := range row {
			record = append(record, g.number(v))
		}
		cw.Write(record...)
	}
}
