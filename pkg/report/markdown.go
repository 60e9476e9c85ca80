package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// MarkdownGenerator генератор Markdown отчётов
type MarkdownGenerator struct {
	baseGenerator
}

// Format возвращает формат генератора
func (g *MarkdownGenerator) Format() Format {
	return FormatMarkdown
}

// Generate генерирует Markdown отчёт
func (g *MarkdownGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	g.writeHeader(&buf, data)
	g.writeSummary(&buf, data)

	if data.Empty() {
		fmt.Fprintf(&buf, "> **%s**\n\n", EmptyNotice)
	}

	g.writeProfitMatrix(&buf, data)
	g.writeAllocation(&buf, data)
	if !data.Empty() {
		g.writeRoutes(&buf, data)
	}

	g.writeFooter(&buf, data)

	return buf.Bytes(), nil
}

func (g *MarkdownGenerator) writeHeader(buf *bytes.Buffer, data *Data) {
	fmt.Fprintf(buf, "# %s\n\n", g.title())
	if g.opts.CompanyName != "" {
		fmt.Fprintf(buf, "**%s**\n\n", g.opts.CompanyName)
	}
	fmt.Fprintf(buf, "Generated: %s\n\n", formatTimestamp(data.generatedAt()))
}

func (g *MarkdownGenerator) writeSummary(buf *bytes.Buffer, data *Data) {
	buf.WriteString("## Summary\n\n")
	buf.WriteString("| Metric | Value |\n")
	buf.WriteString("|--------|-------|\n")
	for _, kv := range g.summary(data) {
		fmt.Fprintf(buf, "| %s | %s |\n", kv.Key, kv.Value)
	}
	buf.WriteString("\n")
}

// writeProfitMatrix матрица единичной прибыли с разложением selling - purchase - cost
func (g *MarkdownGenerator) writeProfitMatrix(buf *bytes.Buffer, data *Data) {
	p := data.Problem
	buf.WriteString("## Unit Profit\n\n")
	buf.WriteString("Each cell: profit (selling - purchase - cost).\n\n")

	writeTableHead(buf, recipientNames(p))
	for i, row := range data.Solution.Profits {
		cells := make([]string, len(row))
		for j, v := range row {
			selling, purchase, cost := unitProfitParts(p, i, j)
			cells[j] = fmt.Sprintf("%s (%s - %s - %s)",
				g.number(v), g.number(selling), g.number(purchase), g.number(cost))
		}
		writeTableRow(buf, p.SupplierName(i), cells)
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeAllocation(buf *bytes.Buffer, data *Data) {
	p := data.Problem
	buf.WriteString("## Allocation\n\n")

	writeTableHead(buf, recipientNames(p))
	for i, row := range data.Solution.Allocation {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = g.number(v)
			if v > 0 {
				cells[j] = "**" + cells[j] + "**"
			}
		}
		writeTableRow(buf, p.SupplierName(i), cells)
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeRoutes(buf *bytes.Buffer, data *Data) {
	buf.WriteString("## Routes\n\n")
	buf.WriteString("| Route | Quantity | Unit Profit | Route Profit |\n")
	buf.WriteString("|-------|----------|-------------|--------------|\n")
	for _, r := range data.Routes {
		name := r.SupplierName + " -> " + r.RecipientName
		if r.Dummy {
			name += " _(dummy)_"
		}
		fmt.Fprintf(buf, "| %s | %s | %s | %s |\n",
			name, g.number(r.Quantity), g.number(r.UnitProfit), g.money(r.Profit))
	}
	fmt.Fprintf(buf, "| **Total** | | | **%s** |\n\n", g.money(data.Solution.TotalProfit))
}

func (g *MarkdownGenerator) writeFooter(buf *bytes.Buffer, data *Data) {
	buf.WriteString("---\n\n")
	fmt.Fprintf(buf, "_Generated by %s | %s_\n", g.author(), formatTimestamp(data.generatedAt()))
}

func writeTableHead(buf *bytes.Buffer, cols []string) {
	buf.WriteString("| |")
	for _, c := range cols {
		buf.WriteString(" " + c + " |")
	}
	buf.WriteString("\n|---|")
	buf.WriteString(strings.Repeat("---|", len(cols)))
	buf.WriteString("\n")
}

func writeTableRow(buf *bytes.Buffer, label string, cells []string) {
	buf.WriteString("| " + label + " |")
	for _, c := range cells {
		buf.WriteString(" " + c + " |")
	}
	buf.WriteString("\n")
}
