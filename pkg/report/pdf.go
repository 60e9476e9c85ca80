package report

import (
	"context"
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"middleman/pkg/domain"
)

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	baseGenerator
}

// Format возвращает формат генератора
func (g *PDFGenerator) Format() Format {
	return FormatPDF
}

// Стили
var (
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	titleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	sectionStyle = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   4,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  8,
		Align: align.Center,
		Color: darkGrayColor,
	}

	noticeStyle = props.Text{
		Size:  11,
		Style: fontstyle.BoldItalic,
		Align: align.Center,
		Color: dangerColor,
		Top:   2,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  8,
		Align: align.Center,
	}

	positiveCellTextStyle = props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: successColor,
	}
)

const defaultGrid = 12

// pdfDocument состояние одного документа; сетка расширяется под число получателей
type pdfDocument struct {
	m    core.Maroto
	grid int
}

// span переводит ширину из 12-колоночной сетки в сетку документа
func (d *pdfDocument) span(n int) int {
	s := n * d.grid / defaultGrid
	if s < 1 {
		return 1
	}
	return s
}

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *Data) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	grid := defaultGrid
	if data.Problem.Recipients+1 > grid {
		grid = data.Problem.Recipients + 1
	}

	doc := &pdfDocument{m: maroto.New(g.pdfConfig(grid)), grid: grid}

	g.addHeader(doc, data)
	g.addSummary(doc, data)
	if data.Empty() {
		doc.m.AddRow(12, text.NewCol(doc.grid, EmptyNotice, noticeStyle))
	}
	g.addMatrix(doc, "Unit Profit", data.Problem, data.Solution.Profits, false)
	g.addMatrix(doc, "Allocation", data.Problem, data.Solution.Allocation, true)
	if !data.Empty() {
		g.addRoutes(doc, data)
	}
	g.addFooter(doc, data)

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	out, err := doc.m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return out.GetBytes(), nil
}

func (g *PDFGenerator) pdfConfig(grid int) *entity.Config {
	pc := g.opts.PDF
	b := config.NewBuilder().
		WithMaxGridSize(grid).
		WithLeftMargin(orDefault(pc.MarginLeft, 15)).
		WithTopMargin(orDefault(pc.MarginTop, 15)).
		WithRightMargin(orDefault(pc.MarginRight, 15)).
		WithBottomMargin(orDefault(pc.MarginBottom, 15)).
		WithPageSize(pageSize(pc.PageSize)).
		WithTitle(g.title(), true).
		WithAuthor(g.author(), true)

	if pc.Orientation == "landscape" {
		b = b.WithOrientation(orientation.Horizontal)
	} else {
		b = b.WithOrientation(orientation.Vertical)
	}
	if pc.FontSize > 0 {
		b = b.WithDefaultFont(&props.Font{Size: pc.FontSize})
	}
	if pc.EnablePageNumbers {
		b = b.WithPageNumber()
	}
	return b.Build()
}

func pageSize(name string) pagesize.Type {
	switch name {
	case "Letter":
		return pagesize.Letter
	case "Legal":
		return pagesize.Legal
	case "A3":
		return pagesize.A3
	default:
		return pagesize.A4
	}
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func (g *PDFGenerator) addHeader(doc *pdfDocument, data *Data) {
	doc.m.AddRow(14, text.NewCol(doc.grid, g.title(), titleStyle))
	doc.m.AddRow(4, line.NewCol(doc.grid))

	half := doc.grid / 2
	doc.m.AddRow(6,
		text.NewCol(half, g.author(), smallStyle),
		text.NewCol(doc.grid-half, "Generated: "+formatTimestamp(data.generatedAt()),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)
	doc.m.AddRow(6)
}

func (g *PDFGenerator) addSection(doc *pdfDocument, title string) {
	doc.m.AddRow(10, text.NewCol(doc.grid, title, sectionStyle))
}

func (g *PDFGenerator) addSummary(doc *pdfDocument, data *Data) {
	g.addSection(doc, "Summary")

	// главные показатели карточками
	third := doc.grid / 3
	doc.m.AddRow(12,
		text.NewCol(third, g.money(data.Solution.TotalProfit), metricValueStyle),
		text.NewCol(third, g.money(data.InitialProfit), metricValueStyle),
		text.NewCol(doc.grid-2*third, strconv.Itoa(data.Iterations), metricValueStyle),
	)
	doc.m.AddRow(6,
		text.NewCol(third, "Total Profit", metricLabelStyle),
		text.NewCol(third, "Initial Profit", metricLabelStyle),
		text.NewCol(doc.grid-2*third, "Iterations", metricLabelStyle),
	)
	doc.m.AddRow(4)

	key := doc.span(5)
	for _, kv := range g.summary(data) {
		doc.m.AddRow(6,
			text.NewCol(key, kv.Key, props.Text{Size: 9, Style: fontstyle.Bold}).WithStyle(tableCellStyle),
			text.NewCol(doc.grid-key, kv.Value, props.Text{Size: 9}).WithStyle(tableCellStyle),
		)
	}
}

func (g *PDFGenerator) addMatrix(doc *pdfDocument, title string, p *domain.BalancedProblem, m domain.Matrix, highlight bool) {
	g.addSection(doc, title)

	cell := doc.grid / (p.Recipients + 1)
	label := doc.grid - cell*p.Recipients

	header := []core.Col{text.NewCol(label, "", tableHeaderTextStyle).WithStyle(tableHeaderStyle)}
	for _, name := range recipientNames(p) {
		header = append(header, text.NewCol(cell, name, tableHeaderTextStyle).WithStyle(tableHeaderStyle))
	}
	doc.m.AddRow(8, header...)

	for i, row := range m {
		cols := []core.Col{text.NewCol(label, p.SupplierName(i), tableCellTextStyle).WithStyle(tableCellStyle)}
		for _, v := range row {
			style := tableCellTextStyle
			if highlight && v > 0 {
				style = positiveCellTextStyle
			}
			cols = append(cols, text.NewCol(cell, g.number(v), style).WithStyle(tableCellStyle))
		}
		doc.m.AddRow(6, cols...)
	}
}

func (g *PDFGenerator) addRoutes(doc *pdfDocument, data *Data) {
	g.addSection(doc, "Routes")

	name, num := doc.span(3), doc.span(2)
	last := doc.grid - 2*name - 2*num

	doc.m.AddRow(8,
		text.NewCol(name, "Supplier", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(name, "Recipient", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(num, "Quantity", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(num, "Unit Profit", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(last, "Route Profit", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)
	for _, r := range data.Routes {
		doc.m.AddRow(6,
			text.NewCol(name, r.SupplierName, tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(name, r.RecipientName, tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(num, g.number(r.Quantity), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(num, g.number(r.UnitProfit), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(last, g.number(r.Profit), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
	doc.m.AddRow(7,
		text.NewCol(doc.grid-last, "Total", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(last, g.money(data.Solution.TotalProfit), positiveCellTextStyle),
	)
}

func (g *PDFGenerator) addFooter(doc *pdfDocument, data *Data) {
	doc.m.AddRow(10)
	doc.m.AddRow(2, line.NewCol(doc.grid, props.Line{Color: lightGrayColor}))
	doc.m.AddRow(6,
		text.NewCol(doc.grid,
			fmt.Sprintf("Generated by %s | %s", g.author(), formatTimestamp(data.generatedAt())),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
