// Package report формирует отчёты по решению задачи посредника
// в форматах CSV, Markdown, JSON, XLSX и PDF.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"middleman/pkg/apperror"
	"middleman/pkg/config"
	"middleman/pkg/domain"
)

// Format формат отчёта
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
)

// EmptyNotice текст для решения без единой поставки
const EmptyNotice = "No allocations found. Check the input data."

// ErrNoData возвращается, если в данных отчёта нет задачи или решения
var ErrNoData = errors.New("report data is incomplete")

var formatAliases = map[string]Format{
	"csv":      FormatCSV,
	"md":       FormatMarkdown,
	"markdown": FormatMarkdown,
	"json":     FormatJSON,
	"xlsx":     FormatXLSX,
	"excel":    FormatXLSX,
	"pdf":      FormatPDF,
}

// Formats возвращает все поддерживаемые форматы
func Formats() []Format {
	return []Format{FormatCSV, FormatMarkdown, FormatJSON, FormatXLSX, FormatPDF}
}

// ParseFormat разбирает имя формата (регистр не важен, допускаются md и excel)
func ParseFormat(s string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", apperror.NewWithField(apperror.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported report format %q", s), "format")
	}
	return f, nil
}

// ContentType возвращает MIME тип формата
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Extension возвращает расширение файла без точки
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Route строка отчёта о маршруте с ненулевой поставкой
type Route struct {
	Supplier      int
	Recipient     int
	SupplierName  string
	RecipientName string
	Quantity      float64
	UnitProfit    float64
	Profit        float64
	Dummy         bool
}

// Data данные для генерации отчёта
type Data struct {
	Problem  *domain.BalancedProblem
	Solution *domain.Solution
	Routes   []Route

	InitialProfit float64
	Iterations    int
	Termination   string

	// Финансовые итоги только по реальным маршрутам
	Revenue       float64
	PurchaseCost  float64
	TransportCost float64
	NetProfit     float64

	ProblemHash string
	GeneratedAt time.Time
}

func (d *Data) validate() error {
	if d == nil || d.Problem == nil || d.Solution == nil {
		return ErrNoData
	}
	p := d.Problem
	if d.Solution.Allocation.Rows() != p.Suppliers || d.Solution.Allocation.Cols() != p.Recipients {
		return fmt.Errorf("%w: allocation is %dx%d, problem is %dx%d", ErrNoData,
			d.Solution.Allocation.Rows(), d.Solution.Allocation.Cols(), p.Suppliers, p.Recipients)
	}
	if d.Solution.Profits.Rows() != p.Suppliers || d.Solution.Profits.Cols() != p.Recipients {
		return fmt.Errorf("%w: profit matrix does not match the problem", ErrNoData)
	}
	return nil
}

// Empty проверяет, что решение не содержит ни одной поставки
func (d *Data) Empty() bool {
	return d.Solution.Allocation.AllZero()
}

func (d *Data) generatedAt() time.Time {
	if d.GeneratedAt.IsZero() {
		return time.Now().UTC()
	}
	return d.GeneratedAt
}

// Options параметры оформления отчётов
type Options struct {
	Title       string
	CompanyName string
	Currency    string
	Precision   int32
	PDF         config.PDFConfig
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() *Options {
	return &Options{
		Title:     "Middleman Optimization Report",
		Precision: 2,
		PDF: config.PDFConfig{
			PageSize:          "A4",
			Orientation:       "portrait",
			MarginTop:         15,
			MarginBottom:      15,
			MarginLeft:        15,
			MarginRight:       15,
			FontSize:          10,
			EnablePageNumbers: true,
		},
	}
}

// OptionsFromConfig создаёт параметры из секции report
func OptionsFromConfig(cfg *config.ReportConfig) *Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.Title != "" {
		opts.Title = cfg.Title
	}
	opts.CompanyName = cfg.CompanyName
	opts.Currency = cfg.Currency
	opts.Precision = cfg.Precision
	if cfg.PDF.PageSize != "" {
		opts.PDF = cfg.PDF
	}
	return opts
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *Data) ([]byte, error)
	Format() Format
}

// New создаёт генератор для формата
func New(format Format, opts *Options) (Generator, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	base := baseGenerator{opts: opts}

	switch format {
	case FormatCSV:
		return &CSVGenerator{baseGenerator: base}, nil
	case FormatMarkdown:
		return &MarkdownGenerator{baseGenerator: base}, nil
	case FormatJSON:
		return &JSONGenerator{baseGenerator: base}, nil
	case FormatXLSX:
		return &ExcelGenerator{baseGenerator: base}, nil
	case FormatPDF:
		return &PDFGenerator{baseGenerator: base}, nil
	default:
		return nil, apperror.NewWithField(apperror.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported report format %q", format), "format")
	}
}

// Generate создаёт генератор и формирует один отчёт
func Generate(ctx context.Context, format Format, data *Data, opts *Options) ([]byte, error) {
	g, err := New(format, opts)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, data)
}

// GenerateAll формирует отчёты в нескольких форматах параллельно.
// При первой ошибке остальные генераторы получают отменённый контекст.
func GenerateAll(ctx context.Context, data *Data, formats []Format, opts *Options) (map[Format][]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		out = make(map[Format][]byte, len(formats))
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, format := range formats {
		gen, err := New(format, opts)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			content, err := gen.Generate(ctx, data)
			if err != nil {
				return fmt.Errorf("%s report: %w", gen.Format(), err)
			}
			mu.Lock()
			out[gen.Format()] = content
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
