package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"middleman/pkg/domain"
	"middleman/services/solver-svc/internal/algorithms"
	"middleman/services/solver-svc/internal/service"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func writeRow(tw *tabwriter.Writer, cells ...string) {
	fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
}

// writeMatrix печатает матрицу с подписями строк и столбцов
func writeMatrix(w io.Writer, m domain.Matrix, rows, cols []string) error {
	tw := newTable(w)
	writeRow(tw, append([]string{""}, cols...)...)
	for i, row := range m {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, label(rows, i))
		for _, v := range row {
			cells = append(cells, num(v))
		}
		writeRow(tw, cells...)
	}
	return tw.Flush()
}

func label(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return strconv.Itoa(i + 1)
}

func writeBalance(w io.Writer, r *service.BalanceResponse) error {
	b := r.Balanced
	fmt.Fprintf(w, "Dummy: %s\n", b.Dummy)
	if b.Dummy != domain.DummyNone {
		fmt.Fprintf(w, "Dummy quantity: %s\n", num(r.DummyQuantity))
	}
	fmt.Fprintln(w)

	tw := newTable(w)
	writeRow(tw, "Supplier", "Supply", "Purchase price")
	for i := 0; i < b.Suppliers; i++ {
		writeRow(tw, label(r.Suppliers, i), num(b.Supply[i]), num(b.PurchasePrices[i]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	tw = newTable(w)
	writeRow(tw, "Recipient", "Demand", "Selling price")
	for j := 0; j < b.Recipients; j++ {
		writeRow(tw, label(r.Recipients, j), num(b.Demand[j]), num(b.SellingPrices[j]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Transport costs:")
	if err := writeMatrix(w, b.Costs, r.Suppliers, r.Recipients); err != nil {
		return err
	}
	writeWarnings(w, r.Warnings)
	return nil
}

func writeProfits(w io.Writer, r *service.ProfitsResponse) error {
	fmt.Fprintln(w, "Unit profits:")
	return writeMatrix(w, r.Profits, r.Suppliers, r.Recipients)
}

func writeSteps(w io.Writer, steps []algorithms.IterationStep) error {
	if len(steps) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Improvement steps:")
	tw := newTable(w)
	writeRow(tw, "#", "Basic", "Entering", "Delta", "Shift")
	for _, s := range steps {
		writeRow(tw,
			strconv.Itoa(s.Iteration),
			strconv.Itoa(s.BasicCells),
			fmt.Sprintf("(%d,%d)", s.EnteringRow+1, s.EnteringCol+1),
			num(s.OpportunityCost),
			num(s.Shift),
		)
	}
	return tw.Flush()
}

func writeIssues(w io.Writer, r *service.ValidateResponse) {
	if r.Valid {
		fmt.Fprintln(w, "Problem is valid")
	} else {
		fmt.Fprintln(w, "Problem is invalid")
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error   %s\n", issueText(e))
	}
	for _, e := range r.Warnings {
		fmt.Fprintf(w, "  warning %s\n", issueText(e))
	}
}

func issueText(i service.Issue) string {
	if i.Field == "" {
		return fmt.Sprintf("[%s] %s", i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Code, i.Field, i.Message)
}

func writeWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}
