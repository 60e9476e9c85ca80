package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"

	"middleman/pkg/apperror"
	"middleman/pkg/client"
	"middleman/pkg/domain"
	"middleman/pkg/report"
	"middleman/services/solver-svc/internal/service"
)

// action общая подготовка команды: задача, backend и дедлайн
func action(run func(ctx context.Context, c *cli.Context, rt *runtime, p *domain.Problem) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		path, err := inputPath(c.String("input"), c.Args().Slice())
		if err != nil {
			return err
		}
		p, err := readProblem(path, c.App.Reader)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()

		rt, err := newRuntime(ctx, c)
		if err != nil {
			return exitError(err)
		}
		return exitError(run(ctx, c, rt, p))
	}
}

// exitError переводит недоступность сервиса и таймаут в отдельные коды выхода
func exitError(err error) error {
	switch {
	case client.IsCode(err, apperror.CodeUnavailable):
		return cli.Exit(err.Error(), exitUnavailable)
	case client.IsCode(err, apperror.CodeTimeout):
		return cli.Exit(err.Error(), exitTimeout)
	}
	return err
}

var solveCmd = &cli.Command{
	Name:      "solve",
	Usage:     "Find the most profitable shipment plan",
	Aliases:   []string{"s"},
	ArgsUsage: "[problem file]",
	Flags: append(commonFlags(),
		&cli.BoolFlag{Name: "greedy", Usage: "stop after the greedy initial allocation"},
		&cli.BoolFlag{Name: "trace", Usage: "print every improvement step"},
		&cli.BoolFlag{Name: "no-cache", Usage: "bypass the solution cache"},
	),
	Action: action(func(ctx context.Context, c *cli.Context, rt *runtime, p *domain.Problem) error {
		resp, err := rt.backend.Solve(ctx, &service.SolveRequest{
			Problem: p,
			Options: service.SolveOptions{
				GreedyOnly: c.Bool("greedy"),
				Trace:      c.Bool("trace"),
				SkipCache:  c.Bool("no-cache"),
			},
		})
		if err != nil {
			return err
		}
		if c.Bool("json") {
			return writeJSON(c.App.Writer, resp)
		}

		content, err := report.Generate(ctx, report.FormatMarkdown, service.ReportData(resp), rt.report)
		if err != nil {
			return err
		}
		if _, err := c.App.Writer.Write(content); err != nil {
			return err
		}
		if err := writeSteps(c.App.Writer, resp.Steps); err != nil {
			return err
		}
		writeWarnings(c.App.ErrWriter, resp.Warnings)
		return nil
	}),
}

var balanceCmd = &cli.Command{
	Name:      "balance",
	Usage:     "Add a dummy supplier or recipient when totals differ",
	Aliases:   []string{"b"},
	ArgsUsage: "[problem file]",
	Flags:     commonFlags(),
	Action: action(func(ctx context.Context, c *cli.Context, rt *runtime, p *domain.Problem) error {
		resp, err := rt.backend.Balance(ctx, &service.BalanceRequest{Problem: p})
		if err != nil {
			return err
		}
		if c.Bool("json") {
			return writeJSON(c.App.Writer, resp)
		}
		return writeBalance(c.App.Writer, resp)
	}),
}

var profitsCmd = &cli.Command{
	Name:      "profits",
	Usage:     "Print the unit profit of every route",
	Aliases:   []string{"p"},
	ArgsUsage: "[problem file]",
	Flags:     commonFlags(),
	Action: action(func(ctx context.Context, c *cli.Context, rt *runtime, p *domain.Problem) error {
		resp, err := rt.backend.Profits(ctx, &service.ProfitsRequest{Problem: p})
		if err != nil {
			return err
		}
		if c.Bool("json") {
			return writeJSON(c.App.Writer, resp)
		}
		return writeProfits(c.App.Writer, resp)
	}),
}

var exportCmd = &cli.Command{
	Name:      "export",
	Usage:     "Solve and write a report",
	Aliases:   []string{"e"},
	ArgsUsage: "[problem file]",
	Flags: append(commonFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "csv, markdown, json, xlsx or pdf; comma-separated list writes one file per format",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output file, - for stdout, or a directory for several formats; generated name when empty",
		},
		&cli.BoolFlag{Name: "greedy", Usage: "report the greedy initial allocation"},
	),
	Action: action(func(ctx context.Context, c *cli.Context, rt *runtime, p *domain.Problem) error {
		formats, err := parseFormats(c.String("format"))
		if err != nil {
			return err
		}
		if len(formats) > 1 {
			return exportAll(ctx, c, rt, p, formats)
		}
		format := ""
		if len(formats) == 1 {
			format = string(formats[0])
		}

		resp, err := rt.backend.Export(ctx, &service.ExportRequest{
			Problem: p,
			Options: service.SolveOptions{GreedyOnly: c.Bool("greedy")},
			Format:  format,
		})
		if err != nil {
			return err
		}

		out := c.String("output")
		if out == "-" {
			_, err := c.App.Writer.Write(resp.Content)
			return err
		}
		if out == "" {
			out = resp.Filename
		}
		return writeReport(c, out, resp.Format, resp.Content, resp.TotalProfit)
	}),
}

// parseFormats разбирает список форматов через запятую; пустая строка
// оставляет выбор формата сервису
func parseFormats(s string) ([]report.Format, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var formats []report.Format
	for _, name := range strings.Split(s, ",") {
		f, err := report.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// exportAll решает задачу один раз и пишет отчёты всех форматов в каталог -o
func exportAll(ctx context.Context, c *cli.Context, rt *runtime, p *domain.Problem, formats []report.Format) error {
	dir := c.String("output")
	switch dir {
	case "-":
		return errors.New("several formats cannot be written to stdout, pass a directory with -o")
	case "":
		dir = "."
	}

	resp, err := rt.backend.Solve(ctx, &service.SolveRequest{
		Problem: p,
		Options: service.SolveOptions{GreedyOnly: c.Bool("greedy")},
	})
	if err != nil {
		return err
	}

	reports, err := report.GenerateAll(ctx, service.ReportData(resp), formats, rt.report)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, f := range formats {
		out := filepath.Join(dir, service.Filename(resp.ProblemHash, f))
		if err := writeReport(c, out, string(f), reports[f], resp.Solution.TotalProfit); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(c *cli.Context, path, format string, content []byte, totalProfit float64) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "%s report written to %s (total profit %s)\n",
		format, path, num(totalProfit))
	return nil
}

var validateCmd = &cli.Command{
	Name:      "validate",
	Usage:     "Check a problem without solving it",
	Aliases:   []string{"v"},
	ArgsUsage: "[problem file]",
	Flags:     commonFlags(),
	Action: action(func(ctx context.Context, c *cli.Context, rt *runtime, p *domain.Problem) error {
		resp, err := rt.backend.Validate(ctx, &service.ValidateRequest{Problem: p})
		if err != nil {
			return err
		}
		if c.Bool("json") {
			if err := writeJSON(c.App.Writer, resp); err != nil {
				return err
			}
		} else {
			writeIssues(c.App.Writer, resp)
		}
		if !resp.Valid {
			return cli.Exit("", exitInvalid)
		}
		return nil
	}),
}
