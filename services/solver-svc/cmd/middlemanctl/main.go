// Command middlemanctl solves middleman problems from the command line.
//
// Problems are read from YAML or JSON files ("-" reads stdin). Without
// --remote every command runs the solver in-process with the same config
// as solver-svc; with --remote it calls a running service.
//
//	middlemanctl solve -i problem.yaml
//	middlemanctl export -i problem.yaml --format xlsx -o plan.xlsx
//	middlemanctl export -i problem.yaml --format csv,pdf -o reports/
//	middlemanctl validate --remote http://localhost:8080 problem.json
//
// Exit codes: 1 on any error, 2 when validate finds an invalid problem,
// 3 when the remote service is unavailable, 4 when the deadline expires.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"middleman/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

const (
	exitInvalid     = 2
	exitUnavailable = 3
	exitTimeout     = 4
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "middlemanctl",
		Usage: "Plan profitable shipments between suppliers and recipients",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config.yaml for local runs",
				EnvVars: []string{"MIDDLEMAN_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before the config",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "debug, info, warn, error",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			solveCmd,
			balanceCmd,
			profitsCmd,
			exportCmd,
			validateCmd,
		},
	}
}

func setup(c *cli.Context) error {
	if err := godotenv.Load(c.String("env-file")); err != nil {
		// .env по умолчанию необязателен
		if !errors.Is(err, fs.ErrNotExist) || c.IsSet("env-file") {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	logger.Init(c.String("log-level"))
	return nil
}
