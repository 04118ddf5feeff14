// Command roster runs one month's nurse scheduling pipeline end to end:
// load configuration, load the request matrix, solve, fill, repair, and
// write the resulting roster as CSV and JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kt-git-1/nurse-scheduling/internal/calendar"
	"github.com/kt-git-1/nurse-scheduling/internal/config"
	"github.com/kt-git-1/nurse-scheduling/internal/logging"
	"github.com/kt-git-1/nurse-scheduling/internal/output"
	"github.com/kt-git-1/nurse-scheduling/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration override")
	requestPath := flag.String("requests", "", "path to the request-matrix CSV")
	csvOut := flag.String("csv-out", "", "path to write the CSV roster (stdout if empty)")
	jsonOut := flag.String("json-out", "", "path to write the JSON roster (skipped if empty)")
	flag.Parse()

	if err := run(*configPath, *requestPath, *csvOut, *jsonOut); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, requestPath, csvOut, jsonOut string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("roster: %w", err)
	}

	log := logging.New(logging.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile, Pretty: cfg.LogFile == ""})

	var requestCSV io.Reader
	if requestPath != "" {
		f, err := os.Open(requestPath)
		if err != nil {
			return fmt.Errorf("roster: opening request matrix: %w", err)
		}
		defer f.Close()
		requestCSV = f
	}

	result, err := pipeline.Run(context.Background(), cfg, requestCSV, log)
	if err != nil {
		if errors.Is(err, pipeline.ErrInfeasible) {
			return fmt.Errorf("roster: schedule infeasible: %w", err)
		}
		return fmt.Errorf("roster: %w", err)
	}

	for _, w := range result.Warnings {
		log.Warn().Str("stage", w.Stage).Msg(w.Message)
	}

	cal := calendar.New(cfg.Year, cfg.Month, cfg.DaysInMonth)

	csvDest := os.Stdout
	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return fmt.Errorf("roster: creating %s: %w", csvOut, err)
		}
		defer f.Close()
		csvDest = f
	}
	if err := output.WriteCSV(csvDest, cal, result.Roster); err != nil {
		return fmt.Errorf("roster: writing csv: %w", err)
	}

	if jsonOut != "" {
		f, err := os.Create(jsonOut)
		if err != nil {
			return fmt.Errorf("roster: creating %s: %w", jsonOut, err)
		}
		defer f.Close()
		if err := output.WriteJSON(f, cal, result.Roster); err != nil {
			return fmt.Errorf("roster: writing json: %w", err)
		}
	}

	return nil
}
