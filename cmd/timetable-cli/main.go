package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/engine"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/snapshot"
	"github.com/noah-isme/timetable-engine/pkg/export"
)

type cliConfig struct {
	dataDir     string
	delimiter   string
	options     int
	seed        int64
	weeks       int
	probability float64
	jsonOut     string
	xlsxOut     string
	csvOut      string
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "timetable-cli:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (cliConfig, error) {
	var cfg cliConfig
	fs := flag.NewFlagSet("timetable-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.dataDir, "data", ".", "directory holding subjects.csv, batches.csv, faculty.csv, rooms.csv and timeslots.csv")
	fs.StringVar(&cfg.delimiter, "delimiter", ",", "CSV field delimiter")
	fs.IntVar(&cfg.options, "options", 3, "number of candidate timetables")
	fs.Int64Var(&cfg.seed, "seed", time.Now().UnixNano(), "base random seed")
	fs.IntVar(&cfg.weeks, "weeks", 1, "weeks to schedule; more than one replicates the base week")
	fs.Float64Var(&cfg.probability, "probability", 0.9, "chance a base session is copied into each later week")
	fs.StringVar(&cfg.jsonOut, "json", "", "write every option as JSON to this file")
	fs.StringVar(&cfg.xlsxOut, "xlsx", "", "write the best option as an XLSX workbook to this file")
	fs.StringVar(&cfg.csvOut, "csv", "", "write the best option's sessions as CSV to this file")
	fs.BoolVar(&cfg.verbose, "v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if len([]rune(cfg.delimiter)) != 1 {
		return cfg, fmt.Errorf("delimiter must be a single character")
	}
	if cfg.weeks < 1 {
		return cfg, fmt.Errorf("weeks must be at least 1")
	}
	if cfg.probability < 0 || cfg.probability > 1 {
		return cfg, fmt.Errorf("probability must be between 0 and 1")
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	logr := zap.NewNop()
	if cfg.verbose {
		if logr, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer logr.Sync() //nolint:errcheck

	snap, err := snapshot.NewLoader([]rune(cfg.delimiter)[0]).LoadDir(cfg.dataDir)
	if err != nil {
		return err
	}
	counts := snap.Counts()
	logr.Info("snapshot loaded", zap.String("dir", cfg.dataDir), zap.Any("counts", counts))
	if !counts.Complete() {
		return fmt.Errorf("snapshot needs at least one of each entity (faculty=%d, batches=%d, subjects=%d, rooms=%d, timeslots=%d)",
			counts.Faculty, counts.Batches, counts.Subjects, counts.Rooms, counts.TimeSlots)
	}

	var replication *engine.Replication
	if cfg.weeks > 1 {
		replication = &engine.Replication{Weeks: cfg.weeks, Probability: cfg.probability}
	}
	started := time.Now()
	options, err := engine.GenerateOptions(ctx, snap, cfg.options, cfg.seed, replication)
	if err != nil {
		return err
	}
	logr.Info("generation finished", zap.Int("options", len(options)), zap.Duration("elapsed", time.Since(started)))

	printSummary(stdout, options)
	best := options[0]

	if cfg.jsonOut != "" {
		data, err := json.MarshalIndent(options, "", "  ")
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		if err := os.WriteFile(cfg.jsonOut, data, 0o644); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if cfg.csvOut != "" {
		f, err := os.Create(cfg.csvOut)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		if err := snapshot.WriteSessions(f, snap, best.Result.Sessions); err != nil {
			f.Close()
			return fmt.Errorf("write csv: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if cfg.xlsxOut != "" {
		data, err := export.NewXLSXExporter().Render(optionSheets(snap, options))
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.xlsxOut, data, 0o644); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
	}
	return nil
}

func printSummary(w io.Writer, options []engine.Option) {
	fmt.Fprintf(w, "%-4s %-20s %6s %9s %9s %8s %6s\n", "#", "OPTION", "SCORE", "SESSIONS", "CONFLICTS", "FACULTY", "ROOMS")
	for i, opt := range options {
		fmt.Fprintf(w, "%-4d %-20s %6d %9d %9d %7d%% %5d%%\n",
			i+1, opt.Name, opt.Result.Score, len(opt.Result.Sessions), len(opt.Result.Conflicts),
			opt.Utilization.Faculty, opt.Utilization.Rooms)
	}
	best := options[0]
	fmt.Fprintf(w, "best: %s (seed %d)\n", best.Name, best.Result.Seed)
	for _, c := range best.Result.Conflicts {
		fmt.Fprintf(w, "  conflict %s: %s\n", c.Type, c.Message)
	}
}

// optionSheets writes one flat sheet per option, best first.
func optionSheets(snap models.Snapshot, options []engine.Option) []export.Sheet {
	headers := []string{"Week", "Day", "Start", "End", "Batch", "Subject", "Faculty", "Room", "Type"}
	sheets := make([]export.Sheet, 0, len(options))
	for _, opt := range options {
		rows := snapshot.SessionRows(snap, opt.Result.Sessions)
		data := make([][]string, 0, len(rows))
		for _, r := range rows {
			data = append(data, []string{fmt.Sprintf("%d", r.Week), r.Day, r.StartTime, r.EndTime, r.Batch, r.Subject, r.Faculty, r.Room, r.Type})
		}
		sheets = append(sheets, export.Sheet{
			Name:    opt.Name,
			Title:   fmt.Sprintf("%s: score %d, %d conflicts", opt.Name, opt.Result.Score, len(opt.Result.Conflicts)),
			Headers: headers,
			Rows:    data,
		})
	}
	return sheets
}
