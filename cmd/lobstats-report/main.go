package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"lobstats/internal/config"
	"lobstats/internal/exporter"
	"lobstats/internal/files"
	"lobstats/internal/lobstats"
)

// listFlag collects repeatable, comma separated values
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

type options struct {
	file      string
	format    string
	sheet     string
	countries []string
	lobs      []string
	window    lobstats.Window
	metric    string
	csvOut    string
	xlsxOut   string
	bom       bool
	verbose   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		opts      options
		countries listFlag
		lobs      listFlag
	)

	fs := flag.NewFlagSet("lobstats-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.file, "file", config.DefaultDatasetPath, "dataset file (.csv or .xlsx) or a directory holding them")
	fs.StringVar(&opts.format, "format", config.FormatAuto, "dataset format: auto, csv or xlsx")
	fs.StringVar(&opts.sheet, "sheet", "", "worksheet name for xlsx datasets (defaults to the first sheet)")
	fs.Var(&countries, "country", "country code, repeatable or comma separated")
	fs.Var(&lobs, "lob", "line of business, repeatable or comma separated")
	fs.IntVar(&opts.window.From, "from", config.DefaultYearFrom, "first year of the averaging window")
	fs.IntVar(&opts.window.To, "to", config.DefaultYearTo, "last year of the averaging window")
	fs.StringVar(&opts.metric, "metric", config.DefaultMetric, "variable id to average")
	fs.StringVar(&opts.csvOut, "csv", "", "write the report to this CSV file")
	fs.StringVar(&opts.xlsxOut, "xlsx", "", "write the report to this Excel file")
	fs.BoolVar(&opts.bom, "bom", false, "prefix the CSV report with a UTF-8 BOM for Excel")
	fs.BoolVar(&opts.verbose, "v", false, "log progress to stderr")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if len(countries) == 0 {
		return opts, fmt.Errorf("at least one -country is required")
	}
	if len(lobs) == 0 {
		return opts, fmt.Errorf("at least one -lob is required")
	}
	if err := opts.window.Validate(); err != nil {
		return opts, err
	}
	if err := checkExt("csv", opts.csvOut, ".csv"); err != nil {
		return opts, err
	}
	if err := checkExt("xlsx", opts.xlsxOut, ".xlsx"); err != nil {
		return opts, err
	}

	opts.countries = countries
	opts.lobs = lobs
	return opts, nil
}

// checkExt rejects an output path whose extension disagrees with its flag.
func checkExt(flagName, path, ext string) error {
	if path == "" || strings.EqualFold(filepath.Ext(path), ext) {
		return nil
	}
	return fmt.Errorf("-%s output %q must have a %s extension", flagName, path, ext)
}

// buildReport computes one set of averages per country concurrently over a
// single shared dataset load
func buildReport(ctx context.Context, opts options, logger *slog.Logger) (exporter.Report, error) {
	path, err := files.NewDiscovery("").ResolveDataset(opts.file)
	if err != nil {
		return exporter.Report{}, err
	}
	source := lobstats.FileSource{
		Path:   path,
		Format: lobstats.Format(opts.format),
		Sheet:  opts.sheet,
	}
	dataset := lobstats.NewDatasetCache(source, logger)
	facade := lobstats.NewFacade(dataset, opts.window, opts.metric)

	var (
		mu      sync.Mutex
		results = make(map[string]lobstats.Averages, len(opts.countries))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, country := range opts.countries {
		country := country
		g.Go(func() error {
			averages, err := facade.GetAverages(gctx, country, opts.lobs)
			if err != nil {
				return fmt.Errorf("country %s: %w", country, err)
			}
			mu.Lock()
			results[country] = averages
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return exporter.Report{}, err
	}

	return exporter.NewReport(opts.metric, opts.window, results), nil
}

func printReport(w io.Writer, report exporter.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "COUNTRY\tLOB\tAVERAGE %s %d-%d\t\n",
		strings.ToUpper(report.Metric), report.Window.From, report.Window.To)
	for _, row := range report.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", row.Country, row.Lob, row.Average.StringFixed(2))
	}
	return tw.Flush()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	report, err := buildReport(ctx, opts, logger)
	if err != nil {
		return err
	}

	if err := printReport(stdout, report); err != nil {
		return err
	}

	for _, out := range []string{opts.csvOut, opts.xlsxOut} {
		if out == "" {
			continue
		}
		if err := exporter.SaveFileWithOptions(out, report, exporter.CSVOptions{BOMPrefix: opts.bom}); err != nil {
			return err
		}
		logger.Info("Report written", slog.String("path", out), slog.Int("rows", len(report.Rows)))
	}
	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("Report failed", "error", err)
		os.Exit(1)
	}
}
