// Command report renders equipment reports from local CSV files without running the server.
//
//	report -in plant.csv [-out plant_report.pdf] [-format pdf|xlsx] [-config flowpulse.yaml]
//	report -dir plants/ [-out reports/] [-format xlsx] [-workers 4]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"flowpulse/internal/config"
	"flowpulse/internal/exporter"
	"flowpulse/internal/files"
	"flowpulse/internal/infrastructure"
	"flowpulse/internal/report"
	"flowpulse/internal/validation"
	"flowpulse/pkg/contracts/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("Report generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type generator struct {
	logger   *slog.Logger
	files    *validation.FileValidator
	csv      *validation.CSVValidator
	renderer exporter.Renderer
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	in := fs.String("in", "", "CSV file with equipment rows")
	dir := fs.String("dir", "", "directory whose CSV files are each rendered")
	out := fs.String("out", "", "output file, or output directory with -dir; defaults next to the input")
	format := fs.String("format", "", "report format: pdf or xlsx; defaults to the -out extension, then the configured default")
	workers := fs.Int("workers", 4, "concurrent renders with -dir")
	configFile := fs.String("config", "", "optional YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*in == "") == (*dir == "") {
		return errors.New("exactly one of -in or -dir is required")
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	logger := infrastructure.WithComponent(infrastructure.NewLoggerWithWriter(os.Stderr, cfg.Logging), "report_cli")
	ctx := infrastructure.EnsureTraceID(context.Background())

	registry := exporter.NewRegistry(logger)
	if err := registry.SetDefault(cfg.Report.DefaultFormat); err != nil {
		return err
	}
	if *format == "" && *in != "" && *out != "" {
		*format = strings.TrimPrefix(filepath.Ext(*out), ".")
	}
	renderer, err := registry.Get(*format)
	if err != nil {
		return err
	}

	g := &generator{
		logger:   logger,
		files:    validation.NewFileValidator(logger),
		csv:      validation.NewCSVValidator(logger, cfg.Upload.MaxBytes),
		renderer: renderer,
	}

	if *in != "" {
		target, err := g.generate(ctx, *in, *out)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, target)
		return nil
	}
	return g.generateAll(ctx, *dir, *out, *workers, stdout)
}

// generateAll renders every CSV in dir; outDir defaults to dir
func (g *generator) generateAll(ctx context.Context, dir, outDir string, workers int, stdout io.Writer) error {
	inputs, err := files.NewDiscovery("").FindCSVFiles(dir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no CSV files found in %s", dir)
	}
	if outDir == "" {
		outDir = dir
	}

	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(workers, 1))
	for _, input := range inputs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			target := filepath.Join(outDir, exporter.ReportFilename(input.Name, g.renderer.Extension()))
			if _, err := g.generate(ctx, input.Path, target); err != nil {
				return fmt.Errorf("%s: %w", input.Name, err)
			}
			mu.Lock()
			fmt.Fprintln(stdout, target)
			mu.Unlock()
			return nil
		})
	}
	return eg.Wait()
}

// generate renders one CSV file and returns the path written
func (g *generator) generate(ctx context.Context, in, target string) (string, error) {
	if err := g.files.ValidateCSVFile(in); err != nil {
		return "", err
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", in, err)
	}

	name := filepath.Base(in)
	if err := g.csv.ValidateUpload("cli", name, int64(len(raw))); err != nil {
		return "", err
	}
	records, err := g.csv.Parse(name, raw)
	if err != nil {
		return "", err
	}

	ds := &domain.Dataset{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Equipment: records,
	}
	doc, err := report.Assemble(ds)
	if err != nil {
		return "", fmt.Errorf("assemble report: %w", err)
	}
	body, err := g.renderer.Render(doc)
	if err != nil {
		return "", fmt.Errorf("render %s report: %w", g.renderer.Extension(), err)
	}

	if target == "" {
		target = filepath.Join(filepath.Dir(in), exporter.ReportFilename(name, g.renderer.Extension()))
	}
	if err := g.files.ValidateOutputPath(target); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, body, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}

	g.logger.InfoContext(ctx, "Report written",
		slog.String("input", in),
		slog.String("output", target),
		slog.Int("rows", len(records)),
		slog.Bool("empty", doc.Empty))
	return target, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.Logging.Level = "warn"
		return cfg, nil
	}
	return config.LoadFile(path)
}
