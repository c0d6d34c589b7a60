// Command canonize runs the batch transform: it discovers raw extracts in
// the input directory, pushes them through the pipeline, and writes the
// canonical record table plus the label-decision audit table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"canoncli/internal/config"
	"canoncli/internal/exporter"
	"canoncli/internal/infrastructure"
	"canoncli/internal/labels"
	"canoncli/internal/pipeline"
	"canoncli/internal/sanitize"
	"canoncli/internal/sources"
)

// yearPattern extracts a period from file names like
// "achievement 2024 extract.csv" when rows carry no period column.
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func main() {
	inDir := flag.String("in", "", "input directory for raw extracts (defaults to data/input relative to executable)")
	outDir := flag.String("out", "", "output directory for canonical tables (defaults to data/output relative to executable)")
	rulesFile := flag.String("rules", "", "label rule file (defaults to rules/labels.yaml relative to executable)")
	chunkSize := flag.Int("chunk", 0, "rows per processing window (defaults to configured chunk size)")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   "both",
				FilePath: paths.GetLogPath("canonize.log"),
			},
			Pipeline: config.PipelineConfig{ChunkSize: pipeline.DefaultChunkSize, OutputBOM: true},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if *inDir == "" {
		*inDir = paths.InputDir
	}
	if *outDir == "" {
		*outDir = paths.OutputDir
	}
	if *rulesFile == "" {
		*rulesFile = paths.RulesFile
	}
	if *chunkSize <= 0 {
		*chunkSize = cfg.Pipeline.ChunkSize
	}

	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer providers.Shutdown(ctx)

	// The rule set is required input: absence is a fatal configuration
	// error, never a silent fallback to built-in defaults.
	ruleSet, err := labels.Load(*rulesFile)
	if err != nil {
		logger.Error("Failed to load label rule file",
			slog.String("rules_file", *rulesFile),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	files, err := discoverFiles(*inDir)
	if err != nil {
		logger.Error("Failed to read input directory",
			slog.String("input_dir", *inDir),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Starting canonical transform",
		slog.String("input_dir", *inDir),
		slog.String("output_dir", *outDir),
		slog.String("rules_file", *rulesFile),
		slog.Int("file_count", len(files)),
		slog.Int("chunk_size", *chunkSize))

	var tp trace.TracerProvider
	if providers.TracerProvider != nil {
		tp = providers.TracerProvider
	}
	var mp metric.MeterProvider
	if providers.MeterProvider != nil {
		mp = providers.MeterProvider
	}
	tracer, err := pipeline.NewTracer(tp, mp)
	if err != nil {
		logger.Error("Failed to create pipeline tracer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	writerOpts := []exporter.Option{exporter.WithLogger(logger)}
	if cfg.Pipeline.OutputBOM {
		writerOpts = append(writerOpts, exporter.WithBOM())
	}
	writer := exporter.NewWriter(
		filepath.Join(*outDir, "canonical.csv"),
		filepath.Join(*outDir, "label_decisions.csv"),
		writerOpts...)

	std := labels.NewStandardizer(ruleSet, logger)
	registry := sources.Builtin()

	pipe, err := pipeline.New(registry.Detect, std, sanitize.New(), writer, pipeline.Options{
		ChunkSize:          *chunkSize,
		PeriodFromFilename: periodFromFilename,
		Logger:             logger,
		Tracer:             tracer,
	})
	if err != nil {
		logger.Error("Failed to build pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	result, err := pipe.Run(ctx, files)
	if err != nil {
		logger.Error("Run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	providers.LogMetricSummary(ctx)

	fmt.Printf("Processed %d files (%d skipped), emitted %d canonical records\n",
		len(result.Report.Files),
		result.Report.SkippedFiles(),
		result.Report.TotalRecords())
}

// discoverFiles lists the input extracts in name order, skipping editor
// temp files.
func discoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func periodFromFilename(name string) int {
	match := yearPattern.FindString(name)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}
