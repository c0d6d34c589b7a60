package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"canoncli/internal/labels"
	"canoncli/internal/sanitize"
	"canoncli/pkg/contracts/domain"
)

// DefaultChunkSize bounds how many rows are materialized at once. Large
// extracts run to millions of rows; this keeps peak memory proportional to
// the window, not the file.
const DefaultChunkSize = 25000

// PlaceholderMetricName is the safety-net metric emitted when a suppressed
// row reaches an adapter that anticipated no metrics for it. Its presence
// in output signals an adapter bug, not a data condition.
const PlaceholderMetricName = "unknown_metric_value"

// RecordWriter receives the run's outputs at the Finalizing stage.
type RecordWriter interface {
	WriteCanonical(records []domain.CanonicalRecord) error
	WriteDecisions(decisions []domain.LabelDecision) error
}

// Options configures a Pipeline.
type Options struct {
	// ChunkSize is the bounded row window; zero means DefaultChunkSize.
	ChunkSize int
	// PeriodFromFilename, when set, supplies a fallback period for rows
	// whose period column is absent or blank. Zero means no fallback.
	PeriodFromFilename func(name string) int
	Logger             *slog.Logger
	Tracer             *Tracer
	Clock              func() time.Time
}

// Result is everything one run produced.
type Result struct {
	Records   []domain.CanonicalRecord
	Decisions []domain.LabelDecision
	Report    *RunReport
}

// Pipeline is the template-method transformation engine. It exclusively
// owns the accumulation buffer for canonical records across a run; the
// Standardizer exclusively owns the decision log. Runs are single-threaded
// and batch-oriented, files processed sequentially.
type Pipeline struct {
	detect    DetectFunc
	std       *labels.Standardizer
	san       *sanitize.Sanitizer
	assembler *Assembler
	writer    RecordWriter
	logger    *slog.Logger
	tracer    *Tracer
	clock     func() time.Time
	chunkSize int
	periodOf  func(name string) int
	open      func(path string) (ChunkReader, error)
}

// New creates a Pipeline. The writer may be nil, in which case Finalizing
// accumulates only; callers that want output on disk pass an exporter.
func New(detect DetectFunc, std *labels.Standardizer, san *sanitize.Sanitizer, writer RecordWriter, opts Options) (*Pipeline, error) {
	if detect == nil {
		return nil, fmt.Errorf("detect function is required")
	}
	if std == nil {
		return nil, fmt.Errorf("label standardizer is required")
	}
	if san == nil {
		san = sanitize.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		var err error
		if tracer, err = NewTracer(nil, nil); err != nil {
			return nil, fmt.Errorf("failed to create pipeline tracer: %w", err)
		}
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	periodOf := opts.PeriodFromFilename
	if periodOf == nil {
		periodOf = func(string) int { return 0 }
	}

	return &Pipeline{
		detect:    detect,
		std:       std,
		san:       san,
		assembler: NewAssembler(clock),
		writer:    writer,
		logger:    logger,
		tracer:    tracer,
		clock:     clock,
		chunkSize: chunkSize,
		periodOf:  periodOf,
		open:      OpenFile,
	}, nil
}

// Run processes the input files in order and finalizes: concatenated
// canonical records and the label decision log are handed to the writer,
// and aggregated warning counters are flushed to the run log. A bad file
// never aborts the run; only a writer failure does.
func (p *Pipeline) Run(ctx context.Context, files []string) (*Result, error) {
	runID := uuid.New().String()
	report := NewRunReport(runID, p.clock())

	ctx, runSpan := p.tracer.StartRun(ctx, runID, len(files))
	defer runSpan.End()

	p.logger.Info("starting transform run",
		slog.String("run_id", runID),
		slog.Int("file_count", len(files)),
		slog.Int("chunk_size", p.chunkSize))

	result := &Result{Report: report}
	for _, path := range files {
		p.processFile(ctx, path, result)
	}

	// Finalizing: flush buffers and counters.
	result.Decisions = p.std.Decisions()
	report.CellWarnings = p.san.Warnings()
	report.UnmappedLabels = p.std.UnmappedCounts()
	report.FinishedAt = p.clock()

	if p.writer != nil {
		if err := p.writer.WriteCanonical(result.Records); err != nil {
			return result, fmt.Errorf("failed to write canonical output: %w", err)
		}
		if err := p.writer.WriteDecisions(result.Decisions); err != nil {
			return result, fmt.Errorf("failed to write label decision audit: %w", err)
		}
	}

	report.LogSummary(p.logger)
	return result, nil
}

func (p *Pipeline) processFile(ctx context.Context, path string, result *Result) {
	name := filepath.Base(path)
	state := NewFileState(name)
	state.Start()

	ctx, span := p.tracer.StartFile(ctx, name)
	defer span.End()

	reader, err := p.open(path)
	if err != nil {
		p.skipFile(ctx, span, state, result.Report, name, err.Error())
		return
	}
	defer reader.Close()

	rawHeaders := reader.Headers()
	src, ok := p.detect(loweredHeaders(rawHeaders))
	if !ok {
		p.skipFile(ctx, span, state, result.Report, name, "no source adapter matches file headers")
		return
	}
	p.tracer.SetFileSource(span, src.Name())

	norm := NewSchemaNormalizer(src.ColumnRenames())
	headers := norm.Header(rawHeaders)
	fallbackPeriod := p.periodOf(name)

	fr := FileReport{Name: name, Source: src.Name(), Outcome: FileOutcomeProcessed}
	resolvedByPeriod := make(map[int]map[string]struct{})
	placeholderWarned := false

	for {
		chunk, err := reader.Next(p.chunkSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			p.skipFile(ctx, span, state, result.Report, name, fmt.Sprintf("read failed mid-file: %v", err))
			return
		}

		for _, cells := range chunk {
			fr.RowsRead++
			row := norm.Row(headers, cells)
			if rowIsBlank(row) {
				fr.RowsDropped++
				continue
			}

			identity := p.assembler.Identity(row)
			if identity.EntityID == "" {
				fr.RowsDropped++
				continue
			}

			period, err := p.assembler.Period(row, src.PeriodPolicy(), fallbackPeriod)
			if err != nil {
				fr.RowsDropped++
				continue
			}

			suppressed := false
			if col := src.SuppressionColumn(); col != "" {
				suppressed = p.san.Flag(row[col])
			}

			rawLabel := strings.TrimSpace(row[ColSegmentLabel])
			if rawLabel == "" {
				rawLabel = "All"
			}
			segment := p.std.Resolve(rawLabel, period, name)
			if resolvedByPeriod[period] == nil {
				resolvedByPeriod[period] = make(map[string]struct{})
			}
			resolvedByPeriod[period][segment] = struct{}{}

			if suppressed {
				names := src.SuppressedDefaults(row)
				if len(names) == 0 {
					names = []string{PlaceholderMetricName}
					fr.PlaceholderRows++
					if !placeholderWarned {
						placeholderWarned = true
						p.logger.Error("adapter returned no suppressed defaults, emitting placeholder metric",
							slog.String("source", src.Name()),
							slog.String("file", name))
					}
				}
				sort.Strings(names)
				for _, metricName := range names {
					result.Records = append(result.Records,
						p.assembler.Assemble(identity, period, segment, metricName, nil, true, name))
					fr.RecordsEmitted++
					fr.SuppressedRecords++
				}
				continue
			}

			metrics := src.Extract(row, p.san)
			emitted := 0
			for _, metricName := range sortedKeys(metrics) {
				value := metrics[metricName]
				if value == nil {
					// Sanitized to null: treated as omitted so a
					// non-suppressed record never carries an empty value.
					continue
				}
				result.Records = append(result.Records,
					p.assembler.Assemble(identity, period, segment, metricName, value, false, name))
				emitted++
			}
			if emitted == 0 {
				fr.RowsDropped++
				continue
			}
			fr.RecordsEmitted += emitted
		}

		p.tracer.AddRows(ctx, len(chunk))
		state.Progress(fmt.Sprintf("%d rows read", fr.RowsRead))
		p.logger.Debug("chunk processed",
			slog.String("file", name),
			slog.Int("rows_read", fr.RowsRead),
			slog.Int("records_emitted", fr.RecordsEmitted))
	}

	fr.MalformedLines = reader.Skipped()
	if fr.MalformedLines > 0 {
		p.logger.Warn("malformed lines skipped",
			slog.String("file", name),
			slog.Int("line_count", fr.MalformedLines))
	}

	p.validateResolvedLabels(name, resolvedByPeriod)

	state.Complete()
	fr.Duration = state.Duration()
	result.Report.AddFile(fr)
	p.tracer.AddRecords(ctx, fr.RecordsEmitted, fr.SuppressedRecords)

	p.logger.Info("file processed",
		slog.String("file", name),
		slog.String("source", src.Name()),
		slog.Int("rows_read", fr.RowsRead),
		slog.Int("rows_dropped", fr.RowsDropped),
		slog.Int("records_emitted", fr.RecordsEmitted),
		slog.Int("suppressed_records", fr.SuppressedRecords))
}

// validateResolvedLabels reports each period's resolved labels against the
// rule set's expectations. Reporting only; unexpected labels never reject
// a record.
func (p *Pipeline) validateResolvedLabels(file string, resolvedByPeriod map[int]map[string]struct{}) {
	for period, resolved := range resolvedByPeriod {
		vr := p.std.Validate(resolved, period)
		if vr.Valid {
			continue
		}
		p.logger.Warn("label expectations not met",
			slog.String("file", file),
			slog.Int("time_period", period),
			slog.Any("missing_required", vr.MissingRequired),
			slog.Any("unexpected", vr.Unexpected))
	}
}

// skipFile records a file-level warning and moves on. One bad file never
// aborts the run.
func (p *Pipeline) skipFile(ctx context.Context, span trace.Span, state *FileState, report *RunReport, name, reason string) {
	state.Skip(reason)
	p.tracer.RecordFileSkip(ctx, span, reason)
	report.AddFile(FileReport{
		Name:       name,
		Outcome:    FileOutcomeSkipped,
		SkipReason: reason,
		Duration:   state.Duration(),
	})
	p.logger.Warn("skipping file",
		slog.String("file", name),
		slog.String("reason", reason))
}

func loweredHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = normalizeHeader(h)
	}
	return out
}

func rowIsBlank(row Row) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]*float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
