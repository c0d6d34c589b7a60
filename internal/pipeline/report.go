package pipeline

import (
	"log/slog"
	"time"

	"canoncli/internal/sanitize"
)

// FileOutcome classifies what happened to one input file.
type FileOutcome string

const (
	FileOutcomeProcessed FileOutcome = "processed"
	FileOutcomeSkipped   FileOutcome = "skipped"
)

// FileReport summarizes one input file's contribution to the run.
type FileReport struct {
	Name              string        `json:"name"`
	Source            string        `json:"source,omitempty"`
	Outcome           FileOutcome   `json:"outcome"`
	SkipReason        string        `json:"skip_reason,omitempty"`
	RowsRead          int           `json:"rows_read"`
	RowsDropped       int           `json:"rows_dropped"`
	MalformedLines    int           `json:"malformed_lines,omitempty"`
	RecordsEmitted    int           `json:"records_emitted"`
	SuppressedRecords int           `json:"suppressed_records"`
	PlaceholderRows   int           `json:"placeholder_rows"`
	Duration          time.Duration `json:"duration"`
}

// RunReport is the explicit, mutable run state threaded through the
// pipeline and returned to the caller: every warning the engine absorbs
// locally surfaces here in aggregated, human-readable form.
type RunReport struct {
	RunID          string                             `json:"run_id"`
	StartedAt      time.Time                          `json:"started_at"`
	FinishedAt     time.Time                          `json:"finished_at"`
	Files          []FileReport                       `json:"files"`
	CellWarnings   map[string]sanitize.ColumnWarnings `json:"cell_warnings,omitempty"`
	UnmappedLabels map[string]int                     `json:"unmapped_labels,omitempty"`
}

// NewRunReport creates an empty report for a run.
func NewRunReport(runID string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: startedAt,
	}
}

// AddFile appends one file's summary.
func (r *RunReport) AddFile(fr FileReport) {
	r.Files = append(r.Files, fr)
}

// SkippedFiles returns how many files the run skipped.
func (r *RunReport) SkippedFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == FileOutcomeSkipped {
			n++
		}
	}
	return n
}

// TotalRecords returns how many canonical records the run emitted.
func (r *RunReport) TotalRecords() int {
	n := 0
	for _, f := range r.Files {
		n += f.RecordsEmitted
	}
	return n
}

// LogSummary flushes the aggregated counters to the run log.
func (r *RunReport) LogSummary(logger *slog.Logger) {
	logger.Info("run complete",
		slog.String("run_id", r.RunID),
		slog.Int("files_total", len(r.Files)),
		slog.Int("files_skipped", r.SkippedFiles()),
		slog.Int("records_emitted", r.TotalRecords()),
		slog.Duration("duration", r.FinishedAt.Sub(r.StartedAt)))

	for _, f := range r.Files {
		if f.Outcome == FileOutcomeSkipped {
			logger.Warn("file skipped",
				slog.String("file", f.Name),
				slog.String("reason", f.SkipReason))
		}
	}

	for column, w := range r.CellWarnings {
		logger.Warn("cells sanitized to null",
			slog.String("column", column),
			slog.Int("parse_failures", w.ParseFailures),
			slog.Int("out_of_range", w.OutOfRange),
			slog.Int("negative", w.Negative))
	}

	for key, count := range r.UnmappedLabels {
		logger.Warn("unmapped label passed through",
			slog.String("label_period", key),
			slog.Int("occurrences", count))
	}
}
