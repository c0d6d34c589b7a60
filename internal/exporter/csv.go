// Package exporter writes the run's outputs: the canonical record table and
// the label-decision audit table, both CSV.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"canoncli/pkg/contracts/domain"
)

// Writer persists canonical records and label decisions to fixed output
// paths. It implements the pipeline's RecordWriter contract.
type Writer struct {
	canonicalPath string
	auditPath     string
	bomPrefix     bool
	logger        *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithBOM prefixes outputs with a UTF-8 BOM so Excel recognizes the
// encoding.
func WithBOM() Option {
	return func(w *Writer) { w.bomPrefix = true }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

// NewWriter creates a Writer targeting the two output files.
func NewWriter(canonicalPath, auditPath string, opts ...Option) *Writer {
	w := &Writer{
		canonicalPath: canonicalPath,
		auditPath:     auditPath,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteCanonical writes the canonical record table, replacing any previous
// output at the same path.
func (w *Writer) WriteCanonical(records []domain.CanonicalRecord) error {
	w.logger.Info("writing canonical output",
		slog.String("path", w.canonicalPath),
		slog.Int("record_count", len(records)))

	sw, err := w.createStream(w.canonicalPath, CanonicalHeaders())
	if err != nil {
		return err
	}
	defer sw.Close()

	for _, record := range records {
		if err := sw.Write(CanonicalRow(record)); err != nil {
			return fmt.Errorf("failed to write canonical record: %w", err)
		}
	}
	return sw.Flush()
}

// WriteDecisions writes the label-decision audit table. The table is high
// volume and append-only for the life of a run; it is flushed once at
// Finalizing.
func (w *Writer) WriteDecisions(decisions []domain.LabelDecision) error {
	w.logger.Info("writing label decision audit",
		slog.String("path", w.auditPath),
		slog.Int("decision_count", len(decisions)))

	sw, err := w.createStream(w.auditPath, DecisionHeaders())
	if err != nil {
		return err
	}
	defer sw.Close()

	for _, decision := range decisions {
		if err := sw.Write(DecisionRow(decision)); err != nil {
			return fmt.Errorf("failed to write label decision: %w", err)
		}
	}
	return sw.Flush()
}

// StreamWriter writes CSV rows incrementally so large outputs never
// materialize as one in-memory slice of string rows.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

func (w *Writer) createStream(path string, headers []string) (*StreamWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	if w.bomPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer}, nil
}

// Write appends one row.
func (s *StreamWriter) Write(row []string) error {
	return s.writer.Write(row)
}

// Flush flushes buffered rows and reports any pending write error.
func (s *StreamWriter) Flush() error {
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes and closes the underlying file.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	return s.file.Close()
}
