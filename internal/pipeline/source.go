// Package pipeline contains the generic transformation engine: a
// template-method pipeline that turns heterogeneous wide- and long-format
// extracts into one canonical long record stream, with per-source behavior
// supplied through the Source extension point.
package pipeline

import (
	"canoncli/internal/sanitize"
	"canoncli/pkg/contracts/domain"
)

// Row is one input record after schema normalization: canonical column
// names mapped to raw cell strings.
type Row map[string]string

// Source is the per-source adapter contract. The engine calls these hooks;
// it knows nothing about their contents.
//
// The central correctness invariant lives in the Extract/SuppressedDefaults
// pair: for a row of a given shape, SuppressedDefaults must return the same
// metric names Extract would have produced had the row not been suppressed.
// That symmetry is what keeps suppressed population segments visible in the
// output instead of silently vanishing downstream.
type Source interface {
	// Name identifies the source in logs and the run report.
	Name() string

	// ColumnRenames maps source-specific headers to the common internal
	// vocabulary. Headers are matched case-insensitively after trimming.
	ColumnRenames() map[string]string

	// PeriodPolicy selects how this source's raw period values become
	// canonical years.
	PeriodPolicy() domain.PeriodPolicy

	// SuppressionColumn names the canonical column carrying the
	// suppression indicator, or "" when the source never suppresses.
	SuppressionColumn() string

	// Metrics declares every metric this source can produce, including
	// per-metric rate ceilings.
	Metrics() []domain.MetricSpec

	// Extract returns the named metrics a non-suppressed row implies.
	// Metrics the row genuinely omits are absent from the map; cells that
	// fail sanitation appear with a nil value.
	Extract(row Row, values *sanitize.Sanitizer) map[string]*float64

	// SuppressedDefaults returns the metric names Extract would produce
	// for a row of this shape, judged from shape alone, never values.
	SuppressedDefaults(row Row) []string

	// Matches reports whether a file with these normalized headers belongs
	// to this source. Used by format detection.
	Matches(headers []string) bool
}

// DetectFunc resolves which source a file belongs to from its normalized
// headers. Detection happens exactly once per file.
type DetectFunc func(headers []string) (Source, bool)
