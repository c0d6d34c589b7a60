// Package sanitize coerces raw string cells from heterogeneous extracts into
// typed values. Every failure degrades to nil and increments an aggregated
// per-column counter; nothing here ever aborts a row.
package sanitize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"canoncli/pkg/contracts/domain"
)

// belowThresholdPattern matches privacy markers such as "<10" or "< 5".
var belowThresholdPattern = regexp.MustCompile(`^<\s*\d+$`)

// defaultSuppressionTokens are the spellings treated as a positive
// suppression indicator. The empty string is deliberately absent: a blank
// suppression cell means "not suppressed". Sources where blank does mean
// suppressed supply their own token set via WithSuppressionTokens.
var defaultSuppressionTokens = []string{"y", "yes", "true", "*", "**", "s", "n/a", "--"}

// ColumnWarnings aggregates sanitation failures for one column so the run
// report can surface a single line per column instead of flooding the log.
type ColumnWarnings struct {
	ParseFailures int `json:"parse_failures"`
	OutOfRange    int `json:"out_of_range"`
	Negative      int `json:"negative"`
}

// Total returns the number of cells degraded to null in this column.
func (w ColumnWarnings) Total() int {
	return w.ParseFailures + w.OutOfRange + w.Negative
}

// Sanitizer coerces cells and keeps per-column warning counters. It is not
// safe for concurrent use; the pipeline owns one per run.
type Sanitizer struct {
	suppressionTokens map[string]struct{}
	warnings          map[string]*ColumnWarnings
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithSuppressionTokens replaces the default suppression token set. Tokens
// are matched case-insensitively after trimming.
func WithSuppressionTokens(tokens []string) Option {
	return func(s *Sanitizer) {
		s.suppressionTokens = make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			s.suppressionTokens[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
		}
	}
}

// New creates a Sanitizer with the default suppression token set.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		suppressionTokens: make(map[string]struct{}, len(defaultSuppressionTokens)),
		warnings:          make(map[string]*ColumnWarnings),
	}
	for _, t := range defaultSuppressionTokens {
		s.suppressionTokens[t] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rate parses a percentage-like cell: a trailing "%" and thousands
// separators are stripped before parsing. Values outside [0, ceiling]
// become nil. A zero ceiling means the metric's configured default.
func (s *Sanitizer) Rate(column, raw string, ceiling float64) *float64 {
	if ceiling <= 0 {
		ceiling = domain.DefaultRateCeiling
	}
	if s.Missing(raw) {
		return nil
	}
	cleaned := strings.TrimSuffix(cleanNumeric(raw), "%")
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || !isFinite(val) {
		// ParseFloat accepts "NaN" and "Inf", and NaN compares false
		// against any bound, so non-finite values must be rejected before
		// the range check.
		s.warn(column).ParseFailures++
		return nil
	}
	if val < 0 || val > ceiling {
		s.warn(column).OutOfRange++
		return nil
	}
	return &val
}

// Count parses an integer-valued cell; thousands separators are stripped.
// Negative counts become nil.
func (s *Sanitizer) Count(column, raw string) *float64 {
	if s.Missing(raw) {
		return nil
	}
	val, err := strconv.ParseFloat(cleanNumeric(raw), 64)
	if err != nil || !isFinite(val) {
		s.warn(column).ParseFailures++
		return nil
	}
	val = float64(int64(val))
	if val < 0 {
		s.warn(column).Negative++
		return nil
	}
	return &val
}

// Flag reports whether a cell is a positive suppression indicator. The
// mapping is total: every token resolves to a boolean, never an error.
// Below-threshold markers such as "<10" always count as suppressed.
func (s *Sanitizer) Flag(raw string) bool {
	token := strings.ToLower(strings.TrimSpace(raw))
	if belowThresholdPattern.MatchString(token) {
		return true
	}
	_, ok := s.suppressionTokens[token]
	return ok
}

// Missing reports whether a cell carries no usable value at all: blank, a
// suppression token, or a below-threshold marker.
func (s *Sanitizer) Missing(raw string) bool {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return true
	}
	return s.Flag(raw)
}

// Value dispatches on the metric's declared kind.
func (s *Sanitizer) Value(spec domain.MetricSpec, raw string) *float64 {
	switch spec.Kind {
	case domain.KindCount:
		return s.Count(spec.Column, raw)
	default:
		return s.Rate(spec.Column, raw, spec.RateCeiling())
	}
}

// Warnings returns the per-column counters accumulated so far. The returned
// map is a snapshot; continuing to sanitize does not mutate it.
func (s *Sanitizer) Warnings() map[string]ColumnWarnings {
	out := make(map[string]ColumnWarnings, len(s.warnings))
	for col, w := range s.warnings {
		out[col] = *w
	}
	return out
}

func (s *Sanitizer) warn(column string) *ColumnWarnings {
	w, ok := s.warnings[column]
	if !ok {
		w = &ColumnWarnings{}
		s.warnings[column] = w
	}
	return w
}

func cleanNumeric(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
