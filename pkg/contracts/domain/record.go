package domain

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalRecord is the standardized long-format output row: one row per
// (entity, time period, population segment, metric). It is the contract
// consumed by downstream reporting and visualization.
type CanonicalRecord struct {
	EntityID       string    `json:"entity_id" validate:"required"`
	EntityName     string    `json:"entity_name,omitempty"`
	ParentEntityID string    `json:"parent_entity_id,omitempty"`
	TimePeriod     int       `json:"time_period" validate:"required,min=1900,max=2200"`
	SegmentLabel   string    `json:"segment_label" validate:"required"`
	MetricName     string    `json:"metric_name" validate:"required"`
	Value          *float64  `json:"value,omitempty"`
	Suppressed     bool      `json:"suppressed"`
	ProvenanceFile string    `json:"provenance_file"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Key returns the uniqueness key of the record within a single provenance
// file's contribution. Duplicates across files are distinct observations.
func (r CanonicalRecord) Key() string {
	return fmt.Sprintf("%s|%d|%s|%s", r.EntityID, r.TimePeriod, r.SegmentLabel, r.MetricName)
}

// GroupKey identifies the (entity, period, segment) group a record belongs
// to, independent of the metric.
func (r CanonicalRecord) GroupKey() string {
	return fmt.Sprintf("%s|%d|%s", r.EntityID, r.TimePeriod, r.SegmentLabel)
}

// PeriodPolicy selects how a source's raw period representation maps to the
// canonical integer year. Some sources encode a period as a single 4-digit
// year, others as an 8-digit start+end-year concatenation whose meaning is a
// per-source decision.
type PeriodPolicy string

const (
	// PeriodSingleYear expects a plain 4-digit year.
	PeriodSingleYear PeriodPolicy = "single_year"
	// PeriodSpanFirstYear reads "20232024" as 2023.
	PeriodSpanFirstYear PeriodPolicy = "span_first_year"
	// PeriodSpanSecondYear reads "20232024" as 2024.
	PeriodSpanSecondYear PeriodPolicy = "span_second_year"
)

// ValueKind classifies how a raw cell should be coerced.
type ValueKind string

const (
	KindRate  ValueKind = "rate"
	KindCount ValueKind = "count"
	KindFlag  ValueKind = "flag"
)

// DefaultRateCeiling is the upper bound applied to rate metrics that do not
// declare their own. Metrics that can legitimately exceed 100 (e.g. bonus
// rates) must declare a higher ceiling.
const DefaultRateCeiling = 100.0

// MetricSpec declares one named metric a source can produce: where its raw
// value lives, how to coerce it, and the valid range for rate kinds.
type MetricSpec struct {
	Name    string    `json:"name" validate:"required"`
	Column  string    `json:"column" validate:"required"`
	Kind    ValueKind `json:"kind" validate:"required,oneof=rate count flag"`
	Ceiling float64   `json:"ceiling,omitempty"`
}

// RateCeiling returns the configured ceiling, falling back to the default.
func (m MetricSpec) RateCeiling() float64 {
	if m.Ceiling > 0 {
		return m.Ceiling
	}
	return DefaultRateCeiling
}

// FormatMetricName builds a metric name following the stable
// {topic}_{kind}_{qualifier...} grammar: lowercase, underscore-separated,
// non-alphanumeric runs collapsed to single underscores.
func FormatMetricName(topic, kind string, qualifiers ...string) string {
	parts := append([]string{topic, kind}, qualifiers...)
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = slugify(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "_")
}

func slugify(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
