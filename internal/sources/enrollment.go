package sources

import (
	"strings"

	"canoncli/internal/pipeline"
	"canoncli/internal/sanitize"
	"canoncli/pkg/contracts/domain"
)

// Enrollment column names after schema normalization.
const (
	colMeasure    = "measure"
	colCountValue = "count_value"
)

// EnrollmentSource reads the long-format enrollment extracts: one row per
// (district, school year, demographic, measure), with the metric named by a
// cell rather than a column. School years arrive as 8-digit spans
// ("20232024"); this source reports against the second year.
type EnrollmentSource struct {
	countSpec domain.MetricSpec
}

// NewEnrollmentSource creates the adapter.
func NewEnrollmentSource() *EnrollmentSource {
	return &EnrollmentSource{
		countSpec: domain.MetricSpec{Name: "enrollment_count", Column: colCountValue, Kind: domain.KindCount},
	}
}

func (s *EnrollmentSource) Name() string { return "enrollment" }

func (s *EnrollmentSource) ColumnRenames() map[string]string {
	return map[string]string{
		"district id":      pipeline.ColEntityID,
		"district name":    pipeline.ColEntityName,
		"school year":      pipeline.ColTimePeriod,
		"demographic":      pipeline.ColSegmentLabel,
		"measure":          colMeasure,
		"enrollment count": colCountValue,
		"suppression flag": pipeline.ColSuppressed,
	}
}

func (s *EnrollmentSource) PeriodPolicy() domain.PeriodPolicy {
	return domain.PeriodSpanSecondYear
}

func (s *EnrollmentSource) SuppressionColumn() string { return pipeline.ColSuppressed }

func (s *EnrollmentSource) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{s.countSpec}
}

// Extract names the metric from the measure cell and coerces the count.
func (s *EnrollmentSource) Extract(row pipeline.Row, values *sanitize.Sanitizer) map[string]*float64 {
	name, ok := s.metricName(row)
	if !ok {
		return nil
	}
	raw, present := row[colCountValue]
	if !present || values.Missing(raw) {
		return nil
	}
	return map[string]*float64{name: values.Count(colCountValue, raw)}
}

// SuppressedDefaults derives the same metric name from the measure cell.
// The measure is identity, not value, so shape symmetry holds even for
// fully suppressed rows.
func (s *EnrollmentSource) SuppressedDefaults(row pipeline.Row) []string {
	name, ok := s.metricName(row)
	if !ok {
		return nil
	}
	return []string{name}
}

// Matches recognizes the long format by its measure/count headers.
func (s *EnrollmentSource) Matches(headers []string) bool {
	return hasHeader(headers, "measure") && hasHeader(headers, "enrollment count")
}

func (s *EnrollmentSource) metricName(row pipeline.Row) (string, bool) {
	measure := strings.TrimSpace(row[colMeasure])
	if measure == "" {
		return "", false
	}
	return domain.FormatMetricName("enrollment", "count", measure), true
}
