package exporter

import (
	"strconv"
	"time"

	"canoncli/pkg/contracts/domain"
)

// CanonicalHeaders returns the fixed column order of the canonical table.
// The set is part of the output contract and must stay stable for a given
// deployment.
func CanonicalHeaders() []string {
	return []string{
		"entity_id",
		"entity_name",
		"parent_entity_id",
		"time_period",
		"segment_label",
		"metric_name",
		"value",
		"suppressed",
		"provenance_file",
		"generated_at",
	}
}

// CanonicalRow formats one record: null values render as the empty string,
// the suppression flag as literal Y/N.
func CanonicalRow(r domain.CanonicalRecord) []string {
	return []string{
		r.EntityID,
		r.EntityName,
		r.ParentEntityID,
		strconv.Itoa(r.TimePeriod),
		r.SegmentLabel,
		r.MetricName,
		FormatValue(r.Value),
		FormatSuppressed(r.Suppressed),
		r.ProvenanceFile,
		r.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// DecisionHeaders returns the audit table's column order.
func DecisionHeaders() []string {
	return []string{"raw_label", "time_period", "resolved_label", "provenance_file"}
}

// DecisionRow formats one audit entry.
func DecisionRow(d domain.LabelDecision) []string {
	return []string{
		d.RawLabel,
		strconv.Itoa(d.TimePeriod),
		d.ResolvedLabel,
		d.ProvenanceFile,
	}
}

// FormatValue renders a nullable numeric: empty string when null, minimal
// decimal representation otherwise.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatSuppressed renders the suppression flag as Y or N.
func FormatSuppressed(suppressed bool) string {
	if suppressed {
		return "Y"
	}
	return "N"
}
