package sources

import (
	"canoncli/internal/pipeline"
	"canoncli/internal/sanitize"
	"canoncli/pkg/contracts/domain"
)

// AchievementSource reads the wide-format achievement extracts: one row per
// (site, year, student group), one column per rate metric. The bonus rate
// can legitimately exceed 100, so it declares its own ceiling instead of
// inheriting the default.
type AchievementSource struct {
	metrics []domain.MetricSpec
}

// NewAchievementSource creates the adapter.
func NewAchievementSource() *AchievementSource {
	return &AchievementSource{
		metrics: []domain.MetricSpec{
			{Name: "achievement_rate_proficient", Column: "proficiency_rate", Kind: domain.KindRate},
			{Name: "achievement_rate_growth", Column: "growth_rate", Kind: domain.KindRate},
			{Name: "achievement_rate_bonus", Column: "bonus_rate", Kind: domain.KindRate, Ceiling: 150},
		},
	}
}

func (s *AchievementSource) Name() string { return "achievement" }

func (s *AchievementSource) ColumnRenames() map[string]string {
	return map[string]string{
		"campus code":               pipeline.ColEntityID,
		"campus name":               pipeline.ColEntityName,
		"district code":             pipeline.ColParentEntityID,
		"year":                      pipeline.ColTimePeriod,
		"student group":             pipeline.ColSegmentLabel,
		"suppressed":                pipeline.ColSuppressed,
		"proficiency rate":          "proficiency_rate",
		"growth rate":               "growth_rate",
		"college credit bonus rate": "bonus_rate",
	}
}

func (s *AchievementSource) PeriodPolicy() domain.PeriodPolicy {
	return domain.PeriodSingleYear
}

func (s *AchievementSource) SuppressionColumn() string { return pipeline.ColSuppressed }

func (s *AchievementSource) Metrics() []domain.MetricSpec { return s.metrics }

// Extract returns every declared metric whose cell carries a usable value.
// Cells holding a recognized missing token are genuinely omitted, no row;
// cells that fail sanitation surface as nil so the caller counts them.
func (s *AchievementSource) Extract(row pipeline.Row, values *sanitize.Sanitizer) map[string]*float64 {
	out := make(map[string]*float64, len(s.metrics))
	for _, spec := range s.metrics {
		raw, present := row[spec.Column]
		if !present || values.Missing(raw) {
			continue
		}
		out[spec.Name] = values.Value(spec, raw)
	}
	return out
}

// SuppressedDefaults mirrors Extract by shape alone: every metric whose
// column exists in the row would have been extracted, so every one of them
// materializes as a suppressed record.
func (s *AchievementSource) SuppressedDefaults(row pipeline.Row) []string {
	names := make([]string, 0, len(s.metrics))
	for _, spec := range s.metrics {
		if _, present := row[spec.Column]; present {
			names = append(names, spec.Name)
		}
	}
	return names
}

// Matches recognizes the wide format by its group and rate headers.
func (s *AchievementSource) Matches(headers []string) bool {
	return hasHeader(headers, "student group") && hasHeader(headers, "proficiency rate")
}

func hasHeader(headers []string, want string) bool {
	for _, h := range headers {
		if h == want {
			return true
		}
	}
	return false
}
