package labels

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStandardizer(t *testing.T) *Standardizer {
	t.Helper()
	rs, err := Load(writeRules(t, testRules))
	require.NoError(t, err)
	return NewStandardizer(rs, slog.Default())
}

func TestResolveGlobalRule(t *testing.T) {
	std := newTestStandardizer(t)

	got := std.Resolve("Econ Disadv", 2023, "a.csv")
	assert.Equal(t, "Economically Disadvantaged", got)
}

func TestResolveNormalizesBeforeLookup(t *testing.T) {
	std := newTestStandardizer(t)

	assert.Equal(t, "Economically Disadvantaged", std.Resolve("  econ   DISADV ", 2023, "a.csv"))
}

func TestResolvePeriodRuleOverridesGlobal(t *testing.T) {
	std := newTestStandardizer(t)

	// The fixture maps this spelling globally to "All" and, for 2024 only,
	// to its own category. The period rule must win in 2024.
	got := std.Resolve("Non Economically Disadvantaged", 2024, "a.csv")
	assert.Equal(t, "Non-Economically Disadvantaged", got)

	// Every other period falls back to the global rule.
	got = std.Resolve("Non Economically Disadvantaged", 2023, "a.csv")
	assert.Equal(t, "All", got)
	got = std.Resolve("Non Economically Disadvantaged", 2025, "a.csv")
	assert.Equal(t, "All", got)
}

func TestResolveFallsBackToGlobalWhenPeriodRuleRemoved(t *testing.T) {
	content := `
vocabulary:
  - All
  - Non-Economically Disadvantaged
mappings:
  - raw: Non Economically Disadvantaged
    canonical: All
`
	rs, err := Load(writeRules(t, content))
	require.NoError(t, err)
	std := NewStandardizer(rs, slog.Default())

	// Without the 2024 override, the global rule fires there too.
	assert.Equal(t, "All", std.Resolve("Non Economically Disadvantaged", 2024, "a.csv"))
}

func TestResolveVocabularyRoundTrip(t *testing.T) {
	std := newTestStandardizer(t)

	// A raw label already canonical returns the vocabulary spelling.
	assert.Equal(t, "English Learners", std.Resolve("english learners", 2024, "a.csv"))
}

func TestResolveUnmappedPassesThrough(t *testing.T) {
	std := newTestStandardizer(t)

	got := std.Resolve("Brand New Category", 2024, "a.csv")
	assert.Equal(t, "Brand New Category", got)

	counts := std.UnmappedCounts()
	assert.Equal(t, 1, counts["brand new category|2024"])
}

func TestResolveRecordsExactlyOneDecisionPerCall(t *testing.T) {
	std := newTestStandardizer(t)

	std.Resolve("Econ Disadv", 2024, "a.csv")
	std.Resolve("Brand New Category", 2024, "a.csv")
	std.Resolve("All", 2024, "b.csv")

	decisions := std.Decisions()
	require.Len(t, decisions, 3)
	assert.Equal(t, "Econ Disadv", decisions[0].RawLabel)
	assert.Equal(t, "Economically Disadvantaged", decisions[0].ResolvedLabel)
	assert.Equal(t, "a.csv", decisions[0].ProvenanceFile)
	assert.Equal(t, "Brand New Category", decisions[1].ResolvedLabel)
	assert.Equal(t, "b.csv", decisions[2].ProvenanceFile)
}

func TestResolveIsDeterministic(t *testing.T) {
	std := newTestStandardizer(t)

	first := std.Resolve("Econ Disadv", 2024, "a.csv")
	second := std.Resolve("Econ Disadv", 2024, "a.csv")
	assert.Equal(t, first, second)
	assert.Len(t, std.Decisions(), 2)
}

func TestValidate(t *testing.T) {
	std := newTestStandardizer(t)

	tests := []struct {
		name     string
		resolved []string
		period   int
		want     ValidationResult
	}{
		{
			name:     "all present",
			resolved: []string{"All", "Economically Disadvantaged"},
			period:   2024,
			want:     ValidationResult{Valid: true},
		},
		{
			name:     "allowed missing does not fail",
			resolved: []string{"All", "Economically Disadvantaged", "Non-Economically Disadvantaged"},
			period:   2024,
			want:     ValidationResult{Valid: true},
		},
		{
			name:     "missing required",
			resolved: []string{"All"},
			period:   2024,
			want:     ValidationResult{MissingRequired: []string{"Economically Disadvantaged"}},
		},
		{
			name:     "unexpected label",
			resolved: []string{"All", "Economically Disadvantaged", "Brand New Category"},
			period:   2024,
			want:     ValidationResult{Unexpected: []string{"Brand New Category"}},
		},
		{
			name:     "no expectation for period",
			resolved: []string{"Whatever"},
			period:   2019,
			want:     ValidationResult{Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := make(map[string]struct{}, len(tt.resolved))
			for _, label := range tt.resolved {
				resolved[label] = struct{}{}
			}
			got := std.Validate(resolved, tt.period)
			assert.Equal(t, tt.want, got)
		})
	}
}
