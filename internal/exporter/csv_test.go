package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canoncli/pkg/contracts/domain"
)

func testRecords() []domain.CanonicalRecord {
	generated := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	v := 48.0
	return []domain.CanonicalRecord{
		{
			EntityID:       "A1",
			EntityName:     "Alpha",
			ParentEntityID: "D1",
			TimePeriod:     2024,
			SegmentLabel:   "All",
			MetricName:     "stub_rate_overall",
			Value:          &v,
			Suppressed:     false,
			ProvenanceFile: "a.csv",
			GeneratedAt:    generated,
		},
		{
			EntityID:       "A1",
			EntityName:     "Alpha",
			ParentEntityID: "D1",
			TimePeriod:     2024,
			SegmentLabel:   "Economically Disadvantaged",
			MetricName:     "stub_rate_overall",
			Value:          nil,
			Suppressed:     true,
			ProvenanceFile: "a.csv",
			GeneratedAt:    generated,
		},
	}
}

func TestWriteCanonical(t *testing.T) {
	dir := t.TempDir()
	canonical := filepath.Join(dir, "out", "canonical.csv")
	w := NewWriter(canonical, filepath.Join(dir, "out", "audit.csv"))

	require.NoError(t, w.WriteCanonical(testRecords()))

	data, err := os.ReadFile(canonical)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, CanonicalHeaders(), rows[0])

	valued := rows[1]
	assert.Equal(t, "A1", valued[0])
	assert.Equal(t, "2024", valued[3])
	assert.Equal(t, "48", valued[6])
	assert.Equal(t, "N", valued[7])
	assert.Equal(t, "2026-08-01T12:00:00Z", valued[9])

	suppressed := rows[2]
	assert.Equal(t, "", suppressed[6], "null value renders as empty string")
	assert.Equal(t, "Y", suppressed[7])
}

func TestWriteCanonicalWithBOM(t *testing.T) {
	dir := t.TempDir()
	canonical := filepath.Join(dir, "canonical.csv")
	w := NewWriter(canonical, filepath.Join(dir, "audit.csv"), WithBOM())

	require.NoError(t, w.WriteCanonical(nil))

	data, err := os.ReadFile(canonical)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
}

func TestWriteDecisions(t *testing.T) {
	dir := t.TempDir()
	audit := filepath.Join(dir, "audit.csv")
	w := NewWriter(filepath.Join(dir, "canonical.csv"), audit)

	decisions := []domain.LabelDecision{
		{RawLabel: "Econ Disadv", TimePeriod: 2024, ResolvedLabel: "Economically Disadvantaged", ProvenanceFile: "a.csv"},
		{RawLabel: "Brand New", TimePeriod: 2024, ResolvedLabel: "Brand New", ProvenanceFile: "a.csv"},
	}
	require.NoError(t, w.WriteDecisions(decisions))

	data, err := os.ReadFile(audit)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "raw_label,time_period,resolved_label,provenance_file", lines[0])
	assert.Equal(t, "Econ Disadv,2024,Economically Disadvantaged,a.csv", lines[1])
}

func TestWriteReplacesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	canonical := filepath.Join(dir, "canonical.csv")
	w := NewWriter(canonical, filepath.Join(dir, "audit.csv"))

	require.NoError(t, w.WriteCanonical(testRecords()))
	require.NoError(t, w.WriteCanonical(testRecords()[:1]))

	data, err := os.ReadFile(canonical)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2, "rewrite truncates, never appends")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	v := 119.1
	assert.Equal(t, "119.1", FormatValue(&v))
	whole := 48.0
	assert.Equal(t, "48", FormatValue(&whole))
}
