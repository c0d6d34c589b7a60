package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canoncli/pkg/contracts/domain"
)

func TestIdentityPriorityOrder(t *testing.T) {
	a := NewAssembler(nil)

	tests := []struct {
		name string
		row  Row
		want string
	}{
		{
			name: "entity_id wins",
			row:  Row{ColEntityID: "S-1", ColEntityCode: "C-1", ColParentEntityID: "D-1"},
			want: "S-1",
		},
		{
			name: "entity_code when no entity_id",
			row:  Row{ColEntityCode: "C-1", ColParentEntityID: "D-1"},
			want: "C-1",
		},
		{
			name: "parent as last resort",
			row:  Row{ColParentEntityID: "D-1"},
			want: "D-1",
		},
		{
			name: "blank finer id falls through",
			row:  Row{ColEntityID: "  ", ColEntityCode: "C-1"},
			want: "C-1",
		},
		{
			name: "nothing available",
			row:  Row{ColEntityName: "Somewhere"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Identity(tt.row).EntityID)
		})
	}
}

func TestNormalizePeriod(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		policy  domain.PeriodPolicy
		want    int
		wantErr bool
	}{
		{name: "plain year", raw: "2024", policy: domain.PeriodSingleYear, want: 2024},
		{name: "span first year", raw: "20232024", policy: domain.PeriodSpanFirstYear, want: 2023},
		{name: "span second year", raw: "20232024", policy: domain.PeriodSpanSecondYear, want: 2024},
		{name: "span defaults to first", raw: "20232024", policy: domain.PeriodSingleYear, want: 2023},
		{name: "whitespace tolerated", raw: " 2024 ", policy: domain.PeriodSingleYear, want: 2024},
		{name: "garbage year", raw: "20xx", policy: domain.PeriodSingleYear, wantErr: true},
		{name: "wrong length", raw: "202", policy: domain.PeriodSingleYear, wantErr: true},
		{name: "garbage span", raw: "2023abcd", policy: domain.PeriodSpanFirstYear, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePeriod(tt.raw, tt.policy)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodFallback(t *testing.T) {
	a := NewAssembler(nil)

	got, err := a.Period(Row{}, domain.PeriodSingleYear, 2022)
	require.NoError(t, err)
	assert.Equal(t, 2022, got)

	_, err = a.Period(Row{}, domain.PeriodSingleYear, 0)
	assert.ErrorIs(t, err, ErrNoPeriod)

	// A row-level period beats the fallback.
	got, err = a.Period(Row{ColTimePeriod: "2024"}, domain.PeriodSingleYear, 2022)
	require.NoError(t, err)
	assert.Equal(t, 2024, got)
}

func TestAssembleStampsClockAndClearsSuppressedValue(t *testing.T) {
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := NewAssembler(func() time.Time { return fixed })

	id := Identity{EntityID: "S-1", EntityName: "Alpha", ParentEntityID: "D-1"}
	v := 48.0

	rec := a.Assemble(id, 2024, "All", "m_rate_x", &v, false, "a.csv")
	require.NotNil(t, rec.Value)
	assert.Equal(t, 48.0, *rec.Value)
	assert.False(t, rec.Suppressed)
	assert.Equal(t, fixed, rec.GeneratedAt)
	assert.Equal(t, "a.csv", rec.ProvenanceFile)

	// A suppressed record never carries a value, even if handed one.
	rec = a.Assemble(id, 2024, "All", "m_rate_x", &v, true, "a.csv")
	assert.Nil(t, rec.Value)
	assert.True(t, rec.Suppressed)
}
