package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"canoncli/pkg/contracts/domain"
)

// Canonical column names the assembler understands. These are the internal
// vocabulary every source's rename table maps into.
const (
	ColEntityID       = "entity_id"
	ColEntityCode     = "entity_code"
	ColEntityName     = "entity_name"
	ColParentEntityID = "parent_entity_id"
	ColTimePeriod     = "time_period"
	ColSegmentLabel   = "segment_label"
	ColSuppressed     = "suppressed"
)

// entityIDPriority is the fixed lookup order for the entity identifier:
// most specific and most complete first, coarser identifiers only when the
// finer ones are absent.
var entityIDPriority = []string{ColEntityID, ColEntityCode, ColParentEntityID}

// ErrNoPeriod indicates a row carried no usable time period.
var ErrNoPeriod = errors.New("no usable time period")

// Identity holds the normalized identity fields of one input row.
type Identity struct {
	EntityID       string
	EntityName     string
	ParentEntityID string
}

// Assembler combines identity fields, metric name/value, suppression flag
// and provenance into the canonical output row shape. It performs no
// validation beyond type and shape; validation belongs to the pipeline.
type Assembler struct {
	now func() time.Time
}

// NewAssembler creates an Assembler stamping records with the given clock.
// A nil clock means time.Now.
func NewAssembler(now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{now: now}
}

// Identity extracts the identity fields from a normalized row, walking the
// identifier columns in priority order.
func (a *Assembler) Identity(row Row) Identity {
	id := Identity{
		EntityName:     strings.TrimSpace(row[ColEntityName]),
		ParentEntityID: strings.TrimSpace(row[ColParentEntityID]),
	}
	for _, col := range entityIDPriority {
		if v := strings.TrimSpace(row[col]); v != "" {
			id.EntityID = v
			break
		}
	}
	return id
}

// Period resolves a row's time period: the row's own period column under
// the source's policy, falling back to the caller-supplied period (usually
// parsed from the file name) when the column is absent or blank.
func (a *Assembler) Period(row Row, policy domain.PeriodPolicy, fallback int) (int, error) {
	raw := strings.TrimSpace(row[ColTimePeriod])
	if raw == "" {
		if fallback > 0 {
			return fallback, nil
		}
		return 0, ErrNoPeriod
	}
	return NormalizePeriod(raw, policy)
}

// NormalizePeriod converts a raw period representation to a canonical
// integer year. 4-digit values are taken as-is; 8-digit start+end-year
// concatenations are split according to the source's policy.
func NormalizePeriod(raw string, policy domain.PeriodPolicy) (int, error) {
	digits := strings.TrimSpace(raw)
	switch len(digits) {
	case 4:
		year, err := strconv.Atoi(digits)
		if err != nil {
			return 0, fmt.Errorf("invalid period %q: %w", raw, err)
		}
		return year, nil
	case 8:
		first, err1 := strconv.Atoi(digits[:4])
		second, err2 := strconv.Atoi(digits[4:])
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid period span %q", raw)
		}
		if policy == domain.PeriodSpanSecondYear {
			return second, nil
		}
		return first, nil
	default:
		return 0, fmt.Errorf("unrecognized period format %q", raw)
	}
}

// Assemble builds one canonical record.
func (a *Assembler) Assemble(id Identity, period int, segment, metric string, value *float64, suppressed bool, provenanceFile string) domain.CanonicalRecord {
	if suppressed {
		value = nil
	}
	return domain.CanonicalRecord{
		EntityID:       id.EntityID,
		EntityName:     id.EntityName,
		ParentEntityID: id.ParentEntityID,
		TimePeriod:     period,
		SegmentLabel:   segment,
		MetricName:     metric,
		Value:          value,
		Suppressed:     suppressed,
		ProvenanceFile: provenanceFile,
		GeneratedAt:    a.now(),
	}
}
