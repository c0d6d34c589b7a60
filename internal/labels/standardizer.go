package labels

import (
	"log/slog"
	"sort"
	"strconv"

	"canoncli/pkg/contracts/domain"
)

// Standardizer resolves raw segment labels to canonical vocabulary entries
// and owns the append-only decision log for the run. It never rejects a
// label: an unmapped label round-trips unchanged so no record is lost.
//
// Not safe for concurrent use; each run owns exactly one Standardizer.
type Standardizer struct {
	rules     *RuleSet
	logger    *slog.Logger
	decisions []domain.LabelDecision
	unmapped  map[string]int // "label|period" -> occurrences
}

// NewStandardizer creates a Standardizer over an immutable rule set.
func NewStandardizer(rules *RuleSet, logger *slog.Logger) *Standardizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Standardizer{
		rules:    rules,
		logger:   logger,
		unmapped: make(map[string]int),
	}
}

// Resolve maps a raw label to its canonical form for the given period.
// Resolution order: period-specific rule, global rule, the vocabulary
// itself, and finally pass-through. Exactly one LabelDecision is recorded
// per call, whichever branch fired.
func (s *Standardizer) Resolve(rawLabel string, period int, provenanceFile string) string {
	normalized := Normalize(rawLabel)

	resolved, ok := s.rules.lookup(normalized, period)
	if !ok {
		resolved = rawLabel
		key := unmappedKey(normalized, period)
		if s.unmapped[key] == 0 {
			s.logger.Warn("no label mapping found, passing through unchanged",
				slog.String("raw_label", rawLabel),
				slog.Int("time_period", period),
				slog.String("provenance_file", provenanceFile))
		}
		s.unmapped[key]++
	}

	s.decisions = append(s.decisions, domain.LabelDecision{
		RawLabel:       rawLabel,
		TimePeriod:     period,
		ResolvedLabel:  resolved,
		ProvenanceFile: provenanceFile,
	})

	return resolved
}

// ValidationResult classifies the resolved labels seen for one period
// against that period's expectation. Reporting only; never fatal.
type ValidationResult struct {
	Valid           bool
	MissingRequired []string
	Unexpected      []string
}

// Validate set-differences the resolved labels against the period's
// expectation. Pure function of its inputs; records no decision.
func (s *Standardizer) Validate(resolved map[string]struct{}, period int) ValidationResult {
	exp, ok := s.rules.Expectation(period)
	if !ok {
		return ValidationResult{Valid: true}
	}

	seen := make(map[string]struct{}, len(resolved))
	for label := range resolved {
		seen[Normalize(label)] = struct{}{}
	}

	known := make(map[string]struct{}, len(exp.Required)+len(exp.AllowedMissing))
	var missing []string
	for _, label := range exp.Required {
		known[Normalize(label)] = struct{}{}
		if _, ok := seen[Normalize(label)]; !ok {
			missing = append(missing, label)
		}
	}
	for _, label := range exp.AllowedMissing {
		known[Normalize(label)] = struct{}{}
	}

	var unexpected []string
	for label := range resolved {
		if _, ok := known[Normalize(label)]; !ok {
			unexpected = append(unexpected, label)
		}
	}

	sort.Strings(missing)
	sort.Strings(unexpected)

	return ValidationResult{
		Valid:           len(missing) == 0 && len(unexpected) == 0,
		MissingRequired: missing,
		Unexpected:      unexpected,
	}
}

// Decisions returns the audit trail accumulated so far, in call order.
func (s *Standardizer) Decisions() []domain.LabelDecision {
	return s.decisions
}

// UnmappedCounts returns occurrences of labels that resolved through the
// pass-through branch, keyed by "normalized label|period".
func (s *Standardizer) UnmappedCounts() map[string]int {
	out := make(map[string]int, len(s.unmapped))
	for k, v := range s.unmapped {
		out[k] = v
	}
	return out
}

func unmappedKey(normalized string, period int) string {
	return normalized + "|" + strconv.Itoa(period)
}
