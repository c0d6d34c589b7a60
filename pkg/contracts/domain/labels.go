package domain

// ScopeAll marks a label rule that applies to every time period unless a
// period-specific rule overrides it.
const ScopeAll = "*"

// LabelRule maps one raw segment label spelling to its canonical form,
// optionally scoped to a single time period. Rules are loaded once at
// startup and never mutated during a run.
type LabelRule struct {
	Raw       string `json:"raw" yaml:"raw" validate:"required"`
	Canonical string `json:"canonical" yaml:"canonical" validate:"required"`
	Period    string `json:"period,omitempty" yaml:"period,omitempty"`
}

// LabelDecision is one entry in the append-only audit trail: exactly one is
// recorded per resolution call, whichever branch of the rule set fired.
type LabelDecision struct {
	RawLabel       string `json:"raw_label"`
	TimePeriod     int    `json:"time_period"`
	ResolvedLabel  string `json:"resolved_label"`
	ProvenanceFile string `json:"provenance_file"`
}

// ValidationExpectation lists, for one time period, the segment labels a
// complete extract must carry and those whose absence is acceptable.
type ValidationExpectation struct {
	Required       []string `json:"required" yaml:"required"`
	AllowedMissing []string `json:"allowed_missing" yaml:"allowed_missing"`
}
