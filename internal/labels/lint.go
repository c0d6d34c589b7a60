package labels

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"canoncli/pkg/contracts/domain"
)

// Finding is one lint observation about a rule file.
type Finding struct {
	Severity string `json:"severity"` // "error" or "warning"
	Message  string `json:"message"`
}

// Lint checks a rule file for internal consistency without requiring it to
// build: mappings targeting labels outside the vocabulary, expectation
// entries referencing unknown labels, and vocabulary entries no mapping or
// expectation ever references.
func Lint(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}

	vocab := make(map[string]string, len(file.Vocabulary))
	referenced := make(map[string]bool, len(file.Vocabulary))
	for _, label := range file.Vocabulary {
		vocab[Normalize(label)] = label
	}

	var findings []Finding

	if len(file.Vocabulary) == 0 {
		findings = append(findings, Finding{Severity: "error", Message: "vocabulary is empty"})
	}

	for _, rule := range file.Mappings {
		key := Normalize(rule.Canonical)
		if _, ok := vocab[key]; !ok {
			findings = append(findings, Finding{
				Severity: "error",
				Message:  fmt.Sprintf("mapping %q (period %s) targets %q, which is not in the vocabulary", rule.Raw, scopeOrAll(rule.Period), rule.Canonical),
			})
			continue
		}
		referenced[key] = true
	}

	for period, exp := range file.Expectations {
		for _, label := range append(append([]string{}, exp.Required...), exp.AllowedMissing...) {
			key := Normalize(label)
			if _, ok := vocab[key]; !ok {
				findings = append(findings, Finding{
					Severity: "error",
					Message:  fmt.Sprintf("expectation for period %s references %q, which is not in the vocabulary", period, label),
				})
				continue
			}
			referenced[key] = true
		}
	}

	var unreferenced []string
	for key, label := range vocab {
		if !referenced[key] {
			unreferenced = append(unreferenced, label)
		}
	}
	sort.Strings(unreferenced)
	for _, label := range unreferenced {
		findings = append(findings, Finding{
			Severity: "warning",
			Message:  fmt.Sprintf("vocabulary entry %q is never referenced by any mapping or expectation", label),
		})
	}

	return findings, nil
}

func scopeOrAll(scope string) string {
	if scope == "" {
		return domain.ScopeAll
	}
	return scope
}
