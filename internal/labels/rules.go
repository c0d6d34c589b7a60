// Package labels reconciles inconsistent categorical segment labels across
// years and sources into a stable vocabulary, recording every resolution in
// an append-only audit trail.
package labels

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"canoncli/pkg/contracts/domain"
)

// ErrRuleFileNotFound indicates the rule file is absent. The rule set is the
// single source of truth for the label vocabulary, so this is fatal at
// startup rather than a silent fallback to built-in defaults.
var ErrRuleFileNotFound = errors.New("label rule file not found")

// ruleFile is the on-disk YAML shape of the rule set.
type ruleFile struct {
	Vocabulary   []string                                `yaml:"vocabulary" validate:"required,min=1,dive,required"`
	Mappings     []domain.LabelRule                      `yaml:"mappings" validate:"dive"`
	Expectations map[string]domain.ValidationExpectation `yaml:"expectations"`
}

// RuleSet is the immutable, layered rule store built once at process start.
// Global rules (scope "*") are overridden by period-specific rules for the
// same raw label.
type RuleSet struct {
	vocabulary   map[string]string // normalized canonical -> canonical spelling
	global       map[string]string // normalized raw -> canonical
	byPeriod     map[int]map[string]string
	expectations map[int]domain.ValidationExpectation
}

// Load reads and validates the rule file at path. Absence, unparsable YAML,
// and structural violations are all configuration errors: the caller is
// expected to abort before any input file is processed.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRuleFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}

	if err := validator.New().Struct(&file); err != nil {
		return nil, fmt.Errorf("rule file %s failed validation: %w", path, err)
	}

	return build(file)
}

func build(file ruleFile) (*RuleSet, error) {
	rs := &RuleSet{
		vocabulary:   make(map[string]string, len(file.Vocabulary)),
		global:       make(map[string]string),
		byPeriod:     make(map[int]map[string]string),
		expectations: make(map[int]domain.ValidationExpectation),
	}

	for _, label := range file.Vocabulary {
		rs.vocabulary[Normalize(label)] = label
	}

	for _, rule := range file.Mappings {
		if _, ok := rs.vocabulary[Normalize(rule.Canonical)]; !ok {
			return nil, fmt.Errorf("mapping for %q targets label %q outside the vocabulary", rule.Raw, rule.Canonical)
		}
		scope := strings.TrimSpace(rule.Period)
		if scope == "" || scope == domain.ScopeAll {
			rs.global[Normalize(rule.Raw)] = rule.Canonical
			continue
		}
		period, err := strconv.Atoi(scope)
		if err != nil {
			return nil, fmt.Errorf("mapping for %q has invalid period scope %q", rule.Raw, rule.Period)
		}
		if rs.byPeriod[period] == nil {
			rs.byPeriod[period] = make(map[string]string)
		}
		rs.byPeriod[period][Normalize(rule.Raw)] = rule.Canonical
	}

	for key, exp := range file.Expectations {
		period, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("expectation key %q is not a year", key)
		}
		rs.expectations[period] = exp
	}

	return rs, nil
}

// lookup resolves a normalized raw label through the rule layers: period
// override first, then global, then the vocabulary itself.
func (rs *RuleSet) lookup(normalized string, period int) (string, bool) {
	if byPeriod, ok := rs.byPeriod[period]; ok {
		if canonical, ok := byPeriod[normalized]; ok {
			return canonical, true
		}
	}
	if canonical, ok := rs.global[normalized]; ok {
		return canonical, true
	}
	if canonical, ok := rs.vocabulary[normalized]; ok {
		return canonical, true
	}
	return "", false
}

// Expectation returns the validation expectation for a period, if any.
func (rs *RuleSet) Expectation(period int) (domain.ValidationExpectation, bool) {
	exp, ok := rs.expectations[period]
	return exp, ok
}

// Vocabulary returns the canonical label spellings in no particular order.
func (rs *RuleSet) Vocabulary() []string {
	out := make([]string, 0, len(rs.vocabulary))
	for _, label := range rs.vocabulary {
		out = append(out, label)
	}
	return out
}

// Normalize prepares a label for lookup: trim, collapse internal
// whitespace, case-fold.
func Normalize(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}
