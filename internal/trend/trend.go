// Package trend classifies dashboard metrics as positive, negative or neutral
// against a table of fixed thresholds.
package trend

import (
	"fmt"
	"strings"

	"github.com/iwvelando/ratio-dashboard/internal/ratios"
)

// Label is the qualitative classification of a metric value.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Badge returns the short text shown on a metric card.
func (l Label) Badge() string {
	switch l {
	case Positive:
		return "Good"
	case Negative:
		return "Alert"
	default:
		return "Neutral"
	}
}

// ParseLabel resolves a label name case-insensitively.
func ParseLabel(name string) (Label, error) {
	switch Label(strings.ToLower(strings.TrimSpace(name))) {
	case Positive:
		return Positive, nil
	case Negative:
		return Negative, nil
	case Neutral:
		return Neutral, nil
	}
	return "", fmt.Errorf("unknown trend label %q", name)
}

// Comparison is the operator a rule applies between value and threshold.
type Comparison string

const (
	GreaterThan        Comparison = ">"
	GreaterThanOrEqual Comparison = ">="
	LessThan           Comparison = "<"
	LessThanOrEqual    Comparison = "<="
)

// Holds reports whether value compared to threshold satisfies c.
func (c Comparison) Holds(value, threshold float64) bool {
	switch c {
	case GreaterThan:
		return value > threshold
	case GreaterThanOrEqual:
		return value >= threshold
	case LessThan:
		return value < threshold
	case LessThanOrEqual:
		return value <= threshold
	}
	return false
}

// Valid reports whether c is a supported operator.
func (c Comparison) Valid() bool {
	switch c {
	case GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual:
		return true
	}
	return false
}

// Rule labels a metric Pass when the comparison holds and Fail otherwise.
type Rule struct {
	Metric     ratios.Metric
	Comparison Comparison
	Threshold  float64
	Pass       Label
	Fail       Label
}

// Validate checks that every part of the rule is known.
func (r Rule) Validate() error {
	if !r.Metric.Valid() {
		return fmt.Errorf("trend rule: unknown metric %q", r.Metric)
	}
	if !r.Comparison.Valid() {
		return fmt.Errorf("trend rule for %s: unsupported comparison %q", r.Metric, r.Comparison)
	}
	if _, err := ParseLabel(string(r.Pass)); err != nil {
		return fmt.Errorf("trend rule for %s: %w", r.Metric, err)
	}
	if _, err := ParseLabel(string(r.Fail)); err != nil {
		return fmt.Errorf("trend rule for %s: %w", r.Metric, err)
	}
	return nil
}

// Policy is an ordered rule table with at most one rule per metric.
type Policy struct {
	rules []Rule
}

// DefaultRules returns the stock thresholds for the summary cards. Asset
// turnover is intentionally absent and stays untagged.
func DefaultRules() []Rule {
	return []Rule{
		{Metric: ratios.NetMargin, Comparison: GreaterThan, Threshold: 15, Pass: Positive, Fail: Neutral},
		{Metric: ratios.CurrentRatio, Comparison: GreaterThan, Threshold: 1.5, Pass: Positive, Fail: Negative},
		{Metric: ratios.ROA, Comparison: GreaterThan, Threshold: 5, Pass: Positive, Fail: Neutral},
	}
}

// DefaultPolicy returns a Policy built from DefaultRules.
func DefaultPolicy() *Policy {
	p, _ := NewPolicy(DefaultRules())
	return p
}

// NewPolicy validates rules and builds a Policy. A metric may appear once.
// Labels are normalized to lower case.
func NewPolicy(rules []Rule) (*Policy, error) {
	seen := make(map[ratios.Metric]struct{}, len(rules))
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[r.Metric]; dup {
			return nil, fmt.Errorf("trend rule for %s defined more than once", r.Metric)
		}
		seen[r.Metric] = struct{}{}
		r.Pass, _ = ParseLabel(string(r.Pass))
		r.Fail, _ = ParseLabel(string(r.Fail))
		normalized = append(normalized, r)
	}
	return &Policy{rules: normalized}, nil
}

// Rules returns a copy of the rule table.
func (p *Policy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Classify labels value for metric m. ok is false when no rule covers m.
func (p *Policy) Classify(m ratios.Metric, value float64) (label Label, ok bool) {
	for _, r := range p.rules {
		if r.Metric != m {
			continue
		}
		if r.Comparison.Holds(value, r.Threshold) {
			return r.Pass, true
		}
		return r.Fail, true
	}
	return "", false
}
