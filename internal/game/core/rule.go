package core

import (
	"sort"
	"strings"
)

// RuleKind separates purchase rules from repair rules.
type RuleKind int

const (
	RuleProduction RuleKind = iota
	RuleRepair
)

// ResultKind tags what a rule produces.
type ResultKind int

const (
	ResultUnitType ResultKind = iota
	ResultResource
)

// RuleResult is one thing a rule yields.
type RuleResult struct {
	Kind     ResultKind `json:"kind"`
	Name     string     `json:"name"`
	Quantity int        `json:"quantity"`
}

// HasCostsAndResults is implemented by purchasable rules.
type HasCostsAndResults interface {
	Named
	Costs() map[string]int
	Results() []RuleResult
}

// Rule is a production or repair rule.
type Rule struct {
	RuleName string
	Kind     RuleKind
	costs    map[string]int
	results  []RuleResult
}

// NewRule creates a rule from its costs and results.
func NewRule(name string, kind RuleKind, costs map[string]int, results ...RuleResult) *Rule {
	r := &Rule{RuleName: name, Kind: kind, costs: make(map[string]int, len(costs))}
	for k, v := range costs {
		r.costs[k] = v
	}
	r.results = append(r.results, results...)
	return r
}

func (r *Rule) Name() string { return r.RuleName }

func (r *Rule) Costs() map[string]int {
	out := make(map[string]int, len(r.costs))
	for k, v := range r.costs {
		out[k] = v
	}
	return out
}

func (r *Rule) Results() []RuleResult { return append([]RuleResult(nil), r.results...) }

// primary is the first result, used for ordering.
func (r *Rule) primary() (RuleResult, bool) {
	if len(r.results) == 0 {
		return RuleResult{}, false
	}
	return r.results[0], true
}

// CompareRules orders rules for display: unit type results before resource
// results, then by result name, then by rule name.
func CompareRules(a, b *Rule) int {
	ra, okA := a.primary()
	rb, okB := b.primary()
	switch {
	case !okA && !okB:
		return strings.Compare(a.RuleName, b.RuleName)
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if ra.Kind != rb.Kind {
		if ra.Kind == ResultUnitType {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ra.Name, rb.Name); c != 0 {
		return c
	}
	return strings.Compare(a.RuleName, b.RuleName)
}

// SortRules sorts in place using CompareRules.
func SortRules(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool { return CompareRules(rules[i], rules[j]) < 0 })
}
