// Package categorize is the rule matching engine. It classifies transactions
// against an ordered rule set and derives new rules from transactions. It
// works on caller-supplied snapshots and never touches storage.
package categorize

import (
	"sort"

	"spendwise/internal/models"
)

// Policy decides whether already categorised transactions are re-evaluated
// by ApplyAll.
type Policy int

const (
	// PolicyUncategorizedOnly leaves every categorised transaction alone.
	PolicyUncategorizedOnly Policy = iota
	// PolicyReclassify re-evaluates categorised transactions. A match
	// overwrites the category; a miss keeps it.
	PolicyReclassify
)

// PolicyFor maps a reclassify flag to a Policy.
func PolicyFor(reclassify bool) Policy {
	if reclassify {
		return PolicyReclassify
	}
	return PolicyUncategorizedOnly
}

func (p Policy) String() string {
	if p == PolicyReclassify {
		return "reclassify"
	}
	return "uncategorized_only"
}

// Result is the outcome of a successful classification.
type Result struct {
	CategoryID uint `json:"category_id"`
	Shared     bool `json:"shared"`
	RuleID     uint `json:"rule_id"`
}

type compiledRule struct {
	rule       *models.Rule
	predicates []predicate
}

func (c compiledRule) matches(tx *models.Transaction) bool {
	for _, p := range c.predicates {
		if !p(tx) {
			return false
		}
	}
	return true
}

// RuleSet is an evaluation-ready rule list: active rules only, ordered by
// priority then id, with their criteria compiled.
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet prepares rules for evaluation. Rules declaring no criterion are
// dropped so they can never match everything.
func NewRuleSet(rules []models.Rule) *RuleSet {
	active := make([]*models.Rule, 0, len(rules))
	for i := range rules {
		if rules[i].IsActive {
			active = append(active, &rules[i])
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		return active[i].ID < active[j].ID
	})

	set := &RuleSet{rules: make([]compiledRule, 0, len(active))}
	for _, r := range active {
		var preds []predicate
		for _, c := range criteria {
			if p, ok := c.compile(r); ok {
				preds = append(preds, p)
			}
		}
		if len(preds) == 0 {
			continue
		}
		set.rules = append(set.rules, compiledRule{rule: r, predicates: preds})
	}
	return set
}

// Len returns the number of evaluable rules.
func (s *RuleSet) Len() int { return len(s.rules) }

// Classify returns the outcome of the first matching rule, or nil.
func (s *RuleSet) Classify(tx *models.Transaction) *Result {
	for _, c := range s.rules {
		if c.matches(tx) {
			return &Result{
				CategoryID: c.rule.AssignCategoryID,
				Shared:     c.rule.AssignShared,
				RuleID:     c.rule.ID,
			}
		}
	}
	return nil
}

// Classify evaluates rules against tx and returns the outcome of the first
// matching rule, or nil when none matches.
func Classify(tx *models.Transaction, rules []models.Rule) *Result {
	return NewRuleSet(rules).Classify(tx)
}

// Assignment is one change ApplyAll wants persisted.
type Assignment struct {
	TransactionID      uint  `json:"transaction_id"`
	PreviousCategoryID *uint `json:"previous_category_id,omitempty"`
	CategoryID         uint  `json:"category_id"`
	Shared             bool  `json:"shared"`
	RuleID             uint  `json:"rule_id"`
}

// Summary reports what ApplyAll decided.
type Summary struct {
	Matched     int          `json:"matched"`
	Unmatched   int          `json:"unmatched"`
	Skipped     int          `json:"skipped"`
	Changed     int          `json:"changed"`
	Assignments []Assignment `json:"assignments,omitempty"`
}

// ApplyAll classifies every transaction independently. Split parents are
// skipped, as are categorised transactions under PolicyUncategorizedOnly.
// Assignments only lists transactions whose category or shared flag would
// actually change, so applying them twice is a no-op.
func ApplyAll(txs []models.Transaction, rules []models.Rule, policy Policy) Summary {
	set := NewRuleSet(rules)

	var sum Summary
	for i := range txs {
		tx := &txs[i]
		if tx.IsSplitParent || (tx.CategoryID != nil && policy == PolicyUncategorizedOnly) {
			sum.Skipped++
			continue
		}

		res := set.Classify(tx)
		if res == nil {
			sum.Unmatched++
			continue
		}
		sum.Matched++

		sameCategory := tx.CategoryID != nil && *tx.CategoryID == res.CategoryID
		shared := tx.IsShared || res.Shared
		if sameCategory && shared == tx.IsShared {
			continue
		}
		sum.Changed++
		sum.Assignments = append(sum.Assignments, Assignment{
			TransactionID:      tx.ID,
			PreviousCategoryID: tx.CategoryID,
			CategoryID:         res.CategoryID,
			Shared:             shared,
			RuleID:             res.RuleID,
		})
	}
	return sum
}
