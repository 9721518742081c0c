package categorize

import (
	"testing"

	"spendwise/internal/models"
	"spendwise/internal/testutil"
)

func rule(id uint, priority int, categoryID uint) models.Rule {
	r := models.Rule{Priority: priority, IsActive: true, AssignCategoryID: categoryID}
	r.ID = id
	return r
}

func txn(id uint, counterpart, amount string) models.Transaction {
	tx := models.Transaction{CounterpartName: counterpart, Amount: testutil.Dec(amount)}
	tx.ID = id
	return tx
}

const (
	entertainment uint = 10
	subscriptions uint = 20
)

func netflixRules() []models.Rule {
	byName := rule(1, 1, entertainment)
	byName.MatchCounterpartName = testutil.StrPtr("netflix")

	byAmount := rule(2, 2, subscriptions)
	byAmount.MatchAmountMax = testutil.DecPtr("-10")

	// Stored out of order on purpose.
	return []models.Rule{byAmount, byName}
}

func TestClassify(t *testing.T) {
	t.Run("priority_wins_over_later_match", func(t *testing.T) {
		tx := txn(1, "Netflix", "-12.99")
		res := Classify(&tx, netflixRules())
		if res == nil {
			t.Fatal("expected a match")
		}
		if res.CategoryID != entertainment {
			t.Errorf("expected Entertainment (%d), got %d", entertainment, res.CategoryID)
		}
		if res.RuleID != 1 {
			t.Errorf("expected rule 1, got %d", res.RuleID)
		}
	})

	t.Run("falls_through_to_second_rule", func(t *testing.T) {
		tx := txn(1, "Spotify", "-10.99")
		res := Classify(&tx, netflixRules())
		if res == nil || res.CategoryID != subscriptions {
			t.Fatalf("expected Subscriptions, got %+v", res)
		}
	})

	t.Run("no_match_returns_nil", func(t *testing.T) {
		tx := txn(1, "Bakery", "-3.50")
		if res := Classify(&tx, netflixRules()); res != nil {
			t.Errorf("expected nil, got %+v", res)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		tx := txn(1, "Netflix", "-12.99")
		rules := netflixRules()
		first := Classify(&tx, rules)
		for i := 0; i < 10; i++ {
			again := Classify(&tx, rules)
			if *again != *first {
				t.Fatalf("run %d returned %+v, first run %+v", i, again, first)
			}
		}
	})

	t.Run("equal_priority_breaks_tie_by_id", func(t *testing.T) {
		a := rule(7, 5, 70)
		a.MatchCounterpartName = testutil.StrPtr("shop")
		b := rule(3, 5, 30)
		b.MatchCounterpartName = testutil.StrPtr("shop")

		tx := txn(1, "Corner Shop", "-1")
		res := Classify(&tx, []models.Rule{a, b})
		if res == nil || res.RuleID != 3 {
			t.Errorf("expected rule 3, got %+v", res)
		}
	})

	t.Run("inactive_rules_skipped", func(t *testing.T) {
		rules := netflixRules()
		rules[1].IsActive = false
		tx := txn(1, "Netflix", "-12.99")
		res := Classify(&tx, rules)
		if res == nil || res.CategoryID != subscriptions {
			t.Errorf("expected fallback to Subscriptions, got %+v", res)
		}
	})

	t.Run("rule_without_criteria_never_matches", func(t *testing.T) {
		tx := txn(1, "Anything", "-1")
		if res := Classify(&tx, []models.Rule{rule(1, 0, 1)}); res != nil {
			t.Errorf("expected nil, got %+v", res)
		}
	})

	t.Run("assign_shared_is_reported", func(t *testing.T) {
		r := rule(1, 0, 5)
		r.MatchPurpose = testutil.StrPtr("rent")
		r.AssignShared = true
		tx := txn(1, "Landlord", "-900")
		tx.Purpose = "RENT MARCH"
		res := Classify(&tx, []models.Rule{r})
		if res == nil || !res.Shared {
			t.Errorf("expected shared result, got %+v", res)
		}
	})
}

func TestCriteria(t *testing.T) {
	base := txn(1, "REWE Markt GmbH", "-42.10")
	base.CounterpartIBAN = "DE89 3704 0044 0532 0130 00"
	base.Purpose = "Einkauf Filiale 123"
	base.BookingType = "Kartenzahlung"

	tests := []struct {
		name  string
		setup func(r *models.Rule)
		want  bool
	}{
		{"substring_case_insensitive", func(r *models.Rule) { r.MatchCounterpartName = testutil.StrPtr("rewe") }, true},
		{"substring_miss", func(r *models.Rule) { r.MatchCounterpartName = testutil.StrPtr("aldi") }, false},
		{"wildcards_stripped", func(r *models.Rule) { r.MatchCounterpartName = testutil.StrPtr("%REWE%") }, true},
		{"star_wildcards_stripped", func(r *models.Rule) { r.MatchPurpose = testutil.StrPtr("*filiale*") }, true},
		{"regex_with_flag", func(r *models.Rule) { r.MatchPurpose = testutil.StrPtr("/einkauf.*\\d+/i") }, true},
		{"regex_case_sensitive", func(r *models.Rule) { r.MatchPurpose = testutil.StrPtr("/einkauf/") }, false},
		{"invalid_regex_degrades_to_substring", func(r *models.Rule) { r.MatchPurpose = testutil.StrPtr("/(/") }, false},
		{"iban_ignores_case_and_spaces", func(r *models.Rule) { r.MatchCounterpartIBAN = testutil.StrPtr("de89370400440532013000") }, true},
		{"iban_mismatch", func(r *models.Rule) { r.MatchCounterpartIBAN = testutil.StrPtr("DE00000000000000000000") }, false},
		{"booking_type_exact", func(r *models.Rule) { r.MatchBookingType = testutil.StrPtr("kartenzahlung") }, true},
		{"booking_type_not_substring", func(r *models.Rule) { r.MatchBookingType = testutil.StrPtr("karten") }, false},
		{"amount_inside_range", func(r *models.Rule) {
			r.MatchAmountMin = testutil.DecPtr("-50")
			r.MatchAmountMax = testutil.DecPtr("-40")
		}, true},
		{"amount_bounds_inclusive", func(r *models.Rule) {
			r.MatchAmountMin = testutil.DecPtr("-42.10")
			r.MatchAmountMax = testutil.DecPtr("-42.10")
		}, true},
		{"amount_is_signed", func(r *models.Rule) { r.MatchAmountMin = testutil.DecPtr("40") }, false},
		{"all_criteria_anded", func(r *models.Rule) {
			r.MatchCounterpartName = testutil.StrPtr("rewe")
			r.MatchBookingType = testutil.StrPtr("Gutschrift")
		}, false},
		{"blank_criterion_is_absent", func(r *models.Rule) {
			r.MatchCounterpartName = testutil.StrPtr("rewe")
			r.MatchPurpose = testutil.StrPtr("   ")
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := rule(1, 0, 1)
			tc.setup(&r)
			tx := base
			got := Classify(&tx, []models.Rule{r}) != nil
			if got != tc.want {
				t.Errorf("expected match=%v, got %v", tc.want, got)
			}
		})
	}

	t.Run("absent_field_is_empty_string", func(t *testing.T) {
		r := rule(1, 0, 1)
		r.MatchPurpose = testutil.StrPtr("x")
		tx := txn(2, "Someone", "-1")
		if Classify(&tx, []models.Rule{r}) != nil {
			t.Error("expected no match on empty purpose")
		}
	})
}

func TestApplyAll(t *testing.T) {
	rules := netflixRules()
	categorised := txn(3, "Netflix", "-12.99")
	categorised.CategoryID = testutil.UintPtr(99)
	parent := txn(4, "Netflix", "-30")
	parent.IsSplitParent = true

	snapshot := func() []models.Transaction {
		return []models.Transaction{
			txn(1, "Netflix", "-12.99"),
			txn(2, "Bakery", "-3.50"),
			categorised,
			parent,
		}
	}

	t.Run("uncategorized_only_skips_categorised", func(t *testing.T) {
		sum := ApplyAll(snapshot(), rules, PolicyUncategorizedOnly)
		if sum.Matched != 1 || sum.Unmatched != 1 || sum.Skipped != 2 {
			t.Errorf("unexpected summary %+v", sum)
		}
		if len(sum.Assignments) != 1 || sum.Assignments[0].TransactionID != 1 {
			t.Fatalf("expected one assignment for tx 1, got %+v", sum.Assignments)
		}
	})

	t.Run("reclassify_overwrites_on_match", func(t *testing.T) {
		sum := ApplyAll(snapshot(), rules, PolicyReclassify)
		if sum.Matched != 2 || sum.Skipped != 1 {
			t.Errorf("unexpected summary %+v", sum)
		}
		var found bool
		for _, a := range sum.Assignments {
			if a.TransactionID == 3 {
				found = true
				if a.CategoryID != entertainment || a.PreviousCategoryID == nil || *a.PreviousCategoryID != 99 {
					t.Errorf("unexpected assignment %+v", a)
				}
			}
		}
		if !found {
			t.Error("expected categorised transaction to be reassigned")
		}
	})

	t.Run("reclassify_keeps_category_on_miss", func(t *testing.T) {
		tx := txn(5, "Bakery", "-3.50")
		tx.CategoryID = testutil.UintPtr(42)
		sum := ApplyAll([]models.Transaction{tx}, rules, PolicyReclassify)
		if sum.Unmatched != 1 || len(sum.Assignments) != 0 {
			t.Errorf("expected untouched transaction, got %+v", sum)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		txs := snapshot()
		first := ApplyAll(txs, rules, PolicyReclassify)
		for _, a := range first.Assignments {
			for i := range txs {
				if txs[i].ID == a.TransactionID {
					id := a.CategoryID
					txs[i].CategoryID = &id
					txs[i].IsShared = a.Shared
				}
			}
		}
		second := ApplyAll(txs, rules, PolicyReclassify)
		if second.Changed != 0 {
			t.Errorf("expected no changes on second run, got %+v", second.Assignments)
		}
		if second.Matched != first.Matched {
			t.Errorf("matched drifted: %d then %d", first.Matched, second.Matched)
		}
	})

	t.Run("policy_for_flag", func(t *testing.T) {
		if PolicyFor(true) != PolicyReclassify || PolicyFor(false) != PolicyUncategorizedOnly {
			t.Error("unexpected policy mapping")
		}
	})
}
