package categorize

import (
	"strings"
	"testing"

	"spendwise/internal/models"
	"spendwise/internal/testutil"
)

func TestFromTransaction(t *testing.T) {
	tx := txn(1, "Stadtwerke München GmbH", "-80")
	tx.CounterpartIBAN = "DE02120300000000202051"
	tx.Purpose = "Abschlag Strom 03/2024"

	t.Run("copies_counterpart_verbatim", func(t *testing.T) {
		r, err := FromTransaction(&tx, 5, MatchCounterpartName, 3)
		testutil.AssertNoError(t, err)
		if r.MatchCounterpartName == nil || *r.MatchCounterpartName != "Stadtwerke München GmbH" {
			t.Errorf("unexpected criterion %v", r.MatchCounterpartName)
		}
		if r.AssignCategoryID != 5 || r.Priority != 3 || !r.IsActive {
			t.Errorf("unexpected rule %+v", r)
		}
		if CountCriteria(r) != 1 {
			t.Errorf("expected exactly one criterion, got %d", CountCriteria(r))
		}
	})

	t.Run("iban_and_purpose", func(t *testing.T) {
		r, err := FromTransaction(&tx, 5, MatchCounterpartIBAN, 0)
		testutil.AssertNoError(t, err)
		if *r.MatchCounterpartIBAN != tx.CounterpartIBAN {
			t.Errorf("expected IBAN copied, got %s", *r.MatchCounterpartIBAN)
		}

		r, err = FromTransaction(&tx, 5, MatchPurpose, 0)
		testutil.AssertNoError(t, err)
		if *r.MatchPurpose != tx.Purpose {
			t.Errorf("expected purpose copied, got %s", *r.MatchPurpose)
		}
	})

	t.Run("derived_rule_matches_source", func(t *testing.T) {
		for _, mt := range []MatchType{MatchCounterpartName, MatchCounterpartIBAN, MatchPurpose} {
			r, err := FromTransaction(&tx, 5, mt, 0)
			testutil.AssertNoError(t, err)
			r.ID = 1
			if Classify(&tx, []models.Rule{*r}) == nil {
				t.Errorf("%s: derived rule does not match its source", mt)
			}
		}
	})

	t.Run("name_from_counterpart", func(t *testing.T) {
		r, _ := FromTransaction(&tx, 5, MatchPurpose, 0)
		if r.Name != "Rule: Stadtwerke München GmbH" {
			t.Errorf("unexpected name %q", r.Name)
		}
	})

	t.Run("empty_field_rejected", func(t *testing.T) {
		_, err := FromTransaction(&tx, 5, MatchBookingType, 0)
		testutil.AssertAppError(t, err, "INVALID_RULE")
	})

	t.Run("unknown_match_type", func(t *testing.T) {
		_, err := FromTransaction(&tx, 5, MatchType("amount"), 0)
		testutil.AssertAppError(t, err, "INVALID_RULE")
	})
}

func TestValidate(t *testing.T) {
	exists := func(id uint) bool { return id == 1 }

	t.Run("no_criteria", func(t *testing.T) {
		r := rule(0, 0, 1)
		testutil.AssertAppError(t, Validate(&r, exists), "INVALID_RULE")
	})

	t.Run("blank_criteria_count_as_none", func(t *testing.T) {
		r := rule(0, 0, 1)
		r.MatchCounterpartName = testutil.StrPtr("")
		r.MatchPurpose = testutil.StrPtr("  ")
		testutil.AssertAppError(t, Validate(&r, exists), "INVALID_RULE")
	})

	t.Run("min_above_max", func(t *testing.T) {
		r := rule(0, 0, 1)
		r.MatchAmountMin = testutil.DecPtr("10")
		r.MatchAmountMax = testutil.DecPtr("-10")
		testutil.AssertAppError(t, Validate(&r, exists), "INVALID_RULE")
	})

	t.Run("bad_regex", func(t *testing.T) {
		r := rule(0, 0, 1)
		r.MatchPurpose = testutil.StrPtr("/[a-/i")
		err := Validate(&r, exists)
		testutil.AssertAppError(t, err, "INVALID_RULE")
		if !strings.Contains(err.Error(), "missing closing ]") {
			t.Errorf("expected the regex error code in the message, got %q", err.Error())
		}
	})

	t.Run("wildcard_only_pattern", func(t *testing.T) {
		for _, pattern := range []string{"*", "%%", "* %"} {
			r := rule(0, 0, 1)
			r.MatchCounterpartName = testutil.StrPtr(pattern)
			testutil.AssertAppError(t, Validate(&r, exists), "INVALID_RULE")
		}
	})

	t.Run("empty_regex", func(t *testing.T) {
		r := rule(0, 0, 1)
		r.MatchPurpose = testutil.StrPtr("//i")
		testutil.AssertAppError(t, Validate(&r, exists), "INVALID_RULE")
	})

	t.Run("wildcard_with_text_ok", func(t *testing.T) {
		r := rule(0, 0, 1)
		r.MatchCounterpartName = testutil.StrPtr("*rewe*")
		testutil.AssertNoError(t, Validate(&r, exists))
	})

	t.Run("unknown_regex_flag", func(t *testing.T) {
		r := rule(0, 0, 1)
		r.MatchPurpose = testutil.StrPtr("/abc/g")
		testutil.AssertAppError(t, Validate(&r, exists), "INVALID_RULE")
	})

	t.Run("unknown_target", func(t *testing.T) {
		r := rule(0, 0, 2)
		r.MatchPurpose = testutil.StrPtr("abc")
		testutil.AssertAppError(t, Validate(&r, exists), "INVALID_RULE")
	})

	t.Run("valid", func(t *testing.T) {
		r := rule(0, 0, 1)
		r.MatchAmountMax = testutil.DecPtr("-10")
		testutil.AssertNoError(t, Validate(&r, exists))
	})
}
