package scope

import (
	"slices"
	"testing"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/testutil"
)

func account(id uint, profile *uint) models.Account {
	a := models.Account{ProfileID: profile}
	a.ID = id
	return a
}

func householdAccounts() []models.Account {
	return []models.Account{
		account(1, testutil.UintPtr(7)),
		account(2, nil),
		account(3, testutil.UintPtr(9)),
	}
}

func TestResolve(t *testing.T) {
	accounts := householdAccounts()

	t.Run("profile_expands_to_owned_accounts", func(t *testing.T) {
		p, err := Resolve(Selection{ProfileID: testutil.UintPtr(7)}, accounts)
		testutil.AssertNoError(t, err)
		if got := p.AccountIDs(); !slices.Equal(got, []uint{1}) {
			t.Errorf("expected [1], got %v", got)
		}
		if p.Mode() != ModeProfile {
			t.Errorf("expected profile mode, got %s", p.Mode())
		}
	})

	t.Run("profile_without_accounts_matches_nothing", func(t *testing.T) {
		p, err := Resolve(Selection{ProfileID: testutil.UintPtr(42)}, accounts)
		testutil.AssertNoError(t, err)
		for _, id := range []uint{1, 2, 3} {
			if p.Matches(&models.Transaction{AccountID: id}) {
				t.Errorf("account %d should not match", id)
			}
		}
	})

	t.Run("account_wins_over_profile", func(t *testing.T) {
		p, err := Resolve(Selection{AccountID: testutil.UintPtr(3), ProfileID: testutil.UintPtr(7), Shared: true}, accounts)
		testutil.AssertNoError(t, err)
		if p.Mode() != ModeAccount || !slices.Equal(p.AccountIDs(), []uint{3}) {
			t.Errorf("expected account 3 alone, got %s %v", p.Mode(), p.AccountIDs())
		}
	})

	t.Run("profile_and_shared_conflict", func(t *testing.T) {
		_, err := Resolve(Selection{ProfileID: testutil.UintPtr(7), Shared: true}, accounts)
		testutil.AssertAppError(t, err, "SCOPE_CONFLICT")
	})

	t.Run("shared_ignores_ownership", func(t *testing.T) {
		p, err := Resolve(Selection{Shared: true}, accounts)
		testutil.AssertNoError(t, err)
		if !p.Matches(&models.Transaction{AccountID: 2, IsShared: true}) {
			t.Error("shared transaction on unowned account should match")
		}
		if p.Matches(&models.Transaction{AccountID: 1}) {
			t.Error("unshared transaction should not match")
		}
		if p.AccountIDs() != nil {
			t.Error("shared scope has no account set")
		}
	})

	t.Run("empty_selection_matches_all", func(t *testing.T) {
		p, err := Resolve(Selection{}, accounts)
		testutil.AssertNoError(t, err)
		if !p.Matches(&models.Transaction{AccountID: 2}) {
			t.Error("unscoped predicate should match everything")
		}
	})
}

func TestQueryMatches(t *testing.T) {
	p, _ := Resolve(Selection{ProfileID: testutil.UintPtr(7)}, householdAccounts())
	march := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tx := models.Transaction{
		AccountID:       1,
		BookingDate:     march,
		CounterpartName: "Netflix",
		Amount:          testutil.Dec("-12.99"),
		CategoryID:      testutil.UintPtr(5),
	}

	tests := []struct {
		name    string
		filters Filters
		tx      func(models.Transaction) models.Transaction
		want    bool
	}{
		{"no_filters", Filters{}, nil, true},
		{"inside_date_range", Filters{From: &from, To: &to}, nil, true},
		{"before_range", Filters{From: &to}, nil, false},
		{"category_in_set", Filters{CategoryIDs: []uint{4, 5}}, nil, true},
		{"category_not_in_set", Filters{CategoryIDs: []uint{4}}, nil, false},
		{"search_case_insensitive", Filters{Search: "NETFLIX"}, nil, true},
		{"search_miss", Filters{Search: "spotify"}, nil, false},
		{"expense_type", Filters{AmountType: AmountExpense}, nil, true},
		{"income_type", Filters{AmountType: AmountIncome}, nil, false},
		{"uncategorized_only", Filters{UncategorizedOnly: true}, nil, false},
		{"scope_still_applies", Filters{Search: "netflix"}, func(tx models.Transaction) models.Transaction {
			tx.AccountID = 2
			return tx
		}, false},
		{"split_parent_hidden", Filters{ExcludeSplitParents: true}, func(tx models.Transaction) models.Transaction {
			tx.IsSplitParent = true
			return tx
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candidate := tx
			if tc.tx != nil {
				candidate = tc.tx(tx)
			}
			q := Query{Scope: p, Filters: tc.filters}
			if got := q.Matches(&candidate); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestQueryApply(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	owner := testutil.CreateTestProfile(t, db)
	other := testutil.CreateTestProfile(t, db)
	mine := testutil.CreateTestAccount(t, db, &owner.ID)
	unowned := testutil.CreateTestAccount(t, db, nil)
	theirs := testutil.CreateTestAccount(t, db, &other.ID)

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	testutil.CreateTestTransaction(t, db, mine.ID, "-12.99", testutil.WithCounterpart("Netflix"), testutil.WithDate(day))
	testutil.CreateTestTransaction(t, db, mine.ID, "2500", testutil.WithCounterpart("Employer"), testutil.WithDate(day))
	testutil.CreateTestTransaction(t, db, unowned.ID, "-40", testutil.WithCounterpart("Groceries"), testutil.WithDate(day), testutil.WithShared())
	testutil.CreateTestTransaction(t, db, theirs.ID, "-5", testutil.WithCounterpart("Netflix"), testutil.WithDate(day.AddDate(0, 1, 0)))

	var accounts []models.Account
	testutil.AssertNoError(t, db.Find(&accounts).Error)

	count := func(q Query) int64 {
		var n int64
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).Scopes(q.Apply).Count(&n).Error)
		return n
	}

	t.Run("profile_scope", func(t *testing.T) {
		p, err := Resolve(Selection{ProfileID: &owner.ID}, accounts)
		testutil.AssertNoError(t, err)
		if n := count(Query{Scope: p}); n != 2 {
			t.Errorf("expected 2, got %d", n)
		}
	})

	t.Run("shared_scope", func(t *testing.T) {
		p, _ := Resolve(Selection{Shared: true}, accounts)
		if n := count(Query{Scope: p}); n != 1 {
			t.Errorf("expected 1, got %d", n)
		}
	})

	t.Run("empty_profile_scope", func(t *testing.T) {
		p, _ := Resolve(Selection{ProfileID: testutil.UintPtr(9999)}, accounts)
		if n := count(Query{Scope: p}); n != 0 {
			t.Errorf("expected 0, got %d", n)
		}
	})

	t.Run("filters_are_anded", func(t *testing.T) {
		from := day
		to := day
		q := Query{Scope: All, Filters: Filters{Search: "netflix", From: &from, To: &to, AmountType: AmountExpense}}
		if n := count(q); n != 1 {
			t.Errorf("expected 1, got %d", n)
		}
	})

	t.Run("search_wildcards_are_literal", func(t *testing.T) {
		for _, search := range []string{"%", "_", "net%", `\`} {
			q := Query{Scope: All, Filters: Filters{Search: search}}
			if n := count(q); n != 0 {
				t.Errorf("search %q: expected 0, got %d", search, n)
			}
		}
		if n := count(Query{Scope: All, Filters: Filters{Search: "netf"}}); n != 2 {
			t.Errorf("expected plain search to still match 2, got %d", n)
		}
	})

	t.Run("uncategorized_only", func(t *testing.T) {
		if n := count(Query{Scope: All, Filters: Filters{UncategorizedOnly: true}}); n != 4 {
			t.Errorf("expected 4, got %d", n)
		}
	})
}
