package stats

import (
	"testing"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/testutil"
)

func booking(id uint, on time.Time, amount string, category *uint) models.Transaction {
	tx := models.Transaction{BookingDate: on, Amount: testutil.Dec(amount), CategoryID: category}
	tx.ID = id
	return tx
}

var info = map[uint]CategoryInfo{
	1: {Name: "Groceries", FullPath: "Food:Groceries", Color: "#8BC34A"},
	2: {Name: "Salary", FullPath: "Income:Salary", Color: "#4CAF50"},
}

func quarterSnapshot() []models.Transaction {
	groceries, salary := testutil.UintPtr(1), testutil.UintPtr(2)
	parent := booking(9, date(2024, 2, 3), "-100", nil)
	parent.IsSplitParent = true
	return []models.Transaction{
		booking(1, date(2024, 1, 5), "-60.00", groceries),
		booking(2, date(2024, 2, 7), "-30.50", groceries),
		booking(3, date(2024, 1, 31), "2500.00", salary),
		booking(4, date(2024, 2, 29), "2500.00", salary),
		booking(5, date(2024, 3, 2), "-15.00", nil),
		booking(6, date(2024, 4, 1), "-999", groceries),
		parent,
	}
}

func TestByCategory(t *testing.T) {
	period, err := NewPeriod(date(2024, 1, 1), date(2024, 3, 31))
	testutil.AssertNoError(t, err)

	res := ByCategory(quarterSnapshot(), info, period)

	if res.Months != 3 {
		t.Errorf("expected 3 months, got %d", res.Months)
	}
	if len(res.Categories) != 3 {
		t.Fatalf("expected 3 groups, got %d: %+v", len(res.Categories), res.Categories)
	}

	t.Run("sorted_by_absolute_total", func(t *testing.T) {
		names := []string{res.Categories[0].CategoryName, res.Categories[1].CategoryName, res.Categories[2].CategoryName}
		want := []string{"Salary", "Groceries", UncategorizedName}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], names[i])
			}
		}
	})

	t.Run("signed_totals_and_average", func(t *testing.T) {
		g := res.Categories[1]
		testutil.AssertDecimal(t, g.Total, "-90.50")
		testutil.AssertDecimal(t, g.AverageMonthly, "-30.17")
		if g.TransactionCount != 2 {
			t.Errorf("expected 2 transactions, got %d", g.TransactionCount)
		}
		if g.FullPath != "Food:Groceries" {
			t.Errorf("expected full path, got %s", g.FullPath)
		}
	})

	t.Run("uncategorized_bucket", func(t *testing.T) {
		g := res.Categories[2]
		if g.CategoryID != nil {
			t.Error("uncategorized bucket should have no id")
		}
		testutil.AssertDecimal(t, g.Total, "-15")
	})

	t.Run("split_parent_and_out_of_period_excluded", func(t *testing.T) {
		testutil.AssertDecimal(t, res.TotalExpenses, "105.50")
		testutil.AssertDecimal(t, res.TotalIncome, "5000")
	})

	t.Run("sub_month_period_divides_by_one", func(t *testing.T) {
		p, _ := NewPeriod(date(2024, 1, 5), date(2024, 1, 5))
		r := ByCategory(quarterSnapshot(), info, p)
		if len(r.Categories) != 1 {
			t.Fatalf("expected 1 group, got %d", len(r.Categories))
		}
		testutil.AssertDecimal(t, r.Categories[0].AverageMonthly, "-60")
	})

	t.Run("empty_snapshot", func(t *testing.T) {
		r := ByCategory(nil, info, period)
		if r.Categories == nil || len(r.Categories) != 0 {
			t.Errorf("expected empty, non-nil categories, got %v", r.Categories)
		}
	})
}

func TestOverTime(t *testing.T) {
	period, _ := NewPeriod(date(2024, 1, 1), date(2024, 3, 31))

	t.Run("monthly", func(t *testing.T) {
		res, err := OverTime(quarterSnapshot(), period, GranularityMonth)
		testutil.AssertNoError(t, err)
		if len(res.Buckets) != 3 {
			t.Fatalf("expected 3 buckets, got %d", len(res.Buckets))
		}
		jan := res.Buckets[0]
		if jan.Period != "2024-01" {
			t.Errorf("expected 2024-01 first, got %s", jan.Period)
		}
		testutil.AssertDecimal(t, jan.Income, "2500")
		testutil.AssertDecimal(t, jan.Expenses, "60")
		testutil.AssertDecimal(t, jan.Net, "2440")

		feb := res.Buckets[1]
		testutil.AssertDecimal(t, feb.Expenses, "30.50")
	})

	t.Run("iso_week", func(t *testing.T) {
		res, err := OverTime(quarterSnapshot(), period, GranularityWeek)
		testutil.AssertNoError(t, err)
		if res.Buckets[0].Period != "2024-W01" {
			t.Errorf("expected 2024-W01, got %s", res.Buckets[0].Period)
		}
	})

	t.Run("iso_week_year_boundary", func(t *testing.T) {
		p, _ := NewPeriod(date(2024, 12, 30), date(2024, 12, 30))
		res, err := OverTime([]models.Transaction{booking(1, date(2024, 12, 30), "-1", nil)}, p, GranularityWeek)
		testutil.AssertNoError(t, err)
		if res.Buckets[0].Period != "2025-W01" {
			t.Errorf("expected 2025-W01, got %s", res.Buckets[0].Period)
		}
	})

	t.Run("daily", func(t *testing.T) {
		res, err := OverTime(quarterSnapshot(), period, GranularityDay)
		testutil.AssertNoError(t, err)
		if len(res.Buckets) != 5 || res.Buckets[0].Period != "2024-01-05" {
			t.Errorf("unexpected buckets %+v", res.Buckets)
		}
	})

	t.Run("unknown_granularity", func(t *testing.T) {
		_, err := OverTime(nil, period, Granularity("hour"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("default_granularity", func(t *testing.T) {
		if DefaultGranularity(PresetQuarter) != GranularityWeek || DefaultGranularity(PresetYear) != GranularityMonth {
			t.Error("unexpected default granularity")
		}
	})
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	groceries, salary := testutil.UintPtr(1), testutil.UintPtr(2)

	latest := booking(10, date(2024, 3, 18), "-20", groceries)
	latest.BalanceAfter.Valid = true
	latest.BalanceAfter.Decimal = testutil.Dec("1234.56")
	older := booking(11, date(2024, 3, 1), "3000", salary)
	older.BalanceAfter.Valid = true
	older.BalanceAfter.Decimal = testutil.Dec("999")
	parent := booking(12, date(2024, 3, 19), "-50", nil)
	parent.IsSplitParent = true

	txs := []models.Transaction{
		older,
		latest,
		parent,
		booking(13, date(2024, 3, 19), "-5", nil),
		booking(14, date(2024, 2, 10), "-70", groceries),
		booking(15, date(2024, 2, 1), "2900", salary),
	}

	d := BuildDashboard(txs, info, now)

	if !d.CurrentBalance.Valid {
		t.Fatal("expected a balance")
	}
	testutil.AssertDecimal(t, d.CurrentBalance.Decimal, "1234.56")
	testutil.AssertDecimal(t, d.IncomeCurrentMonth, "3000")
	testutil.AssertDecimal(t, d.ExpensesCurrentMonth, "25")
	testutil.AssertDecimal(t, d.IncomePreviousMonth, "2900")
	testutil.AssertDecimal(t, d.ExpensesPreviousMonth, "70")

	if d.UncategorizedCount != 1 {
		t.Errorf("expected 1 uncategorized, got %d", d.UncategorizedCount)
	}
	if len(d.TopCategories) != 1 || d.TopCategories[0].CategoryName != "Groceries" {
		t.Errorf("unexpected top categories %+v", d.TopCategories)
	}
	if len(d.RecentTransactions) != 5 || d.RecentTransactions[0].ID != 13 {
		t.Errorf("unexpected recent transactions order")
	}
}
