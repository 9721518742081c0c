package stats

import (
	"sort"
	"time"

	"spendwise/internal/models"

	"github.com/shopspring/decimal"
)

const (
	topCategoryLimit = 5
	recentLimit      = 10
)

// TopCategory is an expense category ranked by spending.
type TopCategory struct {
	CategoryID    uint            `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	CategoryColor string          `json:"category_color,omitempty"`
	Total         decimal.Decimal `json:"total"`
}

// Dashboard is the landing page overview.
type Dashboard struct {
	CurrentBalance        decimal.NullDecimal  `json:"current_balance"`
	IncomeCurrentMonth    decimal.Decimal      `json:"income_current_month"`
	ExpensesCurrentMonth  decimal.Decimal      `json:"expenses_current_month"`
	IncomePreviousMonth   decimal.Decimal      `json:"income_previous_month"`
	ExpensesPreviousMonth decimal.Decimal      `json:"expenses_previous_month"`
	UncategorizedCount    int                  `json:"uncategorized_count"`
	TopCategories         []TopCategory        `json:"top_categories"`
	RecentTransactions    []models.Transaction `json:"recent_transactions"`
}

// Totals returns income and expenses of the transactions inside period.
func Totals(txs []models.Transaction, period Period) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for i := range txs {
		tx := &txs[i]
		if tx.IsSplitParent || !period.Contains(tx.BookingDate) {
			continue
		}
		if tx.Amount.IsPositive() {
			income = income.Add(tx.Amount)
		} else {
			expenses = expenses.Add(tx.Amount.Abs())
		}
	}
	return income, expenses
}

// BuildDashboard computes the overview for the month containing now.
func BuildDashboard(txs []models.Transaction, info map[uint]CategoryInfo, now time.Time) Dashboard {
	current := MonthRange(now)
	previous := MonthRange(current.Start.AddDate(0, 0, -1))

	d := Dashboard{TopCategories: []TopCategory{}, RecentTransactions: []models.Transaction{}}
	d.IncomeCurrentMonth, d.ExpensesCurrentMonth = Totals(txs, current)
	d.IncomePreviousMonth, d.ExpensesPreviousMonth = Totals(txs, previous)

	visible := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.IsSplitParent {
			visible = append(visible, tx)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if !visible[i].BookingDate.Equal(visible[j].BookingDate) {
			return visible[i].BookingDate.After(visible[j].BookingDate)
		}
		return visible[i].ID > visible[j].ID
	})

	for _, tx := range visible {
		if tx.BalanceAfter.Valid {
			d.CurrentBalance = tx.BalanceAfter
			break
		}
	}

	spent := make(map[uint]decimal.Decimal)
	for _, tx := range visible {
		if tx.CategoryID == nil {
			d.UncategorizedCount++
			continue
		}
		if tx.Amount.IsNegative() && current.Contains(tx.BookingDate) {
			spent[*tx.CategoryID] = spent[*tx.CategoryID].Add(tx.Amount.Abs())
		}
	}
	for id, total := range spent {
		ci := info[id]
		d.TopCategories = append(d.TopCategories, TopCategory{
			CategoryID:    id,
			CategoryName:  ci.Name,
			CategoryColor: ci.Color,
			Total:         total,
		})
	}
	sort.Slice(d.TopCategories, func(i, j int) bool {
		if c := d.TopCategories[i].Total.Cmp(d.TopCategories[j].Total); c != 0 {
			return c > 0
		}
		return d.TopCategories[i].CategoryID < d.TopCategories[j].CategoryID
	})
	if len(d.TopCategories) > topCategoryLimit {
		d.TopCategories = d.TopCategories[:topCategoryLimit]
	}

	if len(visible) > recentLimit {
		visible = visible[:recentLimit]
	}
	d.RecentTransactions = append(d.RecentTransactions, visible...)
	return d
}
