// Package stats rolls transactions up by category and by time bucket. It
// works on a snapshot that the caller has already narrowed to a scope; split
// parents are always left out because their children carry the amounts.
package stats

import (
	"fmt"
	"sort"
	"strings"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"

	"github.com/shopspring/decimal"
)

// UncategorizedName labels the bucket of transactions without a category.
const UncategorizedName = "Uncategorized"

const uncategorizedColor = "#888888"

// CategoryInfo describes a category for display in aggregates.
type CategoryInfo struct {
	Name     string
	FullPath string
	Color    string
}

// CategoryStats is the aggregate for one category.
type CategoryStats struct {
	CategoryID       *uint           `json:"category_id"`
	CategoryName     string          `json:"category_name"`
	FullPath         string          `json:"full_path,omitempty"`
	CategoryColor    string          `json:"category_color,omitempty"`
	Total            decimal.Decimal `json:"total"`
	AverageMonthly   decimal.Decimal `json:"average_monthly"`
	TransactionCount int             `json:"transaction_count"`
}

// ByCategoryResult is the outcome of ByCategory.
type ByCategoryResult struct {
	Period        Period          `json:"period"`
	Months        int             `json:"months"`
	Categories    []CategoryStats `json:"categories"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
}

// ByCategory sums signed amounts per category over the period. The monthly
// average divides by the number of calendar months the period spans.
// Categories are ordered by absolute total, largest first.
func ByCategory(txs []models.Transaction, info map[uint]CategoryInfo, period Period) ByCategoryResult {
	months := period.Months()
	res := ByCategoryResult{
		Period:        period,
		Months:        months,
		Categories:    []CategoryStats{},
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}

	groups := make(map[uint]*CategoryStats)
	for i := range txs {
		tx := &txs[i]
		if tx.IsSplitParent || !period.Contains(tx.BookingDate) {
			continue
		}

		if tx.Amount.IsPositive() {
			res.TotalIncome = res.TotalIncome.Add(tx.Amount)
		} else {
			res.TotalExpenses = res.TotalExpenses.Add(tx.Amount.Abs())
		}

		var key uint
		if tx.CategoryID != nil {
			key = *tx.CategoryID
		}
		g, ok := groups[key]
		if !ok {
			g = newCategoryStats(key, info)
			groups[key] = g
		}
		g.Total = g.Total.Add(tx.Amount)
		g.TransactionCount++
	}

	for _, g := range groups {
		g.AverageMonthly = g.Total.Div(decimal.NewFromInt(int64(months))).Round(2)
		res.Categories = append(res.Categories, *g)
	}
	sort.Slice(res.Categories, func(i, j int) bool {
		a, b := res.Categories[i], res.Categories[j]
		if c := a.Total.Abs().Cmp(b.Total.Abs()); c != 0 {
			return c > 0
		}
		return a.CategoryName < b.CategoryName
	})
	return res
}

func newCategoryStats(id uint, info map[uint]CategoryInfo) *CategoryStats {
	if id == 0 {
		return &CategoryStats{CategoryName: UncategorizedName, CategoryColor: uncategorizedColor, Total: decimal.Zero}
	}
	catID := id
	ci, ok := info[id]
	if !ok {
		ci = CategoryInfo{Name: fmt.Sprintf("Category %d", id)}
	}
	return &CategoryStats{
		CategoryID:    &catID,
		CategoryName:  ci.Name,
		FullPath:      ci.FullPath,
		CategoryColor: ci.Color,
		Total:         decimal.Zero,
	}
}

// Bucket granularities for OverTime.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// DefaultGranularity picks the bucket size that suits a preset.
func DefaultGranularity(preset Preset) Granularity {
	switch preset {
	case PresetWeek, PresetMonth:
		return GranularityDay
	case PresetQuarter:
		return GranularityWeek
	default:
		return GranularityMonth
	}
}

// TimeBucket is the aggregate for one bucket.
type TimeBucket struct {
	Period   string          `json:"period"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// OverTimeResult is the outcome of OverTime.
type OverTimeResult struct {
	Period      Period       `json:"period"`
	Granularity Granularity  `json:"group_by"`
	Buckets     []TimeBucket `json:"data"`
}

// OverTime groups the period's transactions into day, ISO week or month
// buckets. Income is the sum of positive amounts; expenses the sum of the
// absolute values of negative amounts. Buckets are returned in time order.
func OverTime(txs []models.Transaction, period Period, g Granularity) (OverTimeResult, error) {
	var keyOf func(tx *models.Transaction) string
	switch g {
	case GranularityDay:
		keyOf = func(tx *models.Transaction) string { return tx.BookingDate.Format("2006-01-02") }
	case GranularityWeek:
		keyOf = func(tx *models.Transaction) string {
			y, w := tx.BookingDate.ISOWeek()
			return fmt.Sprintf("%04d-W%02d", y, w)
		}
	case GranularityMonth:
		keyOf = func(tx *models.Transaction) string { return tx.BookingDate.Format("2006-01") }
	default:
		return OverTimeResult{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "group_by must be day, week or month")
	}

	buckets := make(map[string]*TimeBucket)
	for i := range txs {
		tx := &txs[i]
		if tx.IsSplitParent || !period.Contains(tx.BookingDate) {
			continue
		}
		key := keyOf(tx)
		b, ok := buckets[key]
		if !ok {
			b = &TimeBucket{Period: key, Income: decimal.Zero, Expenses: decimal.Zero}
			buckets[key] = b
		}
		if tx.Amount.IsPositive() {
			b.Income = b.Income.Add(tx.Amount)
		} else {
			b.Expenses = b.Expenses.Add(tx.Amount.Abs())
		}
	}

	res := OverTimeResult{Period: period, Granularity: g, Buckets: make([]TimeBucket, 0, len(buckets))}
	for _, b := range buckets {
		b.Net = b.Income.Sub(b.Expenses)
		res.Buckets = append(res.Buckets, *b)
	}
	sort.Slice(res.Buckets, func(i, j int) bool {
		return strings.Compare(res.Buckets[i].Period, res.Buckets[j].Period) < 0
	})
	return res, nil
}
