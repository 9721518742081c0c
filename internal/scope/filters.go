package scope

import (
	"slices"
	"strings"
	"time"

	"spendwise/internal/models"

	"gorm.io/gorm"
)

// Amount types for Filters.AmountType.
const (
	AmountIncome  = "income"
	AmountExpense = "expense"
)

// Filters are the caller-supplied conditions combined with a scope. Every
// set field narrows the result; nothing is ever ORed across fields.
type Filters struct {
	From              *time.Time
	To                *time.Time
	CategoryIDs       []uint
	Search            string
	AmountType        string
	UncategorizedOnly bool
	// ExcludeSplitParents hides split parents, whose children carry the amounts.
	ExcludeSplitParents bool
}

// Query is a scope plus filters.
type Query struct {
	Scope   Predicate
	Filters Filters
}

// Matches reports whether tx passes the scope and every filter.
func (q Query) Matches(tx *models.Transaction) bool {
	if !q.Scope.Matches(tx) {
		return false
	}
	f := q.Filters
	if f.From != nil && tx.BookingDate.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.BookingDate.After(*f.To) {
		return false
	}
	if len(f.CategoryIDs) > 0 && (tx.CategoryID == nil || !slices.Contains(f.CategoryIDs, *tx.CategoryID)) {
		return false
	}
	if f.UncategorizedOnly && tx.CategoryID != nil {
		return false
	}
	if f.ExcludeSplitParents && tx.IsSplitParent {
		return false
	}
	switch f.AmountType {
	case AmountIncome:
		if !tx.Amount.IsPositive() {
			return false
		}
	case AmountExpense:
		if !tx.Amount.IsNegative() {
			return false
		}
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		hay := strings.ToLower(tx.CounterpartName + "\n" + tx.Purpose + "\n" + tx.Notes)
		if !strings.Contains(hay, s) {
			return false
		}
	}
	return true
}

// likeEscaper makes search text literal inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Apply adds the scope and every filter to a transactions query.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	db = q.Scope.Apply(db)
	f := q.Filters
	if f.From != nil {
		db = db.Where("booking_date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("booking_date <= ?", *f.To)
	}
	if len(f.CategoryIDs) > 0 {
		db = db.Where("category_id IN ?", f.CategoryIDs)
	}
	if f.UncategorizedOnly {
		db = db.Where("category_id IS NULL")
	}
	if f.ExcludeSplitParents {
		db = db.Where("is_split_parent = ?", false)
	}
	switch f.AmountType {
	case AmountIncome:
		db = db.Where("amount > 0")
	case AmountExpense:
		db = db.Where("amount < 0")
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + likeEscaper.Replace(s) + "%"
		db = db.Where(`(LOWER(counterpart_name) LIKE ? ESCAPE '\' OR LOWER(purpose) LIKE ? ESCAPE '\' OR LOWER(notes) LIKE ? ESCAPE '\')`,
			like, like, like)
	}
	return db
}
