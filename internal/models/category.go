package models

import "github.com/shopspring/decimal"

// Category is a node of the two-level category taxonomy. A category with a
// nil ParentID is top-level; otherwise its parent must be top-level.
type Category struct {
	Base
	Name          string           `gorm:"not null" json:"name"`
	ParentID      *uint            `gorm:"index" json:"parent_id,omitempty"`
	Color         string           `json:"color,omitempty"`
	Icon          string           `json:"icon,omitempty"`
	BudgetMonthly *decimal.Decimal `gorm:"type:numeric(12,2)" json:"budget_monthly,omitempty"`
}

// IsTopLevel reports whether the category has no parent.
func (c *Category) IsTopLevel() bool {
	return c.ParentID == nil
}
