package models

import "github.com/shopspring/decimal"

// Rule assigns a category (and optionally the shared flag) to transactions
// matching all of its declared criteria. A nil criterion is not declared.
type Rule struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Priority int    `gorm:"index;not null;default:0" json:"priority"`
	IsActive bool   `gorm:"not null" json:"is_active"`

	MatchCounterpartName *string          `json:"match_counterpart_name,omitempty"`
	MatchCounterpartIBAN *string          `gorm:"column:match_counterpart_iban" json:"match_counterpart_iban,omitempty"`
	MatchPurpose         *string          `json:"match_purpose,omitempty"`
	MatchBookingType     *string          `json:"match_booking_type,omitempty"`
	MatchAmountMin       *decimal.Decimal `gorm:"type:numeric(12,2)" json:"match_amount_min,omitempty"`
	MatchAmountMax       *decimal.Decimal `gorm:"type:numeric(12,2)" json:"match_amount_max,omitempty"`

	AssignCategoryID uint `gorm:"index;not null" json:"assign_category_id"`
	AssignShared     bool `gorm:"not null;default:false" json:"assign_shared"`

	// Relationships
	AssignCategory *Category `gorm:"foreignKey:AssignCategoryID" json:"assign_category,omitempty"`
}
