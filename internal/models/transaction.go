package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one booking on an account. Bank-origin fields are
// never changed after import; category, notes, tags, shared flag and split
// linkage are mutable.
type Transaction struct {
	Base
	ImportHash string `gorm:"uniqueIndex;size:64;not null" json:"import_hash"`
	AccountID  uint   `gorm:"index;not null" json:"account_id"`

	BookingDate     time.Time           `gorm:"index;not null" json:"booking_date"`
	ValueDate       *time.Time          `json:"value_date,omitempty"`
	CounterpartName string              `json:"counterpart_name,omitempty"`
	CounterpartIBAN string              `gorm:"column:counterpart_iban;size:34" json:"counterpart_iban,omitempty"`
	CounterpartBIC  string              `gorm:"column:counterpart_bic;size:11" json:"counterpart_bic,omitempty"`
	BookingType     string              `json:"booking_type,omitempty"`
	Purpose         string              `json:"purpose,omitempty"`
	Amount          decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency        string              `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	BalanceAfter    decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"balance_after"`

	CategoryID          *uint  `gorm:"index" json:"category_id"`
	ParentTransactionID *uint  `gorm:"index" json:"parent_transaction_id,omitempty"`
	IsSplitParent       bool   `gorm:"not null;default:false" json:"is_split_parent"`
	IsShared            bool   `gorm:"not null;default:false" json:"is_shared"`
	Notes               string `json:"notes,omitempty"`
	Tags                string `json:"tags,omitempty"`

	// Relationships
	Account  *Account      `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Children []Transaction `gorm:"foreignKey:ParentTransactionID" json:"children,omitempty"`
}

// IsSplitChild reports whether the transaction is one part of a split.
func (t *Transaction) IsSplitChild() bool {
	return t.ParentTransactionID != nil
}
