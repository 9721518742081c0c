package models

// AccountType represents the kind of bank account
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCredit   AccountType = "credit"
	AccountTypeCash     AccountType = "cash"
)

// CashAccountIBAN is the placeholder IBAN of the account that holds manually
// entered cash transactions.
const CashAccountIBAN = "CASH0000000000000000"

// Account represents a bank account. An account may be owned by one profile;
// unowned accounts only show up in unscoped views.
type Account struct {
	Base
	Name        string      `gorm:"not null" json:"name"`
	IBAN        string      `gorm:"column:iban;uniqueIndex;size:34;not null" json:"iban"`
	BIC         string      `gorm:"column:bic;size:11" json:"bic,omitempty"`
	BankName    string      `json:"bank_name,omitempty"`
	AccountType AccountType `gorm:"not null;default:'checking'" json:"account_type"`
	IsActive    bool        `gorm:"not null" json:"is_active"`
	ProfileID   *uint       `gorm:"index" json:"profile_id,omitempty"`

	// Relationships
	Profile *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}
