package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"spendwise/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint { return &v }

// Dec parses a decimal literal, panicking on malformed input.
func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DecPtr parses a decimal literal and returns a pointer to it.
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

// CreateTestProfile creates a non-admin profile with a unique name.
func CreateTestProfile(t *testing.T, db *gorm.DB) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		Name:  fmt.Sprintf("Profile %d", nextID()),
		Color: models.DefaultProfileColor,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return profile
}

// CreateTestAdminProfile creates the admin profile.
func CreateTestAdminProfile(t *testing.T, db *gorm.DB) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		Name:    fmt.Sprintf("Admin %d", nextID()),
		Color:   models.DefaultProfileColor,
		IsAdmin: true,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create admin profile: %v", err)
	}
	return profile
}

// CreateTestAccount creates an active checking account owned by profileID
// (nil for an unowned account).
func CreateTestAccount(t *testing.T, db *gorm.DB, profileID *uint) *models.Account {
	t.Helper()

	n := nextID()
	account := &models.Account{
		Name:        fmt.Sprintf("Test Account %d", n),
		IBAN:        fmt.Sprintf("DE%020d", n),
		AccountType: models.AccountTypeChecking,
		IsActive:    true,
		ProfileID:   profileID,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category under parentID (nil for top-level).
func CreateTestCategory(t *testing.T, db *gorm.DB, parentID *uint) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, fmt.Sprintf("Test Category %d", nextID()), parentID)
}

// CreateTestCategoryNamed creates a category with the given name.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, name string, parentID *uint) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, ParentID: parentID, Color: "#888888"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// TxOption customises a fixture transaction before it is stored.
type TxOption func(*models.Transaction)

// WithCounterpart sets the counterpart name.
func WithCounterpart(name string) TxOption {
	return func(tx *models.Transaction) { tx.CounterpartName = name }
}

// WithPurpose sets the purpose text.
func WithPurpose(purpose string) TxOption {
	return func(tx *models.Transaction) { tx.Purpose = purpose }
}

// WithCategory sets the category.
func WithCategory(id uint) TxOption {
	return func(tx *models.Transaction) { tx.CategoryID = &id }
}

// WithDate sets the booking date.
func WithDate(d time.Time) TxOption {
	return func(tx *models.Transaction) { tx.BookingDate = d }
}

// WithShared marks the transaction as shared.
func WithShared() TxOption {
	return func(tx *models.Transaction) { tx.IsShared = true }
}

// WithBalance sets the balance after the booking.
func WithBalance(balance string) TxOption {
	return func(tx *models.Transaction) {
		tx.BalanceAfter = decimal.NewNullDecimal(Dec(balance))
	}
}

// CreateTestTransaction creates a transaction of the given amount on accountID.
func CreateTestTransaction(t *testing.T, db *gorm.DB, accountID uint, amount string, opts ...TxOption) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		ImportHash:  fmt.Sprintf("test-%d", nextID()),
		AccountID:   accountID,
		BookingDate: time.Now().UTC().Truncate(24 * time.Hour),
		Amount:      Dec(amount),
		Currency:    "EUR",
		BookingType: "Lastschrift",
	}
	for _, opt := range opts {
		opt(tx)
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRule creates an active rule assigning categoryID to transactions
// whose counterpart name contains counterpart.
func CreateTestRule(t *testing.T, db *gorm.DB, categoryID uint, priority int, counterpart string) *models.Rule {
	t.Helper()

	rule := &models.Rule{
		Name:                 fmt.Sprintf("Rule %d", nextID()),
		Priority:             priority,
		IsActive:             true,
		MatchCounterpartName: StrPtr(counterpart),
		AssignCategoryID:     categoryID,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// ReloadTransaction reads a transaction back from the database into a fresh
// value.
func ReloadTransaction(t *testing.T, db *gorm.DB, id uint) *models.Transaction {
	t.Helper()

	var tx models.Transaction
	if err := db.First(&tx, id).Error; err != nil {
		t.Fatalf("failed to reload transaction %d: %v", id, err)
	}
	return &tx
}
