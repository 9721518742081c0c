package services

import (
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/categorize"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/scope"
	"spendwise/internal/split"
	"spendwise/internal/stats"
	"spendwise/internal/taxonomy"
)

// ProfileServicer defines the contract for household profiles.
type ProfileServicer interface {
	ListProfiles() ([]models.Profile, error)
	GetProfile(id uint) (*models.Profile, error)
	CreateProfile(name, color string) (*models.Profile, error)
	UpdateProfile(id uint, name, color *string) (*models.Profile, error)
	DeleteProfile(id uint) error
}

// AccountInput holds the fields of a new account.
type AccountInput struct {
	Name        string
	IBAN        string
	BIC         string
	BankName    string
	AccountType models.AccountType
	ProfileID   *uint
}

// AccountUpdate holds the mutable account fields. A ProfileID of 0 unassigns
// the account.
type AccountUpdate struct {
	Name      *string
	BankName  *string
	IsActive  *bool
	ProfileID *uint
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	IncludeInactive bool
	ProfileID       *uint
}

// AccountSummary is an account with its activity figures.
type AccountSummary struct {
	models.Account
	TransactionCount int64               `json:"transaction_count"`
	Balance          decimal.NullDecimal `json:"balance"`
	LastBookingDate  *time.Time          `json:"last_booking_date,omitempty"`
}

// AccountServicer defines the contract for bank accounts.
type AccountServicer interface {
	CreateAccount(input AccountInput) (*models.Account, error)
	ListAccounts(filter AccountFilter) ([]models.Account, error)
	GetAccount(id uint) (*models.Account, error)
	UpdateAccount(id uint, update AccountUpdate) (*models.Account, error)
	GetAccountSummaries() ([]AccountSummary, error)
}

// CategoryInput holds the fields of a new category.
type CategoryInput struct {
	Name          string
	ParentID      *uint
	Color         string
	Icon          string
	BudgetMonthly *decimal.Decimal
}

// CategoryUpdate holds the mutable category fields. A ParentID of 0 moves the
// category to the top level.
type CategoryUpdate struct {
	Name          *string
	ParentID      *uint
	Color         *string
	Icon          *string
	BudgetMonthly *decimal.Decimal
	ClearBudget   bool
}

// Reassignment says where transactions of a deleted category go. A nil To
// leaves them uncategorized.
type Reassignment struct {
	To *uint
}

// DeleteCategoryResult reports what a category deletion moved.
type DeleteCategoryResult struct {
	ReassignedTransactions int64 `json:"reassigned_transactions"`
	RetargetedRules        int64 `json:"retargeted_rules"`
	DeletedRules           int64 `json:"deleted_rules"`
}

// FlatCategory is one category of the flattened tree.
type FlatCategory struct {
	models.Category
	FullPath         string `json:"full_path"`
	Depth            int    `json:"depth"`
	TransactionCount int64  `json:"transaction_count"`
}

// CategoryServicer defines the contract for the category taxonomy.
type CategoryServicer interface {
	CreateCategory(input CategoryInput) (*models.Category, error)
	GetCategory(id uint) (*models.Category, error)
	UpdateCategory(id uint, update CategoryUpdate) (*models.Category, error)
	// DeleteCategory removes a category. reassign is nil when the caller gave
	// no target; the deletion then fails if anything still references it.
	DeleteCategory(id uint, reassign *Reassignment) (*DeleteCategoryResult, error)
	ListTree() ([]*taxonomy.Node, error)
	ListFlat() ([]FlatCategory, error)
	InitDefaults() (int, error)
}

// RuleInput holds every field of a rule.
type RuleInput struct {
	Name                 string
	Priority             int
	IsActive             bool
	MatchCounterpartName *string
	MatchCounterpartIBAN *string
	MatchPurpose         *string
	MatchBookingType     *string
	MatchAmountMin       *decimal.Decimal
	MatchAmountMax       *decimal.Decimal
	AssignCategoryID     uint
	AssignShared         bool
}

// ApplyRequest selects which transactions a rule run covers. A nil
// Reclassify uses the configured default.
type ApplyRequest struct {
	Reclassify *bool
	Scope      scope.Selection
}

// RuleServicer defines the contract for categorization rules.
type RuleServicer interface {
	ListRules() ([]models.Rule, error)
	GetRule(id uint) (*models.Rule, error)
	CreateRule(input RuleInput) (*models.Rule, error)
	UpdateRule(id uint, input RuleInput) (*models.Rule, error)
	DeleteRule(id uint) error
	ApplyRules(req ApplyRequest) (*categorize.Summary, error)
	PreviewRules(req ApplyRequest) (*categorize.Summary, error)
	CreateRuleFromTransaction(transactionID, categoryID uint, matchType categorize.MatchType, priority *int) (*models.Rule, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	StartDate            *time.Time
	EndDate              *time.Time
	CategoryID           *uint
	IncludeSubcategories bool
	Search               string
	AmountType           string
	UncategorizedOnly    bool
}

// SortOptions orders a transaction listing.
type SortOptions struct {
	By    string
	Order string
}

// TransactionUpdate holds the user-editable transaction fields. A CategoryID
// of 0 clears the category.
type TransactionUpdate struct {
	CategoryID *uint
	Notes      *string
	Tags       *string
	IsShared   *bool
}

// ManualTransactionInput describes a transaction entered by hand.
type ManualTransactionInput struct {
	BookingDate time.Time
	Amount      decimal.Decimal
	Description string
	Currency    string
	CategoryID  *uint
	IsShared    bool
	Notes       string
}

// TransactionServicer defines the contract for transactions.
type TransactionServicer interface {
	ListTransactions(sel scope.Selection, filter TransactionFilter, sort SortOptions, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetTransaction(id uint) (*models.Transaction, error)
	UpdateTransaction(id uint, update TransactionUpdate) (*models.Transaction, error)
	BulkCategorize(ids []uint, categoryID uint) (int64, error)
	BulkSetShared(ids []uint, shared bool) (int64, error)
	SplitTransaction(id uint, parts []split.Part) (*split.Outcome, error)
	ClassifyTransaction(id uint) (*categorize.Result, error)
	CreateManualTransaction(input ManualTransactionInput) (*models.Transaction, error)
	DeleteTransaction(id uint) error
}

// StatsServicer defines the contract for statistics.
type StatsServicer interface {
	GetSummary(sel scope.Selection) (*stats.Dashboard, error)
	GetByCategory(sel scope.Selection, period stats.Period) (*stats.ByCategoryResult, error)
	GetOverTime(sel scope.Selection, period stats.Period, granularity stats.Granularity) (*stats.OverTimeResult, error)
}
