package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// accountService handles bank accounts.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates an active account. IBANs are unique.
func (s *accountService) CreateAccount(input AccountInput) (*models.Account, error) {
	name := strings.TrimSpace(input.Name)
	iban := normalizeIBAN(input.IBAN)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if iban == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "IBAN is required")
	}
	if input.AccountType == "" {
		input.AccountType = models.AccountTypeChecking
	}

	var count int64
	if err := s.db.Model(&models.Account{}).Where("iban = ?", iban).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateAccount
	}

	if input.ProfileID != nil {
		if err := s.ensureProfile(*input.ProfileID); err != nil {
			return nil, err
		}
	}

	account := &models.Account{
		Name:        name,
		IBAN:        iban,
		BIC:         strings.TrimSpace(input.BIC),
		BankName:    strings.TrimSpace(input.BankName),
		AccountType: input.AccountType,
		IsActive:    true,
		ProfileID:   input.ProfileID,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// ListAccounts returns accounts ordered by name.
func (s *accountService) ListAccounts(filter AccountFilter) ([]models.Account, error) {
	query := s.db.Model(&models.Account{}).Preload("Profile")
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.ProfileID != nil {
		query = query.Where("profile_id = ?", *filter.ProfileID)
	}

	var accounts []models.Account
	if err := query.Order("name ASC").Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetAccount retrieves an account by ID
func (s *accountService) GetAccount(id uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.Preload("Profile").First(&account, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrAccountNotFound)
	}
	return &account, nil
}

// UpdateAccount changes name, bank name, active flag or owner.
func (s *accountService) UpdateAccount(id uint, update AccountUpdate) (*models.Account, error) {
	if _, err := s.GetAccount(id); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
		}
		updates["name"] = name
	}
	if update.BankName != nil {
		updates["bank_name"] = strings.TrimSpace(*update.BankName)
	}
	if update.IsActive != nil {
		updates["is_active"] = *update.IsActive
	}
	if update.ProfileID != nil {
		if *update.ProfileID == 0 {
			updates["profile_id"] = nil
		} else {
			if err := s.ensureProfile(*update.ProfileID); err != nil {
				return nil, err
			}
			updates["profile_id"] = *update.ProfileID
		}
	}

	if len(updates) > 0 {
		// Update by id: a preloaded Profile would write profile_id back.
		if err := s.db.Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetAccount(id)
}

// GetAccountSummaries returns every active account with its transaction
// count, latest known balance and last booking date. Split parents are not
// counted; their children are.
func (s *accountService) GetAccountSummaries() ([]AccountSummary, error) {
	accounts, err := s.ListAccounts(AccountFilter{})
	if err != nil {
		return nil, err
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		summary := AccountSummary{Account: account}

		base := s.db.Model(&models.Transaction{}).Where("account_id = ? AND is_split_parent = ?", account.ID, false)
		if err := base.Count(&summary.TransactionCount).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var latest models.Transaction
		err := s.db.Where("account_id = ? AND is_split_parent = ?", account.ID, false).
			Order("booking_date DESC").Order("id DESC").
			First(&latest).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err == nil {
			booked := latest.BookingDate
			summary.LastBookingDate = &booked
		}

		var withBalance models.Transaction
		err = s.db.Where("account_id = ? AND is_split_parent = ? AND balance_after IS NOT NULL", account.ID, false).
			Order("booking_date DESC").Order("id DESC").
			First(&withBalance).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err == nil {
			summary.Balance = withBalance.BalanceAfter
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *accountService) ensureProfile(id uint) error {
	var count int64
	if err := s.db.Model(&models.Profile{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrProfileNotFound
	}
	return nil
}

func normalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}
