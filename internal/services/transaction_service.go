package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"spendwise/internal/categorize"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/scope"
	"spendwise/internal/split"
	"spendwise/internal/taxonomy"
	"spendwise/internal/uuid"
)

const manualBookingType = "Manual entry"

// transactionService handles transaction reads and user mutations.
type transactionService struct {
	db              *gorm.DB
	defaultCurrency string
}

// NewTransactionService creates a new TransactionServicer. defaultCurrency is
// used for manual transactions that do not name one.
func NewTransactionService(db *gorm.DB, defaultCurrency string) TransactionServicer {
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &transactionService{db: db, defaultCurrency: defaultCurrency}
}

var sortColumns = map[string]string{
	"booking_date":     "booking_date",
	"amount":           "amount",
	"counterpart_name": "counterpart_name",
}

// ListTransactions returns one page of the transactions in scope that pass
// every filter. Split parents are hidden; their parts are listed instead.
func (s *transactionService) ListTransactions(
	sel scope.Selection,
	filter TransactionFilter,
	sort SortOptions,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	predicate, err := resolveScope(s.db, sel)
	if err != nil {
		return nil, err
	}

	filters := scope.Filters{
		From:                filter.StartDate,
		To:                  filter.EndDate,
		Search:              filter.Search,
		AmountType:          filter.AmountType,
		UncategorizedOnly:   filter.UncategorizedOnly,
		ExcludeSplitParents: true,
	}
	if filter.CategoryID != nil {
		filters.CategoryIDs = []uint{*filter.CategoryID}
		if filter.IncludeSubcategories {
			var cats []models.Category
			if err := s.db.Where("id = ? OR parent_id = ?", *filter.CategoryID, *filter.CategoryID).Find(&cats).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			filters.CategoryIDs = taxonomy.Descendants(cats, *filter.CategoryID)
		}
	}
	q := scope.Query{Scope: predicate, Filters: filters}

	var totalItems int64
	if err := s.db.Model(&models.Transaction{}).Scopes(q.Apply).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	column, ok := sortColumns[sort.By]
	if !ok {
		column = "booking_date"
	}
	direction := "DESC"
	if strings.EqualFold(sort.Order, "asc") {
		direction = "ASC"
	}

	var txs []models.Transaction
	err = s.db.Model(&models.Transaction{}).
		Scopes(q.Apply, pagination.Paginate(page)).
		Preload("Category").
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id " + direction).
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txs, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// GetTransaction retrieves a transaction with its category and split parts.
func (s *transactionService) GetTransaction(id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.Preload("Category").Preload("Account").
		Preload("Children", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Children.Category").
		First(&tx, id).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrTransactionNotFound)
	}
	return &tx, nil
}

// UpdateTransaction changes category, notes, tags or the shared flag.
// A split parent never carries a category.
func (s *transactionService) UpdateTransaction(id uint, update TransactionUpdate) (*models.Transaction, error) {
	tx, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.CategoryID != nil {
		if *update.CategoryID == 0 {
			updates["category_id"] = nil
		} else {
			if tx.IsSplitParent {
				return nil, apperrors.WithMessage(apperrors.ErrAlreadySplit, "a split transaction is categorised through its parts")
			}
			if err := s.ensureCategory(*update.CategoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = *update.CategoryID
		}
	}
	if update.Notes != nil {
		updates["notes"] = *update.Notes
	}
	if update.Tags != nil {
		updates["tags"] = normalizeTags(*update.Tags)
	}
	if update.IsShared != nil {
		updates["is_shared"] = *update.IsShared
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Transaction{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetTransaction(id)
}

// BulkCategorize assigns one category to many transactions. A categoryID of 0
// clears the category. Split parents are left alone.
func (s *transactionService) BulkCategorize(ids []uint, categoryID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction_ids must not be empty")
	}

	var value interface{}
	if categoryID != 0 {
		if err := s.ensureCategory(categoryID); err != nil {
			return 0, err
		}
		value = categoryID
	}

	res := s.db.Model(&models.Transaction{}).
		Where("id IN ? AND is_split_parent = ?", ids, false).
		Update("category_id", value)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	logger.Get().Infow("bulk categorize", "requested", len(ids), "updated", res.RowsAffected, "category_id", categoryID)
	return res.RowsAffected, nil
}

// BulkSetShared sets the shared flag on many transactions.
func (s *transactionService) BulkSetShared(ids []uint, shared bool) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction_ids must not be empty")
	}

	res := s.db.Model(&models.Transaction{}).Where("id IN ?", ids).Update("is_shared", shared)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	logger.Get().Infow("bulk shared", "requested", len(ids), "updated", res.RowsAffected, "shared", shared)
	return res.RowsAffected, nil
}

// SplitTransaction turns a transaction into a split parent with one child per
// part. Validation runs before any write, and all writes share one database
// transaction.
func (s *transactionService) SplitTransaction(id uint, parts []split.Part) (*split.Outcome, error) {
	outcome := &split.Outcome{ParentID: id, ChildIDs: []uint{}}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var parent models.Transaction
		if err := tx.First(&parent, id).Error; err != nil {
			return notFound(err, apperrors.ErrTransactionNotFound)
		}

		ids := make([]uint, 0, len(parts))
		for _, p := range parts {
			ids = append(ids, p.CategoryID)
		}
		known, err := existingCategories(tx, ids)
		if err != nil {
			return err
		}
		if err := split.Validate(&parent, parts, func(id uint) bool { return known[id] }); err != nil {
			return err
		}

		res := tx.Model(&models.Transaction{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_split_parent": true, "category_id": nil})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}

		children := split.Children(&parent, parts)
		if err := tx.Create(&children).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, c := range children {
			outcome.ChildIDs = append(outcome.ChildIDs, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("transaction split", "transaction_id", id, "parts", len(outcome.ChildIDs))
	return outcome, nil
}

// ClassifyTransaction runs the active rules against one transaction and
// stores the result when a rule matches. The transaction's current category
// does not prevent reclassification; this is an explicit user request.
func (s *transactionService) ClassifyTransaction(id uint) (*categorize.Result, error) {
	var tx models.Transaction
	if err := s.db.First(&tx, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrTransactionNotFound)
	}
	if tx.IsSplitParent {
		return nil, apperrors.WithMessage(apperrors.ErrAlreadySplit, "a split transaction is categorised through its parts")
	}

	var rules []models.Rule
	if err := s.db.Where("is_active = ?", true).Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := categorize.Classify(&tx, rules)
	if result == nil {
		return nil, nil
	}

	updates := map[string]interface{}{"category_id": result.CategoryID, "is_shared": tx.IsShared || result.Shared}
	if err := s.db.Model(&models.Transaction{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// CreateManualTransaction books a hand-entered transaction on the cash
// account, creating that account on first use.
func (s *transactionService) CreateManualTransaction(input ManualTransactionInput) (*models.Transaction, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if input.Amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}
	if input.BookingDate.IsZero() {
		input.BookingDate = time.Now()
	}
	currency := input.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(*input.CategoryID); err != nil {
			return nil, err
		}
	}

	booked := time.Date(input.BookingDate.Year(), input.BookingDate.Month(), input.BookingDate.Day(), 0, 0, 0, 0, time.UTC)
	var created models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := cashAccount(tx)
		if err != nil {
			return err
		}
		created = models.Transaction{
			ImportHash:      uuid.ManualImportHash(),
			AccountID:       account.ID,
			BookingDate:     booked,
			ValueDate:       &booked,
			CounterpartName: description,
			BookingType:     manualBookingType,
			Purpose:         description,
			Amount:          input.Amount.Round(2),
			Currency:        currency,
			CategoryID:      input.CategoryID,
			IsShared:        input.IsShared,
			Notes:           input.Notes,
		}
		if err := tx.Create(&created).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(created.ID)
}

// DeleteTransaction deletes a transaction. Deleting a split parent deletes its
// parts; deleting a part dissolves the whole split so the parent becomes a
// plain transaction again.
func (s *transactionService) DeleteTransaction(id uint) error {
	var target models.Transaction
	if err := s.db.First(&target, id).Error; err != nil {
		return notFound(err, apperrors.ErrTransactionNotFound)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		switch {
		case target.IsSplitParent:
			if err := tx.Where("parent_transaction_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Delete(&models.Transaction{}, id).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		case target.IsSplitChild():
			parentID := *target.ParentTransactionID
			if err := tx.Where("parent_transaction_id = ?", parentID).Delete(&models.Transaction{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", parentID).Update("is_split_parent", false).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			logger.Get().Infow("split dissolved", "transaction_id", parentID)
		default:
			if err := tx.Delete(&models.Transaction{}, id).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}

func (s *transactionService) ensureCategory(id uint) error {
	known, err := existingCategories(s.db, []uint{id})
	if err != nil {
		return err
	}
	if !known[id] {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// cashAccount finds or creates the account holding manual transactions.
func cashAccount(tx *gorm.DB) (*models.Account, error) {
	account := models.Account{
		Name:        "Cash",
		IBAN:        models.CashAccountIBAN,
		BankName:    "Manual",
		AccountType: models.AccountTypeCash,
		IsActive:    true,
	}
	if err := tx.Where("iban = ?", models.CashAccountIBAN).FirstOrCreate(&account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// normalizeTags trims each comma separated tag and drops empty ones.
func normalizeTags(raw string) string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return strings.Join(tags, ",")
}
