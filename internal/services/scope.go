package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/scope"
)

// resolveScope loads the account snapshot a selection needs and resolves it.
func resolveScope(db *gorm.DB, sel scope.Selection) (scope.Predicate, error) {
	var accounts []models.Account
	if sel.AccountID == nil && sel.ProfileID != nil {
		if err := db.Where("profile_id = ?", *sel.ProfileID).Find(&accounts).Error; err != nil {
			return scope.Predicate{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return scope.Resolve(sel, accounts)
}

// existingCategories returns the subset of ids that name existing categories.
func existingCategories(db *gorm.DB, ids []uint) (map[uint]bool, error) {
	found := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var existing []uint
	if err := db.Model(&models.Category{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

// notFound maps a lookup error to sentinel when the record does not exist.
func notFound(err error, sentinel *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
