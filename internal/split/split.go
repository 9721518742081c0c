// Package split validates a transaction split and builds the child
// transactions. The children always add up to the parent amount.
package split

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"

	"github.com/shopspring/decimal"
)

// MinParts is the smallest number of parts a split may have.
const MinParts = 2

// Tolerance is half of one minor currency unit. Part sums closer than this
// to the original amount are equal once rounded to cents.
var Tolerance = decimal.New(5, -3)

// Part is one requested piece of a split.
type Part struct {
	Amount     decimal.Decimal `json:"amount"`
	CategoryID uint            `json:"category_id"`
	Notes      string          `json:"notes,omitempty"`
}

// Outcome identifies the rows a split produced.
type Outcome struct {
	ParentID uint   `json:"parent_id"`
	ChildIDs []uint `json:"child_ids"`
}

// Validate checks that parent may be split into parts. It performs no
// mutation. categoryExists resolves category ids.
func Validate(parent *models.Transaction, parts []Part, categoryExists func(id uint) bool) error {
	if parent.IsSplitParent {
		return apperrors.WithMessage(apperrors.ErrAlreadySplit, "Transaction is already split")
	}
	if parent.IsSplitChild() {
		return apperrors.WithMessage(apperrors.ErrAlreadySplit, "A split part cannot be split again")
	}

	if len(parts) < MinParts {
		return apperrors.WithMessage(apperrors.ErrInvalidSplit, fmt.Sprintf("A split needs at least %d parts", MinParts))
	}

	sum := decimal.Zero
	for i, p := range parts {
		if !p.Amount.Equal(p.Amount.Round(2)) {
			return apperrors.WithMessage(apperrors.ErrInvalidSplit, fmt.Sprintf("Part %d has more than two decimal places", i+1))
		}
		if p.Amount.IsZero() {
			return apperrors.WithMessage(apperrors.ErrInvalidSplit, fmt.Sprintf("Part %d has a zero amount", i+1))
		}
		if p.Amount.Sign() != parent.Amount.Sign() {
			return apperrors.WithMessage(apperrors.ErrInvalidSplit, fmt.Sprintf("Part %d has a different sign than the transaction", i+1))
		}
		if p.CategoryID == 0 || !categoryExists(p.CategoryID) {
			return apperrors.WithMessage(apperrors.ErrInvalidSplit, fmt.Sprintf("Part %d references an unknown category", i+1))
		}
		sum = sum.Add(p.Amount)
	}

	if sum.Sub(parent.Amount).Abs().GreaterThanOrEqual(Tolerance) {
		return apperrors.WithMessage(apperrors.ErrInvalidSplit,
			fmt.Sprintf("Parts add up to %s but the transaction amount is %s", sum.StringFixed(2), parent.Amount.StringFixed(2)))
	}
	return nil
}

// Children builds one child per part. Each child inherits the parent's
// bank-origin metadata and carries its own amount, category and notes.
func Children(parent *models.Transaction, parts []Part) []models.Transaction {
	children := make([]models.Transaction, len(parts))
	for i, p := range parts {
		categoryID := p.CategoryID
		parentID := parent.ID
		children[i] = models.Transaction{
			ImportHash:          ChildImportHash(parent.ImportHash, i),
			AccountID:           parent.AccountID,
			BookingDate:         parent.BookingDate,
			ValueDate:           parent.ValueDate,
			CounterpartName:     parent.CounterpartName,
			CounterpartIBAN:     parent.CounterpartIBAN,
			CounterpartBIC:      parent.CounterpartBIC,
			BookingType:         parent.BookingType,
			Purpose:             parent.Purpose,
			Amount:              p.Amount,
			Currency:            parent.Currency,
			CategoryID:          &categoryID,
			ParentTransactionID: &parentID,
			IsShared:            parent.IsShared,
			Notes:               p.Notes,
		}
	}
	return children
}

// ChildImportHash derives a stable, unique import hash for the i-th part of
// a split.
func ChildImportHash(parentHash string, i int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:split:%d", parentHash, i)))
	return hex.EncodeToString(sum[:])[:32]
}
