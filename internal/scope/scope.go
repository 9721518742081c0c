// Package scope resolves the profile / account / shared selection into a
// predicate over transactions. Every read path filters through it, either
// in memory with Matches or in SQL with Apply.
package scope

import (
	"slices"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"

	"gorm.io/gorm"
)

// Selection is the requested scope. AccountID wins over everything else.
// ProfileID and Shared are mutually exclusive.
type Selection struct {
	AccountID *uint `form:"account_id" json:"account_id,omitempty"`
	ProfileID *uint `form:"profile_id" json:"profile_id,omitempty"`
	Shared    bool  `form:"shared" json:"shared,omitempty"`
}

// Mode names how a Predicate restricts transactions.
type Mode string

const (
	ModeAll     Mode = "all"
	ModeAccount Mode = "account"
	ModeProfile Mode = "profile"
	ModeShared  Mode = "shared"
)

// Predicate is a resolved Selection.
type Predicate struct {
	mode       Mode
	accountIDs []uint
}

// All is the unrestricted predicate.
var All = Predicate{mode: ModeAll}

// Resolve turns a selection into a predicate. accounts is the snapshot used
// to expand a profile into the accounts it owns; unowned accounts never
// belong to a profile.
func Resolve(sel Selection, accounts []models.Account) (Predicate, error) {
	switch {
	case sel.AccountID != nil:
		return Predicate{mode: ModeAccount, accountIDs: []uint{*sel.AccountID}}, nil
	case sel.ProfileID != nil && sel.Shared:
		return Predicate{}, apperrors.ErrScopeConflict
	case sel.ProfileID != nil:
		ids := []uint{}
		for _, a := range accounts {
			if a.ProfileID != nil && *a.ProfileID == *sel.ProfileID {
				ids = append(ids, a.ID)
			}
		}
		slices.Sort(ids)
		return Predicate{mode: ModeProfile, accountIDs: ids}, nil
	case sel.Shared:
		return Predicate{mode: ModeShared}, nil
	default:
		return All, nil
	}
}

// Mode reports the kind of restriction.
func (p Predicate) Mode() Mode {
	if p.mode == "" {
		return ModeAll
	}
	return p.mode
}

// AccountIDs returns the account set of an account or profile scope, and
// nil when the scope is not restricted by account.
func (p Predicate) AccountIDs() []uint {
	switch p.mode {
	case ModeAccount, ModeProfile:
		return slices.Clone(p.accountIDs)
	default:
		return nil
	}
}

// Matches reports whether tx falls inside the scope.
func (p Predicate) Matches(tx *models.Transaction) bool {
	switch p.mode {
	case ModeAccount, ModeProfile:
		return slices.Contains(p.accountIDs, tx.AccountID)
	case ModeShared:
		return tx.IsShared
	default:
		return true
	}
}

// Apply restricts a transactions query to the scope. It has the gorm scope
// signature so it can be passed to db.Scopes.
func (p Predicate) Apply(db *gorm.DB) *gorm.DB {
	switch p.mode {
	case ModeAccount, ModeProfile:
		if len(p.accountIDs) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("account_id IN ?", p.accountIDs)
	case ModeShared:
		return db.Where("is_shared = ?", true)
	default:
		return db
	}
}
