package categorize

import (
	"fmt"
	"regexp/syntax"
	"strings"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// MatchType names the transaction field a derived rule matches on.
type MatchType string

const (
	MatchCounterpartName MatchType = "counterpart_name"
	MatchCounterpartIBAN MatchType = "counterpart_iban"
	MatchPurpose         MatchType = "purpose"
	MatchBookingType     MatchType = "booking_type"
)

// MatchTypes lists every supported MatchType.
var MatchTypes = []MatchType{MatchCounterpartName, MatchCounterpartIBAN, MatchPurpose, MatchBookingType}

const ruleNameLimit = 30

// FromTransaction builds an active rule with a single criterion copied
// verbatim from the transaction field named by matchType.
func FromTransaction(tx *models.Transaction, categoryID uint, matchType MatchType, priority int) (*models.Rule, error) {
	rule := &models.Rule{
		Name:             ruleName(tx),
		Priority:         priority,
		IsActive:         true,
		AssignCategoryID: categoryID,
	}

	var value string
	switch matchType {
	case MatchCounterpartName:
		value = tx.CounterpartName
		rule.MatchCounterpartName = &value
	case MatchCounterpartIBAN:
		value = tx.CounterpartIBAN
		rule.MatchCounterpartIBAN = &value
	case MatchPurpose:
		value = tx.Purpose
		rule.MatchPurpose = &value
	case MatchBookingType:
		value = tx.BookingType
		rule.MatchBookingType = &value
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidRule, fmt.Sprintf("Unknown match type %q", matchType))
	}

	if strings.TrimSpace(value) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidRule,
			fmt.Sprintf("Transaction has no %s to derive a rule from", strings.ReplaceAll(string(matchType), "_", " ")))
	}
	return rule, nil
}

func ruleName(tx *models.Transaction) string {
	subject := strings.TrimSpace(tx.CounterpartName)
	if subject == "" {
		subject = strings.TrimSpace(tx.BookingType)
	}
	if subject == "" {
		subject = "Unnamed"
	}
	if r := []rune(subject); len(r) > ruleNameLimit {
		subject = string(r[:ruleNameLimit])
	}
	return "Rule: " + subject
}

// Validate checks a rule before it is stored. It requires at least one
// criterion, an ordered amount range and well-formed regular expressions.
// When categoryExists is non-nil the target category must resolve.
func Validate(r *models.Rule, categoryExists func(id uint) bool) error {
	if CountCriteria(r) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "A rule needs at least one match criterion")
	}

	if r.MatchAmountMin != nil && r.MatchAmountMax != nil && r.MatchAmountMin.GreaterThan(*r.MatchAmountMax) {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "match_amount_min must not exceed match_amount_max")
	}

	for _, p := range []*string{r.MatchCounterpartName, r.MatchPurpose} {
		v, ok := declared(p)
		if !ok {
			continue
		}
		if expr, flags, isRegex := parseRegex(v); isRegex {
			if strings.Trim(flags, "i") != "" {
				return apperrors.WithMessage(apperrors.ErrInvalidRule, fmt.Sprintf("Unsupported regex flags %q", flags))
			}
			if strings.TrimSpace(expr) == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidRule, "A regular expression cannot be empty")
			}
			if _, err := buildRegex(expr, flags); err != nil {
				return apperrors.WithMessage(apperrors.ErrInvalidRule, "Invalid regular expression: "+regexErrorText(err))
			}
		} else if strings.TrimSpace(stripWildcards(v)) == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidRule, "A text pattern needs more than wildcards")
		}
	}

	if r.AssignCategoryID == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "A rule needs a target category")
	}
	if categoryExists != nil && !categoryExists(r.AssignCategoryID) {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, "Target category does not exist")
	}
	return nil
}

func regexErrorText(err error) string {
	if se, ok := err.(*syntax.Error); ok {
		return string(se.Code)
	}
	return err.Error()
}
