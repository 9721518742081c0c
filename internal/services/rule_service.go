package services

import (
	"database/sql"
	"strings"

	"gorm.io/gorm"

	"spendwise/internal/categorize"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/scope"
)

// ruleService handles categorization rules and rule runs.
type ruleService struct {
	db                 *gorm.DB
	reapplyCategorized bool
}

// NewRuleService creates a new RuleServicer. reapplyCategorized is the policy
// used when a rule run does not say whether categorised transactions may be
// reclassified.
func NewRuleService(db *gorm.DB, reapplyCategorized bool) RuleServicer {
	return &ruleService{db: db, reapplyCategorized: reapplyCategorized}
}

// ListRules returns all rules in evaluation order.
func (s *ruleService) ListRules() ([]models.Rule, error) {
	var rules []models.Rule
	if err := s.db.Preload("AssignCategory").Order("priority ASC").Order("id ASC").Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rules, nil
}

// GetRule retrieves a rule by ID
func (s *ruleService) GetRule(id uint) (*models.Rule, error) {
	var rule models.Rule
	if err := s.db.Preload("AssignCategory").First(&rule, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrRuleNotFound)
	}
	return &rule, nil
}

// CreateRule validates and stores a new rule.
func (s *ruleService) CreateRule(input RuleInput) (*models.Rule, error) {
	rule := &models.Rule{}
	applyRuleInput(rule, input)
	if err := s.validate(rule); err != nil {
		return nil, err
	}
	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetRule(rule.ID)
}

// UpdateRule replaces every field of a rule.
func (s *ruleService) UpdateRule(id uint, input RuleInput) (*models.Rule, error) {
	rule, err := s.GetRule(id)
	if err != nil {
		return nil, err
	}
	applyRuleInput(rule, input)
	if err := s.validate(rule); err != nil {
		return nil, err
	}

	rule.AssignCategory = nil
	if err := s.db.Select("*").Omit("created_at").Save(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetRule(id)
}

// DeleteRule deletes a rule.
func (s *ruleService) DeleteRule(id uint) error {
	res := s.db.Delete(&models.Rule{}, id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// ApplyRules classifies the transactions in scope and persists every change
// in one database transaction.
func (s *ruleService) ApplyRules(req ApplyRequest) (*categorize.Summary, error) {
	var summary categorize.Summary
	policy := s.policy(req)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		summary, err = s.evaluate(tx, req.Scope, policy)
		if err != nil {
			return err
		}

		for _, a := range summary.Assignments {
			updates := map[string]interface{}{"category_id": a.CategoryID, "is_shared": a.Shared}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", a.TransactionID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("rules applied",
		"policy", policy.String(),
		"matched", summary.Matched,
		"unmatched", summary.Unmatched,
		"skipped", summary.Skipped,
		"changed", summary.Changed,
	)
	return &summary, nil
}

// PreviewRules reports what ApplyRules would do without writing anything.
func (s *ruleService) PreviewRules(req ApplyRequest) (*categorize.Summary, error) {
	summary, err := s.evaluate(s.db, req.Scope, s.policy(req))
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// CreateRuleFromTransaction derives a one-criterion rule from a transaction.
// Without an explicit priority the rule is evaluated after every existing one.
func (s *ruleService) CreateRuleFromTransaction(transactionID, categoryID uint, matchType categorize.MatchType, priority *int) (*models.Rule, error) {
	var source models.Transaction
	if err := s.db.First(&source, transactionID).Error; err != nil {
		return nil, notFound(err, apperrors.ErrTransactionNotFound)
	}

	p := 0
	if priority != nil {
		p = *priority
	} else {
		var maxPriority sql.NullInt64
		if err := s.db.Model(&models.Rule{}).Select("MAX(priority)").Row().Scan(&maxPriority); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if maxPriority.Valid {
			p = int(maxPriority.Int64) + 1
		}
	}

	rule, err := categorize.FromTransaction(&source, categoryID, matchType, p)
	if err != nil {
		return nil, err
	}
	if err := s.validate(rule); err != nil {
		return nil, err
	}
	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetRule(rule.ID)
}

func (s *ruleService) policy(req ApplyRequest) categorize.Policy {
	if req.Reclassify != nil {
		return categorize.PolicyFor(*req.Reclassify)
	}
	return categorize.PolicyFor(s.reapplyCategorized)
}

// evaluate loads the rule and transaction snapshots and runs the engine.
func (s *ruleService) evaluate(db *gorm.DB, sel scope.Selection, policy categorize.Policy) (categorize.Summary, error) {
	predicate, err := resolveScope(db, sel)
	if err != nil {
		return categorize.Summary{}, err
	}

	var rules []models.Rule
	if err := db.Where("is_active = ?", true).Order("priority ASC").Order("id ASC").Find(&rules).Error; err != nil {
		return categorize.Summary{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	q := scope.Query{Scope: predicate, Filters: scope.Filters{
		ExcludeSplitParents: true,
		UncategorizedOnly:   policy == categorize.PolicyUncategorizedOnly,
	}}
	var txs []models.Transaction
	if err := db.Scopes(q.Apply).Order("id ASC").Find(&txs).Error; err != nil {
		return categorize.Summary{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return categorize.ApplyAll(txs, rules, policy), nil
}

func (s *ruleService) validate(rule *models.Rule) error {
	var exists map[uint]bool
	if rule.AssignCategoryID != 0 {
		var err error
		exists, err = existingCategories(s.db, []uint{rule.AssignCategoryID})
		if err != nil {
			return err
		}
	}
	return categorize.Validate(rule, func(id uint) bool { return exists[id] })
}

func applyRuleInput(rule *models.Rule, input RuleInput) {
	rule.Name = strings.TrimSpace(input.Name)
	if rule.Name == "" {
		rule.Name = "Rule"
	}
	rule.Priority = input.Priority
	rule.IsActive = input.IsActive
	rule.MatchCounterpartName = trimmed(input.MatchCounterpartName)
	rule.MatchCounterpartIBAN = trimmed(input.MatchCounterpartIBAN)
	rule.MatchPurpose = trimmed(input.MatchPurpose)
	rule.MatchBookingType = trimmed(input.MatchBookingType)
	rule.MatchAmountMin = input.MatchAmountMin
	rule.MatchAmountMax = input.MatchAmountMax
	rule.AssignCategoryID = input.AssignCategoryID
	rule.AssignShared = input.AssignShared
}

// trimmed normalises an optional criterion; blank text becomes absent.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
