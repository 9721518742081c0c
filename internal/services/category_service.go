package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/taxonomy"
)

// categoryService handles the category taxonomy.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a top-level category or a subcategory of an existing
// top-level category.
func (s *categoryService) CreateCategory(input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	if input.ParentID != nil {
		cats, err := s.all(s.db)
		if err != nil {
			return nil, err
		}
		if err := taxonomy.ValidateParent(cats, 0, *input.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.ensureUniqueSibling(name, input.ParentID, 0); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:          name,
		ParentID:      input.ParentID,
		Color:         input.Color,
		Icon:          input.Icon,
		BudgetMonthly: input.BudgetMonthly,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetCategory retrieves a category by ID
func (s *categoryService) GetCategory(id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrCategoryNotFound)
	}
	return &category, nil
}

// UpdateCategory updates an existing category. Reparenting is checked against
// the two-level invariant.
func (s *categoryService) UpdateCategory(id uint, update CategoryUpdate) (*models.Category, error) {
	category, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	parentID := category.ParentID
	name := category.Name

	if update.ParentID != nil {
		if *update.ParentID == 0 {
			parentID = nil
		} else {
			cats, err := s.all(s.db)
			if err != nil {
				return nil, err
			}
			if err := taxonomy.ValidateParent(cats, id, *update.ParentID); err != nil {
				return nil, err
			}
			pid := *update.ParentID
			parentID = &pid
		}
		if parentID == nil {
			updates["parent_id"] = nil
		} else {
			updates["parent_id"] = *parentID
		}
	}
	if update.Name != nil {
		name = strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		updates["name"] = name
	}
	if update.Name != nil || update.ParentID != nil {
		if err := s.ensureUniqueSibling(name, parentID, id); err != nil {
			return nil, err
		}
	}
	if update.Color != nil {
		updates["color"] = *update.Color
	}
	if update.Icon != nil {
		updates["icon"] = *update.Icon
	}
	if update.ClearBudget {
		updates["budget_monthly"] = nil
	} else if update.BudgetMonthly != nil {
		updates["budget_monthly"] = *update.BudgetMonthly
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Category{}).Where("id = ?", category.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetCategory(id)
}

// DeleteCategory deletes a category. Subcategories must be removed first.
// When transactions or rules reference the category a reassignment is
// required: transactions move to the target (or become uncategorized) and
// rules are retargeted (or deleted when there is no target). Everything
// happens in one database transaction.
func (s *categoryService) DeleteCategory(id uint, reassign *Reassignment) (*DeleteCategoryResult, error) {
	if _, err := s.GetCategory(id); err != nil {
		return nil, err
	}

	result := &DeleteCategoryResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var children int64
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if children > 0 {
			return apperrors.ErrCategoryHasChildren
		}

		var txRefs, ruleRefs int64
		if err := tx.Model(&models.Transaction{}).Where("category_id = ?", id).Count(&txRefs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Rule{}).Where("assign_category_id = ?", id).Count(&ruleRefs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if (txRefs > 0 || ruleRefs > 0) && reassign == nil {
			return apperrors.ErrCategoryInUse
		}

		var target interface{}
		if reassign != nil && reassign.To != nil {
			if *reassign.To == id {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "a category cannot be reassigned to itself")
			}
			var count int64
			if err := tx.Model(&models.Category{}).Where("id = ?", *reassign.To).Count(&count).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count == 0 {
				return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "reassignment target not found")
			}
			target = *reassign.To
		}

		if txRefs > 0 {
			res := tx.Model(&models.Transaction{}).Where("category_id = ?", id).Update("category_id", target)
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			result.ReassignedTransactions = res.RowsAffected
		}

		if ruleRefs > 0 {
			if target != nil {
				res := tx.Model(&models.Rule{}).Where("assign_category_id = ?", id).Update("assign_category_id", target)
				if res.Error != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
				}
				result.RetargetedRules = res.RowsAffected
			} else {
				res := tx.Where("assign_category_id = ?", id).Delete(&models.Rule{})
				if res.Error != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
				}
				result.DeletedRules = res.RowsAffected
			}
		}

		if err := tx.Delete(&models.Category{}, id).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("category deleted",
		"category_id", id,
		"reassigned_transactions", result.ReassignedTransactions,
		"retargeted_rules", result.RetargetedRules,
		"deleted_rules", result.DeletedRules,
	)
	return result, nil
}

// ListTree returns the category tree with full paths and transaction counts.
func (s *categoryService) ListTree() ([]*taxonomy.Node, error) {
	cats, err := s.all(s.db)
	if err != nil {
		return nil, err
	}
	counts, err := s.transactionCounts()
	if err != nil {
		return nil, err
	}
	return taxonomy.Build(cats, counts), nil
}

// ListFlat returns every category in tree pre-order.
func (s *categoryService) ListFlat() ([]FlatCategory, error) {
	roots, err := s.ListTree()
	if err != nil {
		return nil, err
	}
	flat := []FlatCategory{}
	for n := range taxonomy.Flatten(roots) {
		flat = append(flat, FlatCategory{
			Category:         n.Category,
			FullPath:         n.FullPath,
			Depth:            n.Depth,
			TransactionCount: n.TransactionCount,
		})
	}
	return flat, nil
}

type defaultCategory struct {
	name     string
	color    string
	children []string
}

var defaultCategories = []defaultCategory{
	{"Income", "#4CAF50", []string{"Salary", "Child Benefit", "Refunds", "Other Income"}},
	{"Housing", "#2196F3", []string{"Rent", "Electricity", "Gas", "Internet", "Furnishing"}},
	{"Mobility", "#FF9800", []string{"Fuel", "EV Charging", "Car Insurance", "Maintenance", "Public Transport"}},
	{"Food", "#8BC34A", []string{"Groceries", "Bakery", "Restaurant"}},
	{"Leisure", "#E91E63", []string{"Electronics", "Books", "Gaming", "Streaming", "Going Out"}},
	{"Finance", "#9C27B0", []string{"Savings", "Investments", "Fees"}},
	{"Health", "#00BCD4", []string{"Pharmacy", "Doctor", "Fitness"}},
	{"Insurance", "#607D8B", []string{"Liability", "Household", "Legal"}},
	{"Shopping", "#795548", []string{"Clothing", "Gifts", "Online Shopping"}},
	{"Miscellaneous", "#9E9E9E", []string{"Cash Withdrawal", "Transfers", "Other"}},
}

// InitDefaults seeds the default taxonomy when no category exists yet and
// returns how many categories were created.
func (s *categoryService) InitDefaults() (int, error) {
	var existing int64
	if err := s.db.Model(&models.Category{}).Count(&existing).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return 0, nil
	}

	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, d := range defaultCategories {
			parent := &models.Category{Name: d.name, Color: d.color}
			if err := tx.Create(parent).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created++
			for _, child := range d.children {
				pid := parent.ID
				if err := tx.Create(&models.Category{Name: child, ParentID: &pid, Color: d.color}).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Get().Infow("default categories created", "count", created)
	return created, nil
}

func (s *categoryService) all(db *gorm.DB) ([]models.Category, error) {
	var cats []models.Category
	if err := db.Order("created_at ASC").Order("id ASC").Find(&cats).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return cats, nil
}

func (s *categoryService) transactionCounts() (map[uint]int64, error) {
	var rows []struct {
		CategoryID uint
		Count      int64
	}
	err := s.db.Model(&models.Transaction{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	return counts, nil
}

func (s *categoryService) ensureUniqueSibling(name string, parentID *uint, excludeID uint) error {
	query := s.db.Model(&models.Category{}).Where("LOWER(name) = LOWER(?) AND id <> ?", name, excludeID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}
