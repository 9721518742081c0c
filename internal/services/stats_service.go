package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/scope"
	"spendwise/internal/stats"
	"spendwise/internal/taxonomy"
)

// statsService loads scoped snapshots and hands them to the stats package.
type statsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatsService creates a new StatsServicer.
func NewStatsService(db *gorm.DB) StatsServicer {
	return &statsService{db: db, now: time.Now}
}

// GetSummary returns the dashboard for the current month.
func (s *statsService) GetSummary(sel scope.Selection) (*stats.Dashboard, error) {
	predicate, err := resolveScope(s.db, sel)
	if err != nil {
		return nil, err
	}

	var txs []models.Transaction
	err = s.db.Model(&models.Transaction{}).
		Scopes(scope.Query{Scope: predicate, Filters: scope.Filters{ExcludeSplitParents: true}}.Apply).
		Preload("Category").
		Order("booking_date DESC").Order("id DESC").
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	info, err := s.categoryInfo()
	if err != nil {
		return nil, err
	}
	d := stats.BuildDashboard(txs, info, s.now())
	return &d, nil
}

// GetByCategory aggregates the period per category.
func (s *statsService) GetByCategory(sel scope.Selection, period stats.Period) (*stats.ByCategoryResult, error) {
	txs, err := s.snapshot(sel, period)
	if err != nil {
		return nil, err
	}
	info, err := s.categoryInfo()
	if err != nil {
		return nil, err
	}
	res := stats.ByCategory(txs, info, period)
	return &res, nil
}

// GetOverTime aggregates the period into time buckets.
func (s *statsService) GetOverTime(sel scope.Selection, period stats.Period, granularity stats.Granularity) (*stats.OverTimeResult, error) {
	txs, err := s.snapshot(sel, period)
	if err != nil {
		return nil, err
	}
	res, err := stats.OverTime(txs, period, granularity)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// snapshot loads the non-parent transactions in scope that fall inside period.
func (s *statsService) snapshot(sel scope.Selection, period stats.Period) ([]models.Transaction, error) {
	predicate, err := resolveScope(s.db, sel)
	if err != nil {
		return nil, err
	}

	from, to := period.Start, period.EndOfDay()
	q := scope.Query{
		Scope:   predicate,
		Filters: scope.Filters{From: &from, To: &to, ExcludeSplitParents: true},
	}

	var txs []models.Transaction
	if err := s.db.Model(&models.Transaction{}).Scopes(q.Apply).Order("booking_date ASC").Order("id ASC").Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// categoryInfo describes every category with its full path.
func (s *statsService) categoryInfo() (map[uint]stats.CategoryInfo, error) {
	var cats []models.Category
	if err := s.db.Find(&cats).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	paths := taxonomy.Paths(taxonomy.Build(cats, nil))

	info := make(map[uint]stats.CategoryInfo, len(cats))
	for _, c := range cats {
		info[c.ID] = stats.CategoryInfo{Name: c.Name, FullPath: paths[c.ID], Color: c.Color}
	}
	return info, nil
}
