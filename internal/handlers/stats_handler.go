package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/scope"
	"spendwise/internal/services"
	"spendwise/internal/stats"
)

// StatsHandler handles statistics requests.
type StatsHandler struct {
	statsService services.StatsServicer
	now          func() time.Time
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService services.StatsServicer) *StatsHandler {
	return &StatsHandler{statsService: statsService, now: time.Now}
}

// PeriodQuery selects the reporting period. Giving start_date and end_date
// without a period implies period=custom.
type PeriodQuery struct {
	Period  string `form:"period" binding:"omitempty,stats_period"`
	GroupBy string `form:"group_by" binding:"omitempty,time_bucket"`
}

// GetSummary returns the dashboard figures
// @Summary     Dashboard summary
// @Description Balance, this and last month's totals, top categories and recent bookings.
// @Tags        stats
// @Produce     json
// @Security    ApiKeyAuth
// @Param       account_id query int  false "Only this account"
// @Param       profile_id query int  false "Only accounts owned by this profile"
// @Param       shared     query bool false "Only shared transactions"
// @Success     200 {object} stats.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid scope"
// @Router      /stats/summary [get]
func (h *StatsHandler) GetSummary(c *gin.Context) {
	sel, err := bindScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.statsService.GetSummary(sel)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetByCategory returns per-category totals for a period
// @Summary     Statistics by category
// @Tags        stats
// @Produce     json
// @Security    ApiKeyAuth
// @Param       period     query string false "week, month, quarter, year or custom (default month)"
// @Param       start_date query string false "Custom period start (YYYY-MM-DD)"
// @Param       end_date   query string false "Custom period end, inclusive (YYYY-MM-DD)"
// @Param       account_id query int    false "Only this account"
// @Param       profile_id query int    false "Only accounts owned by this profile"
// @Param       shared     query bool   false "Only shared transactions"
// @Success     200 {object} stats.ByCategoryResult "Category totals"
// @Failure     400 {object} ErrorResponse "Invalid period or scope"
// @Router      /stats/by-category [get]
func (h *StatsHandler) GetByCategory(c *gin.Context) {
	sel, _, period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	result, err := h.statsService.GetByCategory(sel, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOverTime returns income and expenses per time bucket
// @Summary     Statistics over time
// @Tags        stats
// @Produce     json
// @Security    ApiKeyAuth
// @Param       period     query string false "week, month, quarter, year or custom (default month)"
// @Param       group_by   query string false "day, week or month (default depends on period)"
// @Param       start_date query string false "Custom period start (YYYY-MM-DD)"
// @Param       end_date   query string false "Custom period end, inclusive (YYYY-MM-DD)"
// @Param       account_id query int    false "Only this account"
// @Param       profile_id query int    false "Only accounts owned by this profile"
// @Param       shared     query bool   false "Only shared transactions"
// @Success     200 {object} stats.OverTimeResult "Buckets"
// @Failure     400 {object} ErrorResponse "Invalid period, granularity or scope"
// @Router      /stats/over-time [get]
func (h *StatsHandler) GetOverTime(c *gin.Context) {
	sel, q, period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	granularity := stats.Granularity(q.GroupBy)
	if granularity == "" {
		granularity = stats.DefaultGranularity(presetOf(q))
	}

	result, err := h.statsService.GetOverTime(sel, period, granularity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// bindPeriod reads scope and period parameters. On failure it has already
// written the error response.
func (h *StatsHandler) bindPeriod(c *gin.Context) (scope.Selection, PeriodQuery, stats.Period, bool) {
	var q PeriodQuery
	sel, err := bindScope(c)
	if err != nil {
		respondWithError(c, err)
		return sel, q, stats.Period{}, false
	}

	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return sel, q, stats.Period{}, false
	}

	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		respondWithError(c, err)
		return sel, q, stats.Period{}, false
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		respondWithError(c, err)
		return sel, q, stats.Period{}, false
	}
	if q.Period == "" && start != nil && end != nil {
		q.Period = string(stats.PresetCustom)
	}

	period, err := stats.ResolvePeriod(presetOf(q), start, end, h.now())
	if err != nil {
		respondWithError(c, err)
		return sel, q, stats.Period{}, false
	}
	return sel, q, period, true
}

func presetOf(q PeriodQuery) stats.Preset {
	if q.Period == "" {
		return stats.PresetMonth
	}
	return stats.Preset(q.Period)
}
