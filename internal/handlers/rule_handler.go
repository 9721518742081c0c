package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendwise/internal/categorize"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/scope"
	"spendwise/internal/services"
)

// RuleHandler handles categorization rule requests.
type RuleHandler struct {
	ruleService services.RuleServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// RuleRequest represents the request payload for creating or replacing a rule.
// Text criteria match case-insensitively as substrings, or as a regular
// expression when written as /expr/ or /expr/i.
type RuleRequest struct {
	Name                 string           `json:"name" binding:"max=100"`
	Priority             int              `json:"priority"`
	IsActive             *bool            `json:"is_active"`
	MatchCounterpartName *string          `json:"match_counterpart_name" binding:"omitempty,max=255"`
	MatchCounterpartIBAN *string          `json:"match_counterpart_iban" binding:"omitempty,max=42"`
	MatchPurpose         *string          `json:"match_purpose" binding:"omitempty,max=255"`
	MatchBookingType     *string          `json:"match_booking_type" binding:"omitempty,max=100"`
	MatchAmountMin       *decimal.Decimal `json:"match_amount_min"`
	MatchAmountMax       *decimal.Decimal `json:"match_amount_max"`
	AssignCategoryID     uint             `json:"assign_category_id" binding:"required"`
	AssignShared         bool             `json:"assign_shared"`
}

func (r RuleRequest) input() services.RuleInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return services.RuleInput{
		Name:                 r.Name,
		Priority:             r.Priority,
		IsActive:             active,
		MatchCounterpartName: r.MatchCounterpartName,
		MatchCounterpartIBAN: r.MatchCounterpartIBAN,
		MatchPurpose:         r.MatchPurpose,
		MatchBookingType:     r.MatchBookingType,
		MatchAmountMin:       r.MatchAmountMin,
		MatchAmountMax:       r.MatchAmountMax,
		AssignCategoryID:     r.AssignCategoryID,
		AssignShared:         r.AssignShared,
	}
}

// ApplyRulesRequest selects the transactions a rule run covers. Omitting
// reclassify uses the server default.
type ApplyRulesRequest struct {
	Reclassify *bool `json:"reclassify"`
	scope.Selection
}

// RuleFromTransactionRequest represents the request payload for deriving a rule.
type RuleFromTransactionRequest struct {
	CategoryID uint                 `json:"category_id" binding:"required"`
	MatchType  categorize.MatchType `json:"match_type" binding:"required,match_type"`
	Priority   *int                 `json:"priority"`
}

// ListRules returns every rule in evaluation order
// @Summary     List rules
// @Tags        rules
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string][]models.Rule "Rules"
// @Router      /rules [get]
func (h *RuleHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleService.ListRules()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// GetRule returns one rule
// @Summary     Get rule
// @Tags        rules
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Rule ID"
// @Success     200 {object} models.Rule "Rule"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /rules/{id} [get]
func (h *RuleHandler) GetRule(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	rule, err := h.ruleService.GetRule(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// CreateRule creates a rule
// @Summary     Create rule
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RuleRequest true "Rule"
// @Success     201 {object} models.Rule "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid rule"
// @Router      /rules [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	rule, err := h.ruleService.CreateRule(req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// UpdateRule replaces a rule
// @Summary     Update rule
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Rule ID"
// @Param       request body RuleRequest true "Rule"
// @Success     200 {object} models.Rule "Updated rule"
// @Failure     400 {object} ErrorResponse "Invalid rule"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /rules/{id} [put]
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	rule, err := h.ruleService.UpdateRule(id, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule deletes a rule
// @Summary     Delete rule
// @Tags        rules
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Rule ID"
// @Success     200 {object} MessageResponse "Rule deleted"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /rules/{id} [delete]
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.ruleService.DeleteRule(id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Rule deleted successfully"})
}

// ApplyRules runs every active rule over the selected transactions
// @Summary     Apply rules
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body ApplyRulesRequest false "Scope and policy"
// @Success     200 {object} categorize.Summary "What changed"
// @Failure     400 {object} ErrorResponse "Scope conflict"
// @Router      /rules/apply [post]
func (h *RuleHandler) ApplyRules(c *gin.Context) {
	req, ok := h.bindApply(c)
	if !ok {
		return
	}
	summary, err := h.ruleService.ApplyRules(req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// PreviewRules reports what ApplyRules would change without writing
// @Summary     Preview rules
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body ApplyRulesRequest false "Scope and policy"
// @Success     200 {object} categorize.Summary "What would change"
// @Failure     400 {object} ErrorResponse "Scope conflict"
// @Router      /rules/preview [post]
func (h *RuleHandler) PreviewRules(c *gin.Context) {
	req, ok := h.bindApply(c)
	if !ok {
		return
	}
	summary, err := h.ruleService.PreviewRules(req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CreateRuleFromTransaction derives a one-criterion rule from a transaction
// @Summary     Create rule from transaction
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Transaction ID"
// @Param       request body RuleFromTransactionRequest true "Target and field"
// @Success     201 {object} models.Rule "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid rule"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /rules/from-transaction/{id} [post]
func (h *RuleHandler) CreateRuleFromTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req RuleFromTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	rule, err := h.ruleService.CreateRuleFromTransaction(id, req.CategoryID, req.MatchType, req.Priority)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// bindApply accepts an empty body as "everything, default policy".
func (h *RuleHandler) bindApply(c *gin.Context) (services.ApplyRequest, bool) {
	var req ApplyRulesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return services.ApplyRequest{}, false
		}
	}
	return services.ApplyRequest{Reclassify: req.Reclassify, Scope: req.Selection}, true
}
