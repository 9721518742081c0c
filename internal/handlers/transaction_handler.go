package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
	"spendwise/internal/split"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// ListTransactionsQuery holds the filter and sort query parameters of
// ListTransactions. Dates and scope are read separately.
type ListTransactionsQuery struct {
	CategoryID           *uint  `form:"category_id"`
	IncludeSubcategories bool   `form:"include_subcategories"`
	Search               string `form:"search" binding:"max=200"`
	AmountType           string `form:"amount_type" binding:"omitempty,amount_type"`
	UncategorizedOnly    bool   `form:"uncategorized"`
	SortBy               string `form:"sort_by" binding:"omitempty,sort_field"`
	SortOrder            string `form:"sort_order" binding:"omitempty,sort_order"`
}

// UpdateTransactionRequest represents the editable fields of a transaction.
// A category_id of 0 clears the category.
type UpdateTransactionRequest struct {
	CategoryID *uint   `json:"category_id"`
	Notes      *string `json:"notes" binding:"omitempty,max=1000"`
	Tags       *string `json:"tags" binding:"omitempty,max=500"`
	IsShared   *bool   `json:"is_shared"`
}

// CreateManualTransactionRequest represents a hand-entered transaction.
type CreateManualTransactionRequest struct {
	BookingDate string          `json:"booking_date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required,min=1,max=255"`
	Currency    string          `json:"currency" binding:"omitempty,iso4217"`
	CategoryID  *uint           `json:"category_id"`
	IsShared    bool            `json:"is_shared"`
	Notes       string          `json:"notes" binding:"max=1000"`
}

// SplitPartRequest is one part of a split.
type SplitPartRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	CategoryID uint            `json:"category_id"`
	Notes      string          `json:"notes" binding:"max=500"`
}

// SplitTransactionRequest represents the request payload for splitting a
// transaction. Part count and categories are checked by the split itself.
type SplitTransactionRequest struct {
	Parts []SplitPartRequest `json:"parts" binding:"dive"`
}

// BulkCategorizeRequest assigns one category to many transactions. A null
// category_id clears it.
type BulkCategorizeRequest struct {
	TransactionIDs []uint `json:"transaction_ids" binding:"required,min=1"`
	CategoryID     *uint  `json:"category_id"`
}

// BulkSharedRequest sets the shared flag on many transactions.
type BulkSharedRequest struct {
	TransactionIDs []uint `json:"transaction_ids" binding:"required,min=1"`
	IsShared       *bool  `json:"is_shared" binding:"required"`
}

// BulkResponse reports how many rows a bulk operation changed.
type BulkResponse struct {
	Updated int64 `json:"updated"`
}

// ClassificationResponse is the outcome of classifying one transaction.
// category_id and rule_id are null when no rule matched.
type ClassificationResponse struct {
	CategoryID *uint `json:"category_id"`
	Shared     bool  `json:"shared"`
	RuleID     *uint `json:"rule_id"`
}

// ListTransactions handles the retrieval of transactions
// @Summary     List transactions
// @Description Paginated transactions in scope. Split parents are replaced by their parts.
// @Tags        transactions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       account_id            query int    false "Only this account"
// @Param       profile_id            query int    false "Only accounts owned by this profile"
// @Param       shared                query bool   false "Only shared transactions"
// @Param       start_date            query string false "From date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date              query string false "To date, inclusive (RFC3339 or YYYY-MM-DD)"
// @Param       category_id           query int    false "Category"
// @Param       include_subcategories query bool   false "Also match subcategories of category_id"
// @Param       search                query string false "Text in counterpart, purpose or notes"
// @Param       amount_type           query string false "income, expense or all"
// @Param       uncategorized         query bool   false "Only uncategorized transactions"
// @Param       sort_by               query string false "booking_date, amount or counterpart_name"
// @Param       sort_order            query string false "asc or desc (default desc)"
// @Param       page                  query int    false "Page number (default 1)"
// @Param       per_page              query int    false "Items per page (default 50, max 200)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	sel, err := bindScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var q ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.TransactionFilter{
		CategoryID:           q.CategoryID,
		IncludeSubcategories: q.IncludeSubcategories,
		Search:               q.Search,
		AmountType:           q.AmountType,
		UncategorizedOnly:    q.UncategorizedOnly,
	}
	if filter.StartDate, err = parseDateQuery(c, "start_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.EndDate, err = parseDateQuery(c, "end_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.EndDate != nil {
		end := endOfDay(*filter.EndDate)
		filter.EndDate = &end
	}

	result, err := h.transactionService.ListTransactions(sel, filter, services.SortOptions{By: q.SortBy, Order: q.SortOrder}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction with its split parts"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.GetTransaction(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// UpdateTransaction changes category, notes, tags or the shared flag
// @Summary     Update transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Changed fields"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tx, err := h.transactionService.UpdateTransaction(id, services.TransactionUpdate{
		CategoryID: req.CategoryID,
		Notes:      req.Notes,
		Tags:       req.Tags,
		IsShared:   req.IsShared,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete transaction
// @Description Deleting a split parent deletes its parts; deleting a part dissolves the split.
// @Tags        transactions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// CreateManualTransaction books a hand-entered transaction on the cash account
// @Summary     Create manual transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateManualTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/manual [post]
func (h *TransactionHandler) CreateManualTransaction(c *gin.Context) {
	var req CreateManualTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	booked := time.Now()
	if req.BookingDate != "" {
		parsed, parseErr := parseFlexibleTime(req.BookingDate)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		booked = parsed
	}

	tx, err := h.transactionService.CreateManualTransaction(services.ManualTransactionInput{
		BookingDate: booked,
		Amount:      req.Amount,
		Description: req.Description,
		Currency:    req.Currency,
		CategoryID:  req.CategoryID,
		IsShared:    req.IsShared,
		Notes:       req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// SplitTransaction splits a transaction into categorised parts
// @Summary     Split transaction
// @Description Parts must share the sign of the transaction and add up to its amount.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Transaction ID"
// @Param       request body SplitTransactionRequest true "Parts"
// @Success     201 {object} split.Outcome "Parent and part IDs"
// @Failure     400 {object} ErrorResponse "Invalid split"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Already split"
// @Router      /transactions/{id}/split [post]
func (h *TransactionHandler) SplitTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SplitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	parts := make([]split.Part, len(req.Parts))
	for i, p := range req.Parts {
		parts[i] = split.Part{Amount: p.Amount, CategoryID: p.CategoryID, Notes: p.Notes}
	}

	outcome, err := h.transactionService.SplitTransaction(id, parts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, outcome)
}

// ClassifyTransaction runs the rules against one transaction
// @Summary     Classify transaction
// @Tags        transactions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} ClassificationResponse "Matching rule, if any"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/classify [post]
func (h *TransactionHandler) ClassifyTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ClassifyTransaction(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var resp ClassificationResponse
	if result != nil {
		resp = ClassificationResponse{CategoryID: &result.CategoryID, Shared: result.Shared, RuleID: &result.RuleID}
	}
	c.JSON(http.StatusOK, resp)
}

// BulkCategorize assigns one category to many transactions
// @Summary     Bulk categorize
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body BulkCategorizeRequest true "Transactions and category"
// @Success     200 {object} BulkResponse "Rows updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /transactions/bulk-categorize [post]
func (h *TransactionHandler) BulkCategorize(c *gin.Context) {
	var req BulkCategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var categoryID uint
	if req.CategoryID != nil {
		categoryID = *req.CategoryID
	}
	updated, err := h.transactionService.BulkCategorize(req.TransactionIDs, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BulkResponse{Updated: updated})
}

// BulkSetShared sets the shared flag on many transactions
// @Summary     Bulk shared
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body BulkSharedRequest true "Transactions and flag"
// @Success     200 {object} BulkResponse "Rows updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/bulk-shared [post]
func (h *TransactionHandler) BulkSetShared(c *gin.Context) {
	var req BulkSharedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	updated, err := h.transactionService.BulkSetShared(req.TransactionIDs, *req.IsShared)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BulkResponse{Updated: updated})
}

// endOfDay widens a plain date to its last instant so the bound is inclusive.
func endOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t
}
