package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccountRequest represents the request payload for creating an account
type CreateAccountRequest struct {
	Name        string             `json:"name" binding:"required,min=1,max=100"`
	IBAN        string             `json:"iban" binding:"required,min=4,max=42"`
	BIC         string             `json:"bic" binding:"max=11"`
	BankName    string             `json:"bank_name" binding:"max=100"`
	AccountType models.AccountType `json:"account_type" binding:"omitempty,account_type"`
	ProfileID   *uint              `json:"profile_id"`
}

// UpdateAccountRequest represents the request payload for updating an account.
// A profile_id of 0 unassigns the account.
type UpdateAccountRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=100"`
	BankName  *string `json:"bank_name" binding:"omitempty,max=100"`
	IsActive  *bool   `json:"is_active"`
	ProfileID *uint   `json:"profile_id"`
}

// ListAccountsQuery holds the query parameters of ListAccounts.
type ListAccountsQuery struct {
	IncludeInactive bool  `form:"include_inactive"`
	ProfileID       *uint `form:"profile_id"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Register a bank account by IBAN
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Failure     409 {object} ErrorResponse "Duplicate IBAN"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.CreateAccount(services.AccountInput{
		Name:        req.Name,
		IBAN:        req.IBAN,
		BIC:         req.BIC,
		BankName:    req.BankName,
		AccountType: req.AccountType,
		ProfileID:   req.ProfileID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// ListAccounts handles the retrieval of accounts
// @Summary     List accounts
// @Tags        accounts
// @Produce     json
// @Security    ApiKeyAuth
// @Param       include_inactive query bool false "Include deactivated accounts"
// @Param       profile_id       query int  false "Only accounts owned by this profile"
// @Success     200 {object} map[string][]models.Account "Accounts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var q ListAccountsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	accounts, err := h.accountService.ListAccounts(services.AccountFilter{
		IncludeInactive: q.IncludeInactive,
		ProfileID:       q.ProfileID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccountSummaries returns every active account with its activity figures
// @Summary     Account summaries
// @Tags        accounts
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string][]services.AccountSummary "Summaries"
// @Router      /accounts/summary [get]
func (h *AccountHandler) GetAccountSummaries(c *gin.Context) {
	summaries, err := h.accountService.GetAccountSummaries()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": summaries})
}

// GetAccount handles the retrieval of a specific account
// @Summary     Get account by ID
// @Tags        accounts
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Account ID"
// @Success     200 {object} models.Account "Account details"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccount(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount handles updating an account
// @Summary     Update account
// @Description Rename, (de)activate or reassign an account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Account ID"
// @Param       request body UpdateAccountRequest true "Changed fields"
// @Success     200 {object} models.Account "Updated account"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or profile not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.UpdateAccount(id, services.AccountUpdate{
		Name:      req.Name,
		BankName:  req.BankName,
		IsActive:  req.IsActive,
		ProfileID: req.ProfileID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}
