package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=100"`
	ParentID      *uint            `json:"parent_id"`
	Color         string           `json:"color" binding:"omitempty,hex_color"`
	Icon          string           `json:"icon" binding:"max=50"`
	BudgetMonthly *decimal.Decimal `json:"budget_monthly"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// A parent_id of 0 moves the category to the top level.
type UpdateCategoryRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=100"`
	ParentID      *uint            `json:"parent_id"`
	Color         *string          `json:"color" binding:"omitempty,hex_color"`
	Icon          *string          `json:"icon" binding:"omitempty,max=50"`
	BudgetMonthly *decimal.Decimal `json:"budget_monthly"`
	ClearBudget   bool             `json:"clear_budget"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a top-level category or a subcategory of a top-level category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input or parent"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(services.CategoryInput{
		Name:          req.Name,
		ParentID:      req.ParentID,
		Color:         req.Color,
		Icon:          req.Icon,
		BudgetMonthly: req.BudgetMonthly,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListCategories returns the category tree, or the flattened list with flat=true
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Security    ApiKeyAuth
// @Param       flat query bool false "Return a flat pre-order list with full paths"
// @Success     200 {object} map[string]interface{} "Categories"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	if flat, _ := strconv.ParseBool(c.Query("flat")); flat {
		categories, err := h.categoryService.ListFlat()
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
		return
	}

	tree, err := h.categoryService.ListTree()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

// InitDefaults seeds the default taxonomy into an empty category table
// @Summary     Seed default categories
// @Tags        categories
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]int "Number of categories created"
// @Router      /categories/init-defaults [post]
func (h *CategoryHandler) InitDefaults(c *gin.Context) {
	created, err := h.categoryService.InitDefaults()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

// GetCategory handles the retrieval of a specific category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategory(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Category ID"
// @Param       request body UpdateCategoryRequest true "Changed fields"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input or parent"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(id, services.CategoryUpdate{
		Name:          req.Name,
		ParentID:      req.ParentID,
		Color:         req.Color,
		Icon:          req.Icon,
		BudgetMonthly: req.BudgetMonthly,
		ClearBudget:   req.ClearBudget,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete category
// @Description Delete a category. When transactions or rules still reference it, reassign_to is
// @Description required: a category ID, or "none" to leave transactions uncategorized.
// @Tags        categories
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id          path  int    true  "Category ID"
// @Param       reassign_to query string false "Target category ID or none"
// @Success     200 {object} services.DeleteCategoryResult "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category in use or has subcategories"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	reassign, err := parseReassignment(c.Query("reassign_to"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.categoryService.DeleteCategory(id, reassign)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseReassignment reads reassign_to: empty means no reassignment was given,
// "none" means uncategorized, anything else must be a category ID.
func parseReassignment(v string) (*services.Reassignment, error) {
	switch v {
	case "":
		return nil, nil
	case "none", "null":
		return &services.Reassignment{}, nil
	}
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil || id == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reassign_to must be a category ID or none")
	}
	to := uint(id)
	return &services.Reassignment{To: &to}, nil
}
