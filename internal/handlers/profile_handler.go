package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/services"
)

// ProfileHandler handles household profile requests.
type ProfileHandler struct {
	profileService services.ProfileServicer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService services.ProfileServicer) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// CreateProfileRequest represents the request payload for creating a profile
type CreateProfileRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Color string `json:"color" binding:"omitempty,hex_color"`
}

// UpdateProfileRequest represents the request payload for updating a profile
type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=100"`
	Color *string `json:"color" binding:"omitempty,hex_color"`
}

// ListProfiles returns every profile, admin first.
// @Summary     List profiles
// @Tags        profiles
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string][]models.Profile "Profiles"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profiles [get]
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.profileService.ListProfiles()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// GetProfile returns one profile with its accounts.
// @Summary     Get profile
// @Tags        profiles
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Profile ID"
// @Success     200 {object} models.Profile "Profile"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Router      /profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	profile, err := h.profileService.GetProfile(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// CreateProfile creates a profile.
// @Summary     Create profile
// @Tags        profiles
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateProfileRequest true "Profile details"
// @Success     201 {object} models.Profile "Profile created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /profiles [post]
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	profile, err := h.profileService.CreateProfile(req.Name, req.Color)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile})
}

// UpdateProfile renames or recolours a profile.
// @Summary     Update profile
// @Tags        profiles
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Profile ID"
// @Param       request body UpdateProfileRequest true "Changed fields"
// @Success     200 {object} models.Profile "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Router      /profiles/{id} [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	profile, err := h.profileService.UpdateProfile(id, req.Name, req.Color)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// DeleteProfile deletes a profile; its accounts become unassigned.
// @Summary     Delete profile
// @Tags        profiles
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path int true "Profile ID"
// @Success     200 {object} MessageResponse "Profile deleted"
// @Failure     400 {object} ErrorResponse "Admin profile"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Router      /profiles/{id} [delete]
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.profileService.DeleteProfile(id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Profile deleted successfully"})
}
