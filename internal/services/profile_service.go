package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
)

// profileService handles household profiles.
type profileService struct {
	db *gorm.DB
}

// NewProfileService creates a new ProfileServicer.
func NewProfileService(db *gorm.DB) ProfileServicer {
	return &profileService{db: db}
}

// ListProfiles returns all profiles, admin first.
func (s *profileService) ListProfiles() ([]models.Profile, error) {
	var profiles []models.Profile
	if err := s.db.Order("is_admin DESC").Order("name ASC").Find(&profiles).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return profiles, nil
}

// GetProfile retrieves a profile by ID
func (s *profileService) GetProfile(id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &profile, nil
}

// CreateProfile creates a non-admin profile.
func (s *profileService) CreateProfile(name, color string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "profile name is required")
	}
	if color == "" {
		color = models.DefaultProfileColor
	}

	if err := s.ensureUniqueName(name, 0); err != nil {
		return nil, err
	}

	profile := &models.Profile{Name: name, Color: color}
	if err := s.db.Create(profile).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return profile, nil
}

// UpdateProfile changes the name and/or color of a profile.
func (s *profileService) UpdateProfile(id uint, name, color *string) (*models.Profile, error) {
	profile, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "profile name cannot be empty")
		}
		if err := s.ensureUniqueName(trimmed, id); err != nil {
			return nil, err
		}
		updates["name"] = trimmed
	}
	if color != nil && *color != "" {
		updates["color"] = *color
	}

	if len(updates) > 0 {
		if err := s.db.Model(profile).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetProfile(id)
}

// DeleteProfile deletes a profile and unassigns its accounts in one
// transaction. The admin profile cannot be deleted.
func (s *profileService) DeleteProfile(id uint) error {
	profile, err := s.GetProfile(id)
	if err != nil {
		return err
	}
	if profile.IsAdmin {
		return apperrors.ErrAdminProfileProtected
	}

	var unlinked int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).Where("profile_id = ?", id).Update("profile_id", nil)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		unlinked = res.RowsAffected
		if err := tx.Delete(&models.Profile{}, id).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("profile deleted", "profile_id", id, "unlinked_accounts", unlinked)
	return nil
}

func (s *profileService) ensureUniqueName(name string, excludeID uint) error {
	var count int64
	if err := s.db.Model(&models.Profile{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, excludeID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateProfile
	}
	return nil
}
