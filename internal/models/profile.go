package models

// DefaultProfileColor is used when a profile is created without a color.
const DefaultProfileColor = "#2563eb"

// Profile represents a household member. The admin profile is the default
// owner and cannot be deleted.
type Profile struct {
	Base
	Name    string `gorm:"uniqueIndex;not null" json:"name"`
	Color   string `gorm:"not null;default:'#2563eb'" json:"color"`
	IsAdmin bool   `gorm:"not null;default:false" json:"is_admin"`

	// Relationships
	Accounts []Account `gorm:"foreignKey:ProfileID" json:"accounts,omitempty"`
}
