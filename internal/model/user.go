package model

import (
	"errors"
	"time"
)

// UserModel is the approver directory entry for a tenant. The identity
// provider remains the source of truth; this table backs approver
// selection and the seeder.
type UserModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	TenantID  string    `gorm:"type:varchar(64);not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);not null;index"`
	Role      string    `gorm:"type:varchar(32);not null;index"` // admin/qualite/employe
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (UserModel) TableName() string {
	return "users"
}

// Validate validates the user model.
func (um *UserModel) Validate() error {
	if um.ID == "" {
		return errors.New("user ID is required")
	}
	if um.TenantID == "" {
		return errors.New("tenant ID is required")
	}
	if um.Name == "" {
		return errors.New("user name is required")
	}
	if um.Role == "" {
		return errors.New("user role is required")
	}
	return nil
}
