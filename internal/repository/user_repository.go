package repository

import (
	"github.com/qualisoftsn/workflow-api/internal/model"
	"gorm.io/gorm"
)

// UserRepository is the approver directory interface.
type UserRepository interface {
	Save(user *model.UserModel) error
	FindByID(tenantID, id string) (*model.UserModel, error)
	FindByTenant(tenantID string, role *string) ([]*model.UserModel, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save saves a user.
func (r *userRepository) Save(user *model.UserModel) error {
	return r.db.Save(user).Error
}

// FindByID finds a user by ID within a tenant.
func (r *userRepository) FindByID(tenantID, id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByTenant finds a tenant's users, optionally filtered by role,
// sorted by name.
func (r *userRepository) FindByTenant(tenantID string, role *string) ([]*model.UserModel, error) {
	query := r.db.Where("tenant_id = ?", tenantID)
	if role != nil {
		query = query.Where("role = ?", *role)
	}

	var users []*model.UserModel
	err := query.Order("name ASC").Find(&users).Error
	return users, err
}
