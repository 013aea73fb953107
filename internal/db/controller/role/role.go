// Package role provides CRUD operations for group-scoped custom roles.
package role

import (
	"errors"

	"gorm.io/gorm"

	"github.com/N3minator/TG-BOT/internal/db/models"
)

const (
	groupNameQueryPattern = "group_id = ? AND name = ?"
)

var (
	// ErrRoleNotFound is returned when a role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleNameEmpty is returned when attempting an operation with an empty role name.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrRoleAlreadyExists is returned when attempting to create a role that already exists.
	ErrRoleAlreadyExists = errors.New("role already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Store wraps role table access. Hand it a transaction handle to make
// its operations part of that transaction.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a role store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Get retrieves a role by group and name.
func (s *Store) Get(groupID int64, name string) (*models.Role, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	var r models.Role
	result := s.DB.Where(groupNameQueryPattern, groupID, name).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// Exists reports whether a role exists in the group.
func (s *Store) Exists(groupID int64, name string) (bool, error) {
	if s.DB == nil {
		return false, ErrDBNil
	}
	if name == "" {
		return false, ErrRoleNameEmpty
	}

	var count int64
	result := s.DB.Model(&models.Role{}).Where(groupNameQueryPattern, groupID, name).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// List retrieves all roles of a group ordered by level (most privileged first).
func (s *Store) List(groupID int64) ([]models.Role, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	result := s.DB.Where("group_id = ?", groupID).Order("level asc, name asc").Find(&roles)
	if result.Error != nil {
		return nil, result.Error
	}

	return roles, nil
}

// Create inserts a new role. The name is stored as given; normalization
// is the caller's concern.
func (s *Store) Create(groupID int64, name string, createdBy int64, level int) (*models.Role, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	// Check if the role already exists
	var existing models.Role
	result := s.DB.Where(groupNameQueryPattern, groupID, name).First(&existing)
	if result.Error == nil {
		return nil, ErrRoleAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	r := &models.Role{
		GroupID:   groupID,
		Name:      name,
		CreatedBy: createdBy,
		Level:     level,
	}

	result = s.DB.Create(r)
	if result.Error != nil {
		return nil, result.Error
	}

	return r, nil
}

// UpdateLevel sets a new privilege level on an existing role.
func (s *Store) UpdateLevel(groupID int64, name string, level int) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if name == "" {
		return ErrRoleNameEmpty
	}

	result := s.DB.Model(&models.Role{}).
		Where(groupNameQueryPattern, groupID, name).
		Update("level", level)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// Rename changes the role name in the role table only. Callers renaming a
// role must also rename the membership and permission references inside
// the same transaction.
func (s *Store) Rename(groupID int64, oldName, newName string) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if oldName == "" || newName == "" {
		return ErrRoleNameEmpty
	}

	result := s.DB.Model(&models.Role{}).
		Where(groupNameQueryPattern, groupID, oldName).
		Update("name", newName)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// Delete removes a role row. Cascading removal of memberships and
// permissions is handled by the lifecycle manager transaction.
func (s *Store) Delete(groupID int64, name string) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if name == "" {
		return ErrRoleNameEmpty
	}

	result := s.DB.Where(groupNameQueryPattern, groupID, name).Delete(&models.Role{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}
