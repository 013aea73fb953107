// Package permission provides toggle-style storage for per-role command permissions.
package permission

import (
	"errors"

	"gorm.io/gorm"

	"github.com/N3minator/TG-BOT/internal/db/models"
)

const (
	groupRoleQueryPattern    = "group_id = ? AND role = ?"
	groupRoleCmdQueryPattern = "group_id = ? AND role = ? AND command = ?"
)

var (
	// ErrRoleNameEmpty is returned when attempting an operation with an empty role name.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrCommandEmpty is returned when attempting an operation with an empty command.
	ErrCommandEmpty = errors.New("command cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Store wraps permission table access.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a permission store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Has reports whether the role may invoke the command in the group.
func (s *Store) Has(groupID int64, role, command string) (bool, error) {
	if s.DB == nil {
		return false, ErrDBNil
	}
	if role == "" {
		return false, ErrRoleNameEmpty
	}
	if command == "" {
		return false, ErrCommandEmpty
	}

	var count int64
	result := s.DB.Model(&models.Permission{}).
		Where(groupRoleCmdQueryPattern, groupID, role, command).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// Toggle flips the presence of a permission row: insert when absent,
// delete when present. It returns the new state (true = granted).
// Run it on a transaction handle to make the read-then-write atomic.
func (s *Store) Toggle(groupID int64, role, command string) (bool, error) {
	if s.DB == nil {
		return false, ErrDBNil
	}
	if role == "" {
		return false, ErrRoleNameEmpty
	}
	if command == "" {
		return false, ErrCommandEmpty
	}

	var existing models.Permission
	result := s.DB.Where(groupRoleCmdQueryPattern, groupID, role, command).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		p := &models.Permission{GroupID: groupID, Role: role, Command: command}
		if err := s.DB.Create(p).Error; err != nil {
			return false, err
		}

		return true, nil
	}
	if result.Error != nil {
		return false, result.Error
	}

	if err := s.DB.Where(groupRoleCmdQueryPattern, groupID, role, command).
		Delete(&models.Permission{}).Error; err != nil {
		return false, err
	}

	return false, nil
}

// ListForRole retrieves all commands the role may invoke.
func (s *Store) ListForRole(groupID int64, role string) ([]string, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}
	if role == "" {
		return nil, ErrRoleNameEmpty
	}

	var commands []string
	result := s.DB.Model(&models.Permission{}).
		Where(groupRoleQueryPattern, groupID, role).
		Order("command asc").
		Pluck("command", &commands)
	if result.Error != nil {
		return nil, result.Error
	}

	return commands, nil
}

// DeleteForRole removes every permission of a role. Used by cascading
// role deletion; deleting zero rows is not an error.
func (s *Store) DeleteForRole(groupID int64, role string) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if role == "" {
		return ErrRoleNameEmpty
	}

	return s.DB.Where(groupRoleQueryPattern, groupID, role).Delete(&models.Permission{}).Error
}

// RenameRole repoints permission rows at a renamed role.
func (s *Store) RenameRole(groupID int64, oldName, newName string) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if oldName == "" || newName == "" {
		return ErrRoleNameEmpty
	}

	return s.DB.Model(&models.Permission{}).
		Where(groupRoleQueryPattern, groupID, oldName).
		Update("role", newName).Error
}

// DeleteOrphans removes permission rows whose role no longer exists.
// It returns the number of removed rows.
func (s *Store) DeleteOrphans() (int64, error) {
	if s.DB == nil {
		return 0, ErrDBNil
	}

	result := s.DB.Exec(`DELETE FROM permissions WHERE NOT EXISTS (
		SELECT 1 FROM roles
		WHERE roles.group_id = permissions.group_id AND roles.name = permissions.role
	)`)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
