// Package membership provides storage for role assignments and the
// effective level derivation.
package membership

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/N3minator/TG-BOT/internal/db/models"
)

const (
	groupUserQueryPattern     = "group_id = ? AND user_id = ?"
	groupUserRoleQueryPattern = "group_id = ? AND user_id = ? AND role = ?"
	groupRoleQueryPattern     = "group_id = ? AND role = ?"
)

var (
	// ErrMembershipNotFound is returned when revoking a role the user does not hold.
	ErrMembershipNotFound = errors.New("membership not found")
	// ErrRoleNameEmpty is returned when attempting an operation with an empty role name.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Store wraps membership table access.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a membership store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Grant assigns a role to a user. Granting an already held role is a
// storage-level no-op (the access evaluator rejects duplicates earlier).
func (s *Store) Grant(groupID, userID int64, role string) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if role == "" {
		return ErrRoleNameEmpty
	}

	m := &models.Membership{GroupID: groupID, UserID: userID, Role: role}

	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
}

// Revoke removes a role assignment from a user.
func (s *Store) Revoke(groupID, userID int64, role string) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if role == "" {
		return ErrRoleNameEmpty
	}

	result := s.DB.Where(groupUserRoleQueryPattern, groupID, userID, role).
		Delete(&models.Membership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}

	return nil
}

// HasRole reports whether the user holds the role in the group.
func (s *Store) HasRole(groupID, userID int64, role string) (bool, error) {
	if s.DB == nil {
		return false, ErrDBNil
	}
	if role == "" {
		return false, ErrRoleNameEmpty
	}

	var count int64
	result := s.DB.Model(&models.Membership{}).
		Where(groupUserRoleQueryPattern, groupID, userID, role).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// UserRoles retrieves the names of all roles the user holds in the group.
func (s *Store) UserRoles(groupID, userID int64) ([]string, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}

	var roles []string
	result := s.DB.Model(&models.Membership{}).
		Where(groupUserQueryPattern, groupID, userID).
		Order("role asc").
		Pluck("role", &roles)
	if result.Error != nil {
		return nil, result.Error
	}

	return roles, nil
}

// RoleMembers retrieves the ids of all users holding the role in the group.
func (s *Store) RoleMembers(groupID int64, role string) ([]int64, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}
	if role == "" {
		return nil, ErrRoleNameEmpty
	}

	var users []int64
	result := s.DB.Model(&models.Membership{}).
		Where(groupRoleQueryPattern, groupID, role).
		Order("user_id asc").
		Pluck("user_id", &users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// GroupAssignments retrieves every (user, role) assignment of a group.
func (s *Store) GroupAssignments(groupID int64) ([]models.Membership, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}

	var assignments []models.Membership
	result := s.DB.Where("group_id = ?", groupID).
		Order("role asc, user_id asc").
		Find(&assignments)
	if result.Error != nil {
		return nil, result.Error
	}

	return assignments, nil
}

// EffectiveLevel derives the user's privilege level in the group: the
// minimum level among all held roles, or models.UnprivilegedLevel when
// the user holds none. Lower numeric level means higher privilege.
func (s *Store) EffectiveLevel(groupID, userID int64) (int, error) {
	if s.DB == nil {
		return 0, ErrDBNil
	}

	var level sql.NullInt64
	result := s.DB.Model(&models.Membership{}).
		Select("MIN(roles.level)").
		Joins("JOIN roles ON roles.group_id = memberships.group_id AND roles.name = memberships.role").
		Where("memberships.group_id = ? AND memberships.user_id = ?", groupID, userID).
		Scan(&level)
	if result.Error != nil {
		return 0, result.Error
	}

	if !level.Valid {
		return models.UnprivilegedLevel, nil
	}

	return int(level.Int64), nil
}

// DeleteForRole removes every assignment of a role. Used by cascading
// role deletion; deleting zero rows is not an error.
func (s *Store) DeleteForRole(groupID int64, role string) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if role == "" {
		return ErrRoleNameEmpty
	}

	return s.DB.Where(groupRoleQueryPattern, groupID, role).Delete(&models.Membership{}).Error
}

// RenameRole repoints assignments at a renamed role.
func (s *Store) RenameRole(groupID int64, oldName, newName string) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if oldName == "" || newName == "" {
		return ErrRoleNameEmpty
	}

	return s.DB.Model(&models.Membership{}).
		Where(groupRoleQueryPattern, groupID, oldName).
		Update("role", newName).Error
}

// DeleteOrphans removes assignments whose role no longer exists (a grant
// that raced a role deletion). It returns the number of removed rows.
func (s *Store) DeleteOrphans() (int64, error) {
	if s.DB == nil {
		return 0, ErrDBNil
	}

	result := s.DB.Exec(`DELETE FROM memberships WHERE NOT EXISTS (
		SELECT 1 FROM roles
		WHERE roles.group_id = memberships.group_id AND roles.name = memberships.role
	)`)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
