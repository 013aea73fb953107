// Package userdir provides the user registry: identities observed on the
// platform, kept so @username references can be resolved to ids.
package userdir

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/N3minator/TG-BOT/internal/db/models"
)

var (
	// ErrUserNotFound is returned when a user cannot be resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameEmpty is returned when looking up an empty username.
	ErrUsernameEmpty = errors.New("username cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Store wraps user registry access.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a user directory store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Upsert records or refreshes an observed identity. The username is
// lowercased so lookups are case-insensitive.
func (s *Store) Upsert(u *models.User) error {
	if s.DB == nil {
		return ErrDBNil
	}
	if u == nil || u.ID == 0 {
		return ErrUserNotFound
	}

	u.Username = strings.ToLower(u.Username)

	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "first_name", "last_name", "is_bot", "updated_at",
		}),
	}).Create(u).Error
}

// IDByUsername resolves a username (without the leading '@') to a user id.
func (s *Store) IDByUsername(username string) (int64, error) {
	if s.DB == nil {
		return 0, ErrDBNil
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return 0, ErrUsernameEmpty
	}

	var u models.User
	result := s.DB.Where("username = ?", username).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, result.Error
	}

	return u.ID, nil
}

// Get retrieves a registry entry by user id.
func (s *Store) Get(id int64) (*models.User, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}

	var u models.User
	result := s.DB.First(&u, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &u, nil
}
