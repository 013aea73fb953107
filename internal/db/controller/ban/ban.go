// Package ban provides storage for timed group bans.
package ban

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/N3minator/TG-BOT/internal/db/models"
)

const (
	groupTargetQueryPattern = "group_id = ? AND target_user_id = ?"
)

var (
	// ErrBanNotFound is returned when no ban record exists for the pair.
	ErrBanNotFound = errors.New("ban not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Store wraps ban table access.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a ban store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Save upserts a ban record. A new ban for the same (group, target)
// replaces the previous one, so at most one row exists per pair.
func (s *Store) Save(b *models.Ban) error {
	if s.DB == nil {
		return ErrDBNil
	}

	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "target_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"admin_id", "admin_username", "target_username",
			"reason", "duration", "expires_at", "lifted",
		}),
	}).Create(b).Error
}

// Get retrieves the ban record for a (group, target) pair.
func (s *Store) Get(groupID, targetUserID int64) (*models.Ban, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}

	var b models.Ban
	result := s.DB.Where(groupTargetQueryPattern, groupID, targetUserID).First(&b)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBanNotFound
		}
		return nil, result.Error
	}

	return &b, nil
}

// Expired retrieves all bans whose expiry has passed and that were not
// lifted yet.
func (s *Store) Expired(now time.Time) ([]models.Ban, error) {
	if s.DB == nil {
		return nil, ErrDBNil
	}

	var bans []models.Ban
	result := s.DB.Where("lifted = ? AND expires_at <= ?", false, now).Find(&bans)
	if result.Error != nil {
		return nil, result.Error
	}

	return bans, nil
}

// MarkLifted flags a ban record as lifted after the platform restriction
// was removed.
func (s *Store) MarkLifted(groupID, targetUserID int64) error {
	if s.DB == nil {
		return ErrDBNil
	}

	result := s.DB.Model(&models.Ban{}).
		Where(groupTargetQueryPattern, groupID, targetUserID).
		Update("lifted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBanNotFound
	}

	return nil
}
