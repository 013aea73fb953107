// Package models contains database model definitions.
package models

import "time"

// User is a registry entry for an identity observed on the chat platform.
// Rows are upserted opportunistically whenever a user writes or joins, so
// @username references can be resolved to ids later. The registry is best
// effort: a user that was never observed cannot be resolved by name.
type User struct {
	// ID is the platform user id.
	ID int64 `gorm:"primaryKey;autoIncrement:false"`
	// Username is the handle without the leading '@', stored lowercased.
	Username string `gorm:"size:100;index"`
	// FirstName is the user's first name as last observed.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last name as last observed.
	LastName string `gorm:"size:100"`
	// IsBot marks bot accounts.
	IsBot bool
	// UpdatedAt is the timestamp of the last observation (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
// This overrides GORM's default pluralized table naming.
func (User) TableName() string {
	return "users"
}
