package models

import "time"

// UnprivilegedLevel is the effective level of a user who holds no role in
// a group. Every real role (level 1..999) outranks it.
const UnprivilegedLevel = 100

// Role represents a custom moderation role scoped to a single group chat.
// Roles carry a numeric privilege level where a lower number means higher
// privilege (level 1 outranks level 99, like a rank ladder).
type Role struct {
	// GroupID is the chat the role belongs to.
	GroupID int64 `gorm:"primaryKey;autoIncrement:false"`
	// Name is the title-cased role name, unique within the group.
	Name string `gorm:"primaryKey;size:32"`
	// CreatedBy is the user id of the actor that created the role.
	CreatedBy int64 `gorm:"not null"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// Level is the privilege rank in [1, 999]; lower = more privileged.
	Level int `gorm:"not null;default:99"`
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}
