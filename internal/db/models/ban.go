package models

import "time"

// Ban records a timed group ban. At most one row exists per
// (group, target) pair; issuing a new ban overwrites the old record.
// The platform-level restriction is lifted by the background sweeper
// once ExpiresAt has passed; the row itself stays for the audit trail.
type Ban struct {
	// GroupID is the chat the ban applies to.
	GroupID int64 `gorm:"primaryKey;autoIncrement:false"`
	// TargetUserID is the banned user.
	TargetUserID int64 `gorm:"primaryKey;autoIncrement:false"`
	// AdminID is the actor that issued the ban.
	AdminID int64 `gorm:"not null"`
	// AdminUsername is the issuing actor's username at ban time.
	AdminUsername string `gorm:"size:100"`
	// TargetUsername is the banned user's username at ban time.
	TargetUsername string `gorm:"size:100"`
	// Reason is the free-text ban reason ("no reason" if omitted).
	Reason string `gorm:"size:255"`
	// Duration is the human-readable duration (e.g. "7 days 3 hours").
	Duration string `gorm:"size:64"`
	// ExpiresAt is when the platform restriction should be lifted.
	ExpiresAt time.Time `gorm:"not null"`
	// Lifted is set once the sweeper has unbanned the user.
	Lifted bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the ban was issued (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Ban model.
// This overrides GORM's default pluralized table naming.
func (Ban) TableName() string {
	return "bans"
}
