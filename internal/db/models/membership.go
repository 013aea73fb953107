package models

// Membership assigns a role to a user within a group.
// A user may hold any number of roles in the same group; their effective
// level is the minimum level among them.
type Membership struct {
	// GroupID is the chat the assignment applies to.
	GroupID int64 `gorm:"primaryKey;autoIncrement:false"`
	// UserID is the user holding the role.
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
	// Role is the name of the held role.
	Role string `gorm:"primaryKey;size:32"`
}

// TableName specifies the database table name for the Membership model.
// This overrides GORM's default pluralized table naming.
func (Membership) TableName() string {
	return "memberships"
}
