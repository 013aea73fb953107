package models

// Permission marks that a role may invoke a command in a group.
// Presence of the row is the grant; there is no enabled flag.
type Permission struct {
	// GroupID is the chat the grant applies to.
	GroupID int64 `gorm:"primaryKey;autoIncrement:false"`
	// Role is the name of the role holding the grant.
	Role string `gorm:"primaryKey;size:32"`
	// Command is the user-facing command trigger (e.g. "!ban").
	Command string `gorm:"primaryKey;size:64"`
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}
