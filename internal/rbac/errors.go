package rbac

import (
	"errors"
	"fmt"
)

var (
	// ErrRoleNotFound is returned when an operation references a role that does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrRoleAlreadyExists is returned when creating or renaming collides with an existing role.
	ErrRoleAlreadyExists = errors.New("role already exists")

	// ErrNameTooLong is returned when a role name exceeds MaxNameLength.
	ErrNameTooLong = errors.New("role name too long")

	// ErrNameEmpty is returned when a role name is empty after normalization.
	ErrNameEmpty = errors.New("role name cannot be empty")

	// ErrInvalidLevel is returned when a level is outside [MinLevel, MaxLevel].
	ErrInvalidLevel = errors.New("level out of range")

	// ErrAlreadyHasRole is returned on a duplicate grant that passed the
	// access check (owner bypass) and was caught at the lifecycle layer.
	ErrAlreadyHasRole = errors.New("user already has this role")

	// ErrDoesNotHaveRole is returned on revoking a role the user does not hold.
	ErrDoesNotHaveRole = errors.New("user does not have this role")
)

// DenyReason encodes why the evaluator denied an action.
type DenyReason string

const (
	// DenyNoAccess means none of the actor's roles holds the permission.
	DenyNoAccess DenyReason = "no-access"
	// DenyOwnRole means the actor tried to edit or delete a role they hold.
	DenyOwnRole DenyReason = "cannot-edit-own-role"
	// DenyInsufficientLevel means the actor does not outrank the target.
	DenyInsufficientLevel DenyReason = "insufficient-level"
	// DenyLevelTooHigh means a new level would be at least as privileged as the actor.
	DenyLevelTooHigh DenyReason = "level-too-high"
	// DenyAlreadyHasRole means the grant target already holds the role.
	DenyAlreadyHasRole DenyReason = "already-has-role"
	// DenyDoesNotHaveRole means the revoke target does not hold the role.
	DenyDoesNotHaveRole DenyReason = "does-not-have-role"
	// DenyBanOwner means the ban target is the group owner.
	DenyBanOwner DenyReason = "cannot-ban-owner"
)

// DeniedError is the error form of a deny decision, raised by the
// lifecycle manager when an operation fails its access check.
type DeniedError struct {
	Action Action
	Reason DenyReason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Action, e.Reason)
}

// Denied extracts the deny reason if err carries one.
func Denied(err error) (DenyReason, bool) {
	var de *DeniedError
	if errors.As(err, &de) {
		return de.Reason, true
	}

	return "", false
}
