// Package rbac implements the access control core of the bot: custom
// roles with numeric privilege levels, per-role command permissions and
// the comparison rules deciding whether one actor may act on another.
//
// Levels are ranks: lower number means higher privilege, and every
// cross-cutting rule is a strict comparison — an actor must outrank
// (be numerically below) whatever they touch. The group owner is an
// external fact supplied live by the platform and outranks everything.
package rbac

import (
	"github.com/N3minator/TG-BOT/internal/db/models"
)

// Actor is the identity attempting an action. IsOwner must be the live
// platform membership status, never a cached value.
type Actor struct {
	UserID  int64
	IsOwner bool
}

// Target is what the action is aimed at: a role, a user, or both
// (grant/revoke name a role and a user). NewLevel carries the proposed
// level for create-role and set-role-level.
type Target struct {
	Role        string
	UserID      int64
	UserIsOwner bool
	NewLevel    int
}

// Decision is the evaluator verdict. Reason is set only on deny.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow builds an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a denying decision with the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// RoleSource is the role lookup the evaluator depends on.
type RoleSource interface {
	Get(groupID int64, name string) (*models.Role, error)
}

// PermissionSource is the permission lookup the evaluator depends on.
type PermissionSource interface {
	Has(groupID int64, role, command string) (bool, error)
}

// MembershipSource is the assignment lookup the evaluator depends on.
type MembershipSource interface {
	UserRoles(groupID, userID int64) ([]string, error)
	HasRole(groupID, userID int64, role string) (bool, error)
	EffectiveLevel(groupID, userID int64) (int, error)
}

// Evaluator is the pure decision logic. It only reads; callers are
// responsible for validating shapes (e.g. that a named role exists)
// before calling, and for acting on the decision afterwards.
type Evaluator struct {
	Roles   RoleSource
	Perms   PermissionSource
	Members MembershipSource
}

// NewEvaluator wires an evaluator over the given sources.
func NewEvaluator(roles RoleSource, perms PermissionSource, members MembershipSource) *Evaluator {
	return &Evaluator{Roles: roles, Perms: perms, Members: members}
}

// Evaluate decides whether the actor may perform the action on the
// target. The returned error is a storage failure only; every policy
// outcome is expressed in the Decision.
func (e *Evaluator) Evaluate(groupID int64, actor Actor, action Action, target Target) (Decision, error) {
	// A group has exactly one owner; nobody bans the owner, not even
	// another identity with owner privileges.
	if action == ActionBan && target.UserIsOwner {
		return Deny(DenyBanOwner), nil
	}

	// The owner bypasses every remaining check for every action.
	if actor.IsOwner {
		return Allow(), nil
	}

	if action.Public() {
		return Allow(), nil
	}

	command := action.Command()
	if command == "" {
		// Ungated command, open to everyone.
		return Allow(), nil
	}

	held, err := e.Members.UserRoles(groupID, actor.UserID)
	if err != nil {
		return Decision{}, err
	}

	allowed := false
	for _, r := range held {
		ok, err := e.Perms.Has(groupID, r, command)
		if err != nil {
			return Decision{}, err
		}
		if ok {
			allowed = true
			break
		}
	}

	if !allowed {
		return Deny(DenyNoAccess), nil
	}

	// Nobody edits or deletes a role they hold themselves.
	if action.selfGuarded() && target.Role != "" {
		own, err := e.Members.HasRole(groupID, actor.UserID, target.Role)
		if err != nil {
			return Decision{}, err
		}
		if own {
			return Deny(DenyOwnRole), nil
		}
	}

	actorLevel, err := e.Members.EffectiveLevel(groupID, actor.UserID)
	if err != nil {
		return Decision{}, err
	}

	if action == ActionCreateRole {
		// A new role must be strictly less privileged than its creator.
		if target.NewLevel <= actorLevel {
			return Deny(DenyLevelTooHigh), nil
		}

		return Allow(), nil
	}

	// Rank is checked before any membership detail: an actor who does
	// not outrank the role learns nothing about who holds it.
	if action.targetsRole() {
		r, err := e.Roles.Get(groupID, target.Role)
		if err != nil {
			return Decision{}, err
		}
		if actorLevel >= r.Level {
			return Deny(DenyInsufficientLevel), nil
		}
	}

	if action == ActionGrantRole || action == ActionRevokeRole {
		has, err := e.Members.HasRole(groupID, target.UserID, target.Role)
		if err != nil {
			return Decision{}, err
		}
		if action == ActionGrantRole && has {
			return Deny(DenyAlreadyHasRole), nil
		}
		if action == ActionRevokeRole && !has {
			return Deny(DenyDoesNotHaveRole), nil
		}
	}

	if action == ActionSetRoleLevel && target.NewLevel <= actorLevel {
		// The new level must stay below the actor's own rank too.
		return Deny(DenyLevelTooHigh), nil
	}

	if action.targetsUser() {
		// Changing your own title only needs the permission.
		if action == ActionChangePrefix && target.UserID == actor.UserID {
			return Allow(), nil
		}

		targetLevel, err := e.Members.EffectiveLevel(groupID, target.UserID)
		if err != nil {
			return Decision{}, err
		}
		if actorLevel >= targetLevel {
			return Deny(DenyInsufficientLevel), nil
		}
	}

	return Allow(), nil
}
