package rbac

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/N3minator/TG-BOT/internal/db/controller/membership"
	"github.com/N3minator/TG-BOT/internal/db/controller/permission"
	"github.com/N3minator/TG-BOT/internal/db/controller/role"
	"github.com/N3minator/TG-BOT/internal/db/models"
)

const (
	// MaxNameLength is the longest a role name may be after normalization.
	MaxNameLength = 32
	// MinLevel is the most privileged level a custom role may have.
	MinLevel = 1
	// MaxLevel is the least privileged level a custom role may have.
	MaxLevel = 999
)

var titleCaser = cases.Title(language.English)

// NormalizeName trims and title-cases a role name so that lookups are
// insensitive to the casing the user typed.
func NormalizeName(name string) (string, error) {
	name = titleCaser.String(strings.TrimSpace(name))
	if name == "" {
		return "", ErrNameEmpty
	}
	// Characters, not bytes: multibyte names must get the same budget.
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}

	return name, nil
}

// Manager orchestrates role lifecycle operations. Every mutator runs the
// access evaluator first and fails fast with a DeniedError; multi-table
// mutations (rename, delete) run inside a transaction so a failure
// leaves no partial state.
type Manager struct {
	db      *gorm.DB
	eval    *Evaluator
	roles   *role.Store
	perms   *permission.Store
	members *membership.Store
}

// NewManager wires a manager and its evaluator over the given database.
func NewManager(db *gorm.DB) *Manager {
	roles := role.NewStore(db)
	perms := permission.NewStore(db)
	members := membership.NewStore(db)

	return &Manager{
		db:      db,
		eval:    NewEvaluator(roles, perms, members),
		roles:   roles,
		perms:   perms,
		members: members,
	}
}

// Access exposes the evaluator for checks that do not mutate anything
// (command gating, ban, prefix).
func (m *Manager) Access() *Evaluator {
	return m.eval
}

// Roles exposes the role store for read-only listings.
func (m *Manager) Roles() *role.Store {
	return m.roles
}

// Members exposes the membership store for read-only listings.
func (m *Manager) Members() *membership.Store {
	return m.members
}

// Perms exposes the permission store for read-only listings.
func (m *Manager) Perms() *permission.Store {
	return m.perms
}

// Role resolves a user-typed role name (normalized first) to its record.
func (m *Manager) Role(groupID int64, name string) (*models.Role, error) {
	return m.resolveRole(groupID, name)
}

func (m *Manager) check(groupID int64, actor Actor, action Action, target Target) error {
	decision, err := m.eval.Evaluate(groupID, actor, action, target)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &DeniedError{Action: action, Reason: decision.Reason}
	}

	return nil
}

// resolveRole normalizes the name and loads the role, mapping the store
// sentinel onto the package one.
func (m *Manager) resolveRole(groupID int64, name string) (*models.Role, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	r, err := m.roles.Get(groupID, name)
	if err != nil {
		if errors.Is(err, role.ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, err
	}

	return r, nil
}

// CreateRole creates a new custom role. The name is title-cased and must
// be unique within the group; the level must sit inside [MinLevel,
// MaxLevel] and, for non-owners, be strictly less privileged than the
// actor's own effective level.
func (m *Manager) CreateRole(groupID int64, actor Actor, name string, level int) (*models.Role, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if level < MinLevel || level > MaxLevel {
		return nil, ErrInvalidLevel
	}

	if err := m.check(groupID, actor, ActionCreateRole, Target{Role: name, NewLevel: level}); err != nil {
		return nil, err
	}

	r, err := m.roles.Create(groupID, name, actor.UserID, level)
	if err != nil {
		if errors.Is(err, role.ErrRoleAlreadyExists) {
			return nil, ErrRoleAlreadyExists
		}

		return nil, err
	}

	return r, nil
}

// RenameRole renames a role and repoints every membership and permission
// row at the new name, all inside one transaction.
func (m *Manager) RenameRole(groupID int64, actor Actor, oldName, newName string) error {
	old, err := m.resolveRole(groupID, oldName)
	if err != nil {
		return err
	}

	newName, err = NormalizeName(newName)
	if err != nil {
		return err
	}

	if newName != old.Name {
		exists, err := m.roles.Exists(groupID, newName)
		if err != nil {
			return err
		}
		if exists {
			return ErrRoleAlreadyExists
		}
	}

	if err := m.check(groupID, actor, ActionRenameRole, Target{Role: old.Name}); err != nil {
		return err
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := role.NewStore(tx).Rename(groupID, old.Name, newName); err != nil {
			return err
		}
		if err := membership.NewStore(tx).RenameRole(groupID, old.Name, newName); err != nil {
			return err
		}

		return permission.NewStore(tx).RenameRole(groupID, old.Name, newName)
	})
}

// SetLevel changes a role's privilege level.
func (m *Manager) SetLevel(groupID int64, actor Actor, name string, level int) error {
	if level < MinLevel || level > MaxLevel {
		return ErrInvalidLevel
	}

	r, err := m.resolveRole(groupID, name)
	if err != nil {
		return err
	}

	if err := m.check(groupID, actor, ActionSetRoleLevel, Target{Role: r.Name, NewLevel: level}); err != nil {
		return err
	}

	return m.roles.UpdateLevel(groupID, r.Name, level)
}

// DeleteRole removes a role together with all of its assignments and
// permissions in one transaction.
func (m *Manager) DeleteRole(groupID int64, actor Actor, name string) error {
	r, err := m.resolveRole(groupID, name)
	if err != nil {
		return err
	}

	if err := m.check(groupID, actor, ActionDeleteRole, Target{Role: r.Name}); err != nil {
		return err
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := role.NewStore(tx).Delete(groupID, r.Name); err != nil {
			return err
		}
		if err := membership.NewStore(tx).DeleteForRole(groupID, r.Name); err != nil {
			return err
		}

		return permission.NewStore(tx).DeleteForRole(groupID, r.Name)
	})
}

// Grant assigns a role to a user. The evaluator already rejects
// duplicate grants for regular actors; the owner bypasses it, so the
// duplicate is re-checked here to keep the outcome consistent.
func (m *Manager) Grant(groupID int64, actor Actor, targetUserID int64, name string) error {
	r, err := m.resolveRole(groupID, name)
	if err != nil {
		return err
	}

	if err := m.check(groupID, actor, ActionGrantRole, Target{Role: r.Name, UserID: targetUserID}); err != nil {
		return err
	}

	has, err := m.members.HasRole(groupID, targetUserID, r.Name)
	if err != nil {
		return err
	}
	if has {
		return ErrAlreadyHasRole
	}

	return m.members.Grant(groupID, targetUserID, r.Name)
}

// Revoke removes a role from a user. Like Grant, the missing-role case
// is re-checked after the access decision for the owner path.
func (m *Manager) Revoke(groupID int64, actor Actor, targetUserID int64, name string) error {
	r, err := m.resolveRole(groupID, name)
	if err != nil {
		return err
	}

	if err := m.check(groupID, actor, ActionRevokeRole, Target{Role: r.Name, UserID: targetUserID}); err != nil {
		return err
	}

	if err := m.members.Revoke(groupID, targetUserID, r.Name); err != nil {
		if errors.Is(err, membership.ErrMembershipNotFound) {
			return ErrDoesNotHaveRole
		}

		return err
	}

	return nil
}

// TogglePermission flips a command permission on a role and returns the
// new state. The read-then-write runs inside a transaction.
func (m *Manager) TogglePermission(groupID int64, actor Actor, name, command string) (bool, error) {
	r, err := m.resolveRole(groupID, name)
	if err != nil {
		return false, err
	}

	if err := m.check(groupID, actor, ActionTogglePermission, Target{Role: r.Name}); err != nil {
		return false, err
	}

	var granted bool
	err = m.db.Transaction(func(tx *gorm.DB) error {
		var err error
		granted, err = permission.NewStore(tx).Toggle(groupID, r.Name, command)

		return err
	})

	return granted, err
}
