package rbac

// Action identifies an operation that can be checked against the access
// rules. Internally everything is this tagged enum; the user-facing
// command strings exist only at the chat boundary via Command().
type Action int

const (
	// ActionInvokeCommand is a generic gated command invocation.
	ActionInvokeCommand Action = iota
	// ActionCreateRole creates a new custom role.
	ActionCreateRole
	// ActionEditRole opens a role for editing.
	ActionEditRole
	// ActionRenameRole renames a role.
	ActionRenameRole
	// ActionSetRoleLevel changes a role's privilege level.
	ActionSetRoleLevel
	// ActionTogglePermission flips a per-role command permission.
	ActionTogglePermission
	// ActionDeleteRole deletes a role with all its assignments and permissions.
	ActionDeleteRole
	// ActionGrantRole assigns a role to a user.
	ActionGrantRole
	// ActionRevokeRole removes a role from a user.
	ActionRevokeRole
	// ActionBan bans a user from the group for a limited time.
	ActionBan
	// ActionChangePrefix sets another member's custom title.
	ActionChangePrefix
	// ActionViewRoles lists roles and their holders (public).
	ActionViewRoles
)

// Command trigger strings. These double as the permission keys stored in
// the permissions table.
const (
	CmdNewRole    = "!new-role"
	CmdGrant      = "!grant"
	CmdRevoke     = "!revoke"
	CmdEditRole   = "!edit-admin"
	CmdRemoveRole = "!remove-admin-role"
	CmdBan        = "!ban"
	CmdPrefix     = "!prefix"
	CmdViewRoles  = "!view-admins"
)

// GatedCommands lists every command that can be toggled per role. The
// order is the order the role editing menu shows them in.
var GatedCommands = []string{
	CmdNewRole,
	CmdGrant,
	CmdRevoke,
	CmdEditRole,
	CmdRemoveRole,
	CmdBan,
	CmdPrefix,
}

// Gated reports whether the command is one of GatedCommands. Callers
// taking command strings from the wire must check this before writing
// permission rows.
func Gated(command string) bool {
	for _, c := range GatedCommands {
		if c == command {
			return true
		}
	}

	return false
}

// Command returns the user-facing trigger whose permission gates the
// action. Editing sub-operations (rename, level, toggle) are gated by
// the role editing command itself.
func (a Action) Command() string {
	switch a {
	case ActionCreateRole:
		return CmdNewRole
	case ActionGrantRole:
		return CmdGrant
	case ActionRevokeRole:
		return CmdRevoke
	case ActionEditRole, ActionRenameRole, ActionSetRoleLevel, ActionTogglePermission:
		return CmdEditRole
	case ActionDeleteRole:
		return CmdRemoveRole
	case ActionBan:
		return CmdBan
	case ActionChangePrefix:
		return CmdPrefix
	case ActionViewRoles:
		return CmdViewRoles
	default:
		return ""
	}
}

// Public reports whether the action is open to everyone and skips the
// permission lookup entirely.
func (a Action) Public() bool {
	return a == ActionViewRoles
}

// targetsRole reports whether the action is aimed at a role and thus
// subject to the level comparison against that role.
func (a Action) targetsRole() bool {
	switch a {
	case ActionEditRole, ActionRenameRole, ActionSetRoleLevel,
		ActionTogglePermission, ActionDeleteRole,
		ActionGrantRole, ActionRevokeRole:
		return true
	default:
		return false
	}
}

// targetsUser reports whether the action is aimed at another user and
// thus subject to the level comparison against that user.
func (a Action) targetsUser() bool {
	return a == ActionBan || a == ActionChangePrefix
}

// selfGuarded reports whether the action is forbidden on a role the
// actor themselves holds.
func (a Action) selfGuarded() bool {
	switch a {
	case ActionEditRole, ActionRenameRole, ActionSetRoleLevel,
		ActionTogglePermission, ActionDeleteRole:
		return true
	default:
		return false
	}
}

func (a Action) String() string {
	switch a {
	case ActionInvokeCommand:
		return "invoke-command"
	case ActionCreateRole:
		return "create-role"
	case ActionEditRole:
		return "edit-role"
	case ActionRenameRole:
		return "rename-role"
	case ActionSetRoleLevel:
		return "set-role-level"
	case ActionTogglePermission:
		return "toggle-permission"
	case ActionDeleteRole:
		return "delete-role"
	case ActionGrantRole:
		return "grant-role"
	case ActionRevokeRole:
		return "revoke-role"
	case ActionBan:
		return "ban"
	case ActionChangePrefix:
		return "change-prefix"
	case ActionViewRoles:
		return "view-roles"
	default:
		return "unknown"
	}
}
