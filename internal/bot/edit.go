package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/N3minator/TG-BOT/internal/db/models"
	"github.com/N3minator/TG-BOT/internal/platform"
	"github.com/N3minator/TG-BOT/internal/rbac"
)

// Callback data prefixes for the role editing and deletion keyboards.
const (
	callbackPerm       = "perm:"
	callbackDelConfirm = "delconfirm:"
	callbackDelCancel  = "delcancel:"
)

const editRoleUsage = "Usage: " + rbac.CmdEditRole + " <role> | " +
	rbac.CmdEditRole + " rename <old> -> <new> | " +
	rbac.CmdEditRole + " level <role> <1-999>"

func (d *Dispatcher) handleEditRole(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	if args == "" {
		d.reply(ctx, ev, editRoleUsage)

		return
	}

	first, rest := splitFirst(args)

	switch strings.ToLower(first) {
	case "rename":
		d.renameRole(ctx, ev, actor, rest, lg)
	case "level":
		d.setRoleLevel(ctx, ev, actor, rest, lg)
	default:
		d.openRoleMenu(ctx, ev, actor, args, lg)
	}
}

func (d *Dispatcher) renameRole(ctx context.Context, ev platform.Event, actor rbac.Actor, args string, lg zerolog.Logger) {
	oldName, newName, found := strings.Cut(args, "->")
	if !found || strings.TrimSpace(oldName) == "" || strings.TrimSpace(newName) == "" {
		d.reply(ctx, ev, editRoleUsage)

		return
	}

	if err := d.manager.RenameRole(ev.GroupID, actor, oldName, newName); err != nil {
		d.replyError(ctx, ev, rbac.CmdEditRole, err, lg)

		return
	}

	renamed, _ := rbac.NormalizeName(newName)
	lg.Info().Str("role", renamed).Msg("role renamed")
	d.reply(ctx, ev, fmt.Sprintf("Renamed the role to %s.", renamed))
}

func (d *Dispatcher) setRoleLevel(ctx context.Context, ev platform.Event, actor rbac.Actor, args string, lg zerolog.Logger) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		d.reply(ctx, ev, editRoleUsage)

		return
	}

	level, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		d.reply(ctx, ev, editRoleUsage)

		return
	}

	name := strings.Join(fields[:len(fields)-1], " ")

	if err := d.manager.SetLevel(ev.GroupID, actor, name, level); err != nil {
		d.replyError(ctx, ev, rbac.CmdEditRole, err, lg)

		return
	}

	normalized, _ := rbac.NormalizeName(name)
	lg.Info().Str("role", normalized).Int("level", level).Msg("role level changed")
	d.reply(ctx, ev, fmt.Sprintf("Set %s to level %d.", normalized, level))
}

func (d *Dispatcher) openRoleMenu(ctx context.Context, ev platform.Event, actor rbac.Actor, name string, lg zerolog.Logger) {
	r, err := d.manager.Role(ev.GroupID, name)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdEditRole, err, lg)

		return
	}

	decision, err := d.manager.Access().Evaluate(ev.GroupID, actor, rbac.ActionEditRole, rbac.Target{Role: r.Name})
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdEditRole, err, lg)

		return
	}

	if !decision.Allowed {
		d.replyError(ctx, ev, rbac.CmdEditRole,
			&rbac.DeniedError{Action: rbac.ActionEditRole, Reason: decision.Reason}, lg)

		return
	}

	text, rows, err := d.roleMenu(ev.GroupID, r)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdEditRole, err, lg)

		return
	}

	if _, err := d.platform.SendMenu(ctx, ev.GroupID, text, rows); err != nil {
		lg.Warn().Err(err).Msg("sending role menu failed")
	}
}

// roleMenu renders the permission toggle keyboard for a role.
func (d *Dispatcher) roleMenu(groupID int64, r *models.Role) (string, [][]platform.Button, error) {
	granted, err := d.manager.Perms().ListForRole(groupID, r.Name)
	if err != nil {
		return "", nil, err
	}

	has := make(map[string]bool, len(granted))
	for _, cmd := range granted {
		has[cmd] = true
	}

	rows := make([][]platform.Button, 0, len(rbac.GatedCommands))

	for _, cmd := range rbac.GatedCommands {
		mark := "❌"
		if has[cmd] {
			mark = "✅"
		}

		rows = append(rows, []platform.Button{{
			Text: cmd + " " + mark,
			Data: callbackPerm + r.Name + "|" + cmd,
		}})
	}

	text := fmt.Sprintf("Role %s (level %d). Tap a command to toggle its permission.", r.Name, r.Level)

	return text, rows, nil
}

func (d *Dispatcher) handlePermCallback(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	name, command, found := strings.Cut(args, "|")
	if !found {
		lg.Warn().Str("data", args).Msg("malformed permission callback")

		return
	}

	// Callback data is client-supplied; only known commands may reach
	// the permissions table.
	if !rbac.Gated(command) {
		lg.Warn().Str("command", command).Msg("unknown command in permission callback")

		return
	}

	if _, err := d.manager.TogglePermission(ev.GroupID, actor, name, command); err != nil {
		d.replyError(ctx, ev, rbac.CmdEditRole, err, lg)

		return
	}

	r, err := d.manager.Role(ev.GroupID, name)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdEditRole, err, lg)

		return
	}

	text, rows, err := d.roleMenu(ev.GroupID, r)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdEditRole, err, lg)

		return
	}

	if err := d.platform.EditMenu(ctx, ev.GroupID, ev.MessageID, text, rows); err != nil {
		lg.Warn().Err(err).Msg("refreshing role menu failed")
	}
}

func (d *Dispatcher) handleRemoveRole(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	if args == "" {
		d.reply(ctx, ev, "Usage: "+rbac.CmdRemoveRole+" <role>")

		return
	}

	r, err := d.manager.Role(ev.GroupID, args)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdRemoveRole, err, lg)

		return
	}

	// Deny up front so the confirmation keyboard is only shown to
	// someone who could actually follow through.
	decision, err := d.manager.Access().Evaluate(ev.GroupID, actor, rbac.ActionDeleteRole, rbac.Target{Role: r.Name})
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdRemoveRole, err, lg)

		return
	}

	if !decision.Allowed {
		d.replyError(ctx, ev, rbac.CmdRemoveRole,
			&rbac.DeniedError{Action: rbac.ActionDeleteRole, Reason: decision.Reason}, lg)

		return
	}

	d.confirms.Prompt(ev.GroupID, actor.UserID, r.Name)

	rows := [][]platform.Button{{
		{Text: "✅ Delete", Data: callbackDelConfirm + r.Name},
		{Text: "↩️ Cancel", Data: callbackDelCancel + r.Name},
	}}

	text := fmt.Sprintf("Delete role %s with all of its assignments and permissions?", r.Name)

	if _, err := d.platform.SendMenu(ctx, ev.GroupID, text, rows); err != nil {
		lg.Warn().Err(err).Msg("sending delete confirmation failed")
	}
}

func (d *Dispatcher) handleDeleteConfirmCallback(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	if !d.confirms.Confirm(ev.GroupID, actor.UserID, args) {
		lg.Debug().Str("role", args).Msg("confirmation rejected")
		d.reply(ctx, ev, "There is no pending deletion of yours to confirm.")

		return
	}

	if err := d.manager.DeleteRole(ev.GroupID, actor, args); err != nil {
		d.replyError(ctx, ev, rbac.CmdRemoveRole, err, lg)

		return
	}

	lg.Info().Str("role", args).Msg("role deleted")

	if err := d.platform.EditMenu(ctx, ev.GroupID, ev.MessageID,
		fmt.Sprintf("Role %s was deleted.", args), nil); err != nil {
		lg.Warn().Err(err).Msg("closing delete confirmation failed")
	}
}

func (d *Dispatcher) handleDeleteCancelCallback(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	if !d.confirms.Cancel(ev.GroupID, actor.UserID, args) {
		lg.Debug().Str("role", args).Msg("cancellation rejected")

		return
	}

	if err := d.platform.EditMenu(ctx, ev.GroupID, ev.MessageID,
		fmt.Sprintf("Deletion of %s cancelled.", args), nil); err != nil {
		lg.Warn().Err(err).Msg("closing delete confirmation failed")
	}
}
