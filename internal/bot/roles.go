package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/N3minator/TG-BOT/internal/platform"
	"github.com/N3minator/TG-BOT/internal/rbac"
)

// defaultRoleLevel is used when !new-role is issued without a level.
const defaultRoleLevel = 99

type newRoleInput struct {
	Name  string `validate:"required,max=32"`
	Level int    `validate:"min=1,max=999"`
}

func (d *Dispatcher) handleNewRole(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	if args == "" {
		d.reply(ctx, ev, "Usage: "+rbac.CmdNewRole+" <name> [level]")

		return
	}

	name := args
	level := defaultRoleLevel

	// A trailing number is the level, the rest is the name.
	fields := strings.Fields(args)
	if len(fields) > 1 {
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			level = n
			name = strings.Join(fields[:len(fields)-1], " ")
		}
	}

	if err := d.validate.Struct(newRoleInput{Name: name, Level: level}); err != nil {
		lg.Debug().Err(err).Msg("new role input rejected")
		d.reply(ctx, ev, "The name must be 1 to 32 characters and the level a number between 1 and 999.")

		return
	}

	r, err := d.manager.CreateRole(ev.GroupID, actor, name, level)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdNewRole, err, lg)

		return
	}

	lg.Info().Str("role", r.Name).Int("level", r.Level).Msg("role created")
	d.reply(ctx, ev, fmt.Sprintf("Created role %s (level %d).", r.Name, r.Level))
}

func (d *Dispatcher) handleGrant(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	tgt, rest, err := d.resolveTarget(ev, args)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdGrant, err, lg)

		return
	}

	if rest == "" {
		d.reply(ctx, ev, "Usage: "+rbac.CmdGrant+" <@user|id> <role> (or reply with "+rbac.CmdGrant+" <role>)")

		return
	}

	name, err := rbac.NormalizeName(rest)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdGrant, err, lg)

		return
	}

	if err := d.manager.Grant(ev.GroupID, actor, tgt.UserID, name); err != nil {
		d.replyError(ctx, ev, rbac.CmdGrant, err, lg)

		return
	}

	lg.Info().Str("role", name).Int64("target_user_id", tgt.UserID).Msg("role granted")
	d.reply(ctx, ev, fmt.Sprintf("Granted %s to %s.", name, tgt.displayName()))
}

func (d *Dispatcher) handleRevoke(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	tgt, rest, err := d.resolveTarget(ev, args)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdRevoke, err, lg)

		return
	}

	if rest == "" {
		d.reply(ctx, ev, "Usage: "+rbac.CmdRevoke+" <@user|id> <role> (or reply with "+rbac.CmdRevoke+" <role>)")

		return
	}

	name, err := rbac.NormalizeName(rest)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdRevoke, err, lg)

		return
	}

	if err := d.manager.Revoke(ev.GroupID, actor, tgt.UserID, name); err != nil {
		d.replyError(ctx, ev, rbac.CmdRevoke, err, lg)

		return
	}

	lg.Info().Str("role", name).Int64("target_user_id", tgt.UserID).Msg("role revoked")
	d.reply(ctx, ev, fmt.Sprintf("Revoked %s from %s.", name, tgt.displayName()))
}

func (d *Dispatcher) handleViewRoles(ctx context.Context, ev platform.Event, _ string, lg zerolog.Logger) {
	roles, err := d.manager.Roles().List(ev.GroupID)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdViewRoles, err, lg)

		return
	}

	if len(roles) == 0 {
		d.reply(ctx, ev, "No custom roles in this group yet.")

		return
	}

	var b strings.Builder

	b.WriteString("Roles in this group:\n")

	for _, r := range roles {
		fmt.Fprintf(&b, "%s (level %d): ", r.Name, r.Level)

		members, err := d.manager.Members().RoleMembers(ev.GroupID, r.Name)
		if err != nil {
			d.replyError(ctx, ev, rbac.CmdViewRoles, err, lg)

			return
		}

		if len(members) == 0 {
			b.WriteString("nobody\n")

			continue
		}

		names := make([]string, 0, len(members))
		for _, id := range members {
			names = append(names, d.memberName(id))
		}

		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n")
	}

	d.reply(ctx, ev, strings.TrimRight(b.String(), "\n"))
}

// memberName renders a holder for the role listing, preferring the
// username over the raw id.
func (d *Dispatcher) memberName(id int64) string {
	if u, err := d.users.Get(id); err == nil && u.Username != "" {
		return "@" + u.Username
	}

	return strconv.FormatInt(id, 10)
}
