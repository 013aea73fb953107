package bot

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/N3minator/TG-BOT/internal/db/controller/userdir"
	"github.com/N3minator/TG-BOT/internal/duration"
	"github.com/N3minator/TG-BOT/internal/platform"
	"github.com/N3minator/TG-BOT/internal/rbac"
)

// denyMessage maps an access decision onto the text shown to the user.
func denyMessage(reason rbac.DenyReason) string {
	switch reason {
	case rbac.DenyNoAccess:
		return "You do not have access to this command."
	case rbac.DenyOwnRole:
		return "You cannot edit or delete a role you hold yourself."
	case rbac.DenyInsufficientLevel:
		return "Your level is not high enough for that."
	case rbac.DenyLevelTooHigh:
		return "The level must be below your own privilege."
	case rbac.DenyAlreadyHasRole:
		return "That user already has this role."
	case rbac.DenyDoesNotHaveRole:
		return "That user does not have this role."
	case rbac.DenyBanOwner:
		return "The group owner cannot be banned."
	default:
		return "Access denied."
	}
}

// replyError turns any handler error into user-facing text. Denials are
// counted per command; unexpected errors are logged and masked.
func (d *Dispatcher) replyError(ctx context.Context, ev platform.Event, command string, err error, lg zerolog.Logger) {
	if reason, ok := rbac.Denied(err); ok {
		commandsDenied.WithLabelValues(command, string(reason)).Inc()
		lg.Info().Str("reason", string(reason)).Msg("command denied")
		d.reply(ctx, ev, denyMessage(reason))

		return
	}

	switch {
	case errors.Is(err, rbac.ErrRoleNotFound):
		d.reply(ctx, ev, "There is no such role in this group.")
	case errors.Is(err, rbac.ErrRoleAlreadyExists):
		d.reply(ctx, ev, "A role with that name already exists.")
	case errors.Is(err, rbac.ErrNameEmpty):
		d.reply(ctx, ev, "The role name cannot be empty.")
	case errors.Is(err, rbac.ErrNameTooLong):
		d.reply(ctx, ev, "The role name cannot be longer than 32 characters.")
	case errors.Is(err, rbac.ErrInvalidLevel):
		d.reply(ctx, ev, "The level must be a number between 1 and 999.")
	case errors.Is(err, rbac.ErrAlreadyHasRole):
		d.reply(ctx, ev, denyMessage(rbac.DenyAlreadyHasRole))
	case errors.Is(err, rbac.ErrDoesNotHaveRole):
		d.reply(ctx, ev, denyMessage(rbac.DenyDoesNotHaveRole))
	case errors.Is(err, ErrNoTarget):
		d.reply(ctx, ev, "Reply to a message or name a user (@username or id).")
	case errors.Is(err, userdir.ErrUserNotFound):
		d.reply(ctx, ev, "I have not seen that user yet, reply to one of their messages instead.")
	case errors.Is(err, duration.ErrNoDuration):
		d.reply(ctx, ev, "Give a ban duration, e.g. 1d2h30m.")
	case errors.Is(err, duration.ErrBadFormat), errors.Is(err, duration.ErrZeroDuration):
		d.reply(ctx, ev, "I could not read that duration, use tokens like 1r 2mo 10d 5h 30m 59s.")
	case errors.Is(err, duration.ErrTooManyMonths):
		d.reply(ctx, ev, "Months in a duration cannot exceed 12.")
	case errors.Is(err, duration.ErrTooManySeconds):
		d.reply(ctx, ev, "Seconds in a duration cannot exceed 59.")
	default:
		lg.Error().Err(err).Msg("command failed")
		d.reply(ctx, ev, "Something went wrong, please try again later.")
	}
}
