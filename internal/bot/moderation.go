package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/N3minator/TG-BOT/internal/db/models"
	"github.com/N3minator/TG-BOT/internal/duration"
	"github.com/N3minator/TG-BOT/internal/platform"
	"github.com/N3minator/TG-BOT/internal/rbac"
)

type prefixInput struct {
	Title string `validate:"required,max=16"`
}

func (d *Dispatcher) handleBan(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	tgt, rest, err := d.resolveTarget(ev, args)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdBan, err, lg)

		return
	}

	// The target's owner status has to be live too, a ban must never
	// slip through on stale data.
	status, err := d.platform.MembershipStatus(ctx, ev.GroupID, tgt.UserID)
	if err != nil {
		lg.Warn().Err(err).Int64("target_user_id", tgt.UserID).Msg("target status lookup failed")
		d.reply(ctx, ev, "Could not verify that user, please try again later.")

		return
	}

	decision, err := d.manager.Access().Evaluate(ev.GroupID, actor, rbac.ActionBan,
		rbac.Target{UserID: tgt.UserID, UserIsOwner: status == platform.StatusOwner})
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdBan, err, lg)

		return
	}

	if !decision.Allowed {
		d.replyError(ctx, ev, rbac.CmdBan,
			&rbac.DeniedError{Action: rbac.ActionBan, Reason: decision.Reason}, lg)

		return
	}

	dur, reason, err := duration.Extract(rest)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdBan, err, lg)

		return
	}

	expires := time.Now().Add(dur)

	if err := d.platform.BanMember(ctx, ev.GroupID, tgt.UserID, expires); err != nil {
		lg.Warn().Err(err).Int64("target_user_id", tgt.UserID).Msg("platform ban failed")
		d.reply(ctx, ev, "The platform refused to ban that user.")

		return
	}

	record := &models.Ban{
		GroupID:        ev.GroupID,
		TargetUserID:   tgt.UserID,
		AdminID:        actor.UserID,
		AdminUsername:  ev.From.Username,
		TargetUsername: tgt.Username,
		Reason:         reason,
		Duration:       duration.Humanize(dur),
		ExpiresAt:      expires,
	}
	if err := d.bans.Save(record); err != nil {
		// The platform restriction is in place; only the audit row is
		// missing, which also means the sweeper will not lift the ban.
		lg.Error().Err(err).Int64("target_user_id", tgt.UserID).Msg("recording ban failed")
	}

	lg.Info().
		Int64("target_user_id", tgt.UserID).
		Str("duration", record.Duration).
		Str("reason", reason).
		Msg("user banned")
	d.reply(ctx, ev, fmt.Sprintf("Banned %s for %s. Reason: %s.", tgt.displayName(), record.Duration, reason))
}

func (d *Dispatcher) handlePrefix(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger) {
	actor, ok := d.resolveActor(ctx, ev, lg)
	if !ok {
		return
	}

	tgt, rest, err := d.resolveTarget(ev, args)
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdPrefix, err, lg)

		return
	}

	if err := d.validate.Struct(prefixInput{Title: rest}); err != nil {
		lg.Debug().Err(err).Msg("prefix input rejected")
		d.reply(ctx, ev, "The prefix must be 1 to 16 characters.")

		return
	}

	decision, err := d.manager.Access().Evaluate(ev.GroupID, actor, rbac.ActionChangePrefix,
		rbac.Target{UserID: tgt.UserID})
	if err != nil {
		d.replyError(ctx, ev, rbac.CmdPrefix, err, lg)

		return
	}

	if !decision.Allowed {
		d.replyError(ctx, ev, rbac.CmdPrefix,
			&rbac.DeniedError{Action: rbac.ActionChangePrefix, Reason: decision.Reason}, lg)

		return
	}

	// A custom title is only visible on admins, so the target gets the
	// minimal promotion first.
	if err := d.platform.PromoteMember(ctx, ev.GroupID, tgt.UserID); err != nil {
		lg.Warn().Err(err).Int64("target_user_id", tgt.UserID).Msg("promotion failed")
		d.reply(ctx, ev, "I could not promote that user to carry a prefix.")

		return
	}

	if err := d.platform.SetCustomTitle(ctx, ev.GroupID, tgt.UserID, rest); err != nil {
		lg.Warn().Err(err).Int64("target_user_id", tgt.UserID).Msg("setting title failed")
		d.reply(ctx, ev, "I could not set that prefix.")

		return
	}

	lg.Info().Int64("target_user_id", tgt.UserID).Str("prefix", rest).Msg("prefix set")
	d.reply(ctx, ev, fmt.Sprintf("Prefix for %s set to %q.", tgt.displayName(), rest))
}
