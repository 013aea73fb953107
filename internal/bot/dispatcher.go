// Package bot connects the chat platform to the moderation core: it
// routes incoming events to command handlers and turns every outcome
// into a user-facing reply.
package bot

import (
	"context"
	"regexp"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/N3minator/TG-BOT/internal/db/controller/ban"
	"github.com/N3minator/TG-BOT/internal/db/controller/userdir"
	"github.com/N3minator/TG-BOT/internal/db/models"
	"github.com/N3minator/TG-BOT/internal/platform"
	"github.com/N3minator/TG-BOT/internal/rbac"
)

// handlerFunc handles one routed command. args is the text after the
// command trigger, already trimmed.
type handlerFunc func(ctx context.Context, ev platform.Event, args string, lg zerolog.Logger)

type messageRoute struct {
	re      *regexp.Regexp
	command string
	handle  handlerFunc
}

type callbackRoute struct {
	prefix string
	handle handlerFunc
}

// Dispatcher consumes platform events and routes them to handlers, one
// goroutine per event with panic recovery.
type Dispatcher struct {
	platform platform.Platform
	manager  *rbac.Manager
	bans     *ban.Store
	users    *userdir.Store
	confirms *rbac.Confirmations
	validate *validator.Validate

	messageRoutes  []messageRoute
	callbackRoutes []callbackRoute

	wg sync.WaitGroup
}

// New wires a dispatcher over the platform and the moderation core.
func New(p platform.Platform, manager *rbac.Manager, bans *ban.Store, users *userdir.Store, confirms *rbac.Confirmations) *Dispatcher {
	d := &Dispatcher{
		platform: p,
		manager:  manager,
		bans:     bans,
		users:    users,
		confirms: confirms,
		validate: validator.New(),
	}

	commands := []struct {
		trigger string
		handle  handlerFunc
	}{
		{rbac.CmdNewRole, d.handleNewRole},
		{rbac.CmdGrant, d.handleGrant},
		{rbac.CmdRevoke, d.handleRevoke},
		{rbac.CmdEditRole, d.handleEditRole},
		{rbac.CmdRemoveRole, d.handleRemoveRole},
		{rbac.CmdBan, d.handleBan},
		{rbac.CmdPrefix, d.handlePrefix},
		{rbac.CmdViewRoles, d.handleViewRoles},
	}

	for _, c := range commands {
		d.messageRoutes = append(d.messageRoutes, messageRoute{
			re:      regexp.MustCompile(`^` + regexp.QuoteMeta(c.trigger) + `(\s|$)`),
			command: c.trigger,
			handle:  c.handle,
		})
	}

	d.callbackRoutes = []callbackRoute{
		{callbackPerm, d.handlePermCallback},
		{callbackDelConfirm, d.handleDeleteConfirmCallback},
		{callbackDelCancel, d.handleDeleteCancelCallback},
	}

	return d
}

// Run consumes events until the context is cancelled or the platform
// closes its stream.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-d.platform.Events():
			if !ok {
				return
			}

			d.wg.Add(1)

			go d.handle(ctx, ev)
		}
	}
}

// Wait blocks until all in-flight handlers finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, ev platform.Event) {
	defer d.wg.Done()

	lg := log.With().
		Str("event_id", uuid.NewString()).
		Int64("group_id", ev.GroupID).
		Int64("user_id", ev.From.ID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			handlerPanics.Inc()
			lg.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
		}
	}()

	d.register(ev, lg)

	switch ev.Kind {
	case platform.EventMessage:
		d.routeMessage(ctx, ev, lg)
	case platform.EventCallback:
		d.routeCallback(ctx, ev, lg)
	}
}

// register keeps the user directory current with every identity the
// event carries, so later @username references resolve.
func (d *Dispatcher) register(ev platform.Event, lg zerolog.Logger) {
	seen := []platform.UserRef{ev.From}
	if ev.ReplyTo != nil {
		seen = append(seen, *ev.ReplyTo)
	}

	for _, ref := range seen {
		err := d.users.Upsert(&models.User{
			ID:        ref.ID,
			Username:  ref.Username,
			FirstName: ref.FirstName,
			LastName:  ref.LastName,
			IsBot:     ref.IsBot,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			lg.Warn().Err(err).Int64("seen_user_id", ref.ID).Msg("user registration failed")
		}
	}
}

func (d *Dispatcher) routeMessage(ctx context.Context, ev platform.Event, lg zerolog.Logger) {
	for _, route := range d.messageRoutes {
		if !route.re.MatchString(ev.Text) {
			continue
		}

		args := strings.TrimSpace(ev.Text[len(route.command):])

		lg = lg.With().Str("command", route.command).Logger()
		lg.Debug().Msg("routing command")
		commandsHandled.WithLabelValues(route.command).Inc()

		route.handle(ctx, ev, args, lg)

		return
	}
}

func (d *Dispatcher) routeCallback(ctx context.Context, ev platform.Event, lg zerolog.Logger) {
	for _, route := range d.callbackRoutes {
		if !strings.HasPrefix(ev.Text, route.prefix) {
			continue
		}

		args := ev.Text[len(route.prefix):]

		lg = lg.With().Str("callback", route.prefix).Logger()
		lg.Debug().Msg("routing callback")

		route.handle(ctx, ev, args, lg)

		return
	}
}

// resolveActor builds the acting identity, fetching owner status live
// from the platform. When the lookup fails the command is aborted and
// the user told so; stale owner data must never decide access.
func (d *Dispatcher) resolveActor(ctx context.Context, ev platform.Event, lg zerolog.Logger) (rbac.Actor, bool) {
	status, err := d.platform.MembershipStatus(ctx, ev.GroupID, ev.From.ID)
	if err != nil {
		lg.Warn().Err(err).Msg("membership status lookup failed")
		d.reply(ctx, ev, "Could not verify your permissions, please try again later.")

		return rbac.Actor{}, false
	}

	return rbac.Actor{UserID: ev.From.ID, IsOwner: status == platform.StatusOwner}, true
}

func (d *Dispatcher) reply(ctx context.Context, ev platform.Event, text string) {
	if err := d.platform.SendMessage(ctx, ev.GroupID, text); err != nil {
		log.Warn().Err(err).Int64("group_id", ev.GroupID).Msg("reply failed")
	}
}
