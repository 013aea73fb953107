package bot

import (
	"errors"
	"strconv"
	"strings"

	"github.com/N3minator/TG-BOT/internal/db/controller/userdir"
	"github.com/N3minator/TG-BOT/internal/platform"
)

// ErrNoTarget is returned when a command needs a target user but the
// message neither replies to one nor names one.
var ErrNoTarget = errors.New("no target user")

// target is a resolved command target.
type target struct {
	UserID   int64
	Username string
}

// resolveTarget figures out who a command is aimed at. Priority order:
// the replied-to message author, then an @username argument (resolved
// through the user directory), then a numeric id argument. It returns
// the target and the argument text with the target reference removed.
func (d *Dispatcher) resolveTarget(ev platform.Event, args string) (target, string, error) {
	if ev.ReplyTo != nil {
		return target{UserID: ev.ReplyTo.ID, Username: ev.ReplyTo.Username}, args, nil
	}

	first, rest := splitFirst(args)
	if first == "" {
		return target{}, args, ErrNoTarget
	}

	if strings.HasPrefix(first, "@") {
		username := strings.TrimPrefix(first, "@")

		id, err := d.users.IDByUsername(username)
		if err != nil {
			return target{}, args, err
		}

		return target{UserID: id, Username: strings.ToLower(username)}, rest, nil
	}

	id, err := strconv.ParseInt(first, 10, 64)
	if err != nil || id <= 0 {
		return target{}, args, ErrNoTarget
	}

	t := target{UserID: id}
	if u, err := d.users.Get(id); err == nil {
		t.Username = u.Username
	} else if !errors.Is(err, userdir.ErrUserNotFound) {
		return target{}, args, err
	}

	return t, rest, nil
}

// splitFirst cuts the first whitespace-separated field off the text.
func splitFirst(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	first, rest, found := strings.Cut(text, " ")
	if !found {
		return first, ""
	}

	return first, strings.TrimSpace(rest)
}

// displayName renders a target for reply text.
func (t target) displayName() string {
	if t.Username != "" {
		return "@" + t.Username
	}

	return strconv.FormatInt(t.UserID, 10)
}
