// Package platform abstracts the chat service the bot is connected to.
// Handlers only ever talk to the Platform interface; the concrete
// transport is injected at startup. Membership status is always fetched
// live so owner checks can never act on stale data.
package platform

import (
	"context"
	"time"
)

// MembershipStatus is a user's live standing in a group.
type MembershipStatus string

const (
	StatusOwner  MembershipStatus = "owner"
	StatusAdmin  MembershipStatus = "admin"
	StatusMember MembershipStatus = "member"
	StatusLeft   MembershipStatus = "left"
	StatusBanned MembershipStatus = "banned"
)

// UserRef identifies a user as observed on an incoming event.
type UserRef struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}

// EventKind discriminates incoming events.
type EventKind int

const (
	// EventMessage is a plain group message; Text carries the message text.
	EventMessage EventKind = iota
	// EventCallback is an inline keyboard button press; Text carries the
	// callback data and MessageID the menu message it belongs to.
	EventCallback
)

// Event is one incoming group event.
type Event struct {
	Kind      EventKind
	GroupID   int64
	From      UserRef
	Text      string
	MessageID int64
	// ReplyTo is the author of the message the event replies to, when
	// the transport delivered one.
	ReplyTo *UserRef
}

// Button is one inline keyboard button. Data is sent back verbatim as
// callback data when the button is pressed.
type Button struct {
	Text string
	Data string
}

// Platform is the capability surface the bot needs from a chat service.
// Send and moderation calls are fire-and-forget from the bot's point of
// view: a failure is reported to the invoking user, never retried.
type Platform interface {
	// Events delivers incoming group events. The channel is closed when
	// the transport shuts down.
	Events() <-chan Event

	// MembershipStatus fetches the user's current standing in the group
	// directly from the platform.
	MembershipStatus(ctx context.Context, groupID, userID int64) (MembershipStatus, error)

	SendMessage(ctx context.Context, groupID int64, text string) error

	// SendMenu sends a message with an inline keyboard and returns the
	// message id for later edits.
	SendMenu(ctx context.Context, groupID int64, text string, rows [][]Button) (int64, error)

	// EditMenu replaces the text and keyboard of a previously sent menu.
	EditMenu(ctx context.Context, groupID, messageID int64, text string, rows [][]Button) error

	BanMember(ctx context.Context, groupID, userID int64, until time.Time) error

	UnbanMember(ctx context.Context, groupID, userID int64) error

	// PromoteMember gives the user the minimal admin bit required for a
	// custom title to be visible.
	PromoteMember(ctx context.Context, groupID, userID int64) error

	SetCustomTitle(ctx context.Context, groupID, userID int64, title string) error
}
