package rbac

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const confirmationsCacheSize = 1024

// PendingDelete is a role deletion waiting for its confirm or cancel
// button press.
type PendingDelete struct {
	GroupID    int64
	Role       string
	ActorID    int64
	PromptedAt time.Time
}

// Confirmations tracks pending role deletions. A pending entry is bound
// to the actor who prompted it; anyone else pressing the buttons leaves
// it untouched. Entries expire after the configured TTL, after which
// confirming is the same as never having asked.
type Confirmations struct {
	cache *expirable.LRU[string, PendingDelete]
}

// NewConfirmations builds a confirmation tracker with the given TTL.
func NewConfirmations(ttl time.Duration) *Confirmations {
	return &Confirmations{
		cache: expirable.NewLRU[string, PendingDelete](confirmationsCacheSize, nil, ttl),
	}
}

func confirmKey(groupID int64, role string) string {
	return fmt.Sprintf("%d:%s", groupID, role)
}

// Prompt records that the actor asked to delete the role. A second
// prompt for the same (group, role) replaces the first.
func (c *Confirmations) Prompt(groupID, actorID int64, role string) {
	c.cache.Add(confirmKey(groupID, role), PendingDelete{
		GroupID:    groupID,
		Role:       role,
		ActorID:    actorID,
		PromptedAt: time.Now(),
	})
}

// Pending reports whether a deletion prompt is outstanding for the role.
func (c *Confirmations) Pending(groupID int64, role string) bool {
	_, ok := c.cache.Get(confirmKey(groupID, role))

	return ok
}

// Confirm consumes the pending deletion and reports whether the caller
// may proceed. It refuses when no prompt is outstanding, the prompt
// expired, or the responder is not the actor who prompted.
func (c *Confirmations) Confirm(groupID, actorID int64, role string) bool {
	k := confirmKey(groupID, role)

	p, ok := c.cache.Get(k)
	if !ok || p.ActorID != actorID {
		return false
	}

	c.cache.Remove(k)

	return true
}

// Cancel drops the pending deletion. Like Confirm it only honors the
// actor who prompted.
func (c *Confirmations) Cancel(groupID, actorID int64, role string) bool {
	k := confirmKey(groupID, role)

	p, ok := c.cache.Get(k)
	if !ok || p.ActorID != actorID {
		return false
	}

	c.cache.Remove(k)

	return true
}
