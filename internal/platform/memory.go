package platform

import (
	"context"
	"sync"
	"time"
)

const memoryEventBuffer = 64

// SentMessage is one outgoing message recorded by the Memory platform.
type SentMessage struct {
	GroupID   int64
	MessageID int64
	Text      string
	Rows      [][]Button
	Edited    bool
}

// Memory is an in-process Platform used by tests and dev mode. Events
// are pushed with Push; everything the bot sends or does is recorded
// for inspection.
type Memory struct {
	mu sync.Mutex

	events chan Event
	nextID int64

	statuses  map[int64]map[int64]MembershipStatus
	statusErr error

	sent     []SentMessage
	banned   map[int64]map[int64]time.Time
	promoted map[int64]map[int64]bool
	titles   map[int64]map[int64]string
}

// NewMemory builds an empty in-memory platform.
func NewMemory() *Memory {
	return &Memory{
		events:   make(chan Event, memoryEventBuffer),
		statuses: make(map[int64]map[int64]MembershipStatus),
		banned:   make(map[int64]map[int64]time.Time),
		promoted: make(map[int64]map[int64]bool),
		titles:   make(map[int64]map[int64]string),
	}
}

// Push feeds an incoming event to the bot.
func (m *Memory) Push(ev Event) {
	m.events <- ev
}

// Close ends the event stream.
func (m *Memory) Close() {
	close(m.events)
}

// SetStatus fixes a user's membership status in a group.
func (m *Memory) SetStatus(groupID, userID int64, status MembershipStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.statuses[groupID] == nil {
		m.statuses[groupID] = make(map[int64]MembershipStatus)
	}
	m.statuses[groupID][userID] = status
}

// FailStatus makes every MembershipStatus call return err until reset
// with nil. Used to exercise the verification-failure path.
func (m *Memory) FailStatus(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statusErr = err
}

// Sent returns a copy of everything sent so far.
func (m *Memory) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)

	return out
}

// LastMessage returns the most recent outgoing message, or a zero value
// when nothing was sent.
func (m *Memory) LastMessage() SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return SentMessage{}
	}

	return m.sent[len(m.sent)-1]
}

// BannedUntil reports whether the user is banned in the group and until when.
func (m *Memory) BannedUntil(groupID, userID int64) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.banned[groupID][userID]

	return until, ok
}

// Title returns the custom title set for the user, if any.
func (m *Memory) Title(groupID, userID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.titles[groupID][userID]
}

func (m *Memory) Events() <-chan Event {
	return m.events
}

func (m *Memory) MembershipStatus(_ context.Context, groupID, userID int64) (MembershipStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.statusErr != nil {
		return "", m.statusErr
	}

	if status, ok := m.statuses[groupID][userID]; ok {
		return status, nil
	}

	return StatusMember, nil
}

func (m *Memory) SendMessage(_ context.Context, groupID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.sent = append(m.sent, SentMessage{GroupID: groupID, MessageID: m.nextID, Text: text})

	return nil
}

func (m *Memory) SendMenu(_ context.Context, groupID int64, text string, rows [][]Button) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.sent = append(m.sent, SentMessage{GroupID: groupID, MessageID: m.nextID, Text: text, Rows: rows})

	return m.nextID, nil
}

func (m *Memory) EditMenu(_ context.Context, groupID, messageID int64, text string, rows [][]Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, SentMessage{
		GroupID:   groupID,
		MessageID: messageID,
		Text:      text,
		Rows:      rows,
		Edited:    true,
	})

	return nil
}

func (m *Memory) BanMember(_ context.Context, groupID, userID int64, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.banned[groupID] == nil {
		m.banned[groupID] = make(map[int64]time.Time)
	}
	m.banned[groupID][userID] = until

	return nil
}

func (m *Memory) UnbanMember(_ context.Context, groupID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.banned[groupID], userID)

	return nil
}

func (m *Memory) PromoteMember(_ context.Context, groupID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.promoted[groupID] == nil {
		m.promoted[groupID] = make(map[int64]bool)
	}
	m.promoted[groupID][userID] = true

	return nil
}

func (m *Memory) SetCustomTitle(_ context.Context, groupID, userID int64, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.titles[groupID] == nil {
		m.titles[groupID] = make(map[int64]string)
	}
	m.titles[groupID][userID] = title

	return nil
}
