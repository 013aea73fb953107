package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/N3minator/TG-BOT/internal/db/controller/ban"
	"github.com/N3minator/TG-BOT/internal/db/controller/userdir"
	"github.com/N3minator/TG-BOT/internal/db/models"
	"github.com/N3minator/TG-BOT/internal/platform"
	"github.com/N3minator/TG-BOT/internal/rbac"
)

const (
	testGroup int64 = 1
	ownerID   int64 = 1
)

var owner = rbac.Actor{UserID: ownerID, IsOwner: true}

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.Membership{},
		&models.Ban{},
		&models.User{},
	)
	require.NoError(t, err, "failed to migrate test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)

	// A single connection keeps the in-memory database shared between
	// handler goroutines and test assertions.
	sqlDB.SetMaxOpenConns(1)

	return db
}

// setupBot wires a dispatcher over a fresh database and an in-memory
// platform and starts consuming events.
func setupBot(t *testing.T) (*platform.Memory, *rbac.Manager, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	mem := platform.NewMemory()
	mem.SetStatus(testGroup, ownerID, platform.StatusOwner)

	manager := rbac.NewManager(db)
	d := New(mem, manager, ban.NewStore(db), userdir.NewStore(db), rbac.NewConfirmations(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())

	go d.Run(ctx)

	t.Cleanup(cancel)

	return mem, manager, db
}

func message(from int64, username, text string) platform.Event {
	return platform.Event{
		Kind:    platform.EventMessage,
		GroupID: testGroup,
		From:    platform.UserRef{ID: from, Username: username},
		Text:    text,
	}
}

func callback(from int64, username, data string, messageID int64) platform.Event {
	return platform.Event{
		Kind:      platform.EventCallback,
		GroupID:   testGroup,
		From:      platform.UserRef{ID: from, Username: username},
		Text:      data,
		MessageID: messageID,
	}
}

// waitForReply blocks until the platform has recorded more than have
// outgoing messages and returns the newest one.
func waitForReply(t *testing.T, mem *platform.Memory, have int) platform.SentMessage {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(mem.Sent()) > have
	}, 2*time.Second, 10*time.Millisecond, "expected a reply")

	return mem.LastMessage()
}

func TestNewRoleCommand(t *testing.T) {
	mem, manager, _ := setupBot(t)

	mem.Push(message(ownerID, "boss", "!new-role vip helper 42"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "Created role Vip Helper (level 42)")

	r, err := manager.Role(testGroup, "Vip Helper")
	require.NoError(t, err)
	assert.Equal(t, 42, r.Level)
}

func TestNewRoleDefaultsLevel(t *testing.T) {
	mem, manager, _ := setupBot(t)

	mem.Push(message(ownerID, "boss", "!new-role scout"))

	waitForReply(t, mem, 0)

	r, err := manager.Role(testGroup, "Scout")
	require.NoError(t, err)
	assert.Equal(t, defaultRoleLevel, r.Level)
}

func TestCommandDeniedWithoutAccess(t *testing.T) {
	mem, _, _ := setupBot(t)

	mem.Push(message(300, "random", "!ban 555 1h spam"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "do not have access")

	_, banned := mem.BannedUntil(testGroup, 555)
	assert.False(t, banned)
}

func TestGrantByUsername(t *testing.T) {
	mem, manager, db := setupBot(t)

	_, err := manager.CreateRole(testGroup, owner, "Helper", 50)
	require.NoError(t, err)

	// The target has to be observed once before @username resolves.
	mem.Push(message(555, "HelperGuy", "hello"))

	users := userdir.NewStore(db)
	require.Eventually(t, func() bool {
		_, err := users.IDByUsername("helperguy")

		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "target should be registered first")

	mem.Push(message(ownerID, "boss", "!grant @helperguy Helper"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "Granted Helper to @helperguy")

	has, err := manager.Members().HasRole(testGroup, 555, "Helper")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGrantUnknownUsername(t *testing.T) {
	mem, manager, _ := setupBot(t)

	_, err := manager.CreateRole(testGroup, owner, "Helper", 50)
	require.NoError(t, err)

	mem.Push(message(ownerID, "boss", "!grant @stranger Helper"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "not seen that user")
}

func TestEditRoleMenuAndToggle(t *testing.T) {
	mem, manager, _ := setupBot(t)

	_, err := manager.CreateRole(testGroup, owner, "Helper", 50)
	require.NoError(t, err)

	mem.Push(message(ownerID, "boss", "!edit-admin Helper"))

	menu := waitForReply(t, mem, 0)
	assert.Contains(t, menu.Text, "Role Helper (level 50)")
	require.Len(t, menu.Rows, len(rbac.GatedCommands))

	// Press the !ban toggle on the menu.
	sent := len(mem.Sent())
	mem.Push(callback(ownerID, "boss", callbackPerm+"Helper|"+rbac.CmdBan, menu.MessageID))

	edited := waitForReply(t, mem, sent)
	assert.True(t, edited.Edited)
	assert.Contains(t, menuButtonTexts(edited), rbac.CmdBan+" ✅")

	has, err := manager.Perms().Has(testGroup, "Helper", rbac.CmdBan)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestForgedPermissionCallbackRejected(t *testing.T) {
	mem, manager, _ := setupBot(t)

	_, err := manager.CreateRole(testGroup, owner, "Helper", 50)
	require.NoError(t, err)

	// Callback data is client-supplied; commands outside the toggle
	// menu must never reach the permissions table.
	mem.Push(callback(ownerID, "boss", callbackPerm+"Helper|!frobnicate", 1))
	mem.Push(callback(ownerID, "boss", callbackPerm+"Helper|"+rbac.CmdViewRoles, 2))

	// Give the dispatcher a moment; both presses should be dropped.
	time.Sleep(100 * time.Millisecond)

	cmds, err := manager.Perms().ListForRole(testGroup, "Helper")
	require.NoError(t, err)
	assert.Empty(t, cmds)
	assert.Empty(t, mem.Sent())
}

func menuButtonTexts(m platform.SentMessage) []string {
	var texts []string
	for _, row := range m.Rows {
		for _, b := range row {
			texts = append(texts, b.Text)
		}
	}

	return texts
}

func TestRenameSubcommand(t *testing.T) {
	mem, manager, _ := setupBot(t)

	_, err := manager.CreateRole(testGroup, owner, "Helper", 50)
	require.NoError(t, err)

	mem.Push(message(ownerID, "boss", "!edit-admin rename Helper -> Senior Helper"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "Renamed the role to Senior Helper")

	_, err = manager.Role(testGroup, "Senior Helper")
	require.NoError(t, err)
}

func TestRemoveRoleConfirmFlow(t *testing.T) {
	mem, manager, _ := setupBot(t)

	_, err := manager.CreateRole(testGroup, owner, "Helper", 50)
	require.NoError(t, err)

	mem.Push(message(ownerID, "boss", "!remove-admin-role Helper"))

	prompt := waitForReply(t, mem, 0)
	assert.Contains(t, prompt.Text, "Delete role Helper")

	// A foreign confirm press must not delete anything.
	sent := len(mem.Sent())
	mem.Push(callback(300, "random", callbackDelConfirm+"Helper", prompt.MessageID))

	waitForReply(t, mem, sent)

	_, err = manager.Role(testGroup, "Helper")
	require.NoError(t, err)

	// The prompting actor's confirm does.
	sent = len(mem.Sent())
	mem.Push(callback(ownerID, "boss", callbackDelConfirm+"Helper", prompt.MessageID))

	require.Eventually(t, func() bool {
		_, err := manager.Role(testGroup, "Helper")

		return errors.Is(err, rbac.ErrRoleNotFound)
	}, 2*time.Second, 10*time.Millisecond, "role should be deleted")

	closed := waitForReply(t, mem, sent)
	assert.Contains(t, closed.Text, "was deleted")
}

func TestBanCommand(t *testing.T) {
	mem, _, db := setupBot(t)

	mem.Push(message(ownerID, "boss", "!ban 555 1d2h spamming links"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "Banned 555 for 1 day 2 hours")
	assert.Contains(t, reply.Text, "spamming links")

	until, banned := mem.BannedUntil(testGroup, 555)
	require.True(t, banned)
	assert.WithinDuration(t, time.Now().Add(26*time.Hour), until, time.Minute)

	record, err := ban.NewStore(db).Get(testGroup, 555)
	require.NoError(t, err)
	assert.Equal(t, "spamming links", record.Reason)
	assert.False(t, record.Lifted)
}

func TestBanWithoutDuration(t *testing.T) {
	mem, _, _ := setupBot(t)

	mem.Push(message(ownerID, "boss", "!ban 555 just because"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "Give a ban duration")
}

func TestPrefixCommand(t *testing.T) {
	mem, _, _ := setupBot(t)

	mem.Push(message(ownerID, "boss", "!prefix 555 Night Watch"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, `Prefix for 555 set to "Night Watch"`)
	assert.Equal(t, "Night Watch", mem.Title(testGroup, 555))
}

func TestViewRolesIsPublic(t *testing.T) {
	mem, manager, _ := setupBot(t)

	_, err := manager.CreateRole(testGroup, owner, "Helper", 50)
	require.NoError(t, err)
	require.NoError(t, manager.Grant(testGroup, owner, 555, "Helper"))

	mem.Push(message(300, "random", "!view-admins"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "Helper (level 50)")
	assert.Contains(t, reply.Text, "555")
}

func TestVerificationFailureAborts(t *testing.T) {
	mem, manager, _ := setupBot(t)

	mem.FailStatus(errors.New("platform down"))
	mem.Push(message(ownerID, "boss", "!new-role vip 42"))

	reply := waitForReply(t, mem, 0)
	assert.Contains(t, reply.Text, "Could not verify your permissions")

	_, err := manager.Role(testGroup, "Vip")
	require.ErrorIs(t, err, rbac.ErrRoleNotFound)
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	db := setupTestDB(t)
	mem := platform.NewMemory()

	// A nil user directory makes registration panic; the dispatcher must
	// survive it.
	d := New(mem, rbac.NewManager(db), ban.NewStore(db), nil, rbac.NewConfirmations(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go d.Run(ctx)

	before := testutil.ToFloat64(handlerPanics)

	mem.Push(message(ownerID, "boss", "!view-admins"))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(handlerPanics) > before
	}, 2*time.Second, 10*time.Millisecond, "expected the panic to be recovered and counted")
}

func TestUnknownCommandIgnored(t *testing.T) {
	mem, _, _ := setupBot(t)

	mem.Push(message(ownerID, "boss", "!frobnicate now"))
	mem.Push(message(ownerID, "boss", "plain chatter"))

	// Give the dispatcher a moment; nothing should come back.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, mem.Sent())
}

func TestRegistrationObservesUsers(t *testing.T) {
	mem, _, db := setupBot(t)

	reply := platform.UserRef{ID: 777, Username: "Quoted"}
	mem.Push(platform.Event{
		Kind:    platform.EventMessage,
		GroupID: testGroup,
		From:    platform.UserRef{ID: 555, Username: "Talker"},
		Text:    "hello",
		ReplyTo: &reply,
	})

	users := userdir.NewStore(db)

	require.Eventually(t, func() bool {
		_, err := users.IDByUsername("talker")
		if err != nil {
			return false
		}

		_, err = users.IDByUsername("quoted")

		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "both identities should be registered")
}
