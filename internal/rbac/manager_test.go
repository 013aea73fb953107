package rbac

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/N3minator/TG-BOT/internal/db/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	db := setupTestDB(t)
	seedModeration(t, db)

	return NewManager(db)
}

func TestManagerCreateRole(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	testCases := []struct {
		name     string
		roleName string
		level    int
		wantName string
		wantErr  error
	}{
		{
			name:     "title cased and trimmed",
			roleName: "  senior moderator ",
			level:    20,
			wantName: "Senior Moderator",
		},
		{
			name:     "duplicate under different casing",
			roleName: "mODERATOR",
			level:    20,
			wantErr:  ErrRoleAlreadyExists,
		},
		{
			name:     "empty after trim",
			roleName: "   ",
			level:    20,
			wantErr:  ErrNameEmpty,
		},
		{
			name:     "name too long",
			roleName: "A Role Name That Goes On And On Forever",
			level:    20,
			wantErr:  ErrNameTooLong,
		},
		{
			// 17 characters but well over 32 bytes; the limit counts
			// characters.
			name:     "multibyte name within character limit",
			roleName: "старший модератор",
			level:    20,
			wantName: "Старший Модератор",
		},
		{
			name:     "multibyte name too long",
			roleName: "Самый Главный Старший Модератор Всея Группы",
			level:    20,
			wantErr:  ErrNameTooLong,
		},
		{
			name:     "level below range",
			roleName: "Shadow",
			level:    0,
			wantErr:  ErrInvalidLevel,
		},
		{
			name:     "level above range",
			roleName: "Shadow",
			level:    1000,
			wantErr:  ErrInvalidLevel,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := m.CreateRole(testGroup, owner, tc.roleName, tc.level)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantName, r.Name)
			assert.Equal(t, tc.level, r.Level)
			assert.Equal(t, owner.UserID, r.CreatedBy)
		})
	}
}

func TestManagerCreateRoleDenied(t *testing.T) {
	m := newTestManager(t)

	// Moderator sits at level 10; an equally privileged new role is refused.
	_, err := m.CreateRole(testGroup, Actor{UserID: 100}, "Twin", 10)

	reason, ok := Denied(err)
	require.True(t, ok)
	assert.Equal(t, DenyLevelTooHigh, reason)
}

func TestManagerRenameRole(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	err := m.RenameRole(testGroup, owner, "moderator", "guardian")
	require.NoError(t, err)

	// The role row moved.
	_, err = m.resolveRole(testGroup, "Moderator")
	require.ErrorIs(t, err, ErrRoleNotFound)

	r, err := m.resolveRole(testGroup, "Guardian")
	require.NoError(t, err)
	assert.Equal(t, 10, r.Level)

	// Assignments and permissions followed.
	roles, err := m.Members().UserRoles(testGroup, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"Guardian"}, roles)

	cmds, err := m.Perms().ListForRole(testGroup, "Guardian")
	require.NoError(t, err)
	assert.Len(t, cmds, len(GatedCommands))

	orphans, err := m.Perms().ListForRole(testGroup, "Moderator")
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestManagerRenameRoleCollision(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	err := m.RenameRole(testGroup, owner, "Helper", "Moderator")
	require.ErrorIs(t, err, ErrRoleAlreadyExists)

	err = m.RenameRole(testGroup, owner, "Ghost", "Phantom")
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestManagerDeleteRoleCascades(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	err := m.DeleteRole(testGroup, owner, "Moderator")
	require.NoError(t, err)

	_, err = m.resolveRole(testGroup, "Moderator")
	require.ErrorIs(t, err, ErrRoleNotFound)

	roles, err := m.Members().UserRoles(testGroup, 100)
	require.NoError(t, err)
	assert.Empty(t, roles)

	cmds, err := m.Perms().ListForRole(testGroup, "Moderator")
	require.NoError(t, err)
	assert.Empty(t, cmds)

	// Former holders fall back to the unprivileged sentinel.
	level, err := m.Members().EffectiveLevel(testGroup, 100)
	require.NoError(t, err)
	assert.Equal(t, models.UnprivilegedLevel, level)
}

func TestManagerDeleteOwnRoleDenied(t *testing.T) {
	m := newTestManager(t)

	err := m.DeleteRole(testGroup, Actor{UserID: 100}, "Moderator")

	reason, ok := Denied(err)
	require.True(t, ok)
	assert.Equal(t, DenyOwnRole, reason)
}

func TestManagerGrantRevoke(t *testing.T) {
	m := newTestManager(t)
	moderator := Actor{UserID: 100}
	owner := Actor{UserID: 1, IsOwner: true}

	require.NoError(t, m.Grant(testGroup, moderator, 300, "helper"))

	has, err := m.Members().HasRole(testGroup, 300, "Helper")
	require.NoError(t, err)
	assert.True(t, has)

	// The owner bypasses the evaluator but still sees the duplicate.
	err = m.Grant(testGroup, owner, 300, "Helper")
	require.ErrorIs(t, err, ErrAlreadyHasRole)

	require.NoError(t, m.Revoke(testGroup, moderator, 300, "Helper"))

	err = m.Revoke(testGroup, owner, 300, "Helper")
	require.ErrorIs(t, err, ErrDoesNotHaveRole)
}

func TestManagerSetLevel(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	require.NoError(t, m.SetLevel(testGroup, owner, "Helper", 75))

	r, err := m.resolveRole(testGroup, "Helper")
	require.NoError(t, err)
	assert.Equal(t, 75, r.Level)

	require.ErrorIs(t, m.SetLevel(testGroup, owner, "Helper", 0), ErrInvalidLevel)

	// Helper holder has no permissions at all.
	err = m.SetLevel(testGroup, Actor{UserID: 200}, "Helper", 80)
	reason, ok := Denied(err)
	require.True(t, ok)
	assert.Equal(t, DenyNoAccess, reason)
}

func TestManagerTogglePermissionDoubleFlip(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	granted, err := m.TogglePermission(testGroup, owner, "Helper", CmdBan)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = m.TogglePermission(testGroup, owner, "Helper", CmdBan)
	require.NoError(t, err)
	assert.False(t, granted)

	cmds, err := m.Perms().ListForRole(testGroup, "Helper")
	require.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestManagerTogglePermissionConcurrent(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	var wg sync.WaitGroup

	states := make(chan bool, 2)
	errs := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			granted, err := m.TogglePermission(testGroup, owner, "Helper", CmdBan)
			states <- granted
			errs <- err
		}()
	}

	wg.Wait()
	close(states)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Whichever toggle commits first grants; the other sees the row and
	// revokes. The pair nets out to the starting state.
	first, second := <-states, <-states
	assert.NotEqual(t, first, second)

	has, err := m.Perms().Has(testGroup, "Helper", CmdBan)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestManagerGrantRacesDeleteRole(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	var wg sync.WaitGroup

	grantErrs := make(chan error, 1)
	deleteErrs := make(chan error, 1)

	wg.Add(2)

	go func() {
		defer wg.Done()

		grantErrs <- m.Grant(testGroup, owner, 300, "Helper")
	}()

	go func() {
		defer wg.Done()

		deleteErrs <- m.DeleteRole(testGroup, owner, "Helper")
	}()

	wg.Wait()

	require.NoError(t, <-deleteErrs)

	// The grant either slipped in before the delete or found the role
	// already gone.
	if err := <-grantErrs; err != nil {
		require.ErrorIs(t, err, ErrRoleNotFound)
	}

	_, err := m.Role(testGroup, "Helper")
	require.ErrorIs(t, err, ErrRoleNotFound)

	// A grant that landed after the cascade leaves an orphan row; the
	// consistency sweep removes it.
	_, err = m.Members().DeleteOrphans()
	require.NoError(t, err)

	has, err := m.Members().HasRole(testGroup, 300, "Helper")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestManagerEffectiveLevelIsMinimum(t *testing.T) {
	m := newTestManager(t)
	owner := Actor{UserID: 1, IsOwner: true}

	// User 200 holds Helper (50); granting Moderator (10) lowers the number.
	require.NoError(t, m.Grant(testGroup, owner, 200, "Moderator"))

	level, err := m.Members().EffectiveLevel(testGroup, 200)
	require.NoError(t, err)
	assert.Equal(t, 10, level)
}
