package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fasttrack/internal/domain"
	"fasttrack/internal/repository/sqlite"
)

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlite.Migrate(context.Background(), db))
	return sqlite.NewStore(db)
}

func TestRegister_ValidationBeforeStore(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "a@b.com", "secret1"},
		{"bad email", "alice", "not-an-email", "secret1"},
		{"short password", "alice", "a@b.com", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.username, tc.email, tc.password)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	// rejected input left nothing behind
	_, err := store.Users().GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegister_CreatesProfileAndSettings(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	user, err := auth.Register(ctx, "alice", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email) // normalized
	assert.Empty(t, user.PasswordHash)

	profile, err := store.Profiles().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Name)
	assert.False(t, profile.IsGuest)

	settings, err := store.Settings().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 16.0, settings.GoalHours)
	assert.True(t, settings.Notifications)
}

func TestRegister_DuplicateEmailAndUsername(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	_, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "other", "alice@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrDuplicateKey)

	_, err = auth.Register(ctx, "alice", "other@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestLogin_EmailAndUsernameResolveSameUser(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	registered, err := auth.Register(ctx, "amr", "amr@x.com", "secret1")
	require.NoError(t, err)

	byEmail, err := auth.Login(ctx, "amr@x.com", "secret1")
	require.NoError(t, err)
	byName, err := auth.Login(ctx, "amr", "secret1")
	require.NoError(t, err)

	assert.Equal(t, registered.ID, byEmail.ID)
	assert.Equal(t, registered.ID, byName.ID)
	require.NotNil(t, byName.LastLogin)
}

func TestLogin_Failures(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	_, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "alice@example.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = auth.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCurrentUser_Lifecycle(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	current, err := auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	user, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	_, err = auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	current, err = auth.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)

	require.NoError(t, auth.Logout(ctx))
	current, err = auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestCurrentUser_DanglingStateReadsAsLoggedOut(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	// reference a user id that was never created
	require.NoError(t, store.AuthState().Set(ctx, &domain.AuthState{UserID: 999, LoginTime: time.Now().UTC()}))

	current, err := auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLoginAsGuest(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	guest, err := auth.LoginAsGuest(ctx)
	require.NoError(t, err)
	assert.NotZero(t, guest.ID)
	assert.Contains(t, guest.Username, "guest-")

	profile, err := store.Profiles().Get(ctx, guest.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsGuest)

	settings, err := store.Settings().Get(ctx, guest.ID)
	require.NoError(t, err)
	assert.False(t, settings.Notifications)

	current, err := auth.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, guest.ID, current.ID)
}

func TestGetSettings_DefaultsWhenAbsent(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 18)
	ctx := context.Background()

	settings, err := auth.GetSettings(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 18.0, settings.GoalHours)

	require.ErrorIs(t, auth.UpdateSettings(ctx, &domain.Settings{UserID: 42, GoalHours: -1}), domain.ErrValidation)
}

func TestClearAllUserData_LeavesOtherUsersAlone(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	alice, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	bob, err := auth.Register(ctx, "bobby", "bob@example.com", "secret1")
	require.NoError(t, err)

	now := time.Now().UTC()
	for _, id := range []int64{alice.ID, bob.ID} {
		_, err := store.HistorySessions().Append(ctx, &domain.HistorySession{
			UserID:    id,
			StartTime: now.Add(-12 * time.Hour),
			EndTime:   now,
			Duration:  12,
			GoalHours: 16,
		})
		require.NoError(t, err)
	}
	require.NoError(t, store.CurrentSessions().Create(ctx, &domain.CurrentSession{
		UserID:    alice.ID,
		StartTime: now,
		EndTime:   now.Add(16 * time.Hour),
		GoalHours: 16,
	}))

	require.NoError(t, auth.ClearAllUserData(ctx, alice.ID))

	_, err = store.Profiles().Get(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Settings().Get(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.CurrentSessions().Get(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	cleared, err := store.HistorySessions().ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared)

	// the user row itself survives, and bob is untouched
	_, err = store.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	bobHistory, err := store.HistorySessions().ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobHistory, 1)
	_, err = store.Profiles().Get(ctx, bob.ID)
	require.NoError(t, err)
}

func TestClearAllUserData_ClearsOwnAuthStateOnly(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	ctx := context.Background()

	_, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	bob, err := auth.Register(ctx, "bobby", "bob@example.com", "secret1")
	require.NoError(t, err)
	_, err = auth.Login(ctx, "bobby", "secret1")
	require.NoError(t, err)

	alice, err := store.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)

	// clearing alice must not log bob out
	require.NoError(t, auth.ClearAllUserData(ctx, alice.ID))
	state, err := store.AuthState().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, state.UserID)

	require.NoError(t, auth.ClearAllUserData(ctx, bob.ID))
	_, err = store.AuthState().Get(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
