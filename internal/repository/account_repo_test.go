package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"streamhub/internal/database"
	"streamhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAccountRepo(t *testing.T) *AccountRepository {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewAccountRepository(db)
}

func createAccount(t *testing.T, repo *AccountRepository, handle, email string) *domain.Account {
	t.Helper()
	a := &domain.Account{
		Handle:       handle,
		Email:        email,
		DisplayName:  "User " + handle,
		PasswordHash: "$2a$10$hash",
		AvatarURL:    "/static/avatars/" + handle + ".png",
	}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func strPtr(s string) *string { return &s }

func TestAccountRepository_CreateAndFind(t *testing.T) {
	repo := setupAccountRepo(t)
	ctx := context.Background()

	a := createAccount(t, repo, " Alice ", "ALICE@x.com")
	assert.NotZero(t, a.ID)
	assert.Equal(t, "alice", a.Handle)
	assert.Equal(t, "alice@x.com", a.Email)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Nil(t, a.RefreshToken)

	byID, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Handle)
	assert.Equal(t, "$2a$10$hash", byID.PasswordHash)

	byHandle, err := repo.FindByHandleOrEmail(ctx, "ALICE", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byHandle.ID)

	byEmail, err := repo.FindByHandleOrEmail(ctx, "", "alice@X.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	_, err = repo.FindByHandleOrEmail(ctx, "nobody", "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.FindByHandleOrEmail(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_FindByHandleOrEmail_FirstMatchWins(t *testing.T) {
	repo := setupAccountRepo(t)

	first := createAccount(t, repo, "bob", "bob@x.com")
	createAccount(t, repo, "carol", "carol@x.com")

	// "bob" is a handle of one account; "carol@x.com" the email of another
	found, err := repo.FindByHandleOrEmail(context.Background(), "bob", "carol@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestAccountRepository_UniqueConflicts(t *testing.T) {
	repo := setupAccountRepo(t)
	ctx := context.Background()
	createAccount(t, repo, "alice", "alice@x.com")

	err := repo.Create(ctx, &domain.Account{Handle: "ALICE", Email: "other@x.com", DisplayName: "x", PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "handle")

	err = repo.Create(ctx, &domain.Account{Handle: "other", Email: "alice@x.com", DisplayName: "x", PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "email")

	exists, err := repo.ExistsByHandle(ctx, " Alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAccountRepository_EmptyPasswordHashRejected(t *testing.T) {
	repo := setupAccountRepo(t)

	err := repo.Create(context.Background(), &domain.Account{Handle: "x", Email: "x@x.com", DisplayName: "x"})
	assert.ErrorIs(t, err, domain.ErrServerFault)
}

func TestAccountRepository_UpdateRefreshToken_CompareAndSwap(t *testing.T) {
	repo := setupAccountRepo(t)
	ctx := context.Background()
	a := createAccount(t, repo, "alice", "alice@x.com")
	exp := time.Now().Add(time.Hour)

	ok, err := repo.UpdateRefreshToken(ctx, a.ID, nil, strPtr("r1"), &exp)
	require.NoError(t, err)
	assert.True(t, ok)

	// expected nil no longer matches
	ok, err = repo.UpdateRefreshToken(ctx, a.ID, nil, strPtr("r-other"), &exp)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.UpdateRefreshToken(ctx, a.ID, strPtr("r1"), strPtr("r2"), &exp)
	require.NoError(t, err)
	assert.True(t, ok)

	// r1 was consumed
	ok, err = repo.UpdateRefreshToken(ctx, a.ID, strPtr("r1"), strPtr("r3"), &exp)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, "r2", *stored.RefreshToken)
	require.NotNil(t, stored.RefreshTokenExpiresAt)

	ok, err = repo.UpdateRefreshToken(ctx, 999, nil, strPtr("x"), &exp)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountRepository_ConcurrentRotation_ExactlyOneWins(t *testing.T) {
	repo := setupAccountRepo(t)
	ctx := context.Background()
	a := createAccount(t, repo, "alice", "alice@x.com")

	ok, err := repo.UpdateRefreshToken(ctx, a.ID, nil, strPtr("seed"), nil)
	require.NoError(t, err)
	require.True(t, ok)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.UpdateRefreshToken(ctx, a.ID, strPtr("seed"), strPtr(fmt.Sprintf("next-%d", i)), nil)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestAccountRepository_ClearRefreshToken(t *testing.T) {
	repo := setupAccountRepo(t)
	ctx := context.Background()
	a := createAccount(t, repo, "alice", "alice@x.com")

	_, err := repo.UpdateRefreshToken(ctx, a.ID, nil, strPtr("r1"), nil)
	require.NoError(t, err)

	require.NoError(t, repo.ClearRefreshToken(ctx, a.ID))
	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken)

	// idempotent
	require.NoError(t, repo.ClearRefreshToken(ctx, a.ID))

	assert.ErrorIs(t, repo.ClearRefreshToken(ctx, 999), domain.ErrNotFound)
}

func TestAccountRepository_ProfileUpdates(t *testing.T) {
	repo := setupAccountRepo(t)
	ctx := context.Background()
	a := createAccount(t, repo, "alice", "alice@x.com")
	createAccount(t, repo, "bob", "bob@x.com")

	updated, err := repo.UpdateProfile(ctx, a.ID, " Alice B ", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.DisplayName)
	assert.Equal(t, "alice@x.com", updated.Email)

	updated, err = repo.UpdateProfile(ctx, a.ID, "", "NEW@x.com")
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", updated.Email)

	_, err = repo.UpdateProfile(ctx, a.ID, "", "bob@x.com")
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, repo.UpdateAvatar(ctx, a.ID, "/static/a2.png"))
	require.NoError(t, repo.UpdateCoverImage(ctx, a.ID, "/static/c2.png"))
	require.NoError(t, repo.UpdatePasswordHash(ctx, a.ID, "$2a$10$new"))

	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/static/a2.png", stored.AvatarURL)
	assert.Equal(t, "/static/c2.png", stored.CoverImageURL)
	assert.Equal(t, "$2a$10$new", stored.PasswordHash)

	assert.ErrorIs(t, repo.UpdateAvatar(ctx, 999, "x"), domain.ErrNotFound)
}

func TestAccountRepository_ClearExpiredRefreshTokens(t *testing.T) {
	repo := setupAccountRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := createAccount(t, repo, "old", "old@x.com")
	live := createAccount(t, repo, "new", "new@x.com")
	createAccount(t, repo, "none", "none@x.com")

	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	_, err := repo.UpdateRefreshToken(ctx, expired.ID, nil, strPtr("r-old"), &past)
	require.NoError(t, err)
	_, err = repo.UpdateRefreshToken(ctx, live.ID, nil, strPtr("r-new"), &future)
	require.NoError(t, err)

	n, err := repo.ClearExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	a, err := repo.FindByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, a.RefreshToken)

	b, err := repo.FindByID(ctx, live.ID)
	require.NoError(t, err)
	require.NotNil(t, b.RefreshToken)
	assert.Equal(t, "r-new", *b.RefreshToken)
}
