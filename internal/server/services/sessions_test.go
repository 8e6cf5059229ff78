package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, f *fixture, email string) *models.User {
	t.Helper()
	u, err := f.repos.Users().Create(context.Background(), &models.User{Email: email, IsEmailVerified: true})
	require.NoError(t, err)
	return u
}

func TestSessionService_CreateValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := seedUser(t, f, "a@b.c")

	tok, err := f.sessions.Create(ctx, u.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{64}$`, tok)

	s, err := f.repos.Sessions().FindByToken(ctx, tok)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), s.ExpiresAt, time.Minute)

	pu, err := f.sessions.Validate(ctx, tok)
	require.NoError(t, err)
	require.NotNil(t, pu)
	assert.Equal(t, u.ID, pu.ID)

	pu, err = f.sessions.Validate(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, pu)

	pu, err = f.sessions.Validate(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, pu)
}

func TestSessionService_ExpiredIsAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := seedUser(t, f, "a@b.c")

	tok, err := f.sessions.Create(ctx, u.ID)
	require.NoError(t, err)

	f.sessions.now = func() time.Time { return time.Now().Add(7*24*time.Hour + time.Minute) }

	pu, err := f.sessions.Validate(ctx, tok)
	require.NoError(t, err)
	assert.Nil(t, pu)

	n, err := f.sessions.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.repos.Sessions().FindByToken(ctx, tok)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSessionService_RetriesOnTokenCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := seedUser(t, f, "a@b.c")

	f.sessionTokens.queue = []string{"taken"}
	_, err := f.sessions.Create(ctx, u.ID)
	require.NoError(t, err)

	f.sessionTokens.queue = []string{"taken", "taken", "fresh"}
	tok, err := f.sessions.Create(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
}

func TestSessionService_CollisionsExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := seedUser(t, f, "a@b.c")

	f.sessionTokens.queue = []string{"taken"}
	_, err := f.sessions.Create(ctx, u.ID)
	require.NoError(t, err)

	f.sessionTokens.queue = []string{"taken", "taken", "taken", "fresh"}
	_, err = f.sessions.Create(ctx, u.ID)
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrorConflict)
	assert.Equal(t, common.ErrorInternal, common.Kind(err))
}

func TestSessionService_GeneratorFailure(t *testing.T) {
	f := newFixture(t)
	u := seedUser(t, f, "a@b.c")
	f.sessionTokens.err = errBoom

	_, err := f.sessions.Create(context.Background(), u.ID)
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestSessionService_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.sessions.Validate(ctx, "tok")
	require.ErrorIs(t, err, common.ErrorInternal)
	require.ErrorIs(t, f.sessions.Revoke(ctx, "tok"), common.ErrorInternal)
	_, err = f.sessions.PurgeExpired(ctx)
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestRandomTokenGenerator(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		tok, err := RandomTokenGenerator{}.Generate()
		require.NoError(t, err)
		require.Len(t, tok, 64)
		seen[tok] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
