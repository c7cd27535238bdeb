package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/cache"
	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/database/dbtest"
	"github.com/Additional-Code/tableside/internal/entity"
	staffrepo "github.com/Additional-Code/tableside/internal/repository/staff"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

type ttlCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func (c *ttlCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *ttlCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *ttlCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newService(t *testing.T) (*Service, *staffrepo.Repository, *ttlCache) {
	t.Helper()
	conns := dbtest.Open(t)
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Issuer = "tableside-test"
	cfg.Auth.TokenTTL = time.Hour

	tc := &ttlCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
	repo := staffrepo.NewRepository(conns)
	return NewService(Params{DB: conns, Staff: repo, Cache: tc, Config: cfg, Logger: zap.NewNop()}), repo, tc
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	member, err := svc.SignUp(ctx, "Ravi", " Ravi@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleWaiter, member.Role)
	assert.Equal(t, "ravi@example.com", member.Email)

	profile, err := repo.GetProfile(ctx, member.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", profile.PasswordHash)

	_, err = svc.SignUp(ctx, "Ravi again", "ravi@example.com", "correct horse")
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))

	session, err := svc.SignIn(ctx, "RAVI@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.Verify(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, member.ID, claims.Subject)
	assert.Equal(t, entity.RoleWaiter, claims.Role)
	assert.Equal(t, "Ravi", claims.Name)

	_, err = svc.SignIn(ctx, "ravi@example.com", "wrong password")
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))
	_, err = svc.SignIn(ctx, "nobody@example.com", "whatever1")
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))
}

func TestSignUp_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "", "a@b.c", "longenough")
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
	_, err = svc.SignUp(ctx, "A", "not-an-email", "longenough")
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
	_, err = svc.SignUp(ctx, "A", "a@b.c", "short")
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
}

func TestSignOut_RevokesToken(t *testing.T) {
	svc, _, tc := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Meera", "meera@example.com", "s3cret-pass")
	require.NoError(t, err)
	session, err := svc.SignIn(ctx, "meera@example.com", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, session.Token))
	require.Len(t, tc.ttls, 1)
	for _, ttl := range tc.ttls {
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
	}

	_, err = svc.Verify(ctx, session.Token)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))
}

func TestVerify_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Meera", "meera@example.com", "s3cret-pass")
	require.NoError(t, err)
	session, err := svc.SignIn(ctx, "meera@example.com", "s3cret-pass")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(ctx, session.Token)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))

	svc.now = time.Now
	svc.secret = []byte("another-secret")
	_, err = svc.Verify(ctx, session.Token)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))
}
