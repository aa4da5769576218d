// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/ea-marketplace/internal/config"
	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

type memUsers struct {
	mu     sync.Mutex
	byMail map[string]*UserInfo
	seq    int
}

func newMemUsers() *memUsers {
	return &memUsers{byMail: map[string]*UserInfo{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byMail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byMail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, nu NewUser) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byMail[nu.Email]; ok {
		return nil, core.ErrDuplicateKey
	}
	m.seq++
	u := &UserInfo{
		ID:           fmt.Sprintf("user-%d", m.seq),
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		TelegramID:   nu.TelegramID,
		FullName:     nu.FullName,
		Status:       "active",
		CreatedAt:    time.Now(),
	}
	m.byMail[nu.Email] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byMail {
		if u.ID == userID {
			u.PasswordHash = hash
			return nil
		}
	}
	return core.ErrNotFound
}

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		AccessTokenExpire: time.Hour,
		Issuer:            "ea-marketplace",
		Audience:          "ea-marketplace-api",
	})
	require.NoError(t, err)
	return m
}

func TestRegisterThenLogin(t *testing.T) {
	users := newMemUsers()
	jwtm := newTestJWT(t)
	svc := NewService(jwtm, users, nil)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:      "  Trader@Example.com ",
		Password:   "secret123",
		TelegramID: "12345",
	})
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", reg.User.Email)
	assert.Equal(t, roleUser, reg.User.Role)
	assert.Equal(t, "Bearer", reg.TokenType)

	login, err := svc.Login(ctx, LoginRequest{Email: "TRADER@example.com", Password: "secret123"})
	require.NoError(t, err)

	claims, err := jwtm.VerifyAccessToken(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", claims.Email)
	assert.Equal(t, reg.User.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newTestJWT(t), newMemUsers(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.co", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "A@B.co", Password: "other123"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(newTestJWT(t), newMemUsers(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.co", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.co", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@b.co", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsSuspended(t *testing.T) {
	users := newMemUsers()
	svc := NewService(newTestJWT(t), users, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.co", Password: "secret123"})
	require.NoError(t, err)
	users.byMail["a@b.co"].Status = "suspended"

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.co", Password: "secret123"})
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestChangePassword(t *testing.T) {
	svc := NewService(newTestJWT(t), newMemUsers(), nil)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Email: "a@b.co", Password: "secret123"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, reg.User.ID, "wrong", "newsecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, reg.User.ID, "secret123", "newsecret"))

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.co", Password: "newsecret"})
	assert.NoError(t, err)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	users := newMemUsers()
	svc := NewService(newTestJWT(t), users, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "Admin@Example.com", "adminpass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "different"))

	admin, err := users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, roleAdmin, admin.Role)

	_, err = svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "adminpass"})
	assert.NoError(t, err)
}

func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	users := newMemUsers()
	svc := NewService(newTestJWT(t), users, nil)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))
	assert.Empty(t, users.byMail)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	jwtm := newTestJWT(t)

	other, err := NewJWTManager(config.JWTConfig{
		Secret:            "another-secret-another-secret-xx",
		AccessTokenExpire: time.Hour,
		Issuer:            "ea-marketplace",
		Audience:          "ea-marketplace-api",
	})
	require.NoError(t, err)

	foreign, _, err := other.CreateAccessToken(AccessTokenClaims{UserID: "u1", Email: "a@b.co", Role: "user"})
	require.NoError(t, err)

	_, err = jwtm.VerifyAccessToken(ctx, foreign)
	assert.True(t, errors.Is(err, core.ErrTokenInvalid))

	jwtm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := jwtm.CreateAccessToken(AccessTokenClaims{UserID: "u1", Email: "a@b.co", Role: "user"})
	require.NoError(t, err)
	jwtm.now = time.Now

	_, err = jwtm.VerifyAccessToken(ctx, stale)
	assert.Error(t, err)
}
