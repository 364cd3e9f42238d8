package auth

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tidy/internal/apperr"
	"tidy/internal/testutil"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]User)}
}

func (m *memUsers) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Name]; ok {
		return apperr.New(apperr.UserExists, "create user", u.Name, nil)
	}
	m.users[u.Name] = u
	return nil
}

func (m *memUsers) GetUser(_ context.Context, name string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[name]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func newTestService() (*Service, *memUsers) {
	users := newMemUsers()
	return NewService(users, testutil.FixedClock(), bcrypt.MinCost), users
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, users := newTestService()
	require.NoError(t, svc.Register(context.Background(), "alice", "s3cret"))

	u := users.users["alice"]
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))
	assert.True(t, u.CreatedAt.Equal(testutil.FixedClock().Now()))
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "alice", "one"))

	err := svc.Register(ctx, "alice", "two")
	assert.ErrorIs(t, err, apperr.ErrUserExists)
}

func TestRegisterCaseSensitive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "alice", "one"))
	assert.NoError(t, svc.Register(ctx, "Alice", "two"))
}

func TestRegisterEmpty(t *testing.T) {
	svc, users := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Register(ctx, "", "pw"), apperr.ErrEmptyCredentials)
	assert.ErrorIs(t, svc.Register(ctx, "   ", "pw"), apperr.ErrEmptyCredentials)
	assert.ErrorIs(t, svc.Register(ctx, "alice", ""), apperr.ErrEmptyCredentials)
	assert.Empty(t, users.users)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "alice", "s3cret"))

	u, err := svc.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "alice", "")
	assert.ErrorIs(t, err, apperr.ErrEmptyCredentials)
}

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "bob.smith", "user_1", "Ünïcode", strings.Repeat("a", MaxUsernameLen)}
	for _, name := range valid {
		assert.NoError(t, ValidateUsername(name), name)
	}

	invalid := []string{
		"a/b",
		`a\b`,
		"..",
		"a..b",
		".",
		"nul\x00byte",
		strings.Repeat("a", MaxUsernameLen+1),
	}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateUsername(name), apperr.ErrInvalidUsername, "%q", name)
	}

	assert.ErrorIs(t, ValidateUsername(""), apperr.ErrEmptyCredentials)
}

func TestRegisterRejectsInvalidUsername(t *testing.T) {
	svc, users := newTestService()
	err := svc.Register(context.Background(), "../etc", "pw")
	assert.ErrorIs(t, err, apperr.ErrInvalidUsername)
	assert.Empty(t, users.users)
}
