// Package auth registers and authenticates tidy users. Passwords are stored
// only as bcrypt hashes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tidy/internal/apperr"
	"tidy/internal/clock"
)

// MaxUsernameLen bounds usernames, which become file and directory names.
const MaxUsernameLen = 64

// User is a registered account.
type User struct {
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser fails with apperr.UserExists if the name is taken.
	CreateUser(ctx context.Context, u User) error
	// GetUser returns nil, nil when no such user exists.
	GetUser(ctx context.Context, name string) (*User, error)
}

// Service implements registration and login.
type Service struct {
	store UserStore
	clock clock.Clock
	cost  int
}

// NewService creates a Service. A cost of 0 selects bcrypt.DefaultCost.
func NewService(store UserStore, clk clock.Clock, cost int) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: store, clock: clk, cost: cost}
}

// ValidateUsername checks that name is usable as a single path component.
func ValidateUsername(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperr.New(apperr.EmptyCredentials, "validate username", "", nil)
	case len(name) > MaxUsernameLen:
		return apperr.New(apperr.InvalidUsername, "validate username", name,
			fmt.Errorf("longer than %d bytes", MaxUsernameLen))
	case strings.ContainsAny(name, `/\`+"\x00"):
		return apperr.New(apperr.InvalidUsername, "validate username", name,
			errors.New("contains a path separator or NUL"))
	case name == "." || strings.Contains(name, ".."):
		return apperr.New(apperr.InvalidUsername, "validate username", name,
			errors.New("contains a relative path element"))
	}
	return nil
}

// Register creates an account for name.
func (s *Service) Register(ctx context.Context, name, password string) error {
	if strings.TrimSpace(name) == "" || password == "" {
		return apperr.New(apperr.EmptyCredentials, "register", "", nil)
	}
	if err := ValidateUsername(name); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.CreateUser(ctx, User{
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	})
}

// Authenticate returns the user if password matches. An unknown user and a
// wrong password give the same InvalidCredentials error.
func (s *Service) Authenticate(ctx context.Context, name, password string) (*User, error) {
	if strings.TrimSpace(name) == "" || password == "" {
		return nil, apperr.New(apperr.EmptyCredentials, "login", "", nil)
	}

	u, err := s.store.GetUser(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if u == nil {
		return nil, apperr.New(apperr.InvalidCredentials, "login", "", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.New(apperr.InvalidCredentials, "login", "", nil)
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	return u, nil
}
