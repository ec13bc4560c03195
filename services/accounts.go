package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/models"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/repository"
)

// ErrInvalidCredentials covers every login failure the user is allowed to see.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the slice of the persistence layer the account lifecycle needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Accounts registers and authenticates users.
type Accounts struct {
	users  UserStore
	hasher *Hasher
}

func NewAccounts(users UserStore, hasher *Hasher) *Accounts {
	return &Accounts{users: users, hasher: hasher}
}

// Register hashes the password on the worker pool and inserts the user.
func (a *Accounts) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, &repository.ValidationError{Field: "Email", Rule: "required"}
	}
	if password == "" {
		return nil, &repository.ValidationError{Field: "Password", Rule: "required"}
	}

	hash, err := a.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, Password: hash, Name: name}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user for a matching email and password. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials; store failures
// are returned as they are.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := a.users.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := a.hasher.Verify(ctx, user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
