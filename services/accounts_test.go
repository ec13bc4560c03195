package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/models"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/repository"
)

// memoryUsers mimics the unique email index of the real store.
type memoryUsers struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]models.User
	err    error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := repository.NormalizeEmail(user.Email)
	if _, exists := m.users[email]; exists {
		return repository.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	user.Email = email
	m.users[email] = *user
	return nil
}

func (m *memoryUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[repository.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	users := newMemoryUsers()
	accounts := NewAccounts(users, newTestHasher(t))
	ctx := context.Background()

	user, err := accounts.Register(ctx, "maria@example.com", "segredo123", "Maria")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	stored := users.users["maria@example.com"]
	assert.NotEqual(t, "segredo123", stored.Password)
	assert.NoError(t, CheckPassword(stored.Password, "segredo123"))
	assert.Error(t, CheckPassword(stored.Password, "outra"))
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	accounts := NewAccounts(newMemoryUsers(), newTestHasher(t))

	_, err := accounts.Register(context.Background(), "", "pw", "")
	assert.ErrorIs(t, err, repository.ErrValidation)

	_, err = accounts.Register(context.Background(), "a@example.com", "", "")
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestRegisterDuplicate(t *testing.T) {
	accounts := NewAccounts(newMemoryUsers(), newTestHasher(t))
	ctx := context.Background()

	_, err := accounts.Register(ctx, "joao@example.com", "pw1", "")
	require.NoError(t, err)
	_, err = accounts.Register(ctx, "JOAO@example.com", "pw2", "")
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestAuthenticate(t *testing.T) {
	users := newMemoryUsers()
	accounts := NewAccounts(users, newTestHasher(t))
	ctx := context.Background()

	registered, err := accounts.Register(ctx, "lia@example.com", "segredo123", "Lia")
	require.NoError(t, err)

	user, err := accounts.Authenticate(ctx, "lia@example.com", "segredo123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "lia@example.com", "errada"},
		{"unknown email", "ninguem@example.com", "segredo123"},
		{"missing email", "", "segredo123"},
		{"missing password", "lia@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.Authenticate(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthenticateStoreFailure(t *testing.T) {
	users := newMemoryUsers()
	users.err = errors.New("connection refused")
	accounts := NewAccounts(users, newTestHasher(t))

	_, err := accounts.Authenticate(context.Background(), "lia@example.com", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}
