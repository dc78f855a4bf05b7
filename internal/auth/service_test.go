package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type memoryRepo struct {
	users    map[string]User
	sessions map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]User), sessions: make(map[string]int64)}
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	r.sessions[id] = userID
	return nil
}

func (r *memoryRepo) DeleteSession(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *memoryRepo) SeedAdmin(ctx context.Context, email, passwordHash string) error {
	if _, ok := r.users[email]; ok {
		return nil
	}
	r.users[email] = User{ID: int64(len(r.users) + 1), Email: email, PasswordHash: passwordHash, IsActive: true}
	return nil
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users["admin@example.com"] = User{ID: 1, Email: "admin@example.com", PasswordHash: string(hash), IsActive: true}
	repo.users["gone@example.com"] = User{ID: 2, Email: "gone@example.com", PasswordHash: string(hash), IsActive: false}

	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)
	require.EqualValues(t, 1, user.ID)

	_, err = svc.Authenticate(ctx, "admin@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// deactivated accounts fail closed with the same error
	_, err = svc.Authenticate(ctx, "gone@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrap-pass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrap-pass"))
	require.Len(t, repo.users, 1)
}
