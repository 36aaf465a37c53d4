package inmemdb

import (
	"context"
	"time"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

// UserRepository implements repositories.IUserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a UserRepository on db
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	for i, role := range models.AllRoles {
		if role == user.Role {
			user.RoleID = int64(i + 1)
		}
	}
	user.ID = r.db.nextID()
	user.CreatedAt = r.db.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.db.users[user.ID] = &stored
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u, ok := r.db.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *UserRepository) List(_ context.Context, filter repositories.UserFilter) ([]*models.User, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matched []*models.User
	for _, id := range sortedKeys(r.db.users) {
		u := r.db.users[id]
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Approved != nil && u.IsApproved != *filter.Approved {
			continue
		}
		out := *u
		matched = append(matched, &out)
	}
	return page(matched, filter.Offset, filter.Limit), int64(len(matched)), nil
}

func (r *UserRepository) update(id int64, fn func(u *models.User)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = r.db.Now()
	return nil
}

func (r *UserRepository) Approve(_ context.Context, id int64) error {
	return r.update(id, func(u *models.User) { u.IsApproved = true })
}

func (r *UserRepository) UpdateProfile(_ context.Context, id int64, firstName, lastName string) error {
	return r.update(id, func(u *models.User) {
		u.FirstName = firstName
		u.LastName = lastName
	})
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id int64) error {
	now := r.db.Now()
	return r.update(id, func(u *models.User) { u.LastLoginAt = &now })
}

// TokenRepository implements repositories.ITokenRepository
type TokenRepository struct {
	db *DB
}

// NewTokenRepository creates a TokenRepository on db
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) CreateToken(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[userID]; !ok {
		return apperrors.ErrUserNotFound
	}
	r.db.tokens[token] = &models.RefreshToken{Token: token, UserID: userID, ExpiresAt: expiresAt, CreatedAt: r.db.Now()}
	return nil
}

func (r *TokenRepository) GetToken(_ context.Context, token string) (*models.RefreshToken, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tokens[token]
	switch {
	case !ok:
		return nil, apperrors.ErrTokenNotFound
	case t.Revoked:
		return nil, apperrors.ErrTokenRevoked
	case !t.ExpiresAt.After(r.db.Now()):
		return nil, apperrors.ErrTokenExpired
	}
	out := *t
	return &out, nil
}

func (r *TokenRepository) RevokeToken(_ context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.Revoked = true
	return nil
}

func (r *TokenRepository) RevokeAllUserTokens(_ context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range r.db.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

var (
	_ repositories.IUserRepository  = (*UserRepository)(nil)
	_ repositories.ITokenRepository = (*TokenRepository)(nil)
)
