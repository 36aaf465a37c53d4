package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/dberrors"
	"github.com/yigit/crms/internal/pkg/logger"
)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]*models.User, int64, error)
	Approve(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, id int64, firstName, lastName string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64) error
}

// UserFilter narrows List
type UserFilter struct {
	Role     models.RoleType
	Approved *bool
	Offset   int
	Limit    int
}

// UserRepository handles users and their roles
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db, sb: psql()}
}

var userColumns = []string{
	"u.user_id", "u.role_id", "r.name", "u.email", "u.password_hash", "u.first_name", "u.last_name",
	"u.is_approved", "u.created_at", "u.updated_at", "u.last_login_at",
}

func (r *UserRepository) selectUsers() squirrel.SelectBuilder {
	return r.sb.Select(userColumns...).From("users u").Join("roles r ON r.role_id = u.role_id")
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.RoleID, &u.Role, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsApproved, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// Create inserts a user. The role is resolved by name.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (role_id, email, password_hash, first_name, last_name, is_approved)
		SELECT role_id, $2, $3, $4, $5, $6 FROM roles WHERE name = $1
		RETURNING user_id, role_id, created_at, updated_at`,
		user.Role, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.IsApproved,
	).Scan(&user.ID, &user.RoleID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: unknown role %q", apperrors.ErrValidationFailed, user.Role)
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error creating user")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.user_id": id})
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.selectUsers().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// List returns one page of users and the total matching count
func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]*models.User, int64, error) {
	where := squirrel.And{}
	if filter.Role != "" {
		where = append(where, squirrel.Eq{"r.name": filter.Role})
	}
	if filter.Approved != nil {
		where = append(where, squirrel.Eq{"u.is_approved": *filter.Approved})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("users u").
		Join("roles r ON r.role_id = u.role_id").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	sql, args, err := r.selectUsers().Where(where).
		OrderBy("u.created_at DESC", "u.user_id DESC").
		Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Approve marks an account as approved
func (r *UserRepository) Approve(ctx context.Context, id int64) error {
	return r.execUpdate(ctx, `UPDATE users SET is_approved = TRUE, updated_at = NOW() WHERE user_id = $1`, id)
}

// UpdateProfile updates a user's name
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, firstName, lastName string) error {
	return r.execUpdate(ctx, `UPDATE users SET first_name = $2, last_name = $3, updated_at = NOW() WHERE user_id = $1`,
		id, firstName, lastName)
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execUpdate(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE user_id = $1`, id, passwordHash)
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.execUpdate(ctx, `UPDATE users SET last_login_at = NOW() WHERE user_id = $1`, id)
}

func (r *UserRepository) execUpdate(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Interface("userID", args[0]).Msg("Error updating user")
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// EnsureRoles inserts any missing role rows
func (r *UserRepository) EnsureRoles(ctx context.Context) error {
	for _, role := range models.AllRoles {
		if _, err := r.db.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, role); err != nil {
			return fmt.Errorf("error seeding role %s: %w", role, err)
		}
	}
	return nil
}
