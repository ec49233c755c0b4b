package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coursehub/content/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailExists   = errors.New("email already exists")
	ErrUsernameTaken = errors.New("username already taken")
)

const userColumns = `id, email, nickname, username, headline, introduction, image, role, email_verified, created_at, updated_at`

// CreateUser inserts user and fills its generated id and timestamps.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (email, nickname, username, headline, introduction, image, role, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	role := user.Role
	if role == "" {
		role = model.RoleUser
	}

	err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.Nickname,
		user.Username,
		user.Headline,
		user.Introduction,
		user.Image,
		role,
		user.EmailVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapUserWriteError(err, "create user")
	}

	user.Role = role
	return nil
}

// GetUserByID retrieves a user by id.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UpdateUserProfile applies patch to the user with id and returns the
// stored row. Unset patch fields keep their current value.
func (r *Repository) UpdateUserProfile(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	query := `
		UPDATE users SET
			nickname     = COALESCE($2, nickname),
			username     = COALESCE($3, username),
			headline     = COALESCE($4, headline),
			introduction = COALESCE($5, introduction),
			image        = COALESCE($6, image),
			updated_at   = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		id,
		patch.Nickname,
		patch.Username,
		patch.Headline,
		patch.Introduction,
		patch.Image,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, mapUserWriteError(err, "update user")
	}
	return user, nil
}

// GetOrCreateUser returns the user with user.Email, creating it if absent.
func (r *Repository) GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	existing, err := r.GetUserByEmail(ctx, user.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if err := r.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent insert.
		if errors.Is(err, ErrEmailExists) {
			return r.GetUserByEmail(ctx, user.Email)
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Nickname,
		&u.Username,
		&u.Headline,
		&u.Introduction,
		&u.Image,
		&u.Role,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func mapUserWriteError(err error, op string) error {
	switch uniqueViolation(err) {
	case "":
		return fmt.Errorf("failed to %s: %w", op, err)
	case "users_username_key":
		return ErrUsernameTaken
	case "users_email_key":
		return ErrEmailExists
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
