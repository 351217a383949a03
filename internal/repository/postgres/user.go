package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/models"
	"github.com/nkiryanov/accountd/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, email, username, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, email, username, password_hash, is_active, is_staff, is_superuser
`

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), params.Email, params.Username, params.HashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return user, apperrors.ErrUsernameTaken
			default:
				return user, apperrors.ErrUserAlreadyExists
			}
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, email, username, password_hash, is_active, is_staff, is_superuser
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, created_at, email, username, password_hash, is_active, is_staff, is_superuser
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateUsername = `-- name: UpdateUsername
UPDATE users
SET username = $2
WHERE id = $1
RETURNING id, created_at, email, username, password_hash, is_active, is_staff, is_superuser
`

func (r *UserRepo) UpdateUsername(ctx context.Context, id uuid.UUID, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUsername, id, username)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return user, apperrors.ErrUsernameTaken
		case errors.Is(err, pgx.ErrNoRows):
			return user, apperrors.ErrUserNotFound
		default:
			return user, fmt.Errorf("db error: %w", err)
		}
	}

	return user, nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Email, &u.Username, &u.HashedPassword, &u.IsActive, &u.IsStaff, &u.IsSuperuser)
	return u, err
}
