package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/repository"
	"github.com/nkiryanov/accountd/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createParams := repository.CreateUserParams{
		Email:          "user@example.com",
		Username:       "testuser",
		HashedPassword: "hashedpassword123",
	}

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			user, err := r.CreateUser(t.Context(), createParams)

			require.NoError(t, err)
			assert.Equal(t, "user@example.com", user.Email)
			assert.Equal(t, "testuser", user.Username)
			assert.Equal(t, "hashedpassword123", user.HashedPassword)
			assert.True(t, user.IsActive, "users should be active by default")
			assert.False(t, user.IsStaff, "users should not be staff by default")
			assert.False(t, user.IsSuperuser, "users should not be superusers by default")
			assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Second, "CreatedAt should be recent")
		})
	})

	t.Run("create user duplicate email fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.CreateUser(t.Context(), createParams)
			require.NoError(t, err)

			_, err = r.CreateUser(t.Context(), repository.CreateUserParams{
				Email:          "user@example.com",
				Username:       "otheruser",
				HashedPassword: "hashedpassword123",
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists, "should return well known error")
		})
	})

	t.Run("create user duplicate username fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.CreateUser(t.Context(), createParams)
			require.NoError(t, err)

			_, err = r.CreateUser(t.Context(), repository.CreateUserParams{
				Email:          "other@example.com",
				Username:       "testuser",
				HashedPassword: "hashedpassword123",
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUsernameTaken, "should return well known error")
		})
	})

	t.Run("get user by id ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), createParams)
			require.NoError(t, err)

			got, err := r.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, created.Email, got.Email)
			assert.Equal(t, created.Username, got.Username)
			assert.Equal(t, created.HashedPassword, got.HashedPassword)
			assert.Equal(t, created.CreatedAt, got.CreatedAt)
		})
	})

	t.Run("get user by id not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByID(t.Context(), uuid.New())

			assert.Error(t, err, "Should return error for non-existent user")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
		})
	})

	t.Run("get user by email ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), createParams)
			require.NoError(t, err)

			got, err := r.GetUserByEmail(t.Context(), "user@example.com")

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, created.Email, got.Email)
		})
	})

	t.Run("get user by email not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByEmail(t.Context(), "nobody@example.com")

			assert.Error(t, err, "Should return error for non-existent user")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
		})
	})

	t.Run("update username ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), createParams)
			require.NoError(t, err)

			got, err := r.UpdateUsername(t.Context(), created.ID, "renamed")

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, "renamed", got.Username)
			assert.Equal(t, created.Email, got.Email, "email should not change")
		})
	})

	t.Run("update username taken fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), createParams)
			require.NoError(t, err)

			_, err = r.CreateUser(t.Context(), repository.CreateUserParams{
				Email:          "other@example.com",
				Username:       "otheruser",
				HashedPassword: "hashedpassword123",
			})
			require.NoError(t, err)

			_, err = r.UpdateUsername(t.Context(), created.ID, "otheruser")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUsernameTaken, "should return well known error")
		})
	})

	t.Run("update username of unknown user fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.UpdateUsername(t.Context(), uuid.New(), "whoever")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
		})
	})
}
