package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/repository/postgres"
	"github.com/nkiryanov/accountd/internal/testutil"
)

func Test_AuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(s *AuthService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}
			blacklistRepo := &postgres.TokenBlacklistRepo{DB: tx}

			tokenService, err := NewTokenService(TokenServiceConfig{
				SecretKey:  "test-secret-key",
				AccessTTL:  15 * time.Minute,
				RefreshTTL: 24 * time.Hour,
			}, blacklistRepo)
			require.NoError(t, err, "token service should be created without errors")

			s, err := NewService(Config{}, tokenService, userRepo)
			require.NoError(t, err, "auth service couldn't be started", err)

			fn(s)
		})
	}

	t.Run("new service defaults", func(t *testing.T) {
		withTx(pg.Pool, t, func(s *AuthService) {
			require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
		})
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok, no tokens issued", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				user, err := s.Register(t.Context(), "nk@example.com", "pwd", "nkiryanov")

				require.NoError(t, err, "registering new user should be ok")
				assert.Equal(t, "nk@example.com", user.Email)
				assert.Equal(t, "nkiryanov", user.Username)
				assert.NotEqual(t, "pwd", user.HashedPassword, "password must be stored hashed")
				assert.True(t, user.IsActive)
			})
		})

		t.Run("email is normalized", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				user, err := s.Register(t.Context(), "  NK@Example.COM ", "pwd", "nkiryanov")

				require.NoError(t, err)
				assert.Equal(t, "nk@example.com", user.Email)
			})
		})

		t.Run("username defaults to email", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				user, err := s.Register(t.Context(), "nk@example.com", "pwd", "")

				require.NoError(t, err)
				assert.Equal(t, "nk@example.com", user.Username)
			})
		})

		t.Run("fail if email taken", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "nk@example.com", "pwd", "nkiryanov")
				require.NoError(t, err)

				_, err = s.Register(t.Context(), "nk@example.com", "other-pwd", "othername")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})

		t.Run("fail if username taken", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "nk@example.com", "pwd", "nkiryanov")
				require.NoError(t, err)

				_, err = s.Register(t.Context(), "other@example.com", "pwd", "nkiryanov")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUsernameTaken)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("registered user ok", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "nk@example.com", "pwd", "")
				require.NoError(t, err)

				pair, err := s.Login(t.Context(), "nk@example.com", "pwd")

				require.NoError(t, err)
				require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			})
		})

		t.Run("email case does not matter", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "nk@example.com", "pwd", "")
				require.NoError(t, err)

				_, err = s.Login(t.Context(), "NK@EXAMPLE.COM", "pwd")

				require.NoError(t, err)
			})
		})

		tests := []struct {
			name     string
			email    string
			password string
		}{
			{
				name:     "fail if wrong password",
				email:    "nk@example.com",
				password: "wrong",
			},
			{
				name:     "fail if user not exists",
				email:    "ghost@example.com",
				password: "pwd",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(pg.Pool, t, func(s *AuthService) {
					_, err := s.Register(t.Context(), "nk@example.com", "pwd", "")
					require.NoError(t, err)

					_, err = s.Login(t.Context(), tt.email, tt.password)

					require.Error(t, err)
					require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "both cases must be indistinguishable")
				})
			})
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("rotates pair", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "nk@example.com", "pwd", "")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "nk@example.com", "pwd")
				require.NoError(t, err)

				newPair, err := s.Refresh(t.Context(), pair.Refresh.Value)

				require.NoError(t, err)
				require.NotEqual(t, pair.Refresh.Value, newPair.Refresh.Value)

				// The used token is burned
				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
			})
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("revokes refresh token", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "nk@example.com", "pwd", "")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "nk@example.com", "pwd")
				require.NoError(t, err)

				err = s.Logout(t.Context(), pair.Refresh.Value)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
			})
		})

		t.Run("fails on malformed token", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				err := s.Logout(t.Context(), "not-a-token")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
			})
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("ok with bearer token", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				registered, err := s.Register(t.Context(), "nk@example.com", "pwd", "")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "nk@example.com", "pwd")
				require.NoError(t, err)

				req, err := http.NewRequest(http.MethodGet, "/me/", nil)
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+pair.Access.Value)

				user, err := s.Authenticate(t.Context(), req)

				require.NoError(t, err)
				assert.Equal(t, registered.ID, user.ID)
			})
		})

		t.Run("fail without header", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				req, err := http.NewRequest(http.MethodGet, "/me/", nil)
				require.NoError(t, err)

				_, err = s.Authenticate(t.Context(), req)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
			})
		})

		t.Run("fail with refresh token", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "nk@example.com", "pwd", "")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "nk@example.com", "pwd")
				require.NoError(t, err)

				req, err := http.NewRequest(http.MethodGet, "/me/", nil)
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+pair.Refresh.Value)

				_, err = s.Authenticate(t.Context(), req)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
			})
		})
	})
}
