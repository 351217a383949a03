package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/handlers/render"
	"github.com/nkiryanov/accountd/internal/logger"
)

func handleRegister(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Username string `json:"username,omitempty" validate:"omitempty,max=255"`
	}
	// Username is deliberately left out of the response
	type response struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := auth.Register(r.Context(), data.Email, data.Password, data.Username)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.Fields(w, render.FieldErrors{"email": {"user with this email already exists."}})
			case errors.Is(err, apperrors.ErrUsernameTaken):
				render.Fields(w, render.FieldErrors{"username": {"user with this username already exists."}})
			default:
				l.Error("register failed", "error", err)
				render.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONStatus(w, response{ID: user.ID, Email: user.Email}, http.StatusCreated)
	})
}

func handleLogin(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var data request
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			render.Error(w, "Malformed JSON body", http.StatusBadRequest)
			return
		}

		// A payload that can't even name valid credentials fails the same
		// way wrong credentials do
		if err := render.Validate(data); err != nil {
			render.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		pair, err := auth.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.Error(w, "Invalid credentials", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err)
				render.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleTokenRefresh(auth authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type response struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := auth.Refresh(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTokenInvalid),
				errors.Is(err, apperrors.ErrTokenExpired),
				errors.Is(err, apperrors.ErrTokenRevoked):
				// One message for every token failure: nothing to learn here
				render.Error(w, "Invalid token or expired refresh token", http.StatusUnauthorized)
			default:
				l.Error("token refresh failed", "error", err)
				render.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleLogout(auth authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type response struct {
		Success string `json:"success"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = auth.Logout(r.Context(), data.RefreshToken)
		if err != nil {
			// Logging out with a broken or expired token is a client error
			switch {
			case errors.Is(err, apperrors.ErrTokenExpired):
				render.Error(w, "Token is expired", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrTokenInvalid):
				render.Error(w, "Token is invalid", http.StatusBadRequest)
			default:
				l.Error("logout failed", "error", err)
				render.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Success: "User logged out."})
	})
}
