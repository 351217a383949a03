package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/handlers/render"
	"github.com/nkiryanov/accountd/internal/handlers/userctx"
	"github.com/nkiryanov/accountd/internal/logger"
)

type userProfileResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, userProfileResponse{ID: user.ID, Email: user.Email, Username: user.Username})
	})
}

func handleUserMeUpdate(users userService, l logger.Logger) http.Handler {
	// Partial update: absent fields keep their values
	type request struct {
		Username *string `json:"username" validate:"omitempty,max=255"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if data.Username == nil || *data.Username == user.Username {
			render.JSON(w, userProfileResponse{ID: user.ID, Email: user.Email, Username: user.Username})
			return
		}

		updated, err := users.UpdateUsername(r.Context(), user.ID, *data.Username)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUsernameTaken):
				render.Fields(w, render.FieldErrors{"username": {"user with this username already exists."}})
			default:
				l.Error("profile update failed", "error", err)
				render.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, userProfileResponse{ID: updated.ID, Email: updated.Email, Username: updated.Username})
	})
}
