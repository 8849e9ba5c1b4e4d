package handler

import (
	"errors"
	"net/http"

	"lostfound/internal/app/user"
	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/logx"
	"lostfound/internal/pkg/req"
	"lostfound/internal/pkg/resp"
)

type ChangePasswordInput struct {
	NewPassword string `json:"newPassword"`
}

func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		resp.RespondSuccess(w, r, u)
	}
}

// HandleChangePassword replaces the caller's password. Existing tokens stay valid.
func HandleChangePassword(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		var input ChangePasswordInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		hash, err := user.HashPassword(input.NewPassword)
		if err != nil {
			if errors.Is(err, user.ErrPasswordTooShort) || errors.Is(err, user.ErrPasswordTooLong) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
				return
			}
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		if err := deps.Store.UpdatePassword(r.Context(), u.ID, hash); err != nil {
			logx.Error(err, "failed to update password", "user_id", u.ID)
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		resp.RespondStatus(w, r, http.StatusOK, "Password updated", nil)
	}
}
