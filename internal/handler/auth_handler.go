/*
Package handler provides HTTP handler functions for user authentication and sessions.
*/
package handler

import (
	"errors"
	"net/http"
	"strings"

	"lostfound/internal/app/store"
	"lostfound/internal/app/user"
	"lostfound/internal/pkg/auth/jwt"
	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/logx"
	"lostfound/internal/pkg/req"
	"lostfound/internal/pkg/resp"
)

type CredentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// requireUser loads the authenticated caller. It answers 401 and returns false when the
// request carries no valid access token or its user no longer exists.
func requireUser(deps *AppDeps, w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
		return nil, false
	}

	u, err := deps.Store.UserByID(r.Context(), payload.UserID)
	if err != nil {
		if !store.IsNotFound(err) {
			logx.Error(err, "auth: failed to load user", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.Internal(err))
			return nil, false
		}
		logx.Warn("auth: token refers to a missing user", "user_id", payload.UserID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
		return nil, false
	}

	return u, true
}

// startSession issues a token pair for u, sets the cookies and writes the login response.
func startSession(deps *AppDeps, w http.ResponseWriter, r *http.Request, u *user.User) {
	pair, err := deps.Issuer.IssuePair(u.ID, u.Username)
	if err != nil {
		logx.Error(err, "failed to issue tokens", "user_id", u.ID)
		resp.RespondError(w, r, errs.Internal(err))
		return
	}

	jwt.SetAuthCookies(w, pair, deps.cookieOptions())
	resp.RespondSuccess(w, r, map[string]any{
		"token": pair.AccessToken,
		"user":  u.Public(),
	})
}

// HandleRegister creates an account from a username and password and logs it in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CredentialsInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Username = strings.TrimSpace(input.Username)
		if input.Username == "" || input.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields, "username, password"))
			return
		}
		if !user.ValidUsername(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		hash, err := user.HashPassword(input.Password)
		if err != nil {
			if errors.Is(err, user.ErrPasswordTooShort) || errors.Is(err, user.ErrPasswordTooLong) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
				return
			}
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		u := &user.User{Username: input.Username, PasswordHash: hash}
		if err := deps.Store.CreateUser(r.Context(), u); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				logx.Warn("registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user")
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		logx.Info("User registered", "user_id", u.ID)
		startSession(deps, w, r, u)
	}
}

// HandleLogin verifies the credentials and issues a new session.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CredentialsInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		u, err := deps.Store.UserByUsername(r.Context(), strings.TrimSpace(input.Username))
		if err != nil {
			if !store.IsNotFound(err) {
				resp.RespondError(w, r, errs.Internal(err))
				return
			}
			logx.Warn("login: unknown username", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if !u.CheckPassword(input.Password) {
			logx.Warn("login: password mismatch", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		startSession(deps, w, r, u)
	}
}

// HandleRefresh exchanges a refresh token (cookie first, then body) for a new pair.
func HandleRefresh(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(jwt.RefreshCookieName); err == nil {
			token = c.Value
		}
		if token == "" {
			var input RefreshInput
			if customErr := req.OptionalJSON(w, r, &input); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
			token = input.RefreshToken
		}
		if token == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRefreshToken))
			return
		}

		payload, err := deps.Issuer.ParseRefresh(token)
		if err != nil {
			logx.Debug("refresh: rejected token", "error", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRefreshToken))
			return
		}

		u, err := deps.Store.UserByID(r.Context(), payload.UserID)
		if err != nil {
			if !store.IsNotFound(err) {
				resp.RespondError(w, r, errs.Internal(err))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRefreshToken))
			return
		}

		pair, err := deps.Issuer.IssuePair(u.ID, u.Username)
		if err != nil {
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		jwt.SetAuthCookies(w, pair, deps.cookieOptions())
		resp.RespondSuccess(w, r, map[string]any{
			"token":     pair.AccessToken,
			"expiresAt": pair.AccessExpiresAt,
		})
	}
}

// HandleLogout clears the session cookies. It succeeds for anonymous callers too.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwt.ClearAuthCookies(w, deps.cookieOptions())
		resp.RespondStatus(w, r, http.StatusOK, "Logged out", nil)
	}
}

func HandleVerifyToken(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(deps, w, r)
		if !ok {
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"valid": true,
			"user":  u.Username,
		})
	}
}
