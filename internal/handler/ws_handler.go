/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

The caller is authenticated before the upgrade; rooms are joined afterwards with join events.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/store"
	"lostfound/internal/pkg/auth/jwt"
	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/logx"
	"lostfound/internal/pkg/resp"
)

// wsToken returns the access token of an upgrade request. Browsers cannot set headers
// on WebSocket requests, so the cookie and the "token" query parameter are accepted too.
func wsToken(r *http.Request) string {
	if token := jwt.ExtractToken(r); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// HandleWebSocket authenticates the caller and upgrades the connection.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := wsToken(r)
		if token == "" {
			logx.Warn("WebSocket request rejected: missing token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, err := deps.Issuer.ParseAccess(token)
		if err != nil {
			logx.Warn("WebSocket request rejected: invalid token", "error", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		u, err := deps.Store.UserByID(r.Context(), payload.UserID)
		if err != nil {
			if !store.IsNotFound(err) {
				resp.RespondError(w, r, errs.Internal(err))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, chat.Participant{UserID: u.ID, Username: u.Username})

		go client.WritePump()

		logx.Info("WebSocket connection established", "conn_id", client.ID, "user_id", u.ID)

		client.ReadPump()
	}
}
