/*
Package handler provides the HTTP handlers and routing setup for the Lost & Found server.

This file defines the main Router, applying logging, CORS and IP-based rate limiting
before delegating requests to the REST handlers and the WebSocket endpoint.
*/
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"lostfound/internal/pkg/auth/jwt"
	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/limiter"
	"lostfound/internal/pkg/logx"
	"lostfound/internal/pkg/resp"
)

const (
	AuthRate     = 0.2
	AuthBurst    = 10
	ConnectRate  = 0.5
	ConnectBurst = 10

	healthTimeout = 2 * time.Second
)

// Router sets up the routing table. The returned cleanup stops the rate limiters'
// background sweepers.
func Router(deps *AppDeps) (http.Handler, func()) {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)
	cleanup := func() {
		authLimiter.Close()
		connectLimiter.Close()
	}

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	// Credentialed requests cannot use "*", so development reflects any origin instead.
	corsOptions := cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if deps.Config.IsDevelopment() {
		corsOptions.AllowOriginFunc = func(string) bool { return true }
	}
	r.Use(cors.New(corsOptions).Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger("/health"))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := deps.Store.Ping(ctx); err != nil {
			logx.Error(err, "Health check: store unreachable")
			resp.RespondError(w, r, errs.Internal(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "Lost & Found Server",
		})
	})
	r.Get("/vapid_public_key", HandleVAPIDPublicKey(deps))

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Issuer))

		api.With(authLimiter.Middleware).Post("/register", HandleRegister(deps))
		api.With(authLimiter.Middleware).Post("/login", HandleLogin(deps))
		api.With(authLimiter.Middleware).Post("/refresh", HandleRefresh(deps))
		api.Post("/logout", HandleLogout(deps))
		api.Get("/verify_token", HandleVerifyToken(deps))

		api.Get("/profile", HandleGetProfile(deps))
		api.Put("/profile/password", HandleChangePassword(deps))

		api.Post("/upload", HandleUploadItem(deps))
		api.Get("/uploads", HandleListItems(deps))
		api.Get("/myuploads", HandleMyItems(deps))
		api.Post("/mark-claimed/{id}", HandleMarkClaimed(deps))
		api.Delete("/delete/{id}", HandleDeleteItem(deps))

		api.Route("/chat", func(c chi.Router) {
			c.Post("/start", HandleStartChat(deps))
			c.Get("/user", HandleListChats(deps))
			c.Get("/{id}/info", HandleChatInfo(deps))
			c.Get("/{id}/messages", HandleChatMessages(deps))
			c.Post("/{id}/read", HandleMarkChatRead(deps))
		})

		api.Post("/save-subscription", HandleSaveSubscription(deps))
		api.Post("/unsubscribe", HandleUnsubscribe(deps))
		api.Get("/vapid_public_key", HandleVAPIDPublicKey(deps))
	})

	r.With(connectLimiter.Middleware).Get("/ws", HandleWebSocket(deps, wsUpgrader))

	return r, cleanup
}
