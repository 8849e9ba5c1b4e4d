package handler

import (
	"context"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/item"
	"lostfound/internal/app/push"
	"lostfound/internal/app/storage"
	"lostfound/internal/app/user"
	"lostfound/internal/configs"
	"lostfound/internal/pkg/auth/jwt"
)

// Store is what the handlers need from a backend. memstore, db and docstore all
// satisfy it.
type Store interface {
	user.Repository
	item.Repository
	chat.Repository
	push.Repository

	Ping(ctx context.Context) error
}

// PushNotifier queues web push notifications. *push.Notifier implements it.
type PushNotifier interface {
	Enabled() bool
	NotifyUser(userID, title, body, url string)
	NotifyAllExcept(userID, title, body, url string)
}

type AppDeps struct {
	Config   *configs.AppConfig
	Store    Store
	Issuer   *jwt.Issuer
	Uploader storage.Uploader
	Notifier PushNotifier
	Chat     *chat.Service
	Hub      *chat.Hub
}

func (d *AppDeps) cookieOptions() jwt.CookieOptions {
	return jwt.CookieOptions{Secure: d.Config.CookieSecure}
}
