/*
Package main is the entry point for the Lost & Found server.

It loads configuration, initializes logging, opens the configured store and media host,
starts the push notifier and the chat hub (optionally bridged over Redis), serves HTTP
and shuts everything down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lostfound/internal/app/broker"
	"lostfound/internal/app/chat"
	"lostfound/internal/app/db"
	"lostfound/internal/app/docstore"
	"lostfound/internal/app/memstore"
	"lostfound/internal/app/push"
	"lostfound/internal/app/storage"
	"lostfound/internal/configs"
	"lostfound/internal/handler"
	"lostfound/internal/pkg/auth/jwt"
	"lostfound/internal/pkg/logx"
)

// backend is a handler.Store that holds connections.
type backend interface {
	handler.Store
	Close()
}

func openStore(ctx context.Context, cfg *configs.AppConfig) (backend, error) {
	switch cfg.StoreDriver {
	case configs.StorePostgres:
		return db.Open(ctx, cfg.DatabaseDSN)
	case configs.StoreMongo:
		return docstore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case configs.StoreMemory:
		logx.Warn("Using the in-memory store: data is lost on restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("store", cfg.StoreDriver).
		Str("media", cfg.MediaProvider).
		Bool("push", cfg.PushEnabled()).
		Bool("redis", cfg.RedisAddr != "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open store", "driver", cfg.StoreDriver)
	}
	defer st.Close()

	uploader, err := storage.NewUploader(ctx, storage.Config{
		Provider:            cfg.MediaProvider,
		Folder:              cfg.CloudinaryFolder,
		CloudinaryCloudName: cfg.CloudinaryCloudName,
		CloudinaryAPIKey:    cfg.CloudinaryAPIKey,
		CloudinaryAPISecret: cfg.CloudinaryAPISecret,
		S3BucketName:        cfg.S3BucketName,
		S3Endpoint:          cfg.S3Endpoint,
		S3AccessKeyID:       cfg.S3AccessKeyID,
		S3SecretAccessKey:   cfg.S3SecretAccessKey,
		S3PublicBaseURL:     cfg.S3PublicBaseURL,
	})
	if err != nil {
		if !cfg.IsDevelopment() {
			logx.Fatal(err, "Failed to initialize media host", "provider", cfg.MediaProvider)
		}
		logx.Warn("Media host unavailable, uploads will fail", "provider", cfg.MediaProvider, "error", err.Error())
	}

	var sender push.Sender
	if cfg.PushEnabled() {
		sender = push.NewVAPIDSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	}
	notifier := push.NewNotifier(st, sender, cfg.PushWorkers, push.DefaultQueueSize)

	service := chat.NewService(st, notifier)

	// Optional Redis bridge so several instances share chat rooms.
	var roomBroker *broker.Redis
	if cfg.RedisAddr != "" {
		client, err := broker.NewClient(ctx, broker.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logx.Fatal(err, "Failed to connect to Redis", "addr", cfg.RedisAddr)
		}
		roomBroker = broker.NewRedis(client)
	}

	var hub *chat.Hub
	if roomBroker != nil {
		hub = chat.NewHub(service, roomBroker)
		go func() {
			if err := roomBroker.Run(ctx, hub.Deliver); err != nil {
				logx.Error(err, "Redis room bridge stopped")
			}
		}()
	} else {
		hub = chat.NewHub(service, nil)
	}

	deps := &handler.AppDeps{
		Config:   cfg,
		Store:    st,
		Issuer:   jwt.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Uploader: uploader,
		Notifier: notifier,
		Chat:     service,
		Hub:      hub,
	}

	// Setup HTTP server and routes
	router, stopLimiters := handler.Router(deps)
	defer stopLimiters()

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Lost & Found server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	hub.Shutdown()
	notifier.Close()
	if roomBroker != nil {
		if err := roomBroker.Close(); err != nil {
			logx.Error(err, "Failed to close Redis client")
		}
	}

	logx.Info("Server gracefully stopped.")
}
