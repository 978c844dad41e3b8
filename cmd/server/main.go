package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/cache"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/config"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/database"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/notify"
	postgresrepo "github.com/mrj0nesmtl/loftsdesarts-sub000/internal/repository/postgres"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/service"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/transport/http/handlers"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/transport/http/middleware"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/transport/ws"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg := config.Load()

	// Database
	if err := database.Migrate(cfg); err != nil {
		sugar.Fatalw("migrations failed", "error", err)
	}
	pool, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}
	defer pool.Close()
	sugar.Info("connected to database")

	// Repositories
	residentRepo := postgresrepo.NewResidentRepo(pool)
	convRepo := postgresrepo.NewConversationRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	notifRepo := postgresrepo.NewNotificationRepo(pool)

	// Redis-backed unread counters; the server degrades to database
	// counts when Redis is down.
	unread, err := cache.NewUnreadCache(cfg.RedisURL)
	if err != nil {
		sugar.Warnw("redis unavailable, unread counters fall back to database", "error", err)
	} else {
		defer unread.Close()
	}

	// Services
	convService := service.NewConversationService(convRepo, residentRepo, sugar)
	messageService := service.NewMessageService(messageRepo, convRepo, sugar)
	residentService := service.NewResidentService(residentRepo)
	notifService := service.NewNotificationService(notifRepo)
	if unread != nil {
		convService.SetUnreadCounter(unread)
	}

	// Real-time hub
	hub := ws.NewHub(sugar)
	go hub.Run()
	messageService.SetNotifier(ws.NewHubNotifier(hub, sugar))

	// Fan-out queue
	var enqueuer *notify.Enqueuer
	if unread != nil {
		enqueuer, err = notify.NewEnqueuer(cfg.RedisURL)
		if err != nil {
			sugar.Warnw("fan-out queue unavailable", "error", err)
		} else {
			defer enqueuer.Close()
			messageService.SetEnqueuer(enqueuer)
		}
	}

	// Handlers
	convHandler := handlers.NewConversationHandler(convService, sugar)
	messageHandler := handlers.NewMessageHandler(messageService, sugar)
	residentHandler := handlers.NewResidentHandler(residentService, sugar)
	notifHandler := handlers.NewNotificationHandler(notifService, sugar)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret, sugar))

	// Protected - Residents directory
	mux.Handle("GET /api/v1/residents", auth(http.HandlerFunc(residentHandler.List)))
	mux.Handle("GET /api/v1/residents/{id}", auth(http.HandlerFunc(residentHandler.Get)))

	// Protected - Conversations
	mux.Handle("POST /api/v1/conversations", auth(http.HandlerFunc(convHandler.Create)))
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(convHandler.List)))
	mux.Handle("GET /api/v1/conversations/{id}", auth(http.HandlerFunc(convHandler.Get)))
	mux.Handle("POST /api/v1/conversations/{id}/read", auth(http.HandlerFunc(convHandler.MarkRead)))

	// Protected - Messages
	mux.Handle("POST /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("GET /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))

	// Protected - Notifications
	mux.Handle("GET /api/v1/notifications", auth(http.HandlerFunc(notifHandler.ListUnread)))
	mux.Handle("POST /api/v1/notifications/{id}/read", auth(http.HandlerFunc(notifHandler.MarkRead)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{Addr: addr, Handler: middleware.CORS(mux)}

	g.Go(func() error {
		sugar.Infow("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	if enqueuer != nil {
		worker := notify.NewWorker(convRepo, notifRepo, unread, hub, sugar)
		g.Go(func() error {
			return notify.RunServer(ctx, cfg.RedisURL, worker)
		})
	}

	if err := g.Wait(); err != nil {
		sugar.Fatalw("server exited", "error", err)
	}
}
