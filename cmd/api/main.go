// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/teamgrid/messaging-platform/internal/bus"
	"github.com/teamgrid/messaging-platform/internal/config"
	"github.com/teamgrid/messaging-platform/internal/handler"
	"github.com/teamgrid/messaging-platform/internal/hub"
	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/push"
	"github.com/teamgrid/messaging-platform/internal/relay"
	"github.com/teamgrid/messaging-platform/internal/search"
	"github.com/teamgrid/messaging-platform/internal/service"
	"github.com/teamgrid/messaging-platform/internal/store"
	"github.com/teamgrid/messaging-platform/pkg/logger"
	"github.com/teamgrid/messaging-platform/pkg/tracing"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "messaging-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Durable store
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Cluster bus
	busClient, err := bus.Connect(bus.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer busClient.Close()

	// Session hub and fanout relay
	sessionHub := hub.New(log)
	fanout := relay.New(busClient, sessionHub, log)
	if err := fanout.Start(); err != nil {
		log.Error("failed to start relay", zap.Error(err))
		os.Exit(1)
	}
	defer fanout.Stop()

	// Optional collaborators
	var pushSender push.Sender
	if cfg.PushEndpoint != "" {
		pushSender = push.NewHTTPSender(cfg.PushEndpoint, cfg.PushAPIKey, cfg.PushTimeout)
		log.Info("push delivery enabled")
	}
	var indexer search.Indexer
	if cfg.IndexEndpoint != "" {
		indexer = search.NewHTTPIndexer(cfg.IndexEndpoint, cfg.IndexAPIKey, cfg.IndexTimeout)
		log.Info("message indexing enabled")
	}

	// Services
	notificationSvc := service.NewNotificationService(st, fanout, pushSender, log)
	mentionSvc := service.NewMentionService(st, notificationSvc, log)
	messageSvc := service.NewMessageService(st, fanout, mentionSvc, indexer, log)
	conversationSvc := service.NewConversationService(st)
	readStateSvc := service.NewReadStateService(st)
	chatroomSvc := service.NewChatroomService(st, readStateSvc, log)
	reactionSvc := service.NewReactionService(st)
	deviceSvc := service.NewDeviceService(st)
	defer messageSvc.Wait()

	// Handlers
	healthHandler := handler.NewHealthHandler(busClient)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	readStateHandler := handler.NewReadStateHandler(readStateSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	mentionHandler := handler.NewMentionHandler(mentionSvc)
	chatroomHandler := handler.NewChatroomHandler(chatroomSvc)
	reactionHandler := handler.NewReactionHandler(reactionSvc)
	deviceHandler := handler.NewDeviceHandler(deviceSvc)
	streamHandler := handler.NewStreamHandler(conversationSvc, sessionHub, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Unauthenticated endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversations/{conversationID}", func(r chi.Router) {
			r.Post("/messages", messageHandler.Send)
			r.Get("/messages", messageHandler.List)
			r.Put("/read-state", readStateHandler.Advance)
			r.Get("/unread-count", readStateHandler.UnreadCount)
		})

		r.Route("/messages/{messageID}", func(r chi.Router) {
			r.Get("/", messageHandler.Get)
			r.Put("/", messageHandler.Edit)
			r.Delete("/", messageHandler.Delete)
			r.Get("/replies", messageHandler.Replies)
			r.Post("/reactions", reactionHandler.Add)
			r.Delete("/reactions", reactionHandler.Remove)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Get("/unread", notificationHandler.ListUnread)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Post("/read-all", notificationHandler.MarkAllRead)
			r.Post("/{notificationID}/read", notificationHandler.MarkRead)
		})

		r.Route("/mentions", func(r chi.Router) {
			r.Get("/unread", mentionHandler.ListUnread)
			r.Post("/read-all", mentionHandler.MarkAllRead)
			r.Post("/{mentionID}/read", mentionHandler.MarkRead)
		})

		r.Route("/chatrooms", func(r chi.Router) {
			r.Post("/", chatroomHandler.Open)
			r.Get("/", chatroomHandler.List)
			r.Post("/{conversationID}/hide", chatroomHandler.Hide)
		})

		r.Post("/devices", deviceHandler.Register)
		r.Delete("/devices/{token}", deviceHandler.Deactivate)

		r.Get("/stream", streamHandler.Stream)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
