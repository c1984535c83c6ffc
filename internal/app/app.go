package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"linktrack-go/internal/bot"
	"linktrack-go/internal/channels"
	"linktrack-go/internal/config"
	"linktrack-go/internal/db"
	"linktrack-go/internal/digest"
	"linktrack-go/internal/gateway"
	"linktrack-go/internal/handlers"
	"linktrack-go/internal/ingest"
	"linktrack-go/internal/metrics"
	"linktrack-go/internal/ratelimit"
	"linktrack-go/internal/reactions"
	"linktrack-go/internal/server"
	"linktrack-go/internal/store"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting LinkTrack Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.NewMetrics()
	st := store.New(dbConn)

	var cache channels.Cache
	if cfg.Cache.Enabled {
		cache = channels.NewMemoryCache(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
		logrus.Info("Using in-memory channel cache")
	} else {
		cache = channels.NopCache{}
		logrus.Info("Channel caching disabled")
	}

	authority := channels.NewAuthority(st, cache,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second, cfg.Bot.LegacyChannels)

	limiter := ratelimit.New(&cfg.RateLimit)
	if err := limiter.Start(); err != nil {
		return fmt.Errorf("failed to start rate limiter: %w", err)
	}

	chat := gateway.NewClient(&cfg.Gateway, cfg.Bot.Token)

	var notifier ingest.Notifier
	if cfg.Webhook.Enabled {
		notifier = ingest.NewWebhookNotifier(&cfg.Webhook, m)
		logrus.Infof("Link webhook delivery enabled: %s", cfg.Webhook.URL)
	}

	ingestor := ingest.NewIngestor(st, chat, notifier, m, cfg.Bot.BotUserID, cfg.Bot.AckEmoji)
	engine := reactions.NewEngine(st, st, chat, authority, m,
		cfg.Bot.BotUserID, cfg.Bot.AckEmoji, cfg.Bot.DeleteEmojis)
	dispatcher := digest.NewDispatcher(limiter, st, st, chat, m,
		cfg.Bot.BotUserID, cfg.Bot.AckEmoji)

	b := bot.New(ingestor, engine, dispatcher)

	h := handlers.NewHandlers(dbConn, limiter)
	router := server.SetupRouter(h)
	gateway.NewEventRoutes(b, m).Register(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := limiter.Stop(); err != nil {
		logrus.Errorf("Failed to stop rate limiter: %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
