/*
Package main is the entry point for the StarSky application.

It is responsible for loading configuration, initializing the global logging system,
opening the store, wiring the presence engine, starting the HTTP server, the Telegram bot
and the activity decay loop, and gracefully handling operating system interrupt signals
(SIGINT, SIGTERM) so pending store writes are flushed before exit.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"starsky/internal/app/bot"
	"starsky/internal/app/broadcast"
	"starsky/internal/app/chat"
	"starsky/internal/app/db"
	"starsky/internal/app/economy"
	"starsky/internal/app/persist"
	"starsky/internal/app/presence"
	"starsky/internal/app/session"
	"starsky/internal/app/skin"
	"starsky/internal/app/socket"
	"starsky/internal/app/store"
	"starsky/internal/configs"
	"starsky/internal/handler"
	"starsky/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("store_driver", cfg.StoreDriver).
		Bool("bot_enabled", cfg.BotEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open store")
	}
	defer closeStore()

	catalog, err := loadCatalog(cfg.SkinCatalogPath)
	if err != nil {
		logx.Fatal(err, "Failed to load skin catalog")
	}

	syncer := persist.NewSyncer(st)
	syncer.Start()

	cache := session.NewCache(st)
	sky := broadcast.NewHub()
	eco := economy.New(cache, catalog, syncer, sky)
	chatHub := chat.NewHub(cache, eco, st)
	presenceSvc := presence.NewService(cache, eco, st)

	var workers sync.WaitGroup

	workers.Add(1)
	go func() {
		defer workers.Done()
		eco.RunDecay(ctx, cfg.DecayInterval, cfg.DecayAmount)
	}()

	if cfg.BotEnabled() {
		telegram := bot.New(bot.NewConnector(cfg.TelegramBotToken), presenceSvc, bot.WithReconnectPause(cfg.BotReconnectPause))

		workers.Add(1)
		go func() {
			defer workers.Done()
			telegram.Run(ctx)
		}()
	} else {
		logx.Warn("TELEGRAM_BOT_TOKEN is not set, the bot channel is disabled")
	}

	// Setup HTTP server and routes
	sockets := socket.NewRegistry()
	router := handler.Router(ctx, &handler.AppDeps{
		Config:   cfg,
		Store:    st,
		Sessions: cache,
		Economy:  eco,
		Presence: presenceSvc,
		Sky:      sky,
		Chat:     chatHub,
		Sockets:  sockets,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("StarSky Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked sockets outlive server.Shutdown; close them before the last store writes drain.
	if err := sockets.CloseAll(shutdownCtx); err != nil {
		logx.Error(err, "Sockets did not close in time", "open", sockets.Len())
	}

	workers.Wait()

	if err := syncer.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Store writes were not flushed", "pending", syncer.Pending())
	}

	logx.Info("Server gracefully stopped.", "failed_writes", syncer.Failures())
}

// openStore returns the configured store and a function releasing its resources.
func openStore(ctx context.Context, cfg *configs.AppConfig) (store.Store, func(), error) {
	if cfg.StoreDriver == configs.StoreDriverMemory {
		logx.Warn("Using the in-memory store, nothing survives a restart")
		return store.NewMemory(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	return store.NewPostgres(pool), pool.Close, nil
}

func loadCatalog(path string) (*skin.Catalog, error) {
	if path == "" {
		return skin.Default(), nil
	}

	catalog, err := skin.LoadFile(path)
	if err != nil {
		return nil, err
	}

	logx.Info("Skin catalog loaded", "path", path, "skins", catalog.Len())
	return catalog, nil
}
