package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/langbridge/chathub/internal/api"
	"github.com/langbridge/chathub/internal/config"
	"github.com/langbridge/chathub/internal/database"
	"github.com/langbridge/chathub/internal/hub"
	"github.com/langbridge/chathub/internal/push"
	"github.com/langbridge/chathub/internal/stats"
)

var (
	addr string
	dsn  string
)

func main() {
	flag.StringVar(&addr, "addr", "", "server address (overrides CHATHUB_SERVER_ADDR)")
	flag.StringVar(&dsn, "dsn", "", "database connection string (overrides CHATHUB_DATABASE_DSN)")
	flag.Parse()

	logger := log.New(os.Stderr, "[chathub] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config: ", err)
	}
	if addr != "" {
		cfg.ServerAddr = addr
	}
	if dsn != "" {
		cfg.DatabaseDSN = dsn
	}

	db, err := database.NewPgChatRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Fatal("db close: ", err)
		}
	}()

	var notifier push.Notifier
	if cfg.FCMCredentialsFile != "" {
		notifier, err = push.NewFCMNotifier(context.Background(), cfg.FCMCredentialsFile, logger)
		if err != nil {
			logger.Fatal("fcm: ", err)
		}
	} else {
		logger.Println("no FCM credentials configured, push notifications disabled")
		notifier = push.NewDisabledNotifier(logger)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.Run()
	defer statsUpdater.Stop()

	chatHub := hub.NewHub(logger, db, notifier, statsUpdater, hub.Options{
		CloseOnSupersede:  cfg.CloseOnSupersede,
		NotifyOfflineOnly: cfg.NotifyOfflineOnly,
	})

	srv := api.NewApp(mux, logger, chatHub, db, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server: ", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown: ", err)
	}

	if err := chatHub.Shutdown(shutDownCtx); err != nil {
		logger.Println("hub shutdown: ", err)
	}

	logger.Println("shutdown complete")
}
