
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olcayay/shopify-tracker-sub001/internal/config"
	"github.com/olcayay/shopify-tracker-sub001/internal/keywords"
	"github.com/olcayay/shopify-tracker-sub001/internal/parser"
	"github.com/olcayay/shopify-tracker-sub001/internal/store"
	"github.com/olcayay/shopify-tracker-sub001/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		logger.New(slog.LevelInfo).Error("loading config", "err", err)
		os.Exit(1)
	}
	l := logger.New(cfg.Level())

	h := &handlers{
		log:    l,
		parser: parser.New(cfg.ParserOptions(l)...),
		miner:  keywords.New(cfg.KeywordTables()),
	}
	db, err := store.Open(cfg.Database)
	if err != nil {
		l.Warn("database unavailable, serving parse endpoints only", "path", cfg.Database, "err", err)
	} else {
		defer db.Close()
		h.db = db
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Error("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Info("bye")
}
