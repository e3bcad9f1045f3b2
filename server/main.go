package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ponyo877/swapdesk/server/adaptor"
	"github.com/ponyo877/swapdesk/server/domain"
	"github.com/ponyo877/swapdesk/server/repository"
	"github.com/ponyo877/swapdesk/server/usecase"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	conn, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		logger.Error("failed to open db", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	rp, err := repository.NewRepository(conn)
	if err != nil {
		logger.Error("failed to prepare repository", "error", err)
		os.Exit(1)
	}
	uc := usecase.NewUsecase(rp, domain.NewRoomManager(), logger)
	ad := adaptor.NewAdaptor(uc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go uc.RunSweeper(ctx, cfg.SessionTTL, cfg.SweepInterval)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: ad.Router()}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	logger.Info("server listening", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
