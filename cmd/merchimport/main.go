package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/merchdesk/internal/cli"
	"github.com/JonMunkholm/merchdesk/internal/config"
	"github.com/JonMunkholm/merchdesk/internal/logging"
	"github.com/JonMunkholm/merchdesk/internal/mastertour"
	"github.com/JonMunkholm/merchdesk/internal/store"
	"github.com/JonMunkholm/merchdesk/internal/store/postgres"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := cli.Deps{
		OpenStore: func(ctx context.Context) (store.Store, func(), error) {
			pool, err := postgres.NewPool(ctx, cfg.Database)
			if err != nil {
				return nil, nil, err
			}
			st := postgres.New(pool)
			if err := st.EnsureSchema(ctx); err != nil {
				pool.Close()
				return nil, nil, err
			}
			return st, pool.Close, nil
		},
		Tours:       mastertour.NewClient(cfg.MasterTour, slog.Default()),
		Timeout:     cfg.Import.Timeout,
		MaxFileSize: cfg.Import.MaxFileSize,
	}

	if err := cli.NewRootCmd(deps).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
