// Command taskboard-server runs the reference task API on SQLite or
// PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/server"
	"github.com/nhle/taskboard/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "taskboard-server:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	staffEmail := flag.String("create-staff", "", "create a staff account with this email and exit")
	staffPassword := flag.String("staff-password", "", "password for -create-staff")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := logging.NewStderr(cfg.Log)
	defer logger.Sync() //nolint:errcheck

	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(st, logger)

	if *staffEmail != "" {
		if len(*staffPassword) < 6 {
			return fmt.Errorf("-staff-password must be at least 6 characters")
		}
		user, err := srv.CreateStaff(ctx, *staffEmail, *staffPassword, "Admin", "")
		if err != nil {
			return fmt.Errorf("creating staff account: %w", err)
		}
		logger.Info("staff account created", zap.String("user_id", user.ID.String()))
		return nil
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.Server.Addr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return srv.Shutdown()
	}
}
