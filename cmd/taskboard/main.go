// Command taskboard is the terminal client for the task API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/app"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/session"
	"github.com/nhle/taskboard/internal/ui/settings"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "taskboard:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	baseURL := flag.String("api", "", "API base URL (overrides api.base_url)")
	logout := flag.Bool("logout", false, "forget the saved credential and exit")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}

	logger, closeLog, err := logging.NewFile(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()    //nolint:errcheck
	defer logger.Sync() //nolint:errcheck

	secrets, err := credential.Open(cfg.Credential.Backend, cfg.Credential.FileDir)
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	if *logout {
		if err := secrets.Clear(credential.TokenKey); err != nil {
			return fmt.Errorf("clearing credential: %w", err)
		}
		fmt.Println("Saved credential removed.")
		return nil
	}

	timeout := time.Duration(cfg.API.TimeoutSec) * time.Second
	client := api.NewClient(cfg.API.BaseURL, secrets, api.WithTimeout(timeout))
	sessions := session.New(client, secrets, logger)
	defer sessions.Teardown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	logger.Info("starting", zap.String("api", cfg.API.BaseURL), zap.String("credential", cfg.Credential.Backend))

	m := app.New(app.Deps{
		API:        client,
		Session:    sessions,
		Logger:     logger,
		Config:     *cfg,
		ConfigPath: *configPath,
		Checker:    settings.APIChecker(timeout),
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
