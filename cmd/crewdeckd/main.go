// Command crewdeckd is the crewdeck server daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/crewdeck/crewdeck/config"
	"github.com/crewdeck/crewdeck/internal/version"
	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/server"
	"github.com/crewdeck/crewdeck/service"
	"github.com/crewdeck/crewdeck/store"
)

var configPath = flag.String("config", "crewdeck.yaml", "path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
		cfg = config.DefaultConfig()
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	logger.Info("starting crewdeckd",
		"version", version.Version,
		"commit", version.Commit,
	)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir %s: %v", cfg.DataDir, err)
	}
	db, err := store.Open(filepath.Join(cfg.DataDir, "crewdeck.db"))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	persons := service.NewPersonService(db.Persons(), db.Projects(), db.Tasks(), logger)
	projects := service.NewProjectService(db.Projects(), db.Persons(), db.Tasks(), logger)
	tasks := service.NewTaskService(db.Tasks(), db.Projects(), db.Persons(), logger)

	if err := bootstrapAdmin(cfg, persons, logger); err != nil {
		log.Fatalf("Failed to bootstrap admin: %v", err)
	}

	srv := server.New(*cfg, persons, projects, tasks, version.Version, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case <-sigCh:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("server stop error", "error", err)
	}
	logger.Info("shutdown complete")
}

// bootstrapAdmin ensures the configured admin account exists so the first
// login is possible on a fresh database.
func bootstrapAdmin(cfg *config.Config, persons *service.PersonService, logger *slog.Logger) error {
	if cfg.Auth.AdminUser == "" || cfg.Auth.AdminPass == "" {
		return nil
	}
	if _, err := persons.GetByUsername(context.Background(), cfg.Auth.AdminUser); err == nil {
		return nil
	}
	p, err := persons.Register(context.Background(), service.Registration{
		Username:     cfg.Auth.AdminUser,
		FullName:     "Administrator",
		Role:         person.RoleAdmin,
		PasswordHash: cfg.Auth.AdminPass,
	})
	if err != nil {
		return err
	}
	logger.Info("bootstrap admin created", "person", p.ID)
	return nil
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
