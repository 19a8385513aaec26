package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hongminglow/rideledger/internal/config"
	"github.com/hongminglow/rideledger/internal/logging"
	"github.com/hongminglow/rideledger/internal/server"
	"github.com/hongminglow/rideledger/internal/storage"
	"github.com/hongminglow/rideledger/internal/storage/memory"
	"github.com/hongminglow/rideledger/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rideledger: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Component: logging.ComponentApp})
	logging.SetDefault(log)
	if envErr != nil {
		log.Debug("no .env file found; relying on existing environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(cfg, store, log)

	if cfg.HasFirstSuperuser() {
		_, created, err := srv.Users().EnsureSuperuser(ctx, cfg.FirstSuperuserEmail, cfg.FirstSuperuserPassword, cfg.FirstSuperuserFullName)
		if err != nil {
			return fmt.Errorf("bootstrap superuser: %w", err)
		}
		if !created {
			log.Info("superuser already present", "email", cfg.FirstSuperuserEmail)
		}
	}

	log.Info("rideledger starting",
		logging.FieldOperation, logging.OpStartup,
		"backend", cfg.DataBackend,
		"timezone", cfg.Location.String())
	return srv.Run(ctx)
}

func openStore(ctx context.Context, cfg config.Config, log *logging.Logger) (storage.Store, error) {
	if cfg.DataBackend == config.BackendMemory {
		log.Warn("using in-memory store; data is lost on exit")
		return memory.New(), nil
	}

	store, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{
		ConnectAttempts: cfg.DBConnectAttempts,
		ConnectBackoff:  cfg.DBConnectBackoff,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		store.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.WithComponent(logging.ComponentMigrate).Info("migrations applied", logging.FieldOperation, logging.OpMigrate)
	return store, nil
}
