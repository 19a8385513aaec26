package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/hongminglow/rideledger/internal/storage/postgres"
)

func databaseURL() (string, error) {
	url := strings.TrimSpace(viper.GetString("database_url"))
	if url == "" {
		return "", errors.New("database url is required (--database-url or DATABASE_URL)")
	}
	return url, nil
}

// openStore connects to the configured database and brings the schema up to date.
func openStore(ctx context.Context) (*postgres.Store, error) {
	url, err := databaseURL()
	if err != nil {
		return nil, err
	}
	store, err := postgres.Open(ctx, url, postgres.Options{ConnectAttempts: 1, Logger: newLogger()})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := postgres.RunMigrations(url); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
