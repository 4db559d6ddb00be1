package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/postcat/internal/association"
	"github.com/Veraticus/postcat/internal/common"
	"github.com/Veraticus/postcat/internal/config"
	"github.com/Veraticus/postcat/internal/service"
	"github.com/Veraticus/postcat/internal/storage"
	"github.com/Veraticus/postcat/internal/storage/postgres"
)

// envKeyReplacer maps database.path to POSTCAT_DATABASE_PATH.
var envKeyReplacer = strings.NewReplacer(".", "_")

// schemaVersioner is implemented by both storage backends.
type schemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

// openStorage opens the configured backend without migrating it.
func openStorage(ctx context.Context, cfg config.DatabaseConfig) (service.Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewSQLiteStorage(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, nil
	}
}

// initStorage opens the configured backend and applies pending migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", common.ErrMissingConfig)
	}

	store, err := openStorage(ctx, appConfig.Database)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// withService opens storage, builds the association service over it and
// runs fn, closing the store afterwards.
func withService(cmd *cobra.Command, fn func(ctx context.Context, store service.Storage, svc *association.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return fn(ctx, store, association.NewFromStorage(store))
}

// retry runs a write with the default retry policy for busy stores.
func retry(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, op, common.DefaultRetryOptions())
}

// parseID parses a single positive id argument.
func parseID(arg, name string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, common.NewUserError(fmt.Sprintf("%s must be a number, got %q", name, arg), err)
	}
	if id <= 0 {
		return 0, common.NewUserError(fmt.Sprintf("%s must be positive, got %d", name, id), common.ErrInvalidArgument)
	}
	return id, nil
}

// parseIDs parses every argument as a positive id. Comma separated values
// within one argument are accepted.
func parseIDs(args []string, name string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(part, name)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
