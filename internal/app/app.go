package app

import (
	"context"
	"database/sql"
	"fmt"

	"scoreline/internal/config"
	"scoreline/internal/db"
	"scoreline/internal/engine"
	"scoreline/internal/migrate"
)

// Options select the workspace and storage for a process.
type Options struct {
	Workspace string
	InMemory  bool
}

// App is an opened workspace: migrated database, loaded config and engine.
type App struct {
	DB     *sql.DB
	Config *config.Config
	Engine engine.Engine
}

// ResolveConfig loads scoreline.yml from the workspace, falling back to
// defaults when the file does not exist.
func ResolveConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

// Open opens the database, applies migrations and builds the engine.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg, err := ResolveConfig(opts.Workspace)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: opts.Workspace, InMemory: opts.InMemory})
	if err != nil {
		return nil, err
	}
	if err := migrate.MigrateContext(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &App{DB: conn, Config: cfg, Engine: engine.New(conn, cfg)}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
