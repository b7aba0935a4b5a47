package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/liamcoop/loanassess/internal/logger"
	"github.com/liamcoop/loanassess/lenders"
	_ "github.com/lib/pq"
)

func main() {
	var databaseURL string
	var migrationsPath string
	var command string
	var criteriaPath string

	flag.StringVar(&databaseURL, "database", "", "Database URL (required)")
	flag.StringVar(&migrationsPath, "path", "migrations", "Path to migrations directory")
	flag.StringVar(&command, "command", "up", "Migration command: up, down, version, force, seed")
	flag.StringVar(&criteriaPath, "criteria", "", "Lender criteria file for seed (YAML or JSON); defaults to the built-in table")
	flag.Parse()

	// Check for database URL from flag or environment
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	if databaseURL == "" {
		logger.Fatal("database URL is required, use -database flag or DATABASE_URL environment variable")
	}

	if command == "seed" {
		if err := seed(databaseURL, criteriaPath); err != nil {
			logger.Fatal("failed to seed lender criteria", "error", err)
		}
		return
	}

	logger.Info("connecting to database", "migrations_path", migrationsPath)

	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		databaseURL,
	)
	if err != nil {
		logger.Fatal("failed to create migration instance", "error", err)
	}
	defer m.Close()

	switch command {
	case "up":
		logger.Info("running migrations up")
		err = m.Up()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("failed to run migrations", "error", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to run, database is up to date")
		} else {
			logger.Info("migrations completed")
		}

	case "down":
		logger.Info("rolling back migrations")
		err = m.Down()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("failed to rollback migrations", "error", err)
		}
		logger.Info("rollback completed")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			logger.Fatal("failed to get version", "error", err)
		}
		logger.Info("current version", "version", version, "dirty", dirty)

	case "force":
		if len(flag.Args()) < 1 {
			logger.Fatal("force command requires a version number: -command force <version>")
		}
		var version int
		if _, err := fmt.Sscanf(flag.Arg(0), "%d", &version); err != nil {
			logger.Fatal("invalid version number", "error", err)
		}
		if err := m.Force(version); err != nil {
			logger.Fatal("failed to force version", "error", err)
		}
		logger.Info("forced version", "version", version)

	default:
		logger.Fatal("unknown command, use: up, down, version, force, seed", "command", command)
	}
}

// seed upserts every lender in the criteria file, with its policy rules, into
// the lenders and lender_policies tables.
func seed(databaseURL, criteriaPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var src lenders.Source = lenders.EmbeddedSource{}
	if criteriaPath != "" {
		src = lenders.FileSource{Path: criteriaPath}
	}

	criteria, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if err := lenders.ValidateTable(criteria); err != nil {
		return err
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	store := lenders.NewPostgresSource(db)
	for _, c := range criteria {
		if err := store.Upsert(ctx, c); err != nil {
			return err
		}
	}

	logger.Info("lender criteria seeded", "lenders", len(criteria))
	return nil
}
