package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"rocket-admin/internal/config"
	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "rocket-admin",
	Short: "Metadata-driven admin API over SQL tables",
	Long: `rocket-admin serves list, filter, sort and export endpoints for every
entity that carries an admin configuration, plus any custom data source
registered at startup.

Examples:
  # Start the API with ./app.yaml
  rocket-admin serve

  # Create system tables and entity tables from the schema file, then exit
  rocket-admin migrate --config deploy/app.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: app.yaml in . or ../..)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openSchema connects, bootstraps system tables, imports the schema file if
// one is configured and loads every entity definition into a fresh registry.
func openSchema(ctx context.Context, cfg *config.Config, migrate bool) (*store.Store, *metadata.Registry, error) {
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Printf("Database connected (%s)", db.Dialect.Name())

	if err := db.Bootstrap(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("bootstrap system tables: %w", err)
	}

	if cfg.Admin.SchemaFile != "" {
		if err := importSchemaFile(ctx, db, cfg.Admin.SchemaFile, migrate); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	reg := metadata.NewRegistry()
	if err := metadata.LoadAll(ctx, db.DB, reg); err != nil {
		log.Printf("WARN: Failed to load metadata: %v", err)
	}
	return db, reg, nil
}

func importSchemaFile(ctx context.Context, db *store.Store, path string, migrate bool) error {
	entities, err := metadata.LoadFile(path)
	if err != nil {
		return err
	}

	migrator := store.NewMigrator(db)
	for _, e := range entities {
		def, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entity %s: %w", e.Name, err)
		}
		if err := db.SaveEntity(ctx, e.Name, e.Table, def); err != nil {
			return err
		}
		if migrate {
			if err := migrator.Migrate(ctx, e); err != nil {
				return fmt.Errorf("migrate entity %s: %w", e.Name, err)
			}
		}
	}
	log.Printf("Imported %d entities from %s", len(entities), path)
	return nil
}
