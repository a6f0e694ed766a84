package main

import (
	"github.com/spf13/cobra"

	"rocket-admin/internal/config"
	"rocket-admin/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create system tables and the tables of every known entity, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return err
		}
		db, reg, err := openSchema(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}
		defer db.Close()

		migrator := store.NewMigrator(db)
		for _, e := range reg.AllEntities() {
			if err := migrator.Migrate(cmd.Context(), e); err != nil {
				return err
			}
		}
		cmd.Printf("Migrated %d entities\n", len(reg.AllEntities()))
		return nil
	},
}
