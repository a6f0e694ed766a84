package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"rocket-admin/internal/admin"
	"rocket-admin/internal/auth"
	"rocket-admin/internal/config"
	"rocket-admin/internal/engine"
	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, reg, err := openSchema(ctx, cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	sources, perms := buildSources(db, reg, cfg.Admin)
	log.Printf("Registered %d data sources", len(sources.Identifiers()))

	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authMW := auth.RequireUser(cfg.JWTSecret)
	auth.RegisterAuthRoutes(app, auth.NewAuthHandler(db, cfg.JWTSecret, cfg.TokenTTL), authMW)

	adminHandler := admin.NewHandler(db, reg, store.NewMigrator(db), sources, perms)
	admin.RegisterAdminRoutes(app, adminHandler, authMW, auth.RequireCapability(perms.Authorizer(), auth.CapabilityManageSchema))

	engine.RegisterSourceRoutes(app, engine.NewHandler(sources, perms, cfg.Admin.ExportLimit), authMW, engine.RelationLoaderMiddleware(db))

	go func() {
		<-ctx.Done()
		log.Println("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("ERROR: shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	return app.Listen(addr)
}

// buildSources wires schema discovery into the source registry. Custom
// sources and providers are added to the returned registry by embedders.
func buildSources(db *store.Store, reg *metadata.Registry, cfg config.AdminConfig) (*engine.Registry, *engine.PermissionFilter) {
	resolver := engine.NewFilterTypeResolver()
	intro := engine.NewIntrospector(reg, resolver)
	opts := engine.SourceOptions{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	}
	discovery := engine.NewDiscovery(reg, intro, func(desc *engine.Descriptors) (engine.DataSource, error) {
		return engine.NewEntitySource(db, reg, resolver, desc, opts)
	})
	return engine.NewRegistry(discovery), engine.NewPermissionFilter(engine.RoleAuthorizer{})
}
