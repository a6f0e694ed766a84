package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"rocket-admin/internal/engine"
	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

// Handler manages entity definitions at runtime. Every change reloads the
// schema registry and drops the derived descriptor and permission caches.
type Handler struct {
	store    *store.Store
	registry *metadata.Registry
	migrator *store.Migrator
	sources  *engine.Registry
	perms    *engine.PermissionFilter
}

func NewHandler(s *store.Store, reg *metadata.Registry, mig *store.Migrator, sources *engine.Registry, perms *engine.PermissionFilter) *Handler {
	return &Handler{store: s, registry: reg, migrator: mig, sources: sources, perms: perms}
}

func RegisterAdminRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	admin := app.Group("/api/_admin", middleware...)

	admin.Get("/entities", h.ListEntities)
	admin.Get("/entities/:name", h.GetEntity)
	admin.Post("/entities", h.CreateEntity)
	admin.Put("/entities/:name", h.UpdateEntity)
	admin.Delete("/entities/:name", h.DeleteEntity)
	admin.Post("/reload", h.Reload)
}

func (h *Handler) ListEntities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.registry.AllEntities()})
}

func (h *Handler) GetEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return engine.NewAppError("NOT_FOUND", 404, "Entity not found: "+name)
	}
	return c.JSON(fiber.Map{"data": entity})
}

func (h *Handler) CreateEntity(c *fiber.Ctx) error {
	var entity metadata.Entity
	if err := c.BodyParser(&entity); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	if err := metadata.Validate(&entity); err != nil {
		return engine.ValidationError([]engine.ErrorDetail{{Message: err.Error()}})
	}
	if h.registry.GetEntity(entity.Name) != nil {
		return engine.NewAppError("CONFLICT", 409, "Entity already exists: "+entity.Name)
	}

	if err := h.save(c.UserContext(), &entity); err != nil {
		return err
	}
	return c.Status(201).JSON(fiber.Map{"data": entity})
}

func (h *Handler) UpdateEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	if h.registry.GetEntity(name) == nil {
		return engine.NewAppError("NOT_FOUND", 404, "Entity not found: "+name)
	}

	var entity metadata.Entity
	if err := c.BodyParser(&entity); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	entity.Name = name
	if err := metadata.Validate(&entity); err != nil {
		return engine.ValidationError([]engine.ErrorDetail{{Message: err.Error()}})
	}

	if err := h.save(c.UserContext(), &entity); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

func (h *Handler) DeleteEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	deleted, err := h.store.DeleteEntity(c.UserContext(), name)
	if err != nil {
		return err
	}
	if !deleted {
		return engine.NewAppError("NOT_FOUND", 404, "Entity not found: "+name)
	}
	if err := h.reload(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"name": name, "deleted": true}})
}

// Reload handles POST /api/_admin/reload.
func (h *Handler) Reload(c *fiber.Ctx) error {
	if err := h.reload(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sources": h.sources.Identifiers()}})
}

func (h *Handler) save(ctx context.Context, entity *metadata.Entity) error {
	def, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}
	if err := h.store.SaveEntity(ctx, entity.Name, entity.Table, def); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return engine.NewAppError("CONFLICT", 409, "Table already in use: "+entity.Table)
		}
		return err
	}
	if err := h.migrator.Migrate(ctx, entity); err != nil {
		return fmt.Errorf("migrate entity %s: %w", entity.Name, err)
	}
	return h.reload(ctx)
}

func (h *Handler) reload(ctx context.Context) error {
	if err := metadata.Reload(ctx, h.store.DB, h.registry); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}
	h.sources.ClearCache()
	h.perms.ClearCache()
	return nil
}
