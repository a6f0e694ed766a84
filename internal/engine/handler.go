package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

type Handler struct {
	sources     *Registry
	perms       *PermissionFilter
	exportLimit int
}

func NewHandler(sources *Registry, perms *PermissionFilter, exportLimit int) *Handler {
	if perms == nil {
		perms = NewPermissionFilter(nil)
	}
	if exportLimit < 1 {
		exportLimit = 10000
	}
	return &Handler{sources: sources, perms: perms, exportLimit: exportLimit}
}

// ListSources handles GET /api/_sources
func (h *Handler) ListSources(c *fiber.Ctx) error {
	user := getUser(c)
	out := make([]fiber.Map, 0)
	for _, src := range h.sources.All() {
		if CheckAction(src, metadata.ActionIndex, user, h.perms.Authorizer()) != nil {
			continue
		}
		out = append(out, fiber.Map{
			"id":    src.Identifier(),
			"label": src.Label(),
			"icon":  src.Icon(),
		})
	}
	return c.JSON(fiber.Map{"data": out})
}

// Describe handles GET /api/_sources/:source
func (h *Handler) Describe(c *fiber.Ctx) error {
	src, err := h.resolveSource(c)
	if err != nil {
		return err
	}
	user := getUser(c)
	if err := CheckAction(src, metadata.ActionIndex, user, h.perms.Authorizer()); err != nil {
		return err
	}
	scoped := h.perms.Scope(src, user)

	filters := make([]map[string]any, 0, len(scoped.Filters()))
	for _, f := range scoped.Filters() {
		m := f.ToMap()
		m["name"] = f.Name
		filters = append(filters, m)
	}

	actions := make([]string, 0, len(metadata.AllActions))
	for _, action := range metadata.AllActions {
		if CheckAction(src, action, user, h.perms.Authorizer()) == nil {
			actions = append(actions, action)
		}
	}

	var cfg *metadata.AdminConfig
	if e := recordTypeOf(src); e != nil {
		cfg = e.Admin
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":                     src.Identifier(),
		"label":                  src.Label(),
		"icon":                   src.Icon(),
		"id_field":               src.IDField(),
		"columns":                scoped.Columns(),
		"filters":                filters,
		"default_sort_by":        src.DefaultSortBy(),
		"default_sort_direction": src.DefaultSortDirection(),
		"default_page_size":      src.DefaultPageSize(),
		"actions":                actions,
		"batch_actions":          src.SupportsAction(metadata.ActionBatchDelete),
		"column_visibility":      cfg.ColumnVisibilityEnabled(),
	}})
}

// List handles GET /api/:source
func (h *Handler) List(c *fiber.Ctx) error {
	src, err := h.resolveSource(c)
	if err != nil {
		return err
	}
	user := getUser(c)
	if err := CheckAction(src, metadata.ActionIndex, user, h.perms.Authorizer()); err != nil {
		return err
	}

	res, err := h.perms.Scope(src, user).Query(c.UserContext(), ParseListParams(c))
	if err != nil {
		return fmt.Errorf("list %s: %w", src.Identifier(), err)
	}

	return c.JSON(fiber.Map{
		"data": res.Items,
		"meta": res.Meta(),
	})
}

// Export handles GET /api/:source/_export
func (h *Handler) Export(c *fiber.Ctx) error {
	src, err := h.resolveSource(c)
	if err != nil {
		return err
	}
	user := getUser(c)
	if err := CheckAction(src, metadata.ActionIndex, user, h.perms.Authorizer()); err != nil {
		return err
	}

	scoped := h.perms.Scope(src, user)
	recs, err := exportRecords(c.UserContext(), scoped, ParseListParams(c), h.exportLimit)
	if err != nil {
		return fmt.Errorf("export %s: %w", src.Identifier(), err)
	}
	buf, err := WriteXLSX(scoped, scoped.Columns(), recs)
	if err != nil {
		return fmt.Errorf("export %s: %w", src.Identifier(), err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, src.Identifier()))
	return c.Send(buf.Bytes())
}

// Show handles GET /api/:source/:id
func (h *Handler) Show(c *fiber.Ctx) error {
	src, err := h.resolveSource(c)
	if err != nil {
		return err
	}
	user := getUser(c)
	if err := CheckAction(src, metadata.ActionShow, user, h.perms.Authorizer()); err != nil {
		return err
	}

	id := c.Params("id")
	rec, err := h.perms.Scope(src, user).Find(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(src.Identifier(), id)
		}
		return fmt.Errorf("get %s/%s: %w", src.Identifier(), id, err)
	}
	return c.JSON(fiber.Map{"data": rec})
}

// BatchDelete handles POST /api/:source/_batch_delete
func (h *Handler) BatchDelete(c *fiber.Ctx) error {
	src, err := h.resolveSource(c)
	if err != nil {
		return err
	}

	var body struct {
		IDs []any `json:"ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	ids := make([]string, 0, len(body.IDs))
	for _, id := range body.IDs {
		if id == nil {
			continue
		}
		ids = append(ids, stringValue(id))
	}

	n, err := BatchDelete(c.UserContext(), src, ids, getUser(c), h.perms.Authorizer())
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return fmt.Errorf("batch delete %s: %w", src.Identifier(), err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": n}})
}

func (h *Handler) resolveSource(c *fiber.Ctx) (DataSource, error) {
	name := c.Params("source")
	src, ok := h.sources.Get(name)
	if !ok {
		return nil, UnknownSourceError(name)
	}
	return src, nil
}

func getUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	return user
}
