package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"rocket-admin/internal/config"
	"rocket-admin/internal/engine"
	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

const noteEntity = `{
  "name": "note",
  "table": "notes",
  "primary_key": {"field": "id", "type": "int"},
  "fields": [
    {"name": "id", "type": "int"},
    {"name": "title", "type": "string"}
  ],
  "admin": {"page_size": 10}
}`

type testEnv struct {
	app     *fiber.App
	store   *store.Store
	reg     *metadata.Registry
	sources *engine.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	reg := metadata.NewRegistry()
	intro := engine.NewIntrospector(reg, nil)
	discovery := engine.NewDiscovery(reg, intro, func(d *engine.Descriptors) (engine.DataSource, error) {
		return engine.NewEntitySource(s, reg, nil, d, engine.SourceOptions{})
	})
	sources := engine.NewRegistry(discovery)

	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	RegisterAdminRoutes(app, NewHandler(s, reg, store.NewMigrator(s), sources, engine.NewPermissionFilter(nil)))
	return &testEnv{app: app, store: s, reg: reg, sources: sources}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, out
}

func TestCreateEntityRegistersSource(t *testing.T) {
	env := newTestEnv(t)

	if got := env.sources.Identifiers(); len(got) != 0 {
		t.Fatalf("expected no sources yet, got %v", got)
	}

	resp, body := env.do(t, "POST", "/api/_admin/entities", noteEntity)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}
	if got := env.sources.Identifiers(); !reflect.DeepEqual(got, []string{"note"}) {
		t.Fatalf("new entity should be discoverable, got %v", got)
	}
	src, _ := env.sources.Get("note")
	if src.DefaultPageSize() != 10 {
		t.Fatalf("admin config not applied, page size %d", src.DefaultPageSize())
	}
	if _, err := env.store.DB.Exec("INSERT INTO notes (id, title) VALUES (1, 'hello')"); err != nil {
		t.Fatalf("table not migrated: %v", err)
	}

	resp, _ = env.do(t, "POST", "/api/_admin/entities", noteEntity)
	if resp.StatusCode != 409 {
		t.Fatalf("duplicate: expected 409, got %d", resp.StatusCode)
	}

	resp, body = env.do(t, "POST", "/api/_admin/entities", `{"name":"empty","table":"empties"}`)
	if resp.StatusCode != 422 {
		t.Fatalf("invalid entity: expected 422, got %d: %v", resp.StatusCode, body)
	}

	resp, _ = env.do(t, "POST", "/api/_admin/entities", `{"name":`)
	if resp.StatusCode != 400 {
		t.Fatalf("bad body: expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateAndDeleteEntity(t *testing.T) {
	env := newTestEnv(t)
	if resp, body := env.do(t, "POST", "/api/_admin/entities", noteEntity); resp.StatusCode != 201 {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}
	first, _ := env.sources.Get("note")

	updated := strings.Replace(noteEntity, `"table": "notes",`, `"table": "notes", "label": "Memos",`, 1)
	resp, body := env.do(t, "PUT", "/api/_admin/entities/note", updated)
	if resp.StatusCode != 200 {
		t.Fatalf("update: expected 200, got %d: %v", resp.StatusCode, body)
	}
	src, _ := env.sources.Get("note")
	if src == first || src.Label() != "Memos" {
		t.Fatalf("update must rebuild the source, label %s", src.Label())
	}

	resp, _ = env.do(t, "GET", "/api/_admin/entities/note", "")
	if resp.StatusCode != 200 {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = env.do(t, "PUT", "/api/_admin/entities/missing", updated)
	if resp.StatusCode != 404 {
		t.Fatalf("update missing: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, "DELETE", "/api/_admin/entities/note", "")
	if resp.StatusCode != 200 {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	if env.sources.Has("note") || env.reg.GetEntity("note") != nil {
		t.Fatal("deleted entity still registered")
	}
	resp, _ = env.do(t, "DELETE", "/api/_admin/entities/note", "")
	if resp.StatusCode != 404 {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestReload(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.SaveEntity(context.Background(), "note", "notes", []byte(noteEntity)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if env.sources.Has("note") {
		t.Fatal("rows written behind the registry's back are not visible before reload")
	}

	resp, body := env.do(t, "POST", "/api/_admin/reload", "")
	if resp.StatusCode != 200 {
		t.Fatalf("reload: expected 200, got %d", resp.StatusCode)
	}
	data := body["data"].(map[string]any)
	if !reflect.DeepEqual(data["sources"], []any{"note"}) {
		t.Fatalf("unexpected sources %v", data["sources"])
	}
}
