package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom_DefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	content := `
server:
  port: 9090
database:
  driver: sqlite
  name: admin
  path: /tmp/data
admin:
  max_page_size: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Admin.MaxPageSize != 50 {
		t.Fatalf("expected max page size 50, got %d", cfg.Admin.MaxPageSize)
	}
	if cfg.Admin.DefaultPageSize != 20 {
		t.Fatalf("expected default page size 20, got %d", cfg.Admin.DefaultPageSize)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Fatalf("expected token ttl 12h, got %s", cfg.TokenTTL)
	}
	if !cfg.Database.IsSQLite() {
		t.Fatal("expected sqlite driver")
	}
	if got := cfg.Database.DSN(); got != filepath.Join("/tmp/data", "admin.db") {
		t.Fatalf("unexpected sqlite DSN %s", got)
	}
}

func TestDSN_Drivers(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", User: "u", Password: "p", Host: "db", Port: 5432, Name: "app"}
	if got := pg.DSN(); got != "postgres://u:p@db:5432/app?sslmode=disable" {
		t.Fatalf("unexpected postgres DSN %s", got)
	}

	my := DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "db", Port: 3306, Name: "app"}
	got := my.DSN()
	if !strings.HasPrefix(got, "u:p@tcp(db:3306)/app") || !strings.Contains(got, "parseTime=true") {
		t.Fatalf("unexpected mysql DSN %s", got)
	}

	mem := DatabaseConfig{Driver: "sqlite", Name: ":memory:"}
	if mem.DSN() != ":memory:" {
		t.Fatalf("expected in-memory DSN, got %s", mem.DSN())
	}
}
