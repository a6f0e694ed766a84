package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Querier is the subset of *sql.DB used to read entity definitions.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadAll reads all entity definitions from the _entities table and populates the registry.
// Rows with invalid JSON or failing validation are skipped.
func LoadAll(ctx context.Context, q Querier, reg *Registry) error {
	entities, err := loadEntities(ctx, q)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	reg.Load(entities)
	log.Printf("Loaded %d entities into registry", len(entities))
	return nil
}

// Reload is an alias for LoadAll.
func Reload(ctx context.Context, q Querier, reg *Registry) error {
	return LoadAll(ctx, q, reg)
}

func loadEntities(ctx context.Context, q Querier) ([]*Entity, error) {
	rows, err := q.QueryContext(ctx, "SELECT name, definition FROM _entities ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*Entity
	for rows.Next() {
		var name string
		var defJSON []byte
		if err := rows.Scan(&name, &defJSON); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}
		var entity Entity
		if err := json.Unmarshal(defJSON, &entity); err != nil {
			log.Printf("WARN: skipping entity %s (invalid JSON): %v", name, err)
			continue
		}
		if err := Validate(&entity); err != nil {
			log.Printf("WARN: skipping entity %s: %v", name, err)
			continue
		}
		entities = append(entities, &entity)
	}
	return entities, rows.Err()
}

type schemaFile struct {
	Entities []*Entity `yaml:"entities"`
}

// LoadFile reads a YAML schema document of the form `entities: [...]`.
// Unlike LoadAll it fails on the first invalid entity: a broken file is a deploy error.
func LoadFile(path string) ([]*Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and validates a YAML schema document.
func ParseSchema(data []byte) ([]*Entity, error) {
	var doc schemaFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	for _, e := range doc.Entities {
		if err := Validate(e); err != nil {
			return nil, err
		}
	}
	return doc.Entities, nil
}
