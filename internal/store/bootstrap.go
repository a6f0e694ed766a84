package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Bootstrap creates the system tables and seeds the default admin user.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range s.Dialect.SystemTablesSQL() {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap system tables: %w", err)
		}
	}
	if err := s.seedAdminUser(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context) error {
	count, err := QueryCount(ctx, s.DB, "SELECT COUNT(*) FROM _users")
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	roles, _ := json.Marshal([]string{"admin"})

	pb := s.Dialect.NewParamBuilder()
	q := fmt.Sprintf("INSERT INTO _users (id, email, password_hash, roles) VALUES (%s, %s, %s, %s)",
		pb.Add(uuid.NewString()), pb.Add("admin@localhost"), pb.Add(string(hash)), pb.Add(string(roles)))
	if _, err := s.DB.ExecContext(ctx, q, pb.Params()...); err != nil {
		return s.Dialect.MapError(err)
	}

	log.Println("WARN: default admin user created (admin@localhost / changeme), change the password immediately")
	return nil
}

// SaveEntity upserts an entity definition into _entities.
func (s *Store) SaveEntity(ctx context.Context, name, table string, definition []byte) error {
	pb := s.Dialect.NewParamBuilder()
	del := fmt.Sprintf("DELETE FROM _entities WHERE name = %s", pb.Add(name))

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, del, pb.Params()...); err != nil {
		return fmt.Errorf("replace entity %s: %w", name, err)
	}
	pb = s.Dialect.NewParamBuilder()
	ins := fmt.Sprintf("INSERT INTO _entities (name, table_name, definition) VALUES (%s, %s, %s)",
		pb.Add(name), pb.Add(table), pb.Add(string(definition)))
	if _, err := tx.ExecContext(ctx, ins, pb.Params()...); err != nil {
		return fmt.Errorf("insert entity %s: %w", name, s.Dialect.MapError(err))
	}
	return tx.Commit()
}

// DeleteEntity removes an entity definition. The data table is left in place.
func (s *Store) DeleteEntity(ctx context.Context, name string) (bool, error) {
	q := fmt.Sprintf("DELETE FROM _entities WHERE name = %s", s.Dialect.Placeholder(1))
	n, err := Exec(ctx, s.DB, q, name)
	if err != nil {
		return false, fmt.Errorf("delete entity %s: %w", name, err)
	}
	return n > 0, nil
}
