package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL/MariaDB via go-sql-driver/mysql.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

func (d *MySQLDialect) Placeholder(int) string { return "?" }

func (d *MySQLDialect) NewParamBuilder() ParamBuilder {
	return &mysqlParamBuilder{}
}

func (d *MySQLDialect) NowExpr() string    { return "NOW()" }
func (d *MySQLDialect) NeedsBoolFix() bool { return true }

func (d *MySQLDialect) ColumnType(fieldType string, precision int) string {
	switch fieldType {
	case "string", "enum":
		return "VARCHAR(255)"
	case "text":
		return "TEXT"
	case "int", "integer":
		return "INT"
	case "bigint":
		return "BIGINT"
	case "float":
		return "DOUBLE"
	case "decimal":
		if precision > 0 {
			return fmt.Sprintf("DECIMAL(18,%d)", precision)
		}
		return "DECIMAL(18,4)"
	case "boolean":
		return "TINYINT(1)"
	case "uuid":
		return "CHAR(36)"
	case "timestamp", "datetime":
		return "DATETIME"
	case "date":
		return "DATE"
	case "time":
		return "TIME"
	case "json":
		return "JSON"
	default:
		return "TEXT"
	}
}

func (d *MySQLDialect) SystemTablesSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS _entities (
    name        VARCHAR(191) PRIMARY KEY,
    table_name  VARCHAR(191) NOT NULL UNIQUE,
    definition  JSON NOT NULL,
    created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
		`CREATE TABLE IF NOT EXISTS _users (
    id            CHAR(36) PRIMARY KEY,
    email         VARCHAR(191) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    roles         TEXT NOT NULL,
    active        TINYINT(1) NOT NULL DEFAULT 1,
    created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
	}
}

func (d *MySQLDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
		tableName,
	).Scan(&n)
	return n > 0, err
}

func (d *MySQLDialect) GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ?`,
		tableName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		cols[name] = dataType
	}
	return cols, rows.Err()
}

func (d *MySQLDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	return expandIn(field, pb, values)
}

func (d *MySQLDialect) ContainsExpr(expr string, placeholder string) string {
	return fmt.Sprintf(`LOWER(CAST(%s AS CHAR)) LIKE LOWER(%s) ESCAPE '\\'`, expr, placeholder)
}

func (d *MySQLDialect) DateExpr(expr string) string { return expr }

func (d *MySQLDialect) TimeParam(t time.Time) any { return t.UTC() }

func (d *MySQLDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}
