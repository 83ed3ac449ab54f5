package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"blocks/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// dialect captures the SQL differences between the supported engines.
// Queries are written with '?' placeholders and rebound per dialect.
type dialect struct {
	name       domain.DatabaseDriver
	driverName string
	idColumn   string // auto-increment primary key definition
	boolType   string
	keyType    string // indexable string column
	textType   string
}

var dialects = map[domain.DatabaseDriver]dialect{
	domain.DatabaseDriverSQLite: {
		name:       domain.DatabaseDriverSQLite,
		driverName: "sqlite",
		idColumn:   "id INTEGER PRIMARY KEY AUTOINCREMENT",
		boolType:   "BOOLEAN",
		keyType:    "TEXT",
		textType:   "TEXT",
	},
	domain.DatabaseDriverPostgres: {
		name:       domain.DatabaseDriverPostgres,
		driverName: "postgres",
		idColumn:   "id BIGSERIAL PRIMARY KEY",
		boolType:   "BOOLEAN",
		keyType:    "VARCHAR(255)",
		textType:   "TEXT",
	},
	domain.DatabaseDriverMySQL: {
		name:       domain.DatabaseDriverMySQL,
		driverName: "mysql",
		idColumn:   "id BIGINT AUTO_INCREMENT PRIMARY KEY",
		boolType:   "TINYINT(1)",
		keyType:    "VARCHAR(255)",
		textType:   "LONGTEXT",
	},
}

// rebind rewrites '?' placeholders to '$n' for Postgres.
func (d dialect) rebind(query string) string {
	if d.name != domain.DatabaseDriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// limitClause renders LIMIT/OFFSET. Values are ints, so they are inlined.
func (d dialect) limitClause(limit, offset *int) string {
	var parts []string
	switch {
	case limit != nil:
		parts = append(parts, fmt.Sprintf("LIMIT %d", *limit))
	case offset != nil && d.name == domain.DatabaseDriverSQLite:
		parts = append(parts, "LIMIT -1")
	case offset != nil && d.name == domain.DatabaseDriverMySQL:
		parts = append(parts, "LIMIT 18446744073709551615")
	}
	if offset != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d", *offset))
	}
	return strings.Join(parts, " ")
}

// upsertI18n returns the insert-or-update statement for a translation row.
func (d dialect) upsertI18n() string {
	if d.name == domain.DatabaseDriverMySQL {
		return `INSERT INTO block_group_i18n (id, locale, title, json_content) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE title = VALUES(title), json_content = VALUES(json_content)`
	}
	return `INSERT INTO block_group_i18n (id, locale, title, json_content) VALUES (?, ?, ?, ?)
		ON CONFLICT (id, locale) DO UPDATE SET title = excluded.title, json_content = excluded.json_content`
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertID runs an INSERT and returns the generated id. lib/pq has no
// LastInsertId, so Postgres goes through RETURNING.
func (d dialect) insertID(ctx context.Context, q execQuerier, query string, args ...any) (int64, error) {
	if d.name == domain.DatabaseDriverPostgres {
		var id int64
		err := q.QueryRowContext(ctx, d.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// buildPostgresDSN constructs a Postgres connection string.
func buildPostgresDSN(conn domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.Username, password, conn.Database, sslMode,
	)
}

// buildMySQLDSN constructs a MySQL DSN.
func buildMySQLDSN(conn domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	// Format: user:password@tcp(host:port)/dbname?parseTime=true
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		conn.Username, password, conn.Host, port, conn.Database,
	)
	if conn.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}

// buildSQLiteDSN opens the file in WAL mode with a busy timeout.
func buildSQLiteDSN(conn domain.DatabaseConnection) string {
	return conn.Host + "?_journal_mode=WAL&_busy_timeout=5000"
}
