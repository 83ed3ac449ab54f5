package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blocks/internal/domain"
)

// DB wraps the SQL connection holding block groups and languages.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// New opens (or creates) the SQLite file at dbPath.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(domain.DatabaseConnection{Driver: domain.DatabaseDriverSQLite, Host: dbPath}, "")
}

// Open connects to the database described by conn and runs migrations.
// The password comes from the secret store and is ignored for SQLite.
func Open(conn domain.DatabaseConnection, password string) (*DB, error) {
	d, ok := dialects[conn.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}

	var dsn string
	switch conn.Driver {
	case domain.DatabaseDriverPostgres:
		dsn = buildPostgresDSN(conn, password)
	case domain.DatabaseDriverMySQL:
		dsn = buildMySQLDSN(conn, password)
	default:
		dsn = buildSQLiteDSN(conn)
	}

	sqlDB, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driverName, err)
	}
	if d.name == domain.DatabaseDriverSQLite {
		// SQLite only supports one writer; a single connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxLifetime(10 * time.Minute)
	}

	db := &DB{conn: sqlDB, dialect: d}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver reports which engine the DB talks to.
func (db *DB) Driver() domain.DatabaseDriver {
	return db.dialect.name
}

func (db *DB) migrate() error {
	d := db.dialect
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS block_group (
			` + d.idColumn + `,
			visible ` + d.boolType + ` NOT NULL DEFAULT 1,
			slug ` + d.keyType + ` NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS block_group_i18n (
			id BIGINT NOT NULL REFERENCES block_group(id) ON DELETE CASCADE,
			locale ` + d.keyType + ` NOT NULL,
			title ` + d.keyType + ` NOT NULL DEFAULT '',
			json_content ` + d.textType + `,
			PRIMARY KEY (id, locale)
		)`,
		`CREATE TABLE IF NOT EXISTS item_block_group (
			block_group_id BIGINT NOT NULL REFERENCES block_group(id) ON DELETE CASCADE,
			item_type ` + d.keyType + ` NOT NULL,
			item_id BIGINT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (block_group_id, item_type, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS lang (
			` + d.idColumn + `,
			code ` + d.keyType + ` NOT NULL DEFAULT '',
			locale ` + d.keyType + ` NOT NULL,
			title ` + d.keyType + ` NOT NULL DEFAULT '',
			by_default ` + d.boolType + ` NOT NULL DEFAULT 0,
			active ` + d.boolType + ` NOT NULL DEFAULT 1,
			position INTEGER NOT NULL DEFAULT 0
		)`,
		// Content history per block group locale, used by the editor's undo
		`CREATE TABLE IF NOT EXISTS block_group_revision (
			` + d.idColumn + `,
			block_group_id BIGINT NOT NULL,
			locale ` + d.keyType + ` NOT NULL,
			label ` + d.keyType + ` NOT NULL DEFAULT '',
			snapshot_json ` + d.textType + ` NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX idx_block_group_slug ON block_group(slug)`,
		`CREATE UNIQUE INDEX idx_lang_locale ON lang(locale)`,
		`CREATE INDEX idx_item_block_group_item ON item_block_group(item_type, item_id)`,
		`CREATE INDEX idx_block_group_revision_target ON block_group_revision(block_group_id, locale)`,
	}
	if d.name == domain.DatabaseDriverPostgres {
		// Postgres rejects integer literals as boolean defaults.
		for i, m := range migrations {
			m = strings.ReplaceAll(m, "BOOLEAN NOT NULL DEFAULT 1", "BOOLEAN NOT NULL DEFAULT TRUE")
			migrations[i] = strings.ReplaceAll(m, "BOOLEAN NOT NULL DEFAULT 0", "BOOLEAN NOT NULL DEFAULT FALSE")
		}
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// CREATE INDEX has no portable IF NOT EXISTS, an existing index is fine
			if strings.Contains(m, "CREATE") && strings.Contains(m, "INDEX") && isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}
