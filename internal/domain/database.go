package domain

// DatabaseDriver represents the type of database engine.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DatabaseConnection holds what is needed to reach the content database.
// The password is looked up separately through the secret store.
type DatabaseConnection struct {
	Driver   DatabaseDriver `json:"driver"`
	Host     string         `json:"host"` // hostname, or file path for sqlite
	Port     int            `json:"port"` // 0 for sqlite
	Database string         `json:"database"`
	Username string         `json:"username"`
	SSLMode  string         `json:"sslMode"`
	URI      string         `json:"uri"` // mongodb only; overrides host/port
}
