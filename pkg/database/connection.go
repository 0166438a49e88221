package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/diptomoy-das/vital-docs-share/pkg/config"
	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
)

// DB represents the database connection
type DB struct {
	*sql.DB
	config *config.DatabaseConfig
	logger *logger.Logger
}

// NewConnection creates a new database connection
func NewConnection(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	connStr := buildConnectionString(cfg)

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		config: cfg,
		logger: log,
	}

	log.Info("Database connection established successfully")
	return db, nil
}

// buildConnectionString constructs the PostgreSQL connection string
func buildConnectionString(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// EnsureSchema creates the document index table if it does not exist
func (db *DB) EnsureSchema() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			document_id     BIGINT PRIMARY KEY,
			owner           TEXT NOT NULL,
			content_id      TEXT NOT NULL,
			document_type   TEXT NOT NULL,
			encryption_hash TEXT NOT NULL,
			registered_at   BIGINT NOT NULL,
			tx_hash         TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	db.logger.Info("Document index schema ensured")
	return nil
}
