package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// SetupDatabase initializes the database connection
func SetupDatabase(ctx context.Context, cfg *Config, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()

	// Test the connection
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Create tables if they don't exist
	if err := CreateTables(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username VARCHAR(50) PRIMARY KEY,
		full_name VARCHAR(100) NOT NULL DEFAULT '',
		email VARCHAR(100) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL CHECK (role IN ('admin', 'standard')),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	// One row per filing year; last_seq only ever grows so sequences are never reused.
	`CREATE TABLE IF NOT EXISTS case_sequences (
		year INT PRIMARY KEY,
		last_seq INT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS cases (
		case_id VARCHAR(7) PRIMARY KEY,
		forum VARCHAR(50) NOT NULL,
		status VARCHAR(20) NOT NULL CHECK (status IN
			('Filed', 'Admission', 'Hearing', 'Adjourned', 'Reserved', 'Allowed', 'Dismissed')),
		filed_date DATE NOT NULL,
		case_type VARCHAR(100) NOT NULL DEFAULT '',
		case_no VARCHAR(50) NOT NULL DEFAULT '',
		connected_cases TEXT[] NOT NULL DEFAULT '{}',
		is_appeal BOOLEAN NOT NULL DEFAULT FALSE,
		lower_court VARCHAR(100) NOT NULL DEFAULT '',
		lower_court_case_no VARCHAR(50) NOT NULL DEFAULT '',
		lower_court_order_date DATE,
		counsel_name VARCHAR(100) NOT NULL DEFAULT '',
		counsel_contact VARCHAR(20) NOT NULL DEFAULT '',
		asg_engaged BOOLEAN NOT NULL DEFAULT FALSE,
		brief_facts TEXT NOT NULL DEFAULT '',
		affidavit_status VARCHAR(50) NOT NULL DEFAULT '',
		final_order_date DATE,
		created_by VARCHAR(50) NOT NULL REFERENCES users(username),
		created_at TIMESTAMPTZ NOT NULL,
		updated_by VARCHAR(50) NOT NULL REFERENCES users(username),
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS parties (
		id VARCHAR(36) PRIMARY KEY,
		case_id VARCHAR(7) NOT NULL REFERENCES cases(case_id),
		role VARCHAR(20) NOT NULL CHECK (role IN ('petitioner', 'respondent')),
		seq INT NOT NULL,
		name VARCHAR(200) NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (case_id, role, seq)
	)`,

	`CREATE TABLE IF NOT EXISTS hearing_events (
		id VARCHAR(26) PRIMARY KEY,
		case_id VARCHAR(7) NOT NULL REFERENCES cases(case_id),
		hearing_date DATE NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_by VARCHAR(50) NOT NULL REFERENCES users(username),
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id VARCHAR(36) PRIMARY KEY,
		case_id VARCHAR(7) NOT NULL REFERENCES cases(case_id),
		doc_type VARCHAR(50) NOT NULL,
		file_name VARCHAR(255) NOT NULL,
		filing_date DATE,
		blob_ref VARCHAR(500) NOT NULL,
		uploaded_by VARCHAR(50) NOT NULL REFERENCES users(username),
		uploaded_at TIMESTAMPTZ NOT NULL
	)`,
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status)",
	"CREATE INDEX IF NOT EXISTS idx_cases_forum ON cases(forum)",
	"CREATE INDEX IF NOT EXISTS idx_cases_filed ON cases(filed_date DESC, case_id)",
	"CREATE INDEX IF NOT EXISTS idx_cases_updated ON cases(updated_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_parties_case ON parties(case_id, role, seq)",
	"CREATE INDEX IF NOT EXISTS idx_hearings_case_date ON hearing_events(case_id, hearing_date, id)",
	"CREATE INDEX IF NOT EXISTS idx_hearings_date ON hearing_events(hearing_date)",
	"CREATE INDEX IF NOT EXISTS idx_documents_case ON documents(case_id)",
}

// CreateTables creates the necessary tables in the database
func CreateTables(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	for _, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			// Indexes only affect performance
			logger.Warn("failed to create index", zap.String("ddl", idx), zap.Error(err))
		}
	}

	return nil
}
