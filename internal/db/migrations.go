package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('PENDING', 'ACCEPTED', 'ACTIVE', 'FINISHED', 'REJECTED', 'CANCELLED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY,
		requester_id UUID NOT NULL,
		provider_id UUID NOT NULL,
		service_id UUID NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		scheduled_start TIMESTAMPTZ NOT NULL,
		agreed_price NUMERIC(18,2) NOT NULL,
		status contract_status NOT NULL DEFAULT 'PENDING',
		start_code VARCHAR(16) NOT NULL,
		end_code VARCHAR(16) NOT NULL,
		start_code_used BOOLEAN NOT NULL DEFAULT FALSE,
		end_code_used BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_requester_id ON contracts (requester_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_provider_id ON contracts (provider_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts (status);`,
	`CREATE TABLE IF NOT EXISTS notification_state (
		identity_id UUID NOT NULL,
		contract_id UUID NOT NULL REFERENCES contracts(id),
		last_status VARCHAR(32) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (identity_id, contract_id)
	);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		identity_id UUID NOT NULL,
		title VARCHAR(255) NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_identity_id ON notifications (identity_id, created_at DESC);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
