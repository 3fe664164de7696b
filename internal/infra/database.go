package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies the idempotent SQL patches GORM cannot express (sequences,
// partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates the schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Operator{},
		&model.Product{},
		&model.Customer{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.Sale{},
		&model.SaleItem{},
		&model.SaleTender{},
		&model.FiscalDocument{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Atomic ticket numbering across terminals.
		`CREATE SEQUENCE IF NOT EXISTS sales_ticket_number_seq`,
		// Belt and braces on the one-open-session invariant: a partial unique
		// index makes concurrent opens fail at the DB even if the service
		// level read-then-write check races.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_cash_sessions_open') THEN
		    CREATE UNIQUE INDEX uniq_cash_sessions_open
		        ON cash_sessions ((status))
		        WHERE status = 'open';
		  END IF;
		END $$`,
		// Retry cron query support.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_fiscal_documents_pending_retry') THEN
		    CREATE INDEX idx_fiscal_documents_pending_retry
		        ON fiscal_documents (next_retry_at)
		        WHERE status = 'pending' AND next_retry_at IS NOT NULL;
		  END IF;
		END $$`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
