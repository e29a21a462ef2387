package erpdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vsinha/drumsched/pkg/infrastructure/config"
)

// Open connects to the ERP database with lib/pq or go-sqlite3
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var driver string
	switch cfg.Driver {
	case "postgres":
		driver = "postgres"
	case "sqlite", "sqlite3":
		driver = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported ERP database driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open ERP database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping ERP database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// Storage groups the ERP collaborators the scheduler reads and writes
type Storage struct {
	Inventory      *InventoryStore
	PurchaseOrders *PurchaseOrderStore
	JobOrders      *JobOrderStore
	Procurement    *ProcurementStore
	MasterData     *MasterDataStore
}

func NewStorage(db *sqlx.DB) Storage {
	return Storage{
		Inventory:      &InventoryStore{db: db},
		PurchaseOrders: &PurchaseOrderStore{db: db},
		JobOrders:      &JobOrderStore{db: db},
		Procurement:    &ProcurementStore{db: db},
		MasterData:     &MasterDataStore{db: db},
	}
}
