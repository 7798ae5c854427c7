package store

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

// Driver selects the relational backend.
type Driver string

const (
	DriverSQLite    Driver = "sqlite"
	DriverPostgres  Driver = "postgres"
	DriverMySQL     Driver = "mysql"
	DriverSQLServer Driver = "sqlserver"
)

// Config holds configuration for opening a relational store.
type Config struct {
	Driver Driver
	DSN    string
}

// Open connects to the configured backend and returns a migrated Store.
func Open(cfg Config) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.Driver {
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	case DriverMySQL:
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	case DriverSQLServer:
		db, err = gorm.Open(sqlserver.Open(cfg.DSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	return New(db)
}
