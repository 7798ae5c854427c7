package mssql

import (
	"fmt"

	gormmem "github.com/barekit/remedy/pkg/memory/gorm"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

// New creates a new SQL Server memory.
func New(dsn string) (*gormmem.Memory, error) {
	db, err := gorm.Open(sqlserver.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlserver: %w", err)
	}
	return gormmem.New(db)
}
