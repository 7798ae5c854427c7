// Package pgvector provides a Postgres-backed vectorstore.Store using the
// pgvector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/barekit/remedy/pkg/vectorstore"
	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store implements vectorstore.Store on a pgvector table. The serial primary
// key doubles as the ordinal position.
type Store struct {
	db    *gorm.DB
	model string
}

// rowModel is the database schema for one embedded record.
type rowModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	Record    []byte          `gorm:"type:jsonb"`
	Embedding pgvector.Vector `gorm:"type:vector(1536)"`
}

func (rowModel) TableName() string {
	return "embedded_records"
}

// New creates a new Store, enabling the extension and migrating the schema.
func New(dsn, model string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	if err := db.AutoMigrate(&rowModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db, model: model}, nil
}

// Model returns the embedding-model identifier configured for this store.
func (s *Store) Model() string { return s.model }

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&rowModel{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// Append inserts one record and its vector.
func (s *Store) Append(ctx context.Context, rec vectorstore.Record, vector []float32) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	row := rowModel{
		Record:    raw,
		Embedding: pgvector.NewVector(vector),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// Search returns up to k matches ordered by squared L2 distance ascending.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Match, error) {
	type scoredRow struct {
		rowModel
		Distance float64
	}
	var rows []scoredRow

	// <-> is pgvector's L2 distance operator; square it to match the flat
	// index's squared-L2 distances.
	err := s.db.WithContext(ctx).
		Model(&rowModel{}).
		Select("*, power(embedding <-> ?, 2) AS distance", pgvector.NewVector(query)).
		Order("distance ASC").
		Limit(k).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, len(rows))
	for i, row := range rows {
		var rec vectorstore.Record
		if len(row.Record) > 0 {
			if err := json.Unmarshal(row.Record, &rec); err != nil {
				return nil, fmt.Errorf("failed to unmarshal record %d: %w", row.ID, err)
			}
		}
		matches[i] = vectorstore.Match{
			Record:     rec,
			Position:   int(row.ID - 1),
			Distance:   row.Distance,
			Similarity: vectorstore.Similarity(row.Distance),
		}
	}
	return matches, nil
}
