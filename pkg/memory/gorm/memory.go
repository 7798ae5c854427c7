package gorm

import (
	"context"
	"fmt"

	"github.com/barekit/remedy/pkg/memory/consts"
	memory "github.com/barekit/remedy/pkg/memory/types"
	"gorm.io/gorm"
)

// Memory implements memory.Memory using GORM.
type Memory struct {
	db *gorm.DB
}

// ExchangeModel represents the database schema for one exchange.
type ExchangeModel struct {
	gorm.Model
	ConversationID string `gorm:"index"`
	TicketID       string
	Query          string
	Answer         string
	Classification string
	RelevancyScore int
}

// TableName overrides the table name.
func (ExchangeModel) TableName() string {
	return consts.TableNameExchanges
}

// New creates a new Memory.
func New(db *gorm.DB) (*Memory, error) {
	if err := db.AutoMigrate(&ExchangeModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Memory{db: db}, nil
}

// Save appends an exchange to the conversation transcript.
func (m *Memory) Save(ctx context.Context, conversationID string, ex memory.Exchange) error {
	model := ExchangeModel{
		ConversationID: conversationID,
		TicketID:       ex.TicketID,
		Query:          ex.Query,
		Answer:         ex.Answer,
		Classification: ex.Classification,
		RelevancyScore: ex.RelevancyScore,
	}
	return m.db.WithContext(ctx).Create(&model).Error
}

// Load returns the conversation's exchanges in chronological order.
func (m *Memory) Load(ctx context.Context, conversationID string) ([]memory.Exchange, error) {
	var models []ExchangeModel
	if err := m.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&models).Error; err != nil {
		return nil, err
	}

	exchanges := make([]memory.Exchange, len(models))
	for i, model := range models {
		exchanges[i] = memory.Exchange{
			TicketID:       model.TicketID,
			Query:          model.Query,
			Answer:         model.Answer,
			Classification: model.Classification,
			RelevancyScore: model.RelevancyScore,
			CreatedAt:      model.CreatedAt,
		}
	}
	return exchanges, nil
}
