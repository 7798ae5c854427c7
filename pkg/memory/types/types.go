// Package types holds the memory layer's shared types so adapter
// subpackages can use them without importing the parent factory package.
package types

import (
	"context"
	"time"
)

// Exchange is one completed pipeline round-trip within a conversation.
type Exchange struct {
	TicketID       string    `json:"ticket_id"`
	Query          string    `json:"query"`
	Answer         string    `json:"answer"`
	Classification string    `json:"classification,omitempty"`
	RelevancyScore int       `json:"relevancy_score,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Memory represents a storage for conversation transcripts.
type Memory interface {
	// Save appends an exchange to the transcript of a conversation.
	Save(ctx context.Context, conversationID string, ex Exchange) error
	// Load returns a conversation's exchanges in chronological order.
	Load(ctx context.Context, conversationID string) ([]Exchange, error)
}
