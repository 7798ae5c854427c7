package mongo

import (
	"context"
	"fmt"
	"time"

	memory "github.com/barekit/remedy/pkg/memory/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMemory implements memory.Memory using MongoDB.
type MongoMemory struct {
	collection *mongo.Collection
}

// exchangeDoc is the stored document shape.
type exchangeDoc struct {
	ConversationID string    `bson:"conversation_id"`
	TicketID       string    `bson:"ticket_id"`
	Query          string    `bson:"query"`
	Answer         string    `bson:"answer"`
	Classification string    `bson:"classification,omitempty"`
	RelevancyScore int       `bson:"relevancy_score,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
}

// New creates a new MongoMemory.
func New(client *mongo.Client, dbName, collectionName string) *MongoMemory {
	return &MongoMemory{
		collection: client.Database(dbName).Collection(collectionName),
	}
}

// Save appends an exchange to the conversation transcript.
func (m *MongoMemory) Save(ctx context.Context, conversationID string, ex memory.Exchange) error {
	createdAt := ex.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := m.collection.InsertOne(ctx, exchangeDoc{
		ConversationID: conversationID,
		TicketID:       ex.TicketID,
		Query:          ex.Query,
		Answer:         ex.Answer,
		Classification: ex.Classification,
		RelevancyScore: ex.RelevancyScore,
		CreatedAt:      createdAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert exchange: %w", err)
	}
	return nil
}

// Load returns the conversation's exchanges in chronological order.
func (m *MongoMemory) Load(ctx context.Context, conversationID string) ([]memory.Exchange, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := m.collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exchanges []memory.Exchange
	for cursor.Next(ctx) {
		var doc exchangeDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode exchange: %w", err)
		}
		exchanges = append(exchanges, memory.Exchange{
			TicketID:       doc.TicketID,
			Query:          doc.Query,
			Answer:         doc.Answer,
			Classification: doc.Classification,
			RelevancyScore: doc.RelevancyScore,
			CreatedAt:      doc.CreatedAt,
		})
	}
	return exchanges, cursor.Err()
}
