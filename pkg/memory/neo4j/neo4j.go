package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/barekit/remedy/pkg/memory/consts"
	memory "github.com/barekit/remedy/pkg/memory/types"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Neo4jMemory struct {
	driver neo4j.DriverWithContext
	dbName string
}

// New creates a new Neo4jMemory adapter.
func New(uri, username, password, dbName string) (*Neo4jMemory, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, err
	}

	return &Neo4jMemory{
		driver: driver,
		dbName: dbName,
	}, nil
}

func (m *Neo4jMemory) Save(ctx context.Context, conversationID string, ex memory.Exchange) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Create Conversation node if not exists
		queryConv := fmt.Sprintf(`
		MERGE (c:%s {id: $conversationID})
		RETURN c
		`, consts.LabelConversation)
		if _, err := tx.Run(ctx, queryConv, map[string]any{"conversationID": conversationID}); err != nil {
			return nil, err
		}

		// Create Exchange node and link to Conversation
		queryEx := fmt.Sprintf(`
		MATCH (c:%s {id: $conversationID})
		CREATE (e:%s {
			%s: $ticketID,
			%s: $query,
			%s: $answer,
			%s: $classification,
			%s: $relevancyScore,
			%s: datetime()
		})
		CREATE (c)-[:%s]->(e)
		RETURN e
		`, consts.LabelConversation, consts.LabelExchange,
			consts.ColTicketID, consts.ColQuery, consts.ColAnswer,
			consts.ColClassification, consts.ColRelevancyScore, consts.ColCreatedAt,
			consts.RelHasExchange)

		params := map[string]any{
			"conversationID": conversationID,
			"ticketID":       ex.TicketID,
			"query":          ex.Query,
			"answer":         ex.Answer,
			"classification": ex.Classification,
			"relevancyScore": int64(ex.RelevancyScore),
		}
		_, err := tx.Run(ctx, queryEx, params)
		return nil, err
	})

	return err
}

func (m *Neo4jMemory) Load(ctx context.Context, conversationID string) ([]memory.Exchange, error) {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.dbName})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
		MATCH (c:%s {id: $conversationID})-[:%s]->(e:%s)
		RETURN e.%s, e.%s, e.%s, e.%s, e.%s, e.%s
		ORDER BY e.%s ASC
		`, consts.LabelConversation, consts.RelHasExchange, consts.LabelExchange,
			consts.ColTicketID, consts.ColQuery, consts.ColAnswer,
			consts.ColClassification, consts.ColRelevancyScore, consts.ColCreatedAt,
			consts.ColCreatedAt)

		result, err := tx.Run(ctx, query, map[string]any{"conversationID": conversationID})
		if err != nil {
			return nil, err
		}

		var exchanges []memory.Exchange
		for result.Next(ctx) {
			record := result.Record()

			ticketID, _ := record.Get("e." + consts.ColTicketID)
			queryText, _ := record.Get("e." + consts.ColQuery)
			answer, _ := record.Get("e." + consts.ColAnswer)
			classification, _ := record.Get("e." + consts.ColClassification)
			relevancyScore, _ := record.Get("e." + consts.ColRelevancyScore)
			createdAt, _ := record.Get("e." + consts.ColCreatedAt)

			ex := memory.Exchange{
				TicketID: asString(ticketID),
				Query:    asString(queryText),
				Answer:   asString(answer),
			}
			ex.Classification = asString(classification)
			if score, ok := relevancyScore.(int64); ok {
				ex.RelevancyScore = int(score)
			}
			if t, ok := createdAt.(time.Time); ok {
				ex.CreatedAt = t
			}
			exchanges = append(exchanges, ex)
		}

		return exchanges, result.Err()
	})
	if err != nil {
		return nil, err
	}

	return result.([]memory.Exchange), nil
}

// Close closes the underlying driver.
func (m *Neo4jMemory) Close(ctx context.Context) error {
	return m.driver.Close(ctx)
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
