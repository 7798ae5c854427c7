// Package qdrant provides a server-backed vectorstore.Store on a Qdrant
// collection, for deployments that outgrow the file-backed flat index.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/barekit/remedy/pkg/vectorstore"
	"github.com/qdrant/go-client/qdrant"
)

// Store implements vectorstore.Store using Qdrant. Records ride along as a
// JSON payload; point ids are the ordinal positions, so results resolve to
// records exactly like the file-backed store.
type Store struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	model          string
}

// New creates a new Store, creating the collection when absent.
func New(host string, port int, collectionName, model string, vectorSize uint64) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &Store{
		client:         client,
		collectionName: collectionName,
		vectorSize:     vectorSize,
		model:          model,
	}

	if err := s.initCollection(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.vectorSize,
				Distance: qdrant.Distance_Euclid,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}
	return nil
}

// Model returns the embedding-model identifier configured for this store.
func (s *Store) Model() string { return s.model }

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collectionName,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Append upserts one record at the next ordinal position.
func (s *Store) Append(ctx context.Context, rec vectorstore.Record, vector []float32) error {
	position, err := s.Count(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(uint64(position)),
				Vectors: qdrant.NewVectors(vector...),
				Payload: map[string]*qdrant.Value{
					"record": qdrant.NewValueString(string(raw)),
				},
			},
		},
		Wait: &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Search returns up to k matches for the query vector, ascending distance.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Match, error) {
	limit := uint64(k)
	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	matches := make([]vectorstore.Match, len(res))
	for i, hit := range res {
		var rec vectorstore.Record
		if payload, ok := hit.Payload["record"]; ok {
			if err := json.Unmarshal([]byte(payload.GetStringValue()), &rec); err != nil {
				return nil, fmt.Errorf("failed to unmarshal record payload: %w", err)
			}
		}
		// With the Euclid metric the reported score is the distance.
		distance := float64(hit.Score)
		matches[i] = vectorstore.Match{
			Record:     rec,
			Position:   int(hit.Id.GetNum()),
			Distance:   distance,
			Similarity: vectorstore.Similarity(distance),
		}
	}
	return matches, nil
}
