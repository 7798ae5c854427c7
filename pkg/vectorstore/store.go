package vectorstore

import "context"

// Match is one retrieval result: the metadata record plus its ranking data.
type Match struct {
	Record     Record  `json:"record"`
	Position   int     `json:"position"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity_score"`
}

// Store is the interface for a vector index paired with per-vector metadata.
// FileStore is the reference implementation; the qdrant and pgvector
// subpackages provide server-backed alternatives behind the same contract.
type Store interface {
	// Search returns up to k matches for the query vector, ascending distance.
	Search(ctx context.Context, query []float32, k int) ([]Match, error)
	// Append adds one record and its vector at the next ordinal position.
	Append(ctx context.Context, rec Record, vector []float32) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Model returns the embedding-model identifier the store was built with.
	Model() string
}
