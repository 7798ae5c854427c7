// Package embedding defines the interface for turning text into fixed-dimension
// vectors used as similarity-search keys.
package embedding

import (
	"context"
	"fmt"
)

// Embedder is the interface for generating embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOne embeds a single text and returns its vector.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector")
	}
	return vectors[0], nil
}
