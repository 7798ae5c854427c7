package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// batchSize caps the number of inputs per embeddings request to stay inside
// API rate limits during bulk ingestion.
const batchSize = 100

// Embedder implements embedding.Embedder using OpenAI.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewEmbedder creates a new OpenAI Embedder.
func NewEmbedder(opts ...option.RequestOption) *Embedder {
	client := openai.NewClient(opts...)
	return &Embedder{
		client: &client,
		model:  openai.EmbeddingModelTextEmbedding3Small,
	}
}

// SetModel sets the embedding model to use. The model identifier is persisted
// alongside the vector index so later appends embed with the same model.
func (e *Embedder) SetModel(model string) {
	e.model = openai.EmbeddingModel(model)
}

// Model returns the embedding model identifier.
func (e *Embedder) Model() string {
	return string(e.model)
}

// Embed generates embeddings for the given texts, batching requests.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		params := openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts[start:end],
			},
			Model: e.model,
		}

		resp, err := e.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings for batch at %d: %w", start, err)
		}

		for _, data := range resp.Data {
			vec := make([]float32, len(data.Embedding))
			for j, v := range data.Embedding {
				vec[j] = float32(v)
			}
			embeddings = append(embeddings, vec)
		}
	}

	return embeddings, nil
}
