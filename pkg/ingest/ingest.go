// Package ingest builds the initial vector store from a batch of metadata
// records: one embedding per record through the shared template, a flat index
// over the batch, and the companion artifacts persisted together.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/barekit/remedy/pkg/embedding"
	"github.com/barekit/remedy/pkg/errs"
	"github.com/barekit/remedy/pkg/vectorstore"
)

// Ingester embeds record batches and writes the file-backed vector store.
type Ingester struct {
	embedder embedding.Embedder
	model    string
	debug    bool
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithDebug enables debug logging.
func WithDebug(enable bool) Option {
	return func(i *Ingester) {
		i.debug = enable
	}
}

// New creates a new Ingester. model is the embedding-model identifier to
// persist with the index so later appends embed with the same model.
func New(embedder embedding.Embedder, model string, opts ...Option) *Ingester {
	i := &Ingester{embedder: embedder, model: model}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run embeds all records and creates the store at dir. The record at batch
// position i owns ordinal position i in the index forever.
func (i *Ingester) Run(ctx context.Context, dir string, records []vectorstore.Record) (*vectorstore.FileStore, error) {
	if len(records) == 0 {
		return nil, errs.Validation("no records to ingest")
	}

	texts := make([]string, len(records))
	for n, rec := range records {
		texts[n] = rec.EmbeddingText()
	}

	if i.debug {
		slog.Info("embedding ingestion batch", "records", len(records))
	}
	vectors, err := i.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, errs.Service(err, "failed to embed ingestion batch")
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(records))
	}

	fs, err := vectorstore.Create(dir, i.model, records, vectors)
	if err != nil {
		return nil, err
	}
	if i.debug {
		slog.Info("vector store created", "dir", dir, "vectors", len(vectors), "dimension", fs.Dimension())
	}
	return fs, nil
}
