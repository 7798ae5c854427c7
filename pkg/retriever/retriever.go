// Package retriever turns a free-text query into ranked metadata matches from
// the vector store, compressing long queries through a summarization prompt
// first so transcripts do not dilute the embedding.
package retriever

import (
	"context"
	"log/slog"
	"strings"

	"github.com/barekit/remedy/pkg/embedding"
	"github.com/barekit/remedy/pkg/errs"
	"github.com/barekit/remedy/pkg/llm"
	"github.com/barekit/remedy/pkg/vectorstore"
)

const (
	// summarizeWordThreshold is the query length above which the raw text is
	// compressed into a (subject, description) pair before embedding.
	summarizeWordThreshold = 15

	// MaxTopK bounds caller-supplied top-k to cap latency and cost.
	MaxTopK = 10

	// DefaultTopK is used when the caller does not specify k.
	DefaultTopK = 3
)

const summarizeSystemPrompt = "You are a helpful assistant that creates searchable query formats for a support ticket database."

const summarizeUserPrompt = `Given the following customer question or transcript, create a concise search query for a support ticket database.

Format your response as:
Subject: [Brief subject line, 5-10 words]
Description: [Detailed description of the issue, 15-25 words]

Input: %s

Output:`

// Retriever embeds queries and searches the vector store.
type Retriever struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	llm      llm.Provider
	debug    bool
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithDebug enables debug logging.
func WithDebug(enable bool) Option {
	return func(r *Retriever) {
		r.debug = enable
	}
}

// New creates a new Retriever.
func New(embedder embedding.Embedder, store vectorstore.Store, provider llm.Provider, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		store:    store,
		llm:      provider,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to topK matches for the query, ranked by ascending
// distance. Queries above the word threshold are summarized first and the
// subject+description concatenation is embedded instead of the raw text.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.Validation("query text is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	searchQuery := query
	if wordCount(query) > summarizeWordThreshold {
		subject, description, err := r.summarize(ctx, query)
		if err != nil {
			return nil, err
		}
		searchQuery = subject + "\n" + description
		if r.debug {
			slog.Info("summarized long query", "subject", subject, "words", wordCount(query))
		}
	}

	vector, err := embedding.EmbedOne(ctx, r.embedder, searchQuery)
	if err != nil {
		return nil, errs.Service(err, "failed to embed query")
	}

	matches, err := r.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, err
	}
	if r.debug {
		slog.Info("retrieved similar records", "query_words", wordCount(query), "matches", len(matches))
	}
	return matches, nil
}

// summarize compresses a long query into a (subject, description) pair.
func (r *Retriever) summarize(ctx context.Context, query string) (subject, description string, err error) {
	resp, err := r.llm.Chat(ctx,
		[]llm.Message{
			llm.System(summarizeSystemPrompt),
			llm.User(strings.Replace(summarizeUserPrompt, "%s", query, 1)),
		},
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(150),
	)
	if err != nil {
		return "", "", errs.Service(err, "summarization call failed")
	}

	for _, line := range strings.Split(resp.Content, "\n") {
		switch {
		case strings.HasPrefix(line, "Subject:"):
			subject = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
		case strings.HasPrefix(line, "Description:"):
			description = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		}
	}
	if subject == "" && description == "" {
		// Model ignored the format; fall back to its whole output.
		subject = strings.TrimSpace(resp.Content)
	}
	return subject, description, nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
