// Package pipeline wires the classification, generation, and self-healing
// stages into one resolve call, the way an end user consumes the system.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/barekit/remedy/pkg/classify"
	"github.com/barekit/remedy/pkg/generate"
	"github.com/barekit/remedy/pkg/memory"
	"github.com/barekit/remedy/pkg/selfheal"
	"github.com/barekit/remedy/pkg/vectorstore"
)

// Result is the outcome of one full resolve pass.
type Result struct {
	// Results holds one classification per retrieved candidate, ranked by
	// ascending distance.
	Results []classify.Result `json:"results"`
	// Best is the top-ranked classification, the one generation ran on.
	Best *classify.Result `json:"best"`
	// Output is what the generation stage produced for Best.
	Output *generate.Output `json:"output"`
	// Indexed lists the records folded back into the vector index when
	// self-healing ran.
	Indexed []vectorstore.Record `json:"indexed,omitempty"`
}

// Pipeline runs a query through classification, generation, and optionally
// the self-healing index update.
type Pipeline struct {
	Classifier     *classify.Agent
	Generator      *generate.Agent
	Updater        *selfheal.Updater
	Memory         memory.Memory
	ConversationID string
	Debug          bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// New creates a new Pipeline.
func New(classifier *classify.Agent, generator *generate.Agent, opts ...Option) *Pipeline {
	p := &Pipeline{
		Classifier: classifier,
		Generator:  generator,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithSelfHealing attaches the index updater so generated artifacts are
// folded back into the vector store after persistence.
func WithSelfHealing(u *selfheal.Updater) Option {
	return func(p *Pipeline) {
		p.Updater = u
	}
}

// WithMemory sets the pipeline's transcript store and conversation ID.
func WithMemory(mem memory.Memory, conversationID string) Option {
	return func(p *Pipeline) {
		p.Memory = mem
		p.ConversationID = conversationID
	}
}

// WithDebug enables debug logging.
func WithDebug(enable bool) Option {
	return func(p *Pipeline) {
		p.Debug = enable
	}
}

// Resolve classifies a query, generates artifacts for the best candidate,
// and, when an updater is attached, reindexes whatever was persisted. The
// relational rows survive even when reindexing fails; the Consistency error
// tells the operator to re-run Reindex rather than the whole resolve.
func (p *Pipeline) Resolve(ctx context.Context, query string, topK int) (*Result, error) {
	if p.Debug {
		slog.Info("resolve started", "query", query, "top_k", topK)
	}

	results, err := p.Classifier.Classify(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}
	best := &results[0]

	output, err := p.Generator.Generate(ctx, best)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	res := &Result{
		Results: results,
		Best:    best,
		Output:  output,
	}

	if p.Updater != nil {
		if err := p.reindex(ctx, res); err != nil {
			return res, err
		}
	}

	if p.Memory != nil && p.ConversationID != "" {
		if err := p.record(ctx, res); err != nil {
			if p.Debug {
				slog.Error("failed to record exchange", "error", err)
			}
			return res, fmt.Errorf("failed to record exchange: %w", err)
		}
	}

	if p.Debug {
		slog.Info("resolve finished",
			"ticket_id", best.TicketID,
			"classification", output.Classification,
			"indexed", len(res.Indexed))
	}

	return res, nil
}

// reindex folds the generation stage's persisted artifacts back into the
// vector index. Scripts carry the query as their issue summary.
func (p *Pipeline) reindex(ctx context.Context, res *Result) error {
	if res.Output.Script != nil {
		rec, err := p.Updater.UpdateScript(ctx, res.Output.Script, res.Best.Query)
		if err != nil {
			return err
		}
		res.Indexed = append(res.Indexed, rec)
	}
	if res.Output.KBArticle != nil {
		rec, err := p.Updater.UpdateKB(ctx, res.Output.KBArticle)
		if err != nil {
			return err
		}
		res.Indexed = append(res.Indexed, rec)
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, res *Result) error {
	answer := res.Output.Answer
	if answer == "" {
		answer = res.Best.GeneratedAnswer
	}
	return p.Memory.Save(ctx, p.ConversationID, memory.Exchange{
		TicketID:       res.Best.TicketID,
		Query:          res.Best.Query,
		Answer:         answer,
		Classification: string(res.Output.Classification),
		RelevancyScore: res.Best.Resolution.RelevancyScore,
	})
}
