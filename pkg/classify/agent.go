package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/barekit/remedy/pkg/errs"
	"github.com/barekit/remedy/pkg/jsonrepair"
	"github.com/barekit/remedy/pkg/llm"
	"github.com/barekit/remedy/pkg/retriever"
	"github.com/barekit/remedy/pkg/vectorstore"
)

// answerContextSize caps how many retrieved records feed the answer prompt,
// regardless of top-k, to bound prompt size.
const answerContextSize = 3

// TicketIDMinter mints the next ticket identifier. Satisfied by *store.Store.
type TicketIDMinter interface {
	NextTicketID(ctx context.Context) (string, error)
}

// Agent classifies a query against historical support data: it retrieves
// similar records, drafts one answer from the closest ones, and has the model
// judge that answer against every candidate's known resolution. The agent is
// state-free per call.
type Agent struct {
	retriever *retriever.Retriever
	llm       llm.Provider
	ids       TicketIDMinter
	debug     bool
}

// Option configures an Agent.
type Option func(*Agent)

// WithDebug enables debug logging.
func WithDebug(enable bool) Option {
	return func(a *Agent) {
		a.debug = enable
	}
}

// New creates a new classification Agent.
func New(r *retriever.Retriever, provider llm.Provider, ids TicketIDMinter, opts ...Option) *Agent {
	a := &Agent{
		retriever: r,
		llm:       provider,
		ids:       ids,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Classify runs the full pipeline for one query and returns one Result per
// retrieved candidate, in retrieval order (the first is the best match).
// A fresh ticket identifier is minted up front even when nothing is later
// persisted, because downstream consumers correlate on it.
func (a *Agent) Classify(ctx context.Context, query string, topK int) ([]Result, error) {
	ticketID, err := a.ids.NextTicketID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to mint ticket id: %w", err)
	}
	if a.debug {
		slog.Info("classification started", "ticket_id", ticketID, "top_k", topK)
	}

	matches, err := a.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errs.NotFound("no similar records for query")
	}

	answer, err := a.generateAnswer(ctx, query, matches)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		resolution := m.Record.Resolution
		if !vectorstore.Present(resolution) {
			resolution = "N/A"
		}
		judgement, err := a.Judge(ctx, query, answer, resolution)
		if err != nil {
			return nil, err
		}
		results[i] = format(query, answer, ticketID, m, judgement)
	}

	if a.debug {
		slog.Info("classification complete", "ticket_id", ticketID, "candidates", len(results))
	}
	return results, nil
}

// Best is Classify restricted to the single best match.
func (a *Agent) Best(ctx context.Context, query string, topK int) (*Result, error) {
	results, err := a.Classify(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

const answerSystemPrompt = `You are a support expert helping to answer customer queries based on historical support tickets.
Use the provided context to generate a helpful, accurate response to the user's query.`

// generateAnswer drafts exactly one answer from the query plus the top
// retrieved records.
func (a *Agent) generateAnswer(ctx context.Context, query string, matches []vectorstore.Match) (string, error) {
	n := len(matches)
	if n > answerContextSize {
		n = answerContextSize
	}

	var docs strings.Builder
	for i, m := range matches[:n] {
		rec := m.Record
		fmt.Fprintf(&docs, "\nDocument %d:\n- Ticket: %s\n- Issue: %s\n- Resolution: %s\n- Category: %s\n",
			i+1, orNA(rec.TicketNumber), orNA(rec.IssueSummary), orNA(rec.Resolution), orNA(rec.Category))
	}

	userPrompt := fmt.Sprintf(`Query: %s

Context from similar support tickets:
%s

Based on the above context, provide a clear and helpful response to the query.`, query, docs.String())

	resp, err := a.llm.Chat(ctx,
		[]llm.Message{llm.System(answerSystemPrompt), llm.User(userPrompt)},
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(500),
	)
	if err != nil {
		return "", errs.Service(err, "answer generation failed")
	}
	return resp.Content, nil
}

const judgeSystemPrompt = "You are an expert evaluator. Respond only with valid JSON."

const judgePromptTemplate = `You are an expert judge evaluating the quality and relevancy of a generated support response.

USER QUERY: %s

GENERATED RESPONSE: %s

ACTUAL RESOLUTION: %s

Please evaluate the generated response on these criteria:
1. Relevancy: How well does it address the user's query? (0-40 points)
2. Accuracy: How closely does it match the actual resolution? (0-40 points)
3. Completeness: Does it provide actionable information? (0-20 points)

Provide your evaluation as a JSON object with:
- "score": Total score (0-100)
- "relevancy_points": Score for relevancy (0-40)
- "accuracy_points": Score for accuracy (0-40)
- "completeness_points": Score for completeness (0-20)
- "reasoning": Brief explanation of the score

Respond ONLY with the JSON object, no other text.`

// fallbackJudgement is returned verbatim when the judge's output cannot be
// parsed; the call never fails on a malformed rubric.
func fallbackJudgement() Judgement {
	return Judgement{
		Score:     50,
		Breakdown: Breakdown{RelevancyPoints: 20, AccuracyPoints: 20, CompletenessPoints: 10},
		Reasoning: "Unable to parse judge response",
	}
}

// Judge scores the generated answer against one candidate's stored resolution
// on the fixed rubric. Sub-scores are clamped to their rubric bounds and the
// total is recomputed as their sum.
func (a *Agent) Judge(ctx context.Context, query, answer, resolution string) (Judgement, error) {
	resp, err := a.llm.Chat(ctx,
		[]llm.Message{
			llm.System(judgeSystemPrompt),
			llm.User(fmt.Sprintf(judgePromptTemplate, query, answer, resolution)),
		},
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(300),
	)
	if err != nil {
		return Judgement{}, errs.Service(err, "judge call failed")
	}

	var raw struct {
		Score              int    `json:"score"`
		RelevancyPoints    int    `json:"relevancy_points"`
		AccuracyPoints     int    `json:"accuracy_points"`
		CompletenessPoints int    `json:"completeness_points"`
		Reasoning          string `json:"reasoning"`
	}
	if err := jsonrepair.Unmarshal(resp.Content, &raw); err != nil {
		if a.debug {
			slog.Error("judge output unparseable, using fallback", "error", err)
		}
		return fallbackJudgement(), nil
	}

	j := Judgement{
		Breakdown: Breakdown{
			RelevancyPoints:    clamp(raw.RelevancyPoints, 0, 40),
			AccuracyPoints:     clamp(raw.AccuracyPoints, 0, 40),
			CompletenessPoints: clamp(raw.CompletenessPoints, 0, 20),
		},
		Reasoning: raw.Reasoning,
	}
	j.Score = j.Breakdown.RelevancyPoints + j.Breakdown.AccuracyPoints + j.Breakdown.CompletenessPoints
	return j, nil
}

// format assembles one immutable Result for a candidate. Content type
// precedence for reporting: a populated KB reference wins over a script
// reference, which wins over the plain resolution text.
func format(query, answer, ticketID string, m vectorstore.Match, j Judgement) Result {
	rec := m.Record

	var (
		contentType  ContentType
		contentValue string
	)
	switch {
	case vectorstore.Present(rec.KBArticleID):
		contentType = ContentKB
		contentValue = rec.KBArticleID
	case vectorstore.Present(rec.ScriptID):
		contentType = ContentScript
		contentValue = rec.ScriptID
	default:
		contentType = ContentResolution
		contentValue = orNA(rec.Resolution)
	}

	ref := Reference{}
	if vectorstore.Present(rec.KBArticleID) {
		ref.KBID = rec.KBArticleID
	}
	if vectorstore.Present(rec.ScriptID) {
		ref.ScriptID = rec.ScriptID
	}
	if vectorstore.Present(rec.GeneratedKBArticleID) {
		ref.GeneratedKBID = rec.GeneratedKBArticleID
	}

	return Result{
		Query:            query,
		GeneratedAnswer:  answer,
		TicketID:         ticketID,
		ReferredTicketID: orNA(rec.TicketNumber),
		CreatedDate:      rec.CreatedDate,
		ConversationID:   rec.ConversationID,
		AgentName:        rec.AgentName,
		Product:          rec.Product,
		Category:         rec.Category,
		AnswerType:       rec.AnswerType,
		Resolution: Resolution{
			ContentType:    contentType,
			Content:        string(contentType) + ": " + contentValue,
			AgentID:        rec.AgentName,
			RelevancyScore: j.Score,
			Breakdown:      j.Breakdown,
			Reasoning:      j.Reasoning,
			Reference:      ref,
		},
		Metadata: RetrievalMetadata{
			SimilarityScore: m.Similarity,
			Distance:        m.Distance,
			Priority:        rec.Priority,
			Sentiment:       rec.Sentiment,
			Channel:         rec.Channel,
		},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orNA(s string) string {
	if vectorstore.Present(s) {
		return s
	}
	return "N/A"
}
