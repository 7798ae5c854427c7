// Package generate synthesizes new knowledge-base articles and remediation
// scripts from a classification result, using the retrieved artifacts as
// few-shot context and persisting what it creates.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/barekit/remedy/pkg/classify"
	"github.com/barekit/remedy/pkg/errs"
	"github.com/barekit/remedy/pkg/jsonrepair"
	"github.com/barekit/remedy/pkg/llm"
	"github.com/barekit/remedy/pkg/store"
	"github.com/barekit/remedy/pkg/vectorstore"
)

// Classification labels the route the agent took for a result.
type Classification string

const (
	ClassificationScript     Classification = "SCRIPT"
	ClassificationKB         Classification = "KB"
	ClassificationResolution Classification = "RESOLUTION"
)

// Output is the result of one generation pass. For the SCRIPT route both
// Script and KBArticle are set; for KB only KBArticle; for RESOLUTION neither
// is set and Answer carries the classifier's generated answer verbatim.
// SynthesisFailed marks the fixed fallback artifacts produced when the model
// output could not be parsed even after repair; RawOutput then holds the
// original response for diagnostics.
type Output struct {
	Classification  Classification   `json:"classification"`
	Script          *store.Script    `json:"script,omitempty"`
	KBArticle       *store.KBArticle `json:"kb_article,omitempty"`
	Answer          string           `json:"answer,omitempty"`
	Query           string           `json:"query,omitempty"`
	Message         string           `json:"message"`
	SynthesisFailed bool             `json:"synthesis_failed,omitempty"`
	RawOutput       string           `json:"-"`
}

// Agent routes a classification result to the matching synthesis path.
type Agent struct {
	store       *store.Store
	llm         llm.Provider
	selfHealing bool
	debug       bool
}

// Option configures an Agent.
type Option func(*Agent)

// WithDebug enables debug logging.
func WithDebug(enable bool) Option {
	return func(a *Agent) {
		a.debug = enable
	}
}

// WithSelfHealing marks artifacts created by this agent as self-healing
// originated: scripts number from the reserved high offset and KB articles
// get the self-healing id prefix.
func WithSelfHealing(enable bool) Option {
	return func(a *Agent) {
		a.selfHealing = enable
	}
}

// New creates a new generation Agent.
func New(st *store.Store, provider llm.Provider, opts ...Option) *Agent {
	a := &Agent{store: st, llm: provider}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) provenance() string {
	if a.selfHealing {
		return vectorstore.SourceSelfHealing
	}
	return vectorstore.SourceGenerated
}

func (a *Agent) scriptFloor() int {
	if a.selfHealing {
		return store.SelfHealingScriptFloor
	}
	return 1
}

func (a *Agent) kbPrefix() string {
	if a.selfHealing {
		return store.KBSelfHealingPrefix
	}
	return store.KBPrefix
}

// Generate routes on the best candidate's reference descriptor. A populated
// script reference takes precedence over KB references because a script
// match always gets a companion KB article synthesized alongside it.
func (a *Agent) Generate(ctx context.Context, res *classify.Result) (*Output, error) {
	if res == nil {
		return nil, errs.Validation("classification result is required")
	}

	ref := res.Resolution.Reference
	if a.debug {
		slog.Info("generation started",
			"kb_id", ref.KBID, "script_id", ref.ScriptID, "generated_kb_id", ref.GeneratedKBID)
	}

	switch {
	case vectorstore.Present(ref.ScriptID):
		return a.generateScriptAndKB(ctx, res)
	case vectorstore.Present(ref.KBID) || vectorstore.Present(ref.GeneratedKBID):
		return a.generateKB(ctx, res)
	default:
		return &Output{
			Classification: ClassificationResolution,
			Answer:         res.GeneratedAnswer,
			Query:          res.Query,
			Message:        "Resolution found in previous tickets, no new generation needed",
		}, nil
	}
}

// collectKBContext fetches the referenced KB article bodies, skipping ids
// that do not resolve.
func (a *Agent) collectKBContext(ctx context.Context, ids ...string) []*store.KBArticle {
	var articles []*store.KBArticle
	for _, id := range ids {
		if !vectorstore.Present(id) {
			continue
		}
		kb, err := a.store.GetKBArticle(ctx, id)
		if err != nil {
			if a.debug {
				slog.Info("kb context lookup failed", "kb_id", id, "error", err)
			}
			continue
		}
		articles = append(articles, kb)
	}
	return articles
}

func (a *Agent) generateKB(ctx context.Context, res *classify.Result) (*Output, error) {
	ref := res.Resolution.Reference
	kbContext := a.collectKBContext(ctx, ref.KBID, ref.GeneratedKBID)
	if len(kbContext) == 0 {
		return nil, errs.NotFound("no knowledge articles resolved for references %q, %q", ref.KBID, ref.GeneratedKBID)
	}

	var b strings.Builder
	for i, kb := range kbContext {
		fmt.Fprintf(&b, "\nKB Article %d (ID: %s):\nTitle: %s\nModule: %s\nCategory: %s\nTags: %s\nBody:\n%s\n",
			i+1, kb.KBArticleID, kb.Title, kb.Module, kb.Category, kb.Tags, truncate(kb.Body, 1000))
	}

	userPrompt := fmt.Sprintf(`USER QUERY: %s

REFERENCE KB ARTICLES:
%s

Based on the user query and the reference KB articles above, create a NEW comprehensive KB article that synthesizes this information.

Provide your response in the following JSON format:
{
    "title": "Clear, descriptive title",
    "body": "Comprehensive body with step-by-step instructions, explanations, and examples",
    "tags": "Comma-separated relevant tags",
    "module": "Module name from reference articles",
    "category": "Category from reference articles"
}

Make the article clear, actionable, and well-structured.`, res.Query, b.String())

	resp, err := a.llm.Chat(ctx,
		[]llm.Message{llm.System(kbSystemPrompt), llm.User(userPrompt)},
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(2000),
	)
	if err != nil {
		return nil, errs.Service(err, "kb article synthesis failed")
	}

	var payload kbPayload
	failed := false
	if err := jsonrepair.Unmarshal(resp.Content, &payload); err != nil {
		if a.debug {
			slog.Error("kb synthesis output unparseable, using fallback", "error", err)
		}
		payload = fallbackKBPayload()
		failed = true
	}

	article, err := a.persistKB(ctx, payload)
	if err != nil {
		return nil, err
	}
	if err := a.audit(ctx, res, article.Body, article.KBArticleID); err != nil {
		return nil, err
	}

	return &Output{
		Classification:  ClassificationKB,
		KBArticle:       article,
		Message:         fmt.Sprintf("Generated new KB article (%s)", article.KBArticleID),
		SynthesisFailed: failed,
		RawOutput:       rawIfFailed(failed, resp.Content),
	}, nil
}

func (a *Agent) generateScriptAndKB(ctx context.Context, res *classify.Result) (*Output, error) {
	ref := res.Resolution.Reference

	script, err := a.store.GetScript(ctx, ref.ScriptID)
	if err != nil {
		return nil, err
	}
	kbContext := a.collectKBContext(ctx, ref.KBID, ref.GeneratedKBID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nScript 1 (ID: %s):\nTitle: %s\nPurpose: %s\nModule: %s\nCategory: %s\nInputs: %s\nCode:\n%s\n",
		script.ScriptID, script.Title, script.Purpose, script.Module, script.Category, script.Inputs, truncate(script.Body, 800))

	var kb strings.Builder
	for i, art := range kbContext {
		fmt.Fprintf(&kb, "\nKB Article %d (ID: %s):\nTitle: %s\nModule: %s\nCategory: %s\nBody:\n%s\n",
			i+1, art.KBArticleID, art.Title, art.Module, art.Category, truncate(art.Body, 600))
	}
	kbStr := kb.String()
	if kbStr == "" {
		kbStr = "No KB articles available."
	}

	userPrompt := fmt.Sprintf(`USER QUERY: %s

REFERENCE SCRIPTS:
%s

REFERENCE KB ARTICLES:
%s

Based on the user query and the reference materials above, create:
1. A NEW SQL script that addresses the user's needs
2. A NEW KB article that documents how to use this script

Provide your response in the following JSON format:
{
    "script": {
        "title": "Descriptive script title",
        "purpose": "What this script does and when to use it",
        "inputs": "Required placeholders (e.g., <DATABASE>, <TABLE_NAME>)",
        "module": "Module name from references",
        "category": "Category from references",
        "code": "Complete SQL script with comments"
    },
    "kb_article": {
        "title": "How to use [script title]",
        "body": "Comprehensive documentation with usage instructions, prerequisites, examples, and troubleshooting",
        "tags": "Comma-separated relevant tags",
        "module": "Same as script module",
        "category": "Same as script category"
    }
}

Make both outputs clear, actionable, and professional.`, res.Query, sb.String(), kbStr)

	resp, err := a.llm.Chat(ctx,
		[]llm.Message{llm.System(scriptSystemPrompt), llm.User(userPrompt)},
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(3000),
	)
	if err != nil {
		return nil, errs.Service(err, "script synthesis failed")
	}

	var payload scriptAndKBPayload
	failed := false
	if err := jsonrepair.Unmarshal(resp.Content, &payload); err != nil {
		if a.debug {
			slog.Error("script synthesis output unparseable, using fallback", "error", err)
		}
		payload = fallbackScriptAndKBPayload()
		failed = true
	}

	newScript, err := a.persistScript(ctx, payload.Script)
	if err != nil {
		return nil, err
	}
	article, err := a.persistKB(ctx, payload.KBArticle)
	if err != nil {
		return nil, err
	}
	if err := a.audit(ctx, res, newScript.Body, newScript.ScriptID, article.KBArticleID); err != nil {
		return nil, err
	}

	return &Output{
		Classification:  ClassificationScript,
		Script:          newScript,
		KBArticle:       article,
		Message:         fmt.Sprintf("Generated new script (%s) and KB article (%s)", newScript.ScriptID, article.KBArticleID),
		SynthesisFailed: failed,
		RawOutput:       rawIfFailed(failed, resp.Content),
	}, nil
}

func (a *Agent) persistScript(ctx context.Context, p scriptPayload) (*store.Script, error) {
	id, err := a.store.NextScriptID(ctx, a.scriptFloor())
	if err != nil {
		return nil, err
	}
	script := &store.Script{
		ScriptID: id,
		Title:    p.Title,
		Purpose:  p.Purpose,
		Inputs:   p.Inputs,
		Module:   p.Module,
		Category: p.Category,
		Source:   a.provenance(),
		Body:     p.Code,
	}
	if err := a.store.InsertScript(ctx, script); err != nil {
		return nil, err
	}
	if a.debug {
		slog.Info("script persisted", "script_id", id)
	}
	return script, nil
}

func (a *Agent) persistKB(ctx context.Context, p kbPayload) (*store.KBArticle, error) {
	id, err := a.store.NextKBArticleID(ctx, a.kbPrefix())
	if err != nil {
		return nil, err
	}
	now := time.Now()
	article := &store.KBArticle{
		KBArticleID: id,
		Title:       p.Title,
		Body:        p.Body,
		Tags:        p.Tags,
		Module:      p.Module,
		Category:    p.Category,
		Status:      "Active",
		SourceType:  a.provenance(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.InsertKBArticle(ctx, article); err != nil {
		return nil, err
	}
	if a.debug {
		slog.Info("kb article persisted", "kb_article_id", id)
	}
	return article, nil
}

// audit records a new-knowledge row tying the synthesis back to the minted
// ticket and the artifacts it produced.
func (a *Agent) audit(ctx context.Context, res *classify.Result, resolution string, referenceIDs ...string) error {
	id, err := a.store.NextKnowledgeID(ctx)
	if err != nil {
		return err
	}
	refs, err := json.Marshal(referenceIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal reference ids: %w", err)
	}
	return a.store.InsertNewKnowledge(ctx, &store.NewKnowledge{
		KnowledgeID:       id,
		TicketID:          res.TicketID,
		ConversationID:    res.ConversationID,
		Product:           res.Product,
		Resolution:        resolution,
		ReferenceArticles: string(refs),
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func rawIfFailed(failed bool, raw string) string {
	if failed {
		return raw
	}
	return ""
}
