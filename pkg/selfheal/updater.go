// Package selfheal folds newly generated artifacts back into the searchable
// corpus: it normalizes a script or KB article to the canonical metadata
// record, embeds it with the same template used at ingestion, and appends it
// to the vector store so the stores stay consistent.
package selfheal

import (
	"context"
	"log/slog"
	"strings"

	"github.com/barekit/remedy/pkg/embedding"
	"github.com/barekit/remedy/pkg/errs"
	"github.com/barekit/remedy/pkg/store"
	"github.com/barekit/remedy/pkg/vectorstore"
)

// agentName marks machine-authored rows in the metadata store.
const agentName = "AI_SYSTEM"

// Updater appends normalized artifacts to the vector store.
type Updater struct {
	embedder embedding.Embedder
	vstore   vectorstore.Store
	debug    bool
}

// Option configures an Updater.
type Option func(*Updater)

// WithDebug enables debug logging.
func WithDebug(enable bool) Option {
	return func(u *Updater) {
		u.debug = enable
	}
}

// New creates a new Updater.
func New(embedder embedding.Embedder, vstore vectorstore.Store, opts ...Option) *Updater {
	u := &Updater{embedder: embedder, vstore: vstore}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// NormalizeScript maps a script row onto the canonical metadata record.
// Fields that do not apply to scripts stay empty; the script body becomes the
// resolution so retrieval surfaces it like a historical fix.
func NormalizeScript(s *store.Script, issueSummary string) vectorstore.Record {
	return vectorstore.Record{
		Channel:      provenance(s.Source),
		AgentName:    agentName,
		Product:      s.Module,
		Category:     s.Category,
		IssueSummary: issueSummary,
		Priority:     "Medium",
		Tier:         "2",
		Module:       s.Module,
		Subject:      s.Title,
		Description:  s.Purpose,
		Resolution:   s.Body,
		Tags:         "script, " + strings.ToLower(s.Category) + ", " + provenanceTag(s.Source),
		ScriptID:     s.ScriptID,
		SourceID:     s.ScriptID,
		AnswerType:   "Script",
	}
}

// NormalizeKB maps a KB article row onto the canonical metadata record.
func NormalizeKB(kb *store.KBArticle) vectorstore.Record {
	return vectorstore.Record{
		Channel:              provenance(kb.SourceType),
		AgentName:            agentName,
		Product:              kb.Module,
		Category:             kb.Category,
		IssueSummary:         kb.Title,
		Priority:             "Medium",
		Tier:                 "2",
		Module:               kb.Module,
		Subject:              kb.Title,
		Description:          truncate(kb.Body, 500),
		Resolution:           kb.Body,
		Tags:                 kb.Tags,
		KBArticleID:          kb.KBArticleID,
		GeneratedKBArticleID: kb.KBArticleID,
		SourceID:             kb.KBArticleID,
		AnswerType:           "KB",
	}
}

// UpdateScript normalizes and indexes a persisted script. The relational row
// already exists when this runs; an embedding or append failure therefore
// surfaces as a Consistency error so an operator can re-run Reindex.
func (u *Updater) UpdateScript(ctx context.Context, s *store.Script, issueSummary string) (vectorstore.Record, error) {
	rec := NormalizeScript(s, issueSummary)
	if err := u.Reindex(ctx, rec); err != nil {
		return rec, errs.Consistency(err, "script %s persisted but vector index append failed", s.ScriptID)
	}
	return rec, nil
}

// UpdateKB normalizes and indexes a persisted KB article.
func (u *Updater) UpdateKB(ctx context.Context, kb *store.KBArticle) (vectorstore.Record, error) {
	rec := NormalizeKB(kb)
	if err := u.Reindex(ctx, rec); err != nil {
		return rec, errs.Consistency(err, "kb article %s persisted but vector index append failed", kb.KBArticleID)
	}
	return rec, nil
}

// Reindex embeds a normalized record and appends it to the vector store.
// Safe to re-run after a Consistency failure: it embeds from the record
// alone and appends exactly one vector.
func (u *Updater) Reindex(ctx context.Context, rec vectorstore.Record) error {
	text := rec.EmbeddingText()
	vector, err := embedding.EmbedOne(ctx, u.embedder, text)
	if err != nil {
		return err
	}
	if err := u.vstore.Append(ctx, rec, vector); err != nil {
		return err
	}
	if u.debug {
		slog.Info("record folded into vector store", "source_id", rec.SourceID, "answer_type", rec.AnswerType)
	}
	return nil
}

func provenance(source string) string {
	if source == "" {
		return vectorstore.SourceGenerated
	}
	return source
}

func provenanceTag(source string) string {
	return strings.ToLower(strings.ReplaceAll(provenance(source), "_", "-"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
