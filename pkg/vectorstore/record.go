// Package vectorstore provides the similarity-search layer: a flat L2 vector
// index kept in lockstep with a parallel metadata store, one Record per vector
// at the same ordinal position.
package vectorstore

import (
	"strings"
)

// Provenance values recorded on rows written back by the self-healing loop.
const (
	SourceSelfHealing = "SELF_HEALING"
	SourceGenerated   = "GENERATED"
)

// Record is the canonical metadata superset associated with one embedded
// document. Every ingested ticket, KB article, and script row carries this
// same field set; an empty field means "not applicable", never an error.
// Rows synthesized by self-healing populate the identical set so they stay
// queryable exactly like historical rows.
type Record struct {
	TicketNumber         string `json:"ticket_number,omitempty"`
	ConversationID       string `json:"conversation_id,omitempty"`
	Channel              string `json:"channel,omitempty"`
	CustomerRole         string `json:"customer_role,omitempty"`
	AgentName            string `json:"agent_name,omitempty"`
	Product              string `json:"product,omitempty"`
	Category             string `json:"category,omitempty"`
	IssueSummary         string `json:"issue_summary,omitempty"`
	Transcript           string `json:"transcript,omitempty"`
	Sentiment            string `json:"sentiment,omitempty"`
	Priority             string `json:"priority,omitempty"`
	Tier                 string `json:"tier,omitempty"`
	Module               string `json:"module,omitempty"`
	Subject              string `json:"subject,omitempty"`
	Description          string `json:"description,omitempty"`
	Resolution           string `json:"resolution,omitempty"`
	RootCause            string `json:"root_cause,omitempty"`
	Tags                 string `json:"tags,omitempty"`
	KBArticleID          string `json:"kb_article_id,omitempty"`
	ScriptID             string `json:"script_id,omitempty"`
	GeneratedKBArticleID string `json:"generated_kb_article_id,omitempty"`
	SourceID             string `json:"source_id,omitempty"`
	AnswerType           string `json:"answer_type,omitempty"`
	CreatedDate          string `json:"created_date,omitempty"`
}

// Present reports whether a field value is populated, filtering out the
// literal placeholder strings that represent absence in ingested data.
func Present(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "N/A", "None", "none", "nan", "NaN", "null", "<nil>":
		return false
	}
	return true
}

// EmbeddingText builds the text representation embedded for this record.
// Ingestion and self-healing MUST both go through this template: any drift
// between the two silently degrades retrieval quality for self-healed rows.
func (r Record) EmbeddingText() string {
	var parts []string
	add := func(label, v string) {
		if Present(v) {
			parts = append(parts, label+": "+v)
		}
	}
	add("Ticket", r.TicketNumber)
	add("Product", r.Product)
	add("Category", r.Category)
	add("Issue", r.IssueSummary)
	add("Subject", r.Subject)
	add("Description", r.Description)
	add("Resolution", r.Resolution)
	add("Root Cause", r.RootCause)
	add("Tags", r.Tags)
	return strings.Join(parts, "\n")
}

// Similarity converts an L2 distance into a bounded (0,1] score. It is a
// monotonic transform of distance, not a probability.
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}
