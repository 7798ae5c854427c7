// Package classify orchestrates retrieval, answer generation, and judged
// relevancy scoring for an incoming query, emitting one structured result per
// retrieved candidate.
package classify

// ContentType labels where the best-matching resolution for a query lives.
type ContentType string

const (
	ContentKB         ContentType = "KB"
	ContentScript     ContentType = "Script"
	ContentResolution ContentType = "Resolution"
)

// Reference points at the relational rows behind a candidate's resolution.
type Reference struct {
	KBID          string `json:"kb_id,omitempty"`
	ScriptID      string `json:"script_id,omitempty"`
	GeneratedKBID string `json:"generated_kb_id,omitempty"`
}

// Breakdown is the judge's three-part rubric split of the total score.
type Breakdown struct {
	RelevancyPoints    int `json:"relevancy_points"`
	AccuracyPoints     int `json:"accuracy_points"`
	CompletenessPoints int `json:"completeness_points"`
}

// Judgement is the structured output of one judge call: a 0-100 total, its
// rubric breakdown, and a free-text rationale.
type Judgement struct {
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"relevancy_breakdown"`
	Reasoning string    `json:"reasoning"`
}

// Resolution describes the matched resolution for one candidate.
type Resolution struct {
	ContentType    ContentType `json:"content_type"`
	Content        string      `json:"content"`
	AgentID        string      `json:"agent_id,omitempty"`
	RelevancyScore int         `json:"relevancy_score"`
	Breakdown      Breakdown   `json:"relevancy_breakdown"`
	Reasoning      string      `json:"reasoning"`
	Reference      Reference   `json:"reference_article"`
}

// RetrievalMetadata carries the ranking data for one candidate.
type RetrievalMetadata struct {
	SimilarityScore float64 `json:"similarity_score"`
	Distance        float64 `json:"distance"`
	Priority        string  `json:"priority,omitempty"`
	Sentiment       string  `json:"sentiment,omitempty"`
	Channel         string  `json:"channel,omitempty"`
}

// Result is one (query, candidate) classification. Immutable once produced;
// the generation agent consumes it as-is.
type Result struct {
	Query            string            `json:"query"`
	GeneratedAnswer  string            `json:"generated_answer"`
	TicketID         string            `json:"ticket_id"`
	ReferredTicketID string            `json:"refered_ticket_id"`
	CreatedDate      string            `json:"created_date,omitempty"`
	ConversationID   string            `json:"conversation_id,omitempty"`
	AgentName        string            `json:"first_tier_agent_name,omitempty"`
	Product          string            `json:"product,omitempty"`
	Category         string            `json:"category,omitempty"`
	AnswerType       string            `json:"answer_type,omitempty"`
	Resolution       Resolution        `json:"resolution"`
	Metadata         RetrievalMetadata `json:"metadata"`
}
