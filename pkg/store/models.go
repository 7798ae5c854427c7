// Package store is the relational collaborator: typed CRUD over tickets,
// knowledge-base articles, remediation scripts, and the new-knowledge audit
// table, plus the per-entity identifier minting rules.
package store

import "time"

// Ticket is one historical or newly created support ticket.
type Ticket struct {
	ID             uint   `gorm:"primaryKey"`
	TicketID       string `gorm:"uniqueIndex;size:32"`
	ConversationID string `gorm:"index;size:64"`
	Channel        string
	CustomerRole   string
	Product        string
	Category       string
	Subject        string
	Description    string
	Transcript     string
	Resolution     string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Ticket) TableName() string { return "tickets" }

// KBArticle is one knowledge-base article.
type KBArticle struct {
	ID          uint   `gorm:"primaryKey"`
	KBArticleID string `gorm:"uniqueIndex;size:64"`
	Title       string
	Body        string
	Tags        string
	Module      string
	Category    string
	Status      string
	SourceType  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (KBArticle) TableName() string { return "knowledge_articles" }

// Script is one remediation script.
type Script struct {
	ID       uint   `gorm:"primaryKey"`
	ScriptID string `gorm:"uniqueIndex;size:32"`
	Title    string
	Purpose  string
	Inputs   string
	Module   string
	Category string
	Source   string
	Body     string
}

func (Script) TableName() string { return "scripts" }

// NewKnowledge is one audit row recording a resolution approved into the
// knowledge base.
type NewKnowledge struct {
	ID                uint   `gorm:"primaryKey"`
	KnowledgeID       string `gorm:"uniqueIndex;size:32"`
	TicketID          string `gorm:"index;size:32"`
	ConversationID    string
	Product           string
	Resolution        string
	ReferenceArticles string
	CreatedAt         time.Time
}

func (NewKnowledge) TableName() string { return "new_knowledge" }

// KBArticlePatch carries an optional subset of KBArticle fields for updates.
// Nil fields are left untouched.
type KBArticlePatch struct {
	Title    *string
	Body     *string
	Tags     *string
	Module   *string
	Category *string
	Status   *string
}

// TicketPatch carries an optional subset of Ticket fields for updates.
type TicketPatch struct {
	Status     *string
	Resolution *string
	Category   *string
}
