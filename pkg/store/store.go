package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/barekit/remedy/pkg/errs"
	"gorm.io/gorm"
)

// Store exposes the relational operations the pipeline depends on: by-id
// point lookups, inserts, typed-patch updates, and identifier minting.
type Store struct {
	db *gorm.DB
}

// New wraps an open GORM handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Ticket{}, &KBArticle{}, &Script{}, &NewKnowledge{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// GetTicket retrieves a ticket by its ticket identifier (e.g. CS-00000123).
func (s *Store) GetTicket(ctx context.Context, ticketID string) (*Ticket, error) {
	var t Ticket
	if err := s.db.WithContext(ctx).Where("ticket_id = ?", ticketID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("ticket %s", ticketID)
		}
		return nil, err
	}
	return &t, nil
}

// GetKBArticle retrieves a knowledge article by its KB identifier.
func (s *Store) GetKBArticle(ctx context.Context, kbID string) (*KBArticle, error) {
	var a KBArticle
	if err := s.db.WithContext(ctx).Where("kb_article_id = ?", kbID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("knowledge article %s", kbID)
		}
		return nil, err
	}
	return &a, nil
}

// GetScript retrieves a script by its script identifier.
func (s *Store) GetScript(ctx context.Context, scriptID string) (*Script, error) {
	var sc Script
	if err := s.db.WithContext(ctx).Where("script_id = ?", scriptID).First(&sc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("script %s", scriptID)
		}
		return nil, err
	}
	return &sc, nil
}

// InsertTicket persists a new ticket row.
func (s *Store) InsertTicket(ctx context.Context, t *Ticket) error {
	if t.TicketID == "" {
		return errs.Validation("ticket id is required")
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to insert ticket %s: %w", t.TicketID, err)
	}
	return nil
}

// InsertKBArticle persists a new knowledge article row. Uniqueness of the KB
// identifier is enforced by the table.
func (s *Store) InsertKBArticle(ctx context.Context, a *KBArticle) error {
	if a.KBArticleID == "" {
		return errs.Validation("kb article id is required")
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to insert knowledge article %s: %w", a.KBArticleID, err)
	}
	return nil
}

// InsertScript persists a new script row.
func (s *Store) InsertScript(ctx context.Context, sc *Script) error {
	if sc.ScriptID == "" {
		return errs.Validation("script id is required")
	}
	if err := s.db.WithContext(ctx).Create(sc).Error; err != nil {
		return fmt.Errorf("failed to insert script %s: %w", sc.ScriptID, err)
	}
	return nil
}

// InsertNewKnowledge records an audit row for a resolution folded into the
// knowledge base.
func (s *Store) InsertNewKnowledge(ctx context.Context, nk *NewKnowledge) error {
	if nk.KnowledgeID == "" {
		return errs.Validation("knowledge id is required")
	}
	if nk.Resolution == "" {
		return errs.Validation("resolution is required")
	}
	if err := s.db.WithContext(ctx).Create(nk).Error; err != nil {
		return fmt.Errorf("failed to insert new knowledge %s: %w", nk.KnowledgeID, err)
	}
	return nil
}

// UpdateKBArticle applies the non-nil fields of patch to an existing article.
func (s *Store) UpdateKBArticle(ctx context.Context, kbID string, patch KBArticlePatch) error {
	updates := map[string]any{}
	setIf(updates, "title", patch.Title)
	setIf(updates, "body", patch.Body)
	setIf(updates, "tags", patch.Tags)
	setIf(updates, "module", patch.Module)
	setIf(updates, "category", patch.Category)
	setIf(updates, "status", patch.Status)
	if len(updates) == 0 {
		return errs.Validation("no fields to update")
	}

	res := s.db.WithContext(ctx).Model(&KBArticle{}).Where("kb_article_id = ?", kbID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("knowledge article %s", kbID)
	}
	return nil
}

// UpdateTicket applies the non-nil fields of patch to an existing ticket.
func (s *Store) UpdateTicket(ctx context.Context, ticketID string, patch TicketPatch) error {
	updates := map[string]any{}
	setIf(updates, "status", patch.Status)
	setIf(updates, "resolution", patch.Resolution)
	setIf(updates, "category", patch.Category)
	if len(updates) == 0 {
		return errs.Validation("no fields to update")
	}

	res := s.db.WithContext(ctx).Model(&Ticket{}).Where("ticket_id = ?", ticketID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("ticket %s", ticketID)
	}
	return nil
}

func setIf(updates map[string]any, column string, v *string) {
	if v != nil {
		updates[column] = *v
	}
}
