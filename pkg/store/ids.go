package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Identifier formats per entity. Tickets and scripts carry uniformly
// formatted sequential suffixes, so max+1 is reliable for them. KB article
// identifiers have heterogeneous legacy formats, which makes "last id + 1"
// meaningless; they get collision-checked random hex suffixes instead.
const (
	TicketPrefix           = "CS-"
	ScriptPrefix           = "SCRIPT-"
	KBPrefix               = "KB-"
	KBSelfHealingPrefix    = "KB-SELF-HEALING-"
	KnowledgePrefix        = "KB-NEW-"
	SelfHealingScriptFloor = 9000

	kbIDAttempts = 10
)

// NextTicketID returns the next ticket identifier: the fixed prefix plus a
// zero-padded 8-digit sequential number derived from the max existing suffix.
func (s *Store) NextTicketID(ctx context.Context) (string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&Ticket{}).
		Where("ticket_id LIKE ?", TicketPrefix+"%").
		Pluck("ticket_id", &ids).Error; err != nil {
		return "", fmt.Errorf("failed to scan ticket ids: %w", err)
	}

	next := maxNumericSuffix(ids, TicketPrefix) + 1
	return fmt.Sprintf("%s%08d", TicketPrefix, next), nil
}

// NextScriptID returns the next script identifier with a zero-padded 4-digit
// sequential suffix. floor sets the first number used when the table holds no
// scripts yet; self-healing callers pass SelfHealingScriptFloor so generated
// scripts never collide with manually curated ranges.
func (s *Store) NextScriptID(ctx context.Context, floor int) (string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&Script{}).
		Where("script_id LIKE ?", ScriptPrefix+"%").
		Pluck("script_id", &ids).Error; err != nil {
		return "", fmt.Errorf("failed to scan script ids: %w", err)
	}

	next := maxNumericSuffix(ids, ScriptPrefix) + 1
	if next < floor {
		next = floor
	}
	return fmt.Sprintf("%s%04d", ScriptPrefix, next), nil
}

// NextKBArticleID mints a fresh KB identifier: prefix plus 8 random uppercase
// hex characters, collision-checked against the table in a bounded retry loop.
func (s *Store) NextKBArticleID(ctx context.Context, prefix string) (string, error) {
	for attempt := 0; attempt < kbIDAttempts; attempt++ {
		candidate := prefix + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

		var n int64
		if err := s.db.WithContext(ctx).Model(&KBArticle{}).
			Where("kb_article_id = ?", candidate).
			Count(&n).Error; err != nil {
			return "", fmt.Errorf("failed to check kb id collision: %w", err)
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts minting a unique kb article id", kbIDAttempts)
}

// NextKnowledgeID returns the next audit-row identifier with its own
// sequential counter, scoped to the KB-NEW- prefix.
func (s *Store) NextKnowledgeID(ctx context.Context) (string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&NewKnowledge{}).
		Where("knowledge_id LIKE ?", KnowledgePrefix+"%").
		Pluck("knowledge_id", &ids).Error; err != nil {
		return "", fmt.Errorf("failed to scan knowledge ids: %w", err)
	}

	next := maxNumericSuffix(ids, KnowledgePrefix) + 1
	return fmt.Sprintf("%s%04d", KnowledgePrefix, next), nil
}

// maxNumericSuffix returns the largest numeric suffix among ids carrying the
// given prefix, or 0 when none parse.
func maxNumericSuffix(ids []string, prefix string) int {
	max := 0
	for _, id := range ids {
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}
