package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/barekit/remedy/pkg/errs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	return s
}

func TestNextTicketID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.NextTicketID(ctx)
	if err != nil {
		t.Fatalf("NextTicketID failed: %v", err)
	}
	if id != "CS-00000001" {
		t.Errorf("Expected CS-00000001 on empty table, got %q", id)
	}

	if err := s.InsertTicket(ctx, &Ticket{TicketID: "CS-00000041"}); err != nil {
		t.Fatalf("InsertTicket failed: %v", err)
	}
	if err := s.InsertTicket(ctx, &Ticket{TicketID: "CS-00000007"}); err != nil {
		t.Fatalf("InsertTicket failed: %v", err)
	}

	id, err = s.NextTicketID(ctx)
	if err != nil {
		t.Fatalf("NextTicketID failed: %v", err)
	}
	if id != "CS-00000042" {
		t.Errorf("Expected max+1 CS-00000042, got %q", id)
	}
}

func TestNextScriptID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.NextScriptID(ctx, 0)
	if err != nil {
		t.Fatalf("NextScriptID failed: %v", err)
	}
	if id != "SCRIPT-0001" {
		t.Errorf("Expected SCRIPT-0001 on empty table, got %q", id)
	}

	if err := s.InsertScript(ctx, &Script{ScriptID: "SCRIPT-0120"}); err != nil {
		t.Fatalf("InsertScript failed: %v", err)
	}
	id, _ = s.NextScriptID(ctx, 0)
	if id != "SCRIPT-0121" {
		t.Errorf("Expected SCRIPT-0121, got %q", id)
	}
}

func TestNextScriptID_SelfHealingFloor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.NextScriptID(ctx, SelfHealingScriptFloor)
	if err != nil {
		t.Fatalf("NextScriptID failed: %v", err)
	}
	if id != "SCRIPT-9000" {
		t.Errorf("Expected floor SCRIPT-9000 on empty table, got %q", id)
	}

	if err := s.InsertScript(ctx, &Script{ScriptID: "SCRIPT-9003"}); err != nil {
		t.Fatalf("InsertScript failed: %v", err)
	}
	id, _ = s.NextScriptID(ctx, SelfHealingScriptFloor)
	if id != "SCRIPT-9004" {
		t.Errorf("Expected SCRIPT-9004 past the floor, got %q", id)
	}
}

func TestNextKBArticleID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.NextKBArticleID(ctx, KBPrefix)
	if err != nil {
		t.Fatalf("NextKBArticleID failed: %v", err)
	}
	if !strings.HasPrefix(id, KBPrefix) {
		t.Errorf("Expected prefix %q, got %q", KBPrefix, id)
	}
	suffix := strings.TrimPrefix(id, KBPrefix)
	if len(suffix) != 8 {
		t.Errorf("Expected 8-character suffix, got %q", suffix)
	}
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("Expected uppercase suffix, got %q", suffix)
	}

	healing, err := s.NextKBArticleID(ctx, KBSelfHealingPrefix)
	if err != nil {
		t.Fatalf("NextKBArticleID failed: %v", err)
	}
	if !strings.HasPrefix(healing, "KB-SELF-HEALING-") {
		t.Errorf("Expected self-healing prefix, got %q", healing)
	}
}

func TestNextKnowledgeID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.NextKnowledgeID(ctx)
	if err != nil {
		t.Fatalf("NextKnowledgeID failed: %v", err)
	}
	if id != "KB-NEW-0001" {
		t.Errorf("Expected KB-NEW-0001 on empty table, got %q", id)
	}

	err = s.InsertNewKnowledge(ctx, &NewKnowledge{KnowledgeID: id, TicketID: "CS-00000001", Resolution: "fixed"})
	if err != nil {
		t.Fatalf("InsertNewKnowledge failed: %v", err)
	}
	id, _ = s.NextKnowledgeID(ctx)
	if id != "KB-NEW-0002" {
		t.Errorf("Expected KB-NEW-0002, got %q", id)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetTicket(ctx, "CS-99999999"); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("Expected NotFound for missing ticket, got %v", err)
	}
	if _, err := s.GetKBArticle(ctx, "KB-MISSING1"); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("Expected NotFound for missing article, got %v", err)
	}
	if _, err := s.GetScript(ctx, "SCRIPT-9999"); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("Expected NotFound for missing script, got %v", err)
	}
}

func TestInsertAndGetRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	kb := &KBArticle{
		KBArticleID: "KB-1A2B3C4D",
		Title:       "Resolving sync failures",
		Body:        "Reset the sync cursor.",
		Status:      "Active",
	}
	if err := s.InsertKBArticle(ctx, kb); err != nil {
		t.Fatalf("InsertKBArticle failed: %v", err)
	}
	got, err := s.GetKBArticle(ctx, "KB-1A2B3C4D")
	if err != nil {
		t.Fatalf("GetKBArticle failed: %v", err)
	}
	if got.Title != kb.Title || got.Body != kb.Body {
		t.Errorf("Roundtrip mismatch: %+v", got)
	}
}

func TestInsertValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertKBArticle(ctx, &KBArticle{}); !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("Expected Validation for missing kb id, got %v", err)
	}
	if err := s.InsertNewKnowledge(ctx, &NewKnowledge{KnowledgeID: "KB-NEW-0001"}); !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("Expected Validation for missing resolution, got %v", err)
	}
}

func TestUpdateKBArticle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertKBArticle(ctx, &KBArticle{KBArticleID: "KB-1A2B3C4D", Title: "old", Status: "Active"}); err != nil {
		t.Fatalf("InsertKBArticle failed: %v", err)
	}

	title := "new title"
	if err := s.UpdateKBArticle(ctx, "KB-1A2B3C4D", KBArticlePatch{Title: &title}); err != nil {
		t.Fatalf("UpdateKBArticle failed: %v", err)
	}
	got, _ := s.GetKBArticle(ctx, "KB-1A2B3C4D")
	if got.Title != "new title" {
		t.Errorf("Expected updated title, got %q", got.Title)
	}
	if got.Status != "Active" {
		t.Errorf("Unpatched field must survive, got status %q", got.Status)
	}

	if err := s.UpdateKBArticle(ctx, "KB-MISSING1", KBArticlePatch{Title: &title}); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("Expected NotFound for missing article, got %v", err)
	}
	if err := s.UpdateKBArticle(ctx, "KB-1A2B3C4D", KBArticlePatch{}); !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("Expected Validation for empty patch, got %v", err)
	}
}
