package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	memory "github.com/barekit/remedy/pkg/memory/types"
)

func TestSaveAndLoad(t *testing.T) {
	m, err := New(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite memory: %v", err)
	}
	ctx := context.Background()

	exchanges := []memory.Exchange{
		{TicketID: "CS-00000001", Query: "cannot log in", Answer: "clear the token", Classification: "RESOLUTION", RelevancyScore: 80},
		{TicketID: "CS-00000002", Query: "files not syncing", Answer: "reset the cursor", Classification: "SCRIPT", RelevancyScore: 72},
	}
	for _, ex := range exchanges {
		if err := m.Save(ctx, "conv-1", ex); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if err := m.Save(ctx, "conv-2", memory.Exchange{Query: "other conversation"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := m.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 exchanges, got %d", len(got))
	}
	if got[0].TicketID != "CS-00000001" {
		t.Errorf("Expected chronological order, got %+v", got[0])
	}
	if got[1].Classification != "SCRIPT" || got[1].RelevancyScore != 72 {
		t.Errorf("Fields lost in roundtrip: %+v", got[1])
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("Expected CreatedAt populated from the row")
	}
}
