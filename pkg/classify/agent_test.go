package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/barekit/remedy/pkg/errs"
	"github.com/barekit/remedy/pkg/llm"
	"github.com/barekit/remedy/pkg/retriever"
	"github.com/barekit/remedy/pkg/vectorstore"
)

type mockEmbedder struct{}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type mockStore struct {
	matches []vectorstore.Match
}

func (m *mockStore) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Match, error) {
	if k > len(m.matches) {
		k = len(m.matches)
	}
	return m.matches[:k], nil
}

func (m *mockStore) Append(ctx context.Context, rec vectorstore.Record, vector []float32) error {
	return nil
}

func (m *mockStore) Count(ctx context.Context) (int, error) { return len(m.matches), nil }

func (m *mockStore) Model() string { return "mock-model" }

// mockProvider answers the answer prompt with a fixed draft and every judge
// prompt with the configured judge response.
type mockProvider struct {
	judgeResponse string
	judgeCalls    int
	resolutions   []string
}

func (m *mockProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Message, error) {
	last := messages[len(messages)-1].Content
	if strings.Contains(last, "ACTUAL RESOLUTION:") {
		m.judgeCalls++
		for _, line := range strings.Split(last, "\n") {
			if strings.HasPrefix(line, "ACTUAL RESOLUTION:") {
				m.resolutions = append(m.resolutions, strings.TrimSpace(strings.TrimPrefix(line, "ACTUAL RESOLUTION:")))
			}
		}
		return &llm.Message{Role: llm.RoleAssistant, Content: m.judgeResponse}, nil
	}
	return &llm.Message{Role: llm.RoleAssistant, Content: "Try clearing the session token."}, nil
}

type mockMinter struct {
	id  string
	err error
}

func (m *mockMinter) NextTicketID(ctx context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.id, nil
}

const goodJudgeJSON = `{"score": 80, "relevancy_points": 35, "accuracy_points": 30, "completeness_points": 15, "reasoning": "close match"}`

func newTestAgent(matches []vectorstore.Match, judgeResponse string) (*Agent, *mockProvider) {
	prov := &mockProvider{judgeResponse: judgeResponse}
	ret := retriever.New(&mockEmbedder{}, &mockStore{matches: matches}, prov)
	return New(ret, prov, &mockMinter{id: "CS-00000007"}), prov
}

func match(rec vectorstore.Record) vectorstore.Match {
	return vectorstore.Match{Record: rec, Distance: 0.5, Similarity: vectorstore.Similarity(0.5)}
}

func TestClassify_MintsTicketID(t *testing.T) {
	a, _ := newTestAgent([]vectorstore.Match{
		match(vectorstore.Record{TicketNumber: "CS-00000001", Resolution: "restart"}),
	}, goodJudgeJSON)

	results, err := a.Classify(context.Background(), "cannot log in", 3)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if results[0].TicketID != "CS-00000007" {
		t.Errorf("Expected minted ticket CS-00000007, got %q", results[0].TicketID)
	}
	if results[0].ReferredTicketID != "CS-00000001" {
		t.Errorf("Expected referred ticket CS-00000001, got %q", results[0].ReferredTicketID)
	}
}

func TestClassify_MintFailure(t *testing.T) {
	prov := &mockProvider{judgeResponse: goodJudgeJSON}
	ret := retriever.New(&mockEmbedder{}, &mockStore{matches: []vectorstore.Match{match(vectorstore.Record{})}}, prov)
	a := New(ret, prov, &mockMinter{err: errors.New("db down")})

	if _, err := a.Classify(context.Background(), "query", 1); err == nil {
		t.Error("Expected error when ticket minting fails, got nil")
	}
}

func TestClassify_NoMatches(t *testing.T) {
	a, _ := newTestAgent(nil, goodJudgeJSON)

	_, err := a.Classify(context.Background(), "query", 3)
	if err == nil {
		t.Fatal("Expected error for empty retrieval, got nil")
	}
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("Expected NotFound error, got %v", err)
	}
}

func TestClassify_OneResultPerCandidate(t *testing.T) {
	a, prov := newTestAgent([]vectorstore.Match{
		match(vectorstore.Record{TicketNumber: "CS-00000001", Resolution: "fix a"}),
		match(vectorstore.Record{TicketNumber: "CS-00000002", Resolution: "fix b"}),
		match(vectorstore.Record{TicketNumber: "CS-00000003"}),
	}, goodJudgeJSON)

	results, err := a.Classify(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if prov.judgeCalls != 3 {
		t.Errorf("Expected one judge call per candidate, got %d", prov.judgeCalls)
	}
	// Candidates without a stored resolution are judged against N/A.
	if prov.resolutions[2] != "N/A" {
		t.Errorf("Expected N/A substitution for missing resolution, got %q", prov.resolutions[2])
	}
}

func TestClassify_ContentTypePrecedence(t *testing.T) {
	cases := []struct {
		name        string
		rec         vectorstore.Record
		wantType    ContentType
		wantContent string
	}{
		{
			name:        "kb only",
			rec:         vectorstore.Record{KBArticleID: "KB-1A2B3C4D", Resolution: "fix"},
			wantType:    ContentKB,
			wantContent: "KB: KB-1A2B3C4D",
		},
		{
			name:        "script only",
			rec:         vectorstore.Record{ScriptID: "SCRIPT-0042", Resolution: "fix"},
			wantType:    ContentScript,
			wantContent: "Script: SCRIPT-0042",
		},
		{
			name:        "kb wins over script",
			rec:         vectorstore.Record{KBArticleID: "KB-1A2B3C4D", ScriptID: "SCRIPT-0042"},
			wantType:    ContentKB,
			wantContent: "KB: KB-1A2B3C4D",
		},
		{
			name:        "neither falls back to resolution",
			rec:         vectorstore.Record{Resolution: "restart the sync agent"},
			wantType:    ContentResolution,
			wantContent: "Resolution: restart the sync agent",
		},
		{
			name:        "placeholder ids are absent",
			rec:         vectorstore.Record{KBArticleID: "nan", ScriptID: "None", Resolution: "restart"},
			wantType:    ContentResolution,
			wantContent: "Resolution: restart",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, _ := newTestAgent([]vectorstore.Match{match(c.rec)}, goodJudgeJSON)
			res, err := a.Best(context.Background(), "query", 1)
			if err != nil {
				t.Fatalf("Best failed: %v", err)
			}
			if res.Resolution.ContentType != c.wantType {
				t.Errorf("Expected content type %s, got %s", c.wantType, res.Resolution.ContentType)
			}
			if res.Resolution.Content != c.wantContent {
				t.Errorf("Expected content %q, got %q", c.wantContent, res.Resolution.Content)
			}
		})
	}
}

func TestClassify_ReferenceFields(t *testing.T) {
	a, _ := newTestAgent([]vectorstore.Match{
		match(vectorstore.Record{
			KBArticleID:          "KB-1A2B3C4D",
			ScriptID:             "SCRIPT-0042",
			GeneratedKBArticleID: "KB-SELF-HEALING-AB12CD34",
		}),
	}, goodJudgeJSON)

	res, err := a.Best(context.Background(), "query", 1)
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	ref := res.Resolution.Reference
	if ref.KBID != "KB-1A2B3C4D" || ref.ScriptID != "SCRIPT-0042" || ref.GeneratedKBID != "KB-SELF-HEALING-AB12CD34" {
		t.Errorf("Reference not fully populated: %+v", ref)
	}
}

func TestJudge_ParsesAndClamps(t *testing.T) {
	a, prov := newTestAgent(nil, "")
	prov.judgeResponse = `{"score": 10, "relevancy_points": 95, "accuracy_points": -5, "completeness_points": 30, "reasoning": "out of bounds"}`

	j, err := a.Judge(context.Background(), "q", "a", "r")
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if j.Breakdown.RelevancyPoints != 40 {
		t.Errorf("Expected relevancy clamped to 40, got %d", j.Breakdown.RelevancyPoints)
	}
	if j.Breakdown.AccuracyPoints != 0 {
		t.Errorf("Expected accuracy clamped to 0, got %d", j.Breakdown.AccuracyPoints)
	}
	if j.Breakdown.CompletenessPoints != 20 {
		t.Errorf("Expected completeness clamped to 20, got %d", j.Breakdown.CompletenessPoints)
	}
	// Total is recomputed from the clamped parts, not taken from the model.
	if j.Score != 60 {
		t.Errorf("Expected recomputed score 60, got %d", j.Score)
	}
}

func TestJudge_FencedResponse(t *testing.T) {
	a, prov := newTestAgent(nil, "")
	prov.judgeResponse = "```json\n" + goodJudgeJSON + "\n```"

	j, err := a.Judge(context.Background(), "q", "a", "r")
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if j.Score != 80 || j.Reasoning != "close match" {
		t.Errorf("Unexpected judgement: %+v", j)
	}
}

func TestJudge_FallbackOnUnparseable(t *testing.T) {
	a, prov := newTestAgent(nil, "")
	prov.judgeResponse = "I would rate this response quite highly."

	j, err := a.Judge(context.Background(), "q", "a", "r")
	if err != nil {
		t.Fatalf("Judge must not fail on unparseable output: %v", err)
	}
	if j.Score != 50 {
		t.Errorf("Expected fallback score 50, got %d", j.Score)
	}
	want := Breakdown{RelevancyPoints: 20, AccuracyPoints: 20, CompletenessPoints: 10}
	if j.Breakdown != want {
		t.Errorf("Expected fallback breakdown %+v, got %+v", want, j.Breakdown)
	}
	if j.Reasoning != "Unable to parse judge response" {
		t.Errorf("Unexpected fallback reasoning: %q", j.Reasoning)
	}
}
