package embedding

import (
	"context"
	"testing"
)

type stubEmbedder struct {
	vectors [][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return s.vectors, nil
}

func TestEmbedOne(t *testing.T) {
	e := &stubEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	vec, err := EmbedOne(context.Background(), e, "some text")
	if err != nil {
		t.Fatalf("EmbedOne failed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.1 {
		t.Errorf("Expected vector [0.1 0.2], got %v", vec)
	}
}

func TestEmbedOne_NoVector(t *testing.T) {
	e := &stubEmbedder{}
	_, err := EmbedOne(context.Background(), e, "some text")
	if err == nil {
		t.Fatal("Expected error when the embedder returns no vector, got nil")
	}
}
