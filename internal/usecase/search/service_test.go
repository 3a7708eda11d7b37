package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/domain"
)

// --- Mocks ---

type mockIndex struct {
	hits     []domain.Hit
	err      error
	lastTopK int
}

func (m *mockIndex) Search(_ []float32, topK int) ([]domain.Hit, error) {
	m.lastTopK = topK
	return m.hits, m.err
}

func (m *mockIndex) Len() int { return len(m.hits) }

type mockCatalog struct {
	items []domain.CatalogItem
	err   error
}

func (m *mockCatalog) Get(slot int) (domain.CatalogItem, error) {
	if m.err != nil {
		return domain.CatalogItem{}, m.err
	}
	if slot < 0 || slot >= len(m.items) {
		return domain.CatalogItem{}, domain.ErrSlotOutOfRange
	}
	return m.items[slot], nil
}

func (m *mockCatalog) Len() int { return len(m.items) }

type mockTextEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockTextEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockImageEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockImageEmbedder) EmbedImage(_ context.Context, _ []byte) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockSummarizer struct {
	text       string
	err        error
	lastPrompt string
	called     bool
}

func (m *mockSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	m.called = true
	m.lastPrompt = prompt
	return m.text, m.err
}

func testCatalog() *mockCatalog {
	return &mockCatalog{items: []domain.CatalogItem{
		{ImagePath: "a.jpg", DisplayName: "Red Shirt", Category: "Apparel"},
		{ImagePath: "b.jpg", DisplayName: "Blue Jeans", Category: "Apparel"},
		{ImagePath: "c.jpg", DisplayName: "Hat", Category: "Accessories"},
	}}
}

// --- Tests ---

func TestSearchText_JoinsInHitOrder(t *testing.T) {
	idx := &mockIndex{hits: []domain.Hit{{Slot: 2, Score: 0.9}, {Slot: 0, Score: 0.5}}}
	embed := &mockTextEmbedder{vec: []float32{1, 0}}
	summ := &mockSummarizer{text: "wear the hat"}
	svc := New(idx, testCatalog(), embed, nil, summ, 50, zap.NewNop())

	resp, err := svc.SearchText(context.Background(), "summer hat", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Query != "summer hat" {
		t.Errorf("expected query echoed, got %q", resp.Query)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Item.DisplayName != "Hat" || resp.Results[1].Item.DisplayName != "Red Shirt" {
		t.Errorf("join order broken: %+v", resp.Results)
	}
	if resp.Results[0].Slot != 2 || resp.Results[0].Score != 0.9 {
		t.Errorf("hit fields not preserved: %+v", resp.Results[0])
	}
	if resp.RAGText != "wear the hat" {
		t.Errorf("expected summarizer text, got %q", resp.RAGText)
	}
	if !embed.called {
		t.Error("expected text embedder to be called")
	}
}

func TestSearchText_DegradedReturnsIndexNotLoaded(t *testing.T) {
	svc := New(nil, nil, &mockTextEmbedder{}, nil, nil, 50, zap.NewNop())

	_, err := svc.SearchText(context.Background(), "anything", 5)
	if !errors.Is(err, domain.ErrIndexNotLoaded) {
		t.Fatalf("expected ErrIndexNotLoaded, got %v", err)
	}
}

func TestSearchText_RejectsNonPositiveTopK(t *testing.T) {
	idx := &mockIndex{hits: []domain.Hit{{Slot: 0, Score: 1}}}
	svc := New(idx, testCatalog(), &mockTextEmbedder{vec: []float32{1}}, nil, nil, 50, zap.NewNop())

	_, err := svc.SearchText(context.Background(), "q", 0)
	if !errors.Is(err, domain.ErrInvalidTopK) {
		t.Fatalf("expected ErrInvalidTopK, got %v", err)
	}
}

func TestSearchText_ClampsTopKToMax(t *testing.T) {
	idx := &mockIndex{hits: []domain.Hit{{Slot: 0, Score: 1}}}
	svc := New(idx, testCatalog(), &mockTextEmbedder{vec: []float32{1}}, nil, nil, 10, zap.NewNop())

	if _, err := svc.SearchText(context.Background(), "q", 9999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.lastTopK != 10 {
		t.Errorf("expected topK clamped to 10, got %d", idx.lastTopK)
	}
}

func TestSearchText_EmbedderErrorPropagates(t *testing.T) {
	idx := &mockIndex{}
	embed := &mockTextEmbedder{err: errors.New("provider down")}
	svc := New(idx, testCatalog(), embed, nil, nil, 50, zap.NewNop())

	if _, err := svc.SearchText(context.Background(), "q", 5); err == nil {
		t.Fatal("expected embedder error to propagate")
	}
}

func TestSearchText_SummarizerFailureKeepsResults(t *testing.T) {
	idx := &mockIndex{hits: []domain.Hit{{Slot: 1, Score: 0.8}}}
	summ := &mockSummarizer{err: errors.New("llm down")}
	svc := New(idx, testCatalog(), &mockTextEmbedder{vec: []float32{1}}, nil, summ, 50, zap.NewNop())

	resp, err := svc.SearchText(context.Background(), "jeans", 5)
	if err != nil {
		t.Fatalf("generation failure must not fail the search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected results despite summarizer failure, got %d", len(resp.Results))
	}
	if resp.RAGText != "" {
		t.Errorf("expected empty recommendation on failure, got %q", resp.RAGText)
	}
}

func TestSearchText_NilSummarizerSkipsGeneration(t *testing.T) {
	idx := &mockIndex{hits: []domain.Hit{{Slot: 0, Score: 1}}}
	svc := New(idx, testCatalog(), &mockTextEmbedder{vec: []float32{1}}, nil, nil, 50, zap.NewNop())

	resp, err := svc.SearchText(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RAGText != "" {
		t.Errorf("expected no recommendation without a summarizer, got %q", resp.RAGText)
	}
}

func TestSearchText_JoinFailureIsServerFault(t *testing.T) {
	idx := &mockIndex{hits: []domain.Hit{{Slot: 99, Score: 0.7}}}
	svc := New(idx, testCatalog(), &mockTextEmbedder{vec: []float32{1}}, nil, nil, 50, zap.NewNop())

	if _, err := svc.SearchText(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error when a hit slot has no metadata")
	}
}

func TestSearchImage_UsesPlaceholderQuery(t *testing.T) {
	idx := &mockIndex{hits: []domain.Hit{{Slot: 0, Score: 0.6}}}
	image := &mockImageEmbedder{vec: []float32{1}}
	summ := &mockSummarizer{text: "nice"}
	svc := New(idx, testCatalog(), &mockTextEmbedder{}, image, summ, 50, zap.NewNop())

	resp, err := svc.SearchImage(context.Background(), []byte("img"), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Query != ImageQueryPlaceholder {
		t.Errorf("expected placeholder query, got %q", resp.Query)
	}
	if !image.called {
		t.Error("expected image embedder to be called")
	}
	if summ.lastPrompt == "" {
		t.Fatal("expected summarizer prompt to be built")
	}
}

func TestSearchImage_Degraded(t *testing.T) {
	svc := New(nil, nil, nil, &mockImageEmbedder{}, nil, 50, zap.NewNop())

	_, err := svc.SearchImage(context.Background(), []byte("img"), 5)
	if !errors.Is(err, domain.ErrIndexNotLoaded) {
		t.Fatalf("expected ErrIndexNotLoaded, got %v", err)
	}
}

func TestItem(t *testing.T) {
	idx := &mockIndex{hits: []domain.Hit{{Slot: 0}}}
	svc := New(idx, testCatalog(), nil, nil, nil, 50, zap.NewNop())

	item, err := svc.Item(1)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.DisplayName != "Blue Jeans" {
		t.Errorf("unexpected item: %+v", item)
	}

	if _, err := svc.Item(99); !errors.Is(err, domain.ErrSlotOutOfRange) {
		t.Errorf("expected ErrSlotOutOfRange, got %v", err)
	}
}

func TestItem_Degraded(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil, 50, zap.NewNop())

	if _, err := svc.Item(0); !errors.Is(err, domain.ErrIndexNotLoaded) {
		t.Fatalf("expected ErrIndexNotLoaded, got %v", err)
	}
}
