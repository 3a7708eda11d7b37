package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/domain"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		})
	}))
}

func TestSummarizer_TrimsOutput(t *testing.T) {
	server := chatServer(t, "  Try the red shirt with jeans.\n")
	defer server.Close()

	s := NewSummarizer(&SummarizerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	text, err := s.Summarize(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if text != "Try the red shirt with jeans." {
		t.Errorf("expected trimmed text, got %q", text)
	}
}

func TestSummarizer_ErrorWrapsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewSummarizer(&SummarizerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	_, err := s.Summarize(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestSummarizer_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "chat.completion", "choices": []any{}})
	}))
	defer server.Close()

	s := NewSummarizer(&SummarizerConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	_, err := s.Summarize(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}
