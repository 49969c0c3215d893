package rephrase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNoopRephraser(t *testing.T) {
	rp := New(Config{Model: "test-noop"})

	out, err := rp.Rephrase(context.Background(), "Hello world")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hello world" {
		t.Fatalf("noop must echo input, got %q", out)
	}
	if rp.Model() != "test-noop" {
		t.Fatalf("expected model test-noop, got %q", rp.Model())
	}
}

func TestOpenAIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.Error(w, "not found", 404)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("expected system+user messages, got %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "under 100 words") {
			t.Errorf("system prompt not carried: %q", req.Messages[0].Content)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model": req.Model,
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Greetings, world"}},
			},
		})
	}))
	defer srv.Close()

	rp := New(Config{Endpoint: srv.URL, APIKey: "sk-test", Model: "test-model"})

	out, err := rp.Rephrase(context.Background(), "Hello world")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Greetings, world" {
		t.Fatalf("expected rewritten text, got %q", out)
	}
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}},
		{"empty content", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"content": "   "}},
				},
			})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			rp := New(Config{Endpoint: srv.URL, Model: "m"})
			if _, err := rp.Rephrase(context.Background(), "x"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
