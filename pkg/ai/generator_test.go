package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAICompatGeneratorSendsOptions(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Errorf("unexpected auth header: %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  hello there  "}}]}`)
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL+"/v1/", "key-1", "llama")
	text, err := g.GenerateText(context.Background(), Request{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Options:  Options{Temperature: 0.1, TopP: 0.9, MaxTokens: 1024, JSON: true},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "  hello there  " {
		t.Fatalf("expected raw text, got %q", text)
	}
	if got["model"] != "llama" || got["max_tokens"].(float64) != 1024 || got["top_p"].(float64) != 0.9 {
		t.Fatalf("unexpected request body: %v", got)
	}
	format, _ := got["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json response format, got %v", got["response_format"])
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["role"] != "system" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
}

func TestOpenAICompatGeneratorSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limit reached","type":"tokens"}}`)
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL, "", "llama")
	_, err := g.GenerateText(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil || !strings.Contains(err.Error(), "rate limit reached") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestOpenAICompatGeneratorRejectsEmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`)
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL, "", "llama")
	if _, err := g.GenerateText(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err == nil {
		t.Fatalf("expected empty answer to fail")
	}
}

func TestOllamaGeneratorJSONFormat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"{\"quiz\":[]}"}}`)
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "llama3")
	text, err := g.GenerateText(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "make a quiz"}},
		Options:  Options{Temperature: 0.3, MaxTokens: 4096, JSON: true},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"quiz":[]}` {
		t.Fatalf("unexpected text: %q", text)
	}
	if got.Format != "json" || got.Stream || got.Options.NumPredict != 4096 {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestClaudeGeneratorReadsTextBlocks(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"grounded answer"}],
			"stop_reason":"end_turn","stop_sequence":null,
			"usage":{"input_tokens":3,"output_tokens":2}}`)
	}))
	defer srv.Close()

	g, err := NewClaudeGenerator("key", "claude-test", srv.URL)
	if err != nil {
		t.Fatalf("new claude generator: %v", err)
	}
	text, err := g.GenerateText(context.Background(), Request{
		System:   "system rules",
		Messages: []Message{{Role: RoleUser, Content: "question"}},
		Options:  Options{Temperature: 0.1, MaxTokens: 256},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "grounded answer" {
		t.Fatalf("unexpected text: %q", text)
	}
	if got["max_tokens"].(float64) != 256 {
		t.Fatalf("unexpected max_tokens: %v", got["max_tokens"])
	}
}

func TestNewTextGeneratorSelection(t *testing.T) {
	ctx := context.Background()
	if _, err := NewTextGenerator(ctx, ProviderConfig{}); err == nil {
		t.Fatalf("expected groq without api key to fail")
	}
	g, err := NewTextGenerator(ctx, ProviderConfig{APIKey: "gsk"})
	if err != nil {
		t.Fatalf("default provider: %v", err)
	}
	compat, ok := g.(*OpenAICompatGenerator)
	if !ok || compat.model != DefaultGroqModel || compat.baseURL != DefaultGroqBaseURL {
		t.Fatalf("expected groq defaults, got %+v", g)
	}
	if _, err := NewTextGenerator(ctx, ProviderConfig{Provider: "ollama", Model: "llama3"}); err != nil {
		t.Fatalf("ollama provider: %v", err)
	}
	if _, err := NewTextGenerator(ctx, ProviderConfig{Provider: "gemini"}); err == nil {
		t.Fatalf("expected gemini without api key to fail")
	}
	if _, err := NewTextGenerator(ctx, ProviderConfig{Provider: "claude"}); err == nil {
		t.Fatalf("expected claude without api key to fail")
	}
	if _, err := NewTextGenerator(ctx, ProviderConfig{Provider: "mystery"}); err == nil {
		t.Fatalf("expected unknown provider to fail")
	}
}
