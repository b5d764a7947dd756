package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{
		Endpoint:            srv.URL + "/",
		Key:                 "secret",
		ChatDeployment:      "chat",
		EmbeddingDeployment: "emb",
		RequestsPerSecond:   1000,
		Counter:             EstimatingCounter(),
	}, nil)
	c.SetBackoff(3, 0, 0)
	return c
}

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestChatRequestShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/deployments/chat/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api-version"); got != DefaultAPIVersion {
			t.Errorf("api-version = %q", got)
		}
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("api-key header = %q", r.Header.Get("api-key"))
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.MaxTokens != 10 || req.N != 1 {
			t.Errorf("request = %+v", req)
		}
		chatReply(w, "hello")
	})

	got, err := c.Chat(context.Background(), "hi", 0.5, 10)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Chat() = %q", got)
	}
}

func TestRetryOnThrottleAndServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			http.Error(w, `{"error":{"code":"500","message":"boom"}}`, http.StatusInternalServerError)
		default:
			chatReply(w, "ok")
		}
	})

	got, err := c.Chat(context.Background(), "hi", 0, 10)
	if err != nil || got != "ok" {
		t.Fatalf("Chat() = %q, %v", got, err)
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"bad","message":"content filtered"}}`))
	})

	_, err := c.Chat(context.Background(), "hi", 0, 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "content filtered" {
		t.Fatalf("Chat() error = %v, want APIError 400", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}

func TestRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Chat(context.Background(), "hi", 0, 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("Chat() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
}

func TestEmbedTruncatesInput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/deployments/emb/embeddings") {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) != 1 || len([]rune(req.Input[0])) != MaxEmbeddingInput {
			t.Errorf("input length = %d", len([]rune(req.Input[0])))
		}
		w.Write([]byte(`{"data":[{"embedding":[0.5,-1]}]}`))
	})

	got, err := c.Embed(context.Background(), strings.Repeat("é", MaxEmbeddingInput+50))
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got) != 2 || got[0] != 0.5 || got[1] != -1 {
		t.Errorf("Embed() = %v", got)
	}
}

func TestNavigate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		prompt := req.Messages[0].Content
		if !strings.Contains(prompt, "The url of the website is https://clo3d.com/en/.") ||
			!strings.Contains(prompt, "###HTML Code###: <main>x</main>") {
			t.Errorf("prompt = %q", prompt)
		}
		if req.Temperature != 0 {
			t.Errorf("temperature = %v", req.Temperature)
		}
		chatReply(w, "<p>1. Click [Start Free Trial](https://clo3d.com/trial) and [https://x.com](https://x.com)</p>")
	})

	got, err := c.Navigate(context.Background(), "<main>x</main>", "https://clo3d.com/en/")
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	want := "1. Click Start Free Trial[https://clo3d.com/trial] and [https://x.com]"
	if got != want {
		t.Errorf("Navigate() = %q, want %q", got, want)
	}
}

func TestPromptTooLong(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		chatReply(w, "never")
	})
	c.budget = 10

	_, err := c.Navigate(context.Background(), strings.Repeat("abcd", 10), "https://clo3d.com/")
	if !errors.Is(err, ErrPromptTooLong) {
		t.Errorf("Navigate() error = %v, want ErrPromptTooLong", err)
	}
	_, err = c.Title(context.Background(), strings.Repeat("abcd", 10))
	if !errors.Is(err, ErrPromptTooLong) {
		t.Errorf("Title() error = %v, want ErrPromptTooLong", err)
	}
	if calls.Load() != 0 {
		t.Error("oversized prompt reached the server")
	}
}

func TestTitle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(w, `**Title: "Pricing Plans & Options"**`)
	})

	got, err := c.Title(context.Background(), "guide")
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if got != "Pricing Plans & Options" {
		t.Errorf("Title() = %q", got)
	}
}

func TestContextCancelStopsRetry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.SetBackoff(6, time.Hour, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Chat(ctx, "hi", 0, 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Chat() error = %v, want deadline exceeded", err)
	}
}

func TestFormatLinks(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"See [Plans](https://clo3d.com/plans).", "See Plans[https://clo3d.com/plans]."},
		{"[https://clo3d.com](https://clo3d.com)", "[https://clo3d.com]"},
		{"no links", "no links"},
	}
	for _, tt := range tests {
		if got := FormatLinks(tt.in); got != tt.want {
			t.Errorf("FormatLinks(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	if got := CleanTitle(`# "Company"`); got != "Company" {
		t.Errorf("CleanTitle() = %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{"의류", 2},
	}
	counter := EstimatingCounter()
	for _, tt := range tests {
		if got := counter.Count(tt.in); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if counter.Exact() {
		t.Error("EstimatingCounter reports exact")
	}
}
