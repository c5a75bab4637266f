package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
)

func TestModelConfigNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	cfg := ModelConfig{Config: Config{BaseURL: "http://localhost", APIKey: " "}, Model: "m"}
	if _, err := cfg.New(context.Background()); err == nil {
		t.Fatal("New() with blank key should fail")
	}
}

func TestModelConfigGeneratesAgainstBaseURL(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.Header.Get("X-Title")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"pong"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	t.Cleanup(server.Close)

	cfg := ModelConfig{
		Config: Config{
			BaseURL:  server.URL + "/api/v1/",
			APIKey:   "secret",
			Timeout:  5 * time.Second,
			SiteName: "Chative",
		},
		Model:       "m",
		MaxTokens:   16,
		Temperature: 0.2,
	}
	m, err := cfg.New(context.Background())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("ping")})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if msg.Content != "pong" {
		t.Fatalf("Content = %q", msg.Content)
	}
	if gotPath != "/api/v1/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotTitle != "Chative" {
		t.Fatalf("X-Title = %q", gotTitle)
	}
}
