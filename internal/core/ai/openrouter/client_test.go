package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menu-lens/internal/core/ai/provider"
)

func TestGenerateSendsImageAndKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "vision-model" || len(req.Messages) != 1 {
			t.Errorf("unexpected request %+v", req)
		}
		parts := req.Messages[0].Content
		if len(parts) != 2 || parts[1].ImageURL == nil || !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,") {
			t.Errorf("image part missing: %+v", parts)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("json mode not requested")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","model":"vision-model","choices":[{"message":{"content":"{\"categories\":[]}"}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	c := NewClient(provider.Config{APIKey: "cfg-key", Model: "vision-model", BaseURL: srv.URL, MaxTokens: 100})
	resp, err := c.Generate(context.Background(), &provider.Request{
		Prompt:    "describe",
		ImageData: "AAAA",
		APIKey:    "user-key",
		JSONMode:  true,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != `{"categories":[]}` || resp.Usage.TotalTokens != 42 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`, provider.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","code":429}}`, provider.ErrQuotaExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(provider.Config{APIKey: "k", Model: "m", BaseURL: srv.URL})
			_, err := c.Generate(context.Background(), &provider.Request{Prompt: "p"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	c := NewClient(provider.Config{Model: "m", BaseURL: "http://127.0.0.1:1"})
	_, err := c.Generate(context.Background(), &provider.Request{Prompt: "p"})
	if !errors.Is(err, provider.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestSanitizeResponse(t *testing.T) {
	if got := sanitizeResponse([]byte(`{"x":"data:image/png;base64,AAAA"}`)); got != "[IMAGE_DATA_REMOVED]" {
		t.Errorf("image data leaked: %q", got)
	}
	if got := sanitizeResponse([]byte(`{"error":{"message":"bad key"}}`)); got != "bad key" {
		t.Errorf("message not extracted: %q", got)
	}
	if got := sanitizeResponse([]byte(strings.Repeat("a", 600))); len(got) != 515 {
		t.Errorf("long body not truncated: %d", len(got))
	}
}
