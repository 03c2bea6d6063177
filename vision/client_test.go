package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Analyze_ReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key header, got %q", r.Header.Get("x-api-key"))
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("unexpected request shape: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": `{"cells":[1,4]}`}},
		})
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", Model: "claude-3-5-sonnet-latest", BaseURL: srv.URL}, srv.Client())
	text, err := c.Analyze(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "which cells?")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if text != `{"cells":[1,4]}` {
		t.Errorf("got %q", text)
	}
}

func TestClient_Analyze_NoAPIKey(t *testing.T) {
	c := New(Config{}, nil)
	if _, err := c.Analyze(context.Background(), nil, "x"); err == nil {
		t.Fatal("expected error when no API key is configured")
	}
}

func TestStripJSONFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripJSONFence(in); got != want {
			t.Errorf("StripJSONFence(%q) = %q, want %q", in, got, want)
		}
	}
}
