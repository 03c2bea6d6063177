// Package vision implements the CAPTCHA subsystem's vision backend
// (spec.md §4.6): a single "analyze(image, prompt) -> text" dependency,
// backed by Anthropic's messages API.
//
// Grounded on the teacher's llm.Client (llm/openai.go): a lightweight
// net/http-direct client (no SDK), the same request/marshal/do/classify-error
// shape, generalized from "chat completion over text" to "a vision message
// with an inline base64 image plus a text prompt."
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/ccbrowser/ccerrors"
)

// Client is a minimal Anthropic-compatible vision client.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// Config configures a Client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New creates a vision Client. Pass nil httpClient to use a new zero-value
// http.Client.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string    `json:"role"`
	Content []content `json:"content"`
}

type content struct {
	Type   string      `json:"type"`
	Text   string      `json:"text,omitempty"`
	Source *imgSource  `json:"source,omitempty"`
}

type imgSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Configured reports whether c has an API key, so best-effort callers (the
// CAPTCHA subsystem's Tier 2 probe) can skip the round-trip entirely
// instead of treating "not configured" as a request failure.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Analyze sends a PNG screenshot plus a structured prompt and returns the
// model's raw text response. Callers that need structured JSON (the common
// case in captcha/) are responsible for stripping markdown fences and
// unmarshaling — Analyze itself makes no assumption about response shape.
func (c *Client) Analyze(ctx context.Context, png []byte, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ccerrors.New(ccerrors.CodeVisionBackendError, "no vision API key configured", nil)
	}

	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []message{
			{
				Role: "user",
				Content: []content{
					{
						Type: "image",
						Source: &imgSource{
							Type:      "base64",
							MediaType: "image/png",
							Data:      base64.StdEncoding.EncodeToString(png),
						},
					},
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal vision request: %w", err)
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", ccerrors.New(ccerrors.CodeVisionBackendError, "vision request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ccerrors.New(ccerrors.CodeVisionBackendError, "failed to read vision response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyError(resp.StatusCode, respBody)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", ccerrors.New(ccerrors.CodeVisionBackendError, "failed to parse vision response", err)
	}
	if len(parsed.Content) == 0 {
		return "", ccerrors.New(ccerrors.CodeVisionBackendError, "vision backend returned no content", nil)
	}
	return parsed.Content[0].Text, nil
}

// StripJSONFence removes a leading/trailing ```json ... ``` or ``` ... ```
// fence, mirroring the teacher's buildSystemPrompt convention of asking for
// bare JSON while still tolerating a model that wraps it anyway.
func StripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func classifyError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	msg := "vision backend error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}
	return ccerrors.New(ccerrors.CodeVisionBackendError, fmt.Sprintf("status %d: %s", statusCode, msg), nil)
}
