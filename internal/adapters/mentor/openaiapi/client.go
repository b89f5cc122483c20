// Package openaiapi talks to an OpenAI-compatible chat endpoint to produce
// spoiler-free hints and command explanations. Only the cacheable
// request/response pair lives here; conversational framing is out of scope.
package openaiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bnema/bandit-cli/internal/ports"
)

const systemPrompt = "You are a mentor for a shell wargame. Give hints and " +
	"explain concepts without revealing passwords or exact solutions."

type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

var _ ports.HintProducer = (*Client)(nil)

func NewClient(httpClient *http.Client, baseURL, model, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Lookup(ctx context.Context, req ports.HintRequest) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		MaxTokens:   500,
		Temperature: 0.7,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: renderPrompt(req)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode hint request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build hint request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("hint request: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read hint response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hint endpoint returned %d: %s", response.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode hint response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("hint endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("hint endpoint returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func renderPrompt(req ports.HintRequest) string {
	var b strings.Builder
	switch {
	case req.Command != "":
		fmt.Fprintf(&b, "Explain what the %q command does in general terms.", req.Command)
	default:
		fmt.Fprintf(&b, "Give a hint for level %d without revealing the solution.", req.Level)
	}
	if len(req.RecentCommands) > 0 {
		tail := req.RecentCommands
		if len(tail) > 5 {
			tail = tail[len(tail)-5:]
		}
		fmt.Fprintf(&b, " Recent commands: %s.", strings.Join(tail, ", "))
	}
	return b.String()
}
