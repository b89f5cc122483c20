package openaiapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/bandit-cli/internal/ports"
)

func TestLookupSendsChatRequest(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  look closer at file types  "}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "gpt-4o-mini", "sk-test")
	hint, err := client.Lookup(context.Background(), ports.HintRequest{Level: 5, RecentCommands: []string{"ls", "file *"}})
	require.NoError(t, err)

	assert.Equal(t, "look closer at file types", hint)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Contains(t, captured.Messages[1].Content, "level 5")
	assert.Contains(t, captured.Messages[1].Content, "file *")
}

func TestLookupCommandExplanationPrompt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[1].Content, "\"grep\"")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "grep searches text"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "gpt-4o-mini", "")
	explanation, err := client.Lookup(context.Background(), ports.HintRequest{Command: "grep"})
	require.NoError(t, err)
	assert.Equal(t, "grep searches text", explanation)
}

func TestLookupSurfacesHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "gpt-4o-mini", "")
	_, err := client.Lookup(context.Background(), ports.HintRequest{Level: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestLookupEmptyChoicesIsAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "gpt-4o-mini", "")
	_, err := client.Lookup(context.Background(), ports.HintRequest{Level: 1})
	require.Error(t, err)
}
