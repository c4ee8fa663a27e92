package infer_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onikuma-games/prowler/internal/infer"
)

func TestChatProviderInfer(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"model": "llama3",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "the hunt continues"}},
			},
		})
	}))
	defer srv.Close()

	p := infer.NewChatProvider(infer.Config{
		Endpoint: srv.URL,
		APIKey:   "sk-test",
		Model:    "llama3",
		Timeout:  5 * time.Second,
	})
	require.True(t, p.Available())

	res, err := p.Infer(context.Background(), infer.PurposeDecide, &infer.Prompt{
		System: "You decide.",
		User:   "context snapshot",
	})
	require.NoError(t, err)
	assert.Equal(t, "the hunt continues", res.Text)
	assert.Equal(t, "llama3", res.Model)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "llama3", gotBody["model"])
	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestChatProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := infer.NewChatProvider(infer.Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	_, err := p.Infer(context.Background(), infer.PurposeTaunt, &infer.Prompt{User: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestChatProviderEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p := infer.NewChatProvider(infer.Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	_, err := p.Infer(context.Background(), infer.PurposeDecide, &infer.Prompt{User: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatProviderHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := infer.NewChatProvider(infer.Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Infer(ctx, infer.PurposeDecide, &infer.Prompt{User: "u"})
	assert.Error(t, err)
}
