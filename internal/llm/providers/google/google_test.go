package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/SeriesMoodRecap/internal/llm"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := llm.GetProvider(Name, map[string]string{
		"api_key":  "gem-key",
		"base_url": srv.URL + "/v1beta/",
	})
	require.NoError(t, err)
	return p.(*Provider)
}

func TestCompleteTextSendsSingleTurn(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "gem-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))

		contents := body["contents"].([]interface{})
		require.Len(t, contents, 1)
		turn := contents[0].(map[string]interface{})
		assert.Equal(t, "user", turn["role"])
		parts := turn["parts"].([]interface{})
		require.Len(t, parts, 1)
		assert.Equal(t, "hello", parts[0].(map[string]interface{})["text"])

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"first"},{"text":"second"}]},"finishReason":"STOP"}],
			"usageMetadata":{"totalTokenCount":42}}`))
	})

	resp, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, 42, resp.TokensUsed)
	assert.Equal(t, "gemini-2.0-flash", resp.ModelName)
}

func TestCompleteTextNoContentShapes(t *testing.T) {
	bodies := map[string]string{
		"empty candidates": `{"candidates":[]}`,
		"missing content":  `{"candidates":[{"finishReason":"SAFETY"}]}`,
		"missing parts":    `{"candidates":[{"content":{}}]}`,
		"empty text":       `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
		"no candidates":    `{}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
			assert.True(t, errors.Is(err, llm.ErrNoContent), "got %v", err)
		})
	}
}

func TestCompleteTextStatusErrorCarriesMessage(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`))
	})

	_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, llm.ErrNoContent))
	assert.Equal(t, "google gemini API error (400): API key not valid. Please pass a valid API key.", err.Error())
}

func TestCompleteTextStatusErrorWithoutBody(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Service Unavailable")
}

func TestCompleteTextNetworkErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p, err := llm.GetProvider(Name, map[string]string{"api_key": "very-secret", "base_url": base})
	require.NoError(t, err)

	_, err = p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "very-secret")
}

func TestInitializeAcceptsMissingKey(t *testing.T) {
	p, err := llm.GetProvider(Name, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "google gemini", p.GetName())
	assert.Contains(t, llm.ListProviders(), Name)

	_, err = llm.GetProvider("nope", nil)
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
}
