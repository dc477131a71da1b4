package aitext

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSendsConfigAndReadsFirstCandidate(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"hero\":{}}"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGenerativeClient(Config{APIKey: "k", BaseURL: srv.URL}, srv.Client())
	text, err := c.Generate(context.Background(), "hello", GenerationConfig{
		Model: "test-model", Temperature: 0.7, MaxTokens: 512, TopK: 40, TopP: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"hero":{}}`, text)
	assert.Equal(t, "hello", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 40, got.GenerationConfig.TopK)
	assert.Equal(t, 512, got.GenerationConfig.MaxOutputTokens)
}

func TestGenerateSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewGenerativeClient(Config{APIKey: "k", BaseURL: srv.URL}, srv.Client())
	_, err := c.Generate(context.Background(), "hello", GenerationConfig{Model: "m"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
}

func TestGenerateRejectsEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewGenerativeClient(Config{APIKey: "k", BaseURL: srv.URL}, srv.Client())
	_, err := c.Generate(context.Background(), "hello", GenerationConfig{Model: "m"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
