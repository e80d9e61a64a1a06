package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerateCaption(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  A labelled cross-section of a volcano. "}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), GeminiOptions{APIKey: "key", Model: "gemini-test", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	caption, err := client.GenerateCaption(context.Background(), "Describe a volcano diagram")
	require.NoError(t, err)
	assert.Equal(t, "A labelled cross-section of a volcano.", caption)
	assert.True(t, strings.HasSuffix(gotPath, "gemini-test:generateContent"), gotPath)
}

func TestGeminiUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), GeminiOptions{APIKey: "key", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.GenerateCaption(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiOptions{}, nil)
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ErrorTypeNotConfigured, providerErr.Type)
}
