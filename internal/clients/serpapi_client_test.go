package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSerpAPISearchImages(t *testing.T) {
	var gotQuery, gotEngine, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotEngine = r.URL.Query().Get("tbm")
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"images_results":[
			{"title":"Volcano diagram","original":"https://img.test/1.png"},
			{"title":"No original"},
			{"title":"Second","original":"https://img.test/2.png"},
			{"title":"Third","original":"https://img.test/3.png"}
		]}`))
	}))
	defer srv.Close()

	client := NewSerpAPIClient(srv.URL, "key", time.Second, zap.NewNop())
	results, err := client.SearchImages(context.Background(), "5 Science volcano diagram", 2)
	require.NoError(t, err)

	assert.Equal(t, "5 Science volcano diagram", gotQuery)
	assert.Equal(t, "isch", gotEngine)
	assert.Equal(t, "key", gotKey)
	require.Len(t, results, 2)
	assert.Equal(t, "Volcano diagram", results[0].Title)
	assert.Equal(t, "https://img.test/2.png", results[1].Original)
}

func TestSerpAPINoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Google hasn't returned any results for this query."}`))
	}))
	defer srv.Close()

	results, err := NewSerpAPIClient(srv.URL, "key", time.Second, nil).SearchImages(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSerpAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid API key."}`))
	}))
	defer srv.Close()

	_, err := NewSerpAPIClient(srv.URL, "bad", time.Second, nil).SearchImages(context.Background(), "q", 0)
	require.Error(t, err)

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ErrorTypeStatus, providerErr.Type)
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
	assert.Contains(t, err.Error(), "Invalid API key.")
}

func TestSerpAPIInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewSerpAPIClient(srv.URL, "key", time.Second, nil).SearchImages(context.Background(), "q", 0)
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ErrorTypeDecode, providerErr.Type)
}

func TestSerpAPITransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewSerpAPIClient(url, "key", time.Second, nil).SearchImages(context.Background(), "q", 0)
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
}

func TestSerpAPIMissingKey(t *testing.T) {
	_, err := NewSerpAPIClient("http://unused.test", "", time.Second, nil).SearchImages(context.Background(), "q", 0)
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ErrorTypeNotConfigured, providerErr.Type)
}
