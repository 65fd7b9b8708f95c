package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylecart/shop-cli/internal/resilience"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)

		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-key", body.APIKey)
		assert.Equal(t, "wool coat", body.Query)
		assert.Equal(t, "basic", body.SearchDepth)
		assert.Equal(t, 10, body.MaxResults)
		assert.True(t, body.IncludeImages)
		assert.False(t, body.IncludeAnswer)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"title":"Wool Coat - COS","url":"https://cos.com/p/3","content":"A tailored wool coat."}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	results, err := client.Search(context.Background(), "wool coat", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://cos.com/p/3", results[0].URL)
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	results, err := client.Search(context.Background(), "coat", 10)

	assert.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "401")
}

func TestSearch_RetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"title":"Coat","url":"https://cos.com/p/3"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRetryPolicy(resilience.Policy{Attempts: 2, BaseDelay: time.Millisecond}),
	)
	results, err := client.Search(context.Background(), "coat", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestSearch_EmptyIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	results, err := client.Search(context.Background(), "nothing", 10)

	require.NoError(t, err)
	assert.Empty(t, results)
}
