package serper

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

func TestShopping_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shopping", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "linen shirt", body.Q)
		assert.Equal(t, 20, body.Num)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"shopping":[
			{"title":"Linen Shirt","source":"Uniqlo","price":"$29.90","extractedPrice":29.90,"link":"https://uniqlo.com/p/1"},
			{"title":"Relaxed Shirt","source":"Zara","price":39.95,"link":"https://zara.com/p/2"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURLs(srv.URL))
	items, err := client.Shopping(context.Background(), "linen shirt", 20)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Uniqlo", items[0].Source)
	assert.InDelta(t, 29.90, items[0].ExtractedPrice, 0.001)
	// Numeric price decodes through FlexString.
	assert.Equal(t, "39.95", string(items[1].Price))
}

func TestShopping_FallbackKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"title":"Shirt","source":"Gap"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURLs(srv.URL))
	items, err := client.Shopping(context.Background(), "shirt", 10)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Gap", items[0].Source)
}

func TestShopping_EndpointFailover(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"shopping":[{"title":"Shirt","source":"ASOS"}]}`))
	}))
	defer good.Close()

	client := NewClient("test-key", WithBaseURLs(bad.URL, good.URL))
	items, err := client.Shopping(context.Background(), "shirt", 10)

	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[{"title":"Oxford Shirt | Uniqlo","link":"https://uniqlo.com/p/9","snippet":"Classic oxford."}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURLs(srv.URL))
	results, err := client.Search(context.Background(), "oxford shirt uniqlo", 3)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://uniqlo.com/p/9", results[0].Link)
}

func TestSearch_AllEndpointsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURLs(srv.URL, srv.URL))
	results, err := client.Search(context.Background(), "shirt", 3)

	assert.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "403")
}

func TestShopping_RetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"shopping":[{"title":"Shirt","source":"Zara"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key",
		WithBaseURLs(srv.URL),
		WithRetryPolicy(resilience.Policy{Attempts: 2, BaseDelay: time.Millisecond}),
	)
	items, err := client.Shopping(context.Background(), "shirt", 10)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestShopping_PermanentStatusNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("bad-key",
		WithBaseURLs(srv.URL),
		WithRetryPolicy(resilience.Policy{Attempts: 3, BaseDelay: time.Millisecond}),
	)
	_, err := client.Shopping(context.Background(), "shirt", 10)

	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestShopping_EmptyIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURLs(srv.URL))
	items, err := client.Shopping(context.Background(), "obscure item", 10)

	require.NoError(t, err)
	assert.Empty(t, items)
}
