package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylecart/shop-cli/internal/rank"
	"github.com/stylecart/shop-cli/internal/retailer"
	"github.com/stylecart/shop-cli/internal/search"
	"github.com/stylecart/shop-cli/pkg/serper"
)

type stubShopping struct{}

func (stubShopping) Shopping(context.Context, string, int) ([]serper.ShoppingItem, error) {
	return []serper.ShoppingItem{
		{
			Title:          "Denim Jacket",
			Source:         "Zara",
			ExtractedPrice: 49.90,
			Delivery:       "2 days",
			Link:           "https://zara.com/p/1",
		},
	}, nil
}

func (stubShopping) Search(context.Context, string, int) ([]serper.OrganicResult, error) {
	return nil, nil
}

func testEnv() *appEnv {
	ctrl := search.NewController(stubShopping{}, nil, retailer.Default(), nil, nil, search.DefaultConfig())
	return &appEnv{
		Controller: ctrl,
		Ranker:     rank.NewRanker(nil),
	}
}

func TestRouter_Health(t *testing.T) {
	srv := httptest.NewServer(newRouter(testEnv()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_SearchValidation(t *testing.T) {
	srv := httptest.NewServer(newRouter(testEnv()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/search", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/search", "application/json", strings.NewReader(`{"items":[]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_Search(t *testing.T) {
	srv := httptest.NewServer(newRouter(testEnv()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/search", "application/json",
		strings.NewReader(`{"items":["denim jacket"],"include_trace":true}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body apiSearchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Products, 1)
	assert.Equal(t, "Denim Jacket", body.Products[0].Name)
	assert.Equal(t, "denim jacket", body.Products[0].Item)
	require.NotNil(t, body.Trace)
	assert.True(t, body.Trace.SerperKeySet)
	assert.NotEmpty(t, body.Trace.SessionID)
}

func TestRouter_Rank(t *testing.T) {
	srv := httptest.NewServer(newRouter(testEnv()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/rank", "application/json",
		strings.NewReader(`{"items":["denim jacket"],"budget":"under $100","preferences":["budget"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body apiRankResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Products, 1)
	require.Contains(t, body.Ranking.Results, "denim jacket")
	scored := body.Ranking.Results["denim jacket"]
	require.Len(t, scored, 1)
	assert.Greater(t, body.Ranking.Weights.Price, body.Ranking.Weights.Delivery)
	assert.NotEmpty(t, scored[0].LLMExplanation)
	assert.Nil(t, body.Trace)
}

func TestRootCommandWiring(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"search", "rank", "serve"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}
