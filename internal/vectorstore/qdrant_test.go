package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCollectionCreatesMissing(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotPath = r.Method + " " + r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result": true, "status": "ok"}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL, Distance: "Cosine"})
	require.NoError(t, store.EnsureCollection(context.Background(), "docs", 768))

	assert.Equal(t, "PUT /collections/docs", gotPath)
	vectors := gotBody["vectors"].(map[string]any)
	assert.Equal(t, float64(768), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollectionSkipsExisting(t *testing.T) {
	var puts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Write([]byte(`{"result": {"config": {"params": {"vectors": {"size": 768, "distance": "Cosine"}}}}}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	// A second boot finds the collection and must not try to recreate it.
	require.NoError(t, store.EnsureCollection(context.Background(), "docs", 768))
	assert.Zero(t, puts)
}

func TestEnsureCollectionDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"config": {"params": {"vectors": {"size": 384, "distance": "Cosine"}}}}}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	err := store.EnsureCollection(context.Background(), "docs", 768)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector size 384")
}

func TestEnsureCollectionCreateRaceIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		// Created by another process between the check and the PUT.
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"status": {"error": "Collection docs already exists"}}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	require.NoError(t, store.EnsureCollection(context.Background(), "docs", 768))
}

func TestUpsertWaitsForCommit(t *testing.T) {
	var gotQuery string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result": {"status": "completed"}}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	err := store.Upsert(context.Background(), "docs", []Point{
		{ID: "p1", Vector: []float32{0.1, 0.2}, Payload: map[string]any{"chat_id": "c1"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "wait=true", gotQuery)
	points := gotBody["points"].([]any)
	require.Len(t, points, 1)
	point := points[0].(map[string]any)
	assert.Equal(t, "p1", point["id"])
}

func TestSearchFiltersByChat(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result": [
			{"score": 0.91, "payload": {"chunk_content": "first hit", "chat_id": "c1"}},
			{"score": 0.77, "payload": {"chunk_content": "second hit", "chat_id": "c1"}}
		]}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	hits, err := store.Search(context.Background(), "docs", []float32{0.5}, "c1", 10)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-9)
	assert.Equal(t, "first hit", hits[0].Payload["chunk_content"])

	filter := gotBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	cond := must[0].(map[string]any)
	assert.Equal(t, "chat_id", cond["key"])
	assert.Equal(t, "c1", cond["match"].(map[string]any)["value"])

	assert.Equal(t, float64(10), gotBody["limit"])
	assert.Equal(t, true, gotBody["with_payload"])
}

func TestDeleteByChatFilters(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result": {"status": "acknowledged"}}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	require.NoError(t, store.DeleteByChat(context.Background(), "docs", "c1"))

	assert.Equal(t, "/collections/docs/points/delete", gotPath)
	filter := gotBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	cond := must[0].(map[string]any)
	assert.Equal(t, "c1", cond["match"].(map[string]any)["value"])
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL})
	_, err := store.Search(context.Background(), "missing", []float32{0.5}, "c1", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		w.Write([]byte(`{"result": true}`))
	}))
	defer srv.Close()

	store := NewQdrantStore(QdrantConfig{URL: srv.URL, APIKey: "secret"})
	err := store.Upsert(context.Background(), "docs", []Point{{ID: "p1", Vector: []float32{0.1}}})
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
}
