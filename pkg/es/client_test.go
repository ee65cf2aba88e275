package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"fashion-muse-go/internal/model"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeCluster 模拟 Elasticsearch：indexExists 决定 HEAD /<index> 的返回值。
func fakeCluster(t *testing.T, indexExists bool) (*elasticsearch.Client, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead && !indexExists:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/":
			_, _ = w.Write([]byte(`{"version":{"number":"8.15.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
		default:
			_, _ = w.Write([]byte(`{"acknowledged":true,"result":"created"}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func findRequest(reqs []recordedRequest, method, path string) (recordedRequest, bool) {
	for _, r := range reqs {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return recordedRequest{}, false
}

func TestEnsureIndex_CreatesMissingIndex(t *testing.T) {
	client, requests := fakeCluster(t, false)

	require.NoError(t, EnsureIndex(context.Background(), client, "garments", 1536))

	create, ok := findRequest(requests(), http.MethodPut, "/garments")
	require.True(t, ok, "expected index creation request")
	var mapping map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(create.Body), &mapping))
	props := mapping["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	emb := props["embedding"].(map[string]interface{})
	assert.Equal(t, "dense_vector", emb["type"])
	assert.EqualValues(t, 1536, emb["dims"])
	assert.Equal(t, "cosine", emb["similarity"])
}

func TestEnsureIndex_ExistingIndex(t *testing.T) {
	client, requests := fakeCluster(t, true)

	require.NoError(t, EnsureIndex(context.Background(), client, "garments", 1536))

	_, created := findRequest(requests(), http.MethodPut, "/garments")
	assert.False(t, created)
}

func TestIndexGarment(t *testing.T) {
	client, requests := fakeCluster(t, true)

	g := model.Garment{Title: "Evening Dress", ArtistDisplayName: "Callot Soeurs", Embedding: []float32{0.5, 0.25}}
	require.NoError(t, IndexGarment(context.Background(), client, "garments", "abc123", g))

	put, ok := findRequest(requests(), http.MethodPut, "/garments/_doc/abc123")
	require.True(t, ok)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(put.Body), &doc))
	assert.Equal(t, "Evening Dress", doc["title"])
	assert.Equal(t, []interface{}{0.5, 0.25}, doc["embedding"])
	_, hasID := doc["_id"]
	assert.False(t, hasID)
}

func TestGarmentIndexer(t *testing.T) {
	client, requests := fakeCluster(t, true)

	indexer := NewGarmentIndexer(client, "garments")
	require.NoError(t, indexer.IndexGarment(context.Background(), "def456", model.Garment{Title: "Kimono"}))

	_, ok := findRequest(requests(), http.MethodPut, "/garments/_doc/def456")
	assert.True(t, ok)
}
