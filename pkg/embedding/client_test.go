package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fashion-muse-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingServer(t *testing.T, dims int, status int) (*httptest.Server, *map[string]interface{}) {
	t.Helper()
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}
		vec := make([]float32, dims)
		for i := range vec {
			vec[i] = 0.001 * float32(i)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestCreateEmbedding(t *testing.T) {
	srv, captured := newEmbeddingServer(t, 1536, http.StatusOK)
	client := NewClient(config.EmbeddingConfig{
		APIKey: "sk-test", BaseURL: srv.URL, Model: "text-embedding-3-small", Dimensions: 1536,
	})

	vec, err := client.CreateEmbedding(context.Background(), "Victorian ball gown")
	require.NoError(t, err)
	assert.Len(t, vec, 1536)

	assert.Equal(t, "text-embedding-3-small", (*captured)["model"])
	assert.Equal(t, []interface{}{"Victorian ball gown"}, (*captured)["input"])
}

func TestCreateEmbedding_WrongDimensions(t *testing.T) {
	srv, _ := newEmbeddingServer(t, 8, http.StatusOK)
	client := NewClient(config.EmbeddingConfig{
		APIKey: "sk-test", BaseURL: srv.URL, Model: "text-embedding-3-small", Dimensions: 1536,
	})

	vec, err := client.CreateEmbedding(context.Background(), "gown")
	assert.Error(t, err)
	assert.Nil(t, vec)
}

func TestCreateEmbedding_APIError(t *testing.T) {
	srv, _ := newEmbeddingServer(t, 0, http.StatusInternalServerError)
	client := NewClient(config.EmbeddingConfig{
		APIKey: "sk-test", BaseURL: srv.URL, Model: "text-embedding-3-small", Dimensions: 1536,
	})

	vec, err := client.CreateEmbedding(context.Background(), "gown")
	assert.Error(t, err)
	assert.Nil(t, vec)
}
