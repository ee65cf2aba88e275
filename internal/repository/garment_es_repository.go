package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"fashion-muse-go/internal/model"

	"github.com/elastic/go-elasticsearch/v8"
)

type esGarmentRepository struct {
	client        *elasticsearch.Client
	indexName     string
	numCandidates int
}

// NewESGarmentRepository 创建一个基于 Elasticsearch kNN 的 VectorSearcher。
func NewESGarmentRepository(client *elasticsearch.Client, indexName string, numCandidates int) VectorSearcher {
	return &esGarmentRepository{
		client:        client,
		indexName:     indexName,
		numCandidates: numCandidates,
	}
}

// VectorSearch 执行 kNN 检索，只取回展示所需的字段。
func (r *esGarmentRepository) VectorSearch(ctx context.Context, vector []float32, limit int) ([]model.SearchHit, error) {
	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              limit,
			"num_candidates": r.numCandidates,
		},
		"_source": []string{"title", "artistDisplayName", "primaryImage", "objectURL"},
		"size":    limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.indexName),
		r.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch returned an error: %s, body: %s", res.Status(), string(body))
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.SearchHit `json:"_source"`
				Score  float64         `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := make([]model.SearchHit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		hit := h.Source
		hit.Score = h.Score
		hits = append(hits, hit)
	}
	return hits, nil
}
