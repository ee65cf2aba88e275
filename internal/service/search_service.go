// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"sort"

	"fashion-muse-go/internal/model"
	"fashion-muse-go/internal/repository"
	"fashion-muse-go/pkg/embedding"
	"fashion-muse-go/pkg/log"
)

// SearchService 定义了查询向量化与相似度检索操作。
// 两个方法都不返回错误：失败时分别返回 nil 向量和空结果。
type SearchService interface {
	Embed(ctx context.Context, text string) []float32
	Search(ctx context.Context, vector []float32, topK int) []model.SearchHit
}

type searchService struct {
	embeddingClient embedding.Client
	searcher        repository.VectorSearcher
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, searcher repository.VectorSearcher) SearchService {
	return &searchService{
		embeddingClient: embeddingClient,
		searcher:        searcher,
	}
}

// Embed 向量化查询文本；失败时记录日志并返回 nil。
func (s *searchService) Embed(ctx context.Context, text string) []float32 {
	vector, err := s.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return nil
	}
	return vector
}

// Search 返回至多 topK 条按分数降序排列的结果，后端失败或无匹配时返回空切片。
func (s *searchService) Search(ctx context.Context, vector []float32, topK int) []model.SearchHit {
	if len(vector) == 0 || topK <= 0 {
		return []model.SearchHit{}
	}

	hits, err := s.searcher.VectorSearch(ctx, vector, topK)
	if err != nil {
		log.Errorf("[SearchService] 向量检索失败: %v", err)
		return []model.SearchHit{}
	}

	for i := range hits {
		hits[i].Score = clampScore(hits[i].Score)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	log.Infof("[SearchService] 向量检索完成, topK: %d, 命中: %d", topK, len(hits))
	return hits
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
