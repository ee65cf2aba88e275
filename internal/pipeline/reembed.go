// Package pipeline 定义了藏品重新向量化的批处理流程。
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"fashion-muse-go/internal/model"
	"fashion-muse-go/internal/repository"
	"fashion-muse-go/pkg/embedding"
	"fashion-muse-go/pkg/log"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GarmentIndexer 把更新后的藏品同步到检索后端（可选）。
type GarmentIndexer interface {
	IndexGarment(ctx context.Context, docID string, g model.Garment) error
}

// ProgressFunc 在每条记录处理完成（包括跳过）后被调用。
type ProgressFunc func(done, total int)

// Stats 汇总一次运行的结果。
type Stats struct {
	Total   int
	Updated int
	Skipped int
}

// Reembedder 使用当前的向量化模型重新计算所有藏品的标题向量。
type Reembedder struct {
	repo            repository.GarmentRepository
	embeddingClient embedding.Client
	indexer         GarmentIndexer
}

// NewReembedder 创建一个新的 Reembedder 实例。indexer 可以为 nil。
func NewReembedder(repo repository.GarmentRepository, embeddingClient embedding.Client, indexer GarmentIndexer) *Reembedder {
	return &Reembedder{
		repo:            repo,
		embeddingClient: embeddingClient,
		indexer:         indexer,
	}
}

// Run 依次处理每条藏品，遇到第一个错误立即中止并返回（附带记录 ID）。
// 标题为空的记录会被跳过。
func (r *Reembedder) Run(ctx context.Context, progress ProgressFunc) (Stats, error) {
	garments, err := r.repo.FindAllForEmbedding(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load garments: %w", err)
	}

	stats := Stats{Total: len(garments)}
	log.Infof("[Reembedder] 共 %d 条藏品待处理", stats.Total)

	for i, g := range garments {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		docID := documentID(g.ID)
		if strings.TrimSpace(g.Title) == "" {
			log.Warnf("[Reembedder] 藏品 %s 标题为空，跳过", docID)
			stats.Skipped++
		} else {
			if err := r.reembedOne(ctx, docID, g); err != nil {
				return stats, fmt.Errorf("garment %s: %w", docID, err)
			}
			stats.Updated++
		}

		if progress != nil {
			progress(i+1, stats.Total)
		}
	}

	log.Infof("[Reembedder] 处理完成, 更新: %d, 跳过: %d", stats.Updated, stats.Skipped)
	return stats, nil
}

func (r *Reembedder) reembedOne(ctx context.Context, docID string, g model.Garment) error {
	vector, err := r.embeddingClient.CreateEmbedding(ctx, g.Title)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if err := r.repo.UpdateEmbedding(ctx, g.ID, vector); err != nil {
		return err
	}
	if r.indexer != nil {
		g.Embedding = vector
		if err := r.indexer.IndexGarment(ctx, docID, g); err != nil {
			return fmt.Errorf("index sync failed: %w", err)
		}
	}
	return nil
}

// documentID 把文档主键转换为字符串，ObjectID 使用十六进制形式。
func documentID(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
