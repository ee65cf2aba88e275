// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"fmt"

	"fashion-muse-go/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VectorSearcher 定义了向量相似度检索操作，Mongo 与 Elasticsearch 两种后端都实现它。
type VectorSearcher interface {
	VectorSearch(ctx context.Context, vector []float32, limit int) ([]model.SearchHit, error)
}

// GarmentRepository 定义了藏品集合的全部访问操作。
type GarmentRepository interface {
	VectorSearcher
	// FindAllForEmbedding 返回所有藏品的 _id 与 title，供重新向量化任务使用。
	FindAllForEmbedding(ctx context.Context) ([]model.Garment, error)
	// UpdateEmbedding 原地覆盖单条藏品的 embedding 字段。
	UpdateEmbedding(ctx context.Context, id interface{}, vector []float32) error
}

type mongoGarmentRepository struct {
	coll          *mongo.Collection
	indexName     string
	numCandidates int
}

// NewGarmentRepository 创建一个基于 MongoDB Atlas Vector Search 的 GarmentRepository。
func NewGarmentRepository(coll *mongo.Collection, indexName string, numCandidates int) GarmentRepository {
	return &mongoGarmentRepository{
		coll:          coll,
		indexName:     indexName,
		numCandidates: numCandidates,
	}
}

// VectorSearch 执行一次 $vectorSearch 聚合，并投影出展示所需的字段与相似度分数。
func (r *mongoGarmentRepository) VectorSearch(ctx context.Context, vector []float32, limit int) ([]model.SearchHit, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: r.indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: r.numCandidates},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "title", Value: 1},
			{Key: "artistDisplayName", Value: 1},
			{Key: "primaryImage", Value: 1},
			{Key: "objectURL", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	hits := make([]model.SearchHit, 0, limit)
	if err := cursor.All(ctx, &hits); err != nil {
		return nil, fmt.Errorf("failed to decode vector search results: %w", err)
	}
	return hits, nil
}

func (r *mongoGarmentRepository) FindAllForEmbedding(ctx context.Context) ([]model.Garment, error) {
	opts := options.Find().SetProjection(bson.D{
		{Key: "_id", Value: 1},
		{Key: "title", Value: 1},
		{Key: "artistDisplayName", Value: 1},
		{Key: "primaryImage", Value: 1},
		{Key: "objectURL", Value: 1},
	})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch garments: %w", err)
	}
	defer cursor.Close(ctx)

	var garments []model.Garment
	if err := cursor.All(ctx, &garments); err != nil {
		return nil, fmt.Errorf("failed to decode garments: %w", err)
	}
	return garments, nil
}

func (r *mongoGarmentRepository) UpdateEmbedding(ctx context.Context, id interface{}, vector []float32) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "embedding", Value: vector}}}},
	)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("garment %v not found", id)
	}
	return nil
}
