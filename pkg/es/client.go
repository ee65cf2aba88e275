// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fashion-muse-go/internal/config"
	"fashion-muse-go/internal/model"
	"fashion-muse-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// NewClient 初始化 Elasticsearch 客户端，并确保藏品索引存在。
func NewClient(ctx context.Context, esCfg config.ElasticsearchConfig, dims int) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	if err := EnsureIndex(ctx, client, esCfg.IndexName, dims); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndex 检查索引是否存在，如果不存在则按藏品结构创建它。
// embedding 字段使用 cosine 相似度，_score 落在 [0,1] 区间。
func EnsureIndex(ctx context.Context, client *elasticsearch.Client, indexName string, dims int) error {
	res, err := client.Indices.Exists([]string{indexName}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	res.Body.Close()
	// 200 说明索引已存在
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	// 404 说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"title": { "type": "text" },
				"artistDisplayName": { "type": "keyword" },
				"primaryImage": { "type": "keyword", "index": false },
				"objectURL": { "type": "keyword", "index": false },
				"embedding": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				}
			}
		}
	}`, dims)

	res, err = client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(mapping)),
		client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexGarment 将单条藏品（含向量）写入 Elasticsearch。
func IndexGarment(ctx context.Context, client *elasticsearch.Client, indexName, docID string, g model.Garment) error {
	docBytes, err := json.Marshal(g)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: docID,
		Body:       bytes.NewReader(docBytes),
	}
	res, err := req.Do(ctx, client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return fmt.Errorf("failed to index garment %s", docID)
	}
	return nil
}

// GarmentIndexer 把藏品写入固定的索引，供重新向量化任务同步使用。
type GarmentIndexer struct {
	client    *elasticsearch.Client
	indexName string
}

// NewGarmentIndexer 创建一个写入 indexName 的 GarmentIndexer。
func NewGarmentIndexer(client *elasticsearch.Client, indexName string) *GarmentIndexer {
	return &GarmentIndexer{client: client, indexName: indexName}
}

// IndexGarment 写入（或覆盖）一条藏品文档。
func (i *GarmentIndexer) IndexGarment(ctx context.Context, docID string, g model.Garment) error {
	return IndexGarment(ctx, i.client, i.indexName, docID, g)
}
