// Package main 提供重新向量化命令：用当前的向量化模型重算所有藏品的标题向量。
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"fashion-muse-go/internal/config"
	"fashion-muse-go/internal/pipeline"
	"fashion-muse-go/internal/repository"
	"fashion-muse-go/pkg/database"
	"fashion-muse-go/pkg/embedding"
	"fashion-muse-go/pkg/es"
	"fashion-muse-go/pkg/log"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	configPath string
	syncES     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reembed",
		Short: "Re-embed every garment title with the configured embedding model",
		Long: `Reads every garment from the document store, embeds its title with the
configured embedding model and overwrites the stored embedding in place.

Records with an empty title are skipped. The run stops at the first failure.
When the retrieval backend is elasticsearch the updated garments are also
written to the Elasticsearch index.

Examples:
  reembed
  reembed --config ./configs/config.yaml
  reembed --sync-es`,
		SilenceUsage: true,
		RunE:         runReembed,
	}
	cmd.Flags().StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	cmd.Flags().BoolVar(&syncES, "sync-es", false, "同时写入 Elasticsearch 索引（后端为 elasticsearch 时默认开启）")
	return cmd
}

func runReembed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		color.Red("配置加载失败: %v", err)
		return err
	}
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	if cfg.Mongo.URI == "" {
		err := errors.New("MONGO_CONNECTION_STRING 环境变量缺失")
		color.Red("%v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		color.Red("连接 MongoDB 失败: %v", err)
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := repository.NewGarmentRepository(database.GarmentCollection(client, cfg.Mongo), cfg.Retrieval.IndexName, cfg.Retrieval.NumCandidates)

	var indexer pipeline.GarmentIndexer
	if syncES || cfg.Retrieval.Backend == config.BackendElasticsearch {
		esClient, err := es.NewClient(ctx, cfg.Elasticsearch, cfg.Embedding.Dimensions)
		if err != nil {
			color.Red("连接 Elasticsearch 失败: %v", err)
			return err
		}
		indexer = es.NewGarmentIndexer(esClient, cfg.Elasticsearch.IndexName)
	}

	color.Blue("\n开始重新向量化集合 %s.%s，模型: %s\n", cfg.Mongo.Database, cfg.Mongo.Collection, cfg.Embedding.Model)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = newProgressBar(total, "Re-embedding garments")
		}
		_ = bar.Set(done)
	}

	reembedder := pipeline.NewReembedder(repo, embedding.NewClient(cfg.Embedding), indexer)
	stats, err := reembedder.Run(ctx, progress)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		color.Red("\n✗ 重新向量化中止（已更新 %d 条）: %v\n", stats.Updated, err)
		return err
	}

	if stats.Total == 0 {
		color.Yellow("\n集合中没有任何藏品，无需处理\n")
		return nil
	}
	color.Green("\n✓ 完成：共 %d 条，更新 %d 条，跳过 %d 条\n", stats.Total, stats.Updated, stats.Skipped)
	return nil
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("garments"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
