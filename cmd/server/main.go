// Package main 是应用程序的入口点。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fashion-muse-go/internal/config"
	"fashion-muse-go/internal/handler"
	"fashion-muse-go/internal/middleware"
	"fashion-muse-go/internal/repository"
	"fashion-muse-go/internal/service"
	"fashion-muse-go/pkg/database"
	"fashion-muse-go/pkg/embedding"
	"fashion-muse-go/pkg/es"
	"fashion-muse-go/pkg/llm"
	"fashion-muse-go/pkg/log"
	"fashion-muse-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置，缺少必需的凭据时直接退出
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Init("info", "console", "")
		log.Fatal("配置加载失败", err)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// 3. 初始化检索后端和 Redis
	searcher, closeSearcher, err := newVectorSearcher(startCtx, cfg)
	if err != nil {
		log.Fatal("检索后端初始化失败", err)
	}
	defer closeSearcher()

	rdb, err := database.NewRedis(startCtx, cfg.Redis)
	if err != nil {
		log.Fatal("Redis 初始化失败", err)
	}
	defer rdb.Close()

	// 4. 初始化 Repository 与 Service (依赖注入)
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	sessionRepo := repository.NewSessionRepository(rdb, sessionTTL, cfg.Session.MaxTurns)

	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	searchService := service.NewSearchService(embeddingClient, searcher)
	promptBuilder := service.NewPromptBuilder(cfg.LLM.Prompt)
	chatService := service.NewChatService(searchService, promptBuilder, llmClient, cfg.Retrieval.ChatTopK)

	secret := cfg.Session.Secret
	if secret == "" {
		secret = token.GenerateRandomString(32)
		log.Warnf("未配置 FLASK_SECRET_KEY / SESSION_SECRET_KEY，已生成临时会话密钥，重启后现有会话将失效")
	}
	jwtManager := token.NewJWTManager(secret, sessionTTL)

	// 5. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r, err := handler.NewRouter(
		handler.NewPageHandler(chatService, sessionRepo),
		handler.NewSearchHandler(searchService, cfg.Retrieval.SearchTopK),
		handler.NewConversationHandler(sessionRepo),
		jwtManager,
		middleware.SessionOptions{
			CookieName: cfg.Session.CookieName,
			MaxAge:     int(sessionTTL / time.Second),
			Secure:     cfg.Session.Secure,
		},
	)
	if err != nil {
		log.Fatal("页面模板加载失败", err)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		log.Infof("服务启动于 %s, 检索后端: %s", srv.Addr, cfg.Retrieval.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// newVectorSearcher 按配置选择检索后端，返回的 close 函数用于释放连接。
func newVectorSearcher(ctx context.Context, cfg *config.Config) (repository.VectorSearcher, func(), error) {
	switch cfg.Retrieval.Backend {
	case config.BackendElasticsearch:
		client, err := es.NewClient(ctx, cfg.Elasticsearch, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewESGarmentRepository(client, cfg.Elasticsearch.IndexName, cfg.Retrieval.NumCandidates), func() {}, nil
	default:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		coll := database.GarmentCollection(client, cfg.Mongo)
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Errorf("关闭 MongoDB 连接失败: %v", err)
			}
		}
		return repository.NewGarmentRepository(coll, cfg.Retrieval.IndexName, cfg.Retrieval.NumCandidates), closeFn, nil
	}
}
