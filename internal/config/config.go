// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Retrieval     RetrievalConfig     `mapstructure:"retrieval"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Session       SessionConfig       `mapstructure:"session"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port                string `mapstructure:"port"`
	Mode                string `mapstructure:"mode"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	JSONMode   bool                `mapstructure:"json_mode"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
	Prompt     LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig 配置生成相关参数。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMPromptConfig 配置系统提示与上下文包裹格式（可选）。
type LLMPromptConfig struct {
	Rules           string `mapstructure:"rules"`
	RefStart        string `mapstructure:"ref_start"`
	RefEnd          string `mapstructure:"ref_end"`
	MaxContextItems int    `mapstructure:"max_context_items"`
}

// RetrievalConfig 控制向量检索的后端与参数。
type RetrievalConfig struct {
	Backend       string `mapstructure:"backend"` // "mongo" 或 "elasticsearch"
	IndexName     string `mapstructure:"index_name"`
	NumCandidates int    `mapstructure:"num_candidates"`
	ChatTopK      int    `mapstructure:"chat_top_k"`
	SearchTopK    int    `mapstructure:"search_top_k"`
}

// MongoConfig 存储 MongoDB Atlas 的连接配置。
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig 存储浏览器会话相关的配置。
type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
	TTLHours   int    `mapstructure:"ttl_hours"`
	MaxTurns   int    `mapstructure:"max_turns"`
	Secure     bool   `mapstructure:"secure"`
}

const (
	BackendMongo         = "mongo"
	BackendElasticsearch = "elasticsearch"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 1536)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.json_mode", true)
	v.SetDefault("llm.generation.temperature", 0.7)
	v.SetDefault("llm.generation.max_tokens", 512)
	v.SetDefault("llm.prompt.ref_start", "--- CONTEXT ---")
	v.SetDefault("llm.prompt.ref_end", "--- END CONTEXT ---")
	v.SetDefault("llm.prompt.max_context_items", 4)

	v.SetDefault("retrieval.backend", BackendMongo)
	v.SetDefault("retrieval.index_name", "vector_index")
	v.SetDefault("retrieval.num_candidates", 150)
	v.SetDefault("retrieval.chat_top_k", 3)
	v.SetDefault("retrieval.search_top_k", 12)

	v.SetDefault("mongo.database", "fashion_muse_db")
	v.SetDefault("mongo.collection", "garments")

	v.SetDefault("elasticsearch.addresses", "http://localhost:9200")
	v.SetDefault("elasticsearch.index_name", "garments")
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.cookie_name", "fashion_muse_session")
	v.SetDefault("session.ttl_hours", 24)
	v.SetDefault("session.max_turns", 40)
	v.SetDefault("session.secure", false)
	v.SetDefault("log.output_path", "")
}

// bindEnv 将约定俗成的环境变量映射到配置键上。
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"llm.api_key":       {"OPENAI_API_KEY"},
		"embedding.api_key": {"OPENAI_API_KEY"},
		"mongo.uri":         {"MONGO_CONNECTION_STRING"},
		"session.secret":    {"SESSION_SECRET_KEY", "FLASK_SECRET_KEY"},
		"redis.addr":        {"REDIS_ADDR"},
		"redis.password":    {"REDIS_PASSWORD"},
		"server.port":       {"PORT"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("绑定环境变量 %s 失败: %w", key, err)
		}
	}
	return nil
}

// Load 读取 .env（若存在）、YAML 配置文件（若存在）以及环境变量，返回校验后的配置。
// configPath 为空或文件不存在时只使用默认值和环境变量。
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 文件失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查启动所必需的配置项，缺失即视为致命错误。
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("OPENAI_API_KEY 环境变量缺失")
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.APIKey
	}
	switch c.Retrieval.Backend {
	case BackendMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_CONNECTION_STRING 环境变量缺失")
		}
	case BackendElasticsearch:
		if c.Elasticsearch.Addresses == "" {
			return errors.New("elasticsearch.addresses 不能为空")
		}
	default:
		return fmt.Errorf("不支持的检索后端: %q", c.Retrieval.Backend)
	}
	if c.Retrieval.NumCandidates < c.Retrieval.SearchTopK || c.Retrieval.NumCandidates < c.Retrieval.ChatTopK {
		return fmt.Errorf("retrieval.num_candidates (%d) 必须不小于 top_k", c.Retrieval.NumCandidates)
	}
	if c.LLM.Generation.MaxTokens <= 0 {
		return fmt.Errorf("llm.generation.max_tokens 必须为正数, 当前为 %d", c.LLM.Generation.MaxTokens)
	}
	return nil
}
