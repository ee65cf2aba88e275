package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"fashion-muse-go/internal/model"
	"fashion-muse-go/pkg/llm"
	"fashion-muse-go/pkg/log"
)

const (
	parseFallbackTitle = "Response"
	errorFallbackTitle = "Error"
	errorFallbackPoint = "I'm sorry, I had a little trouble thinking of a response. Please try your search again."
)

// ChatService 定义了单轮对话的生成流程：向量化 → 检索 → 组装 → 生成。
type ChatService interface {
	// Answer 返回结构化回复以及本轮用作上下文的检索结果，不会返回错误。
	Answer(ctx context.Context, query string, history []model.Turn) (model.Reply, []model.SearchHit)
	// Generate 调用模型并把输出解析为结构化回复，失败时返回兜底回复。
	Generate(ctx context.Context, messages []llm.Message) model.Reply
}

type chatService struct {
	searchService SearchService
	prompt        *PromptBuilder
	llmClient     llm.Client
	topK          int
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(searchService SearchService, prompt *PromptBuilder, llmClient llm.Client, topK int) ChatService {
	return &chatService{
		searchService: searchService,
		prompt:        prompt,
		llmClient:     llmClient,
		topK:          topK,
	}
}

// Answer 协调整条 RAG 流程。向量化失败时跳过检索，本轮不带上下文。
func (s *chatService) Answer(ctx context.Context, query string, history []model.Turn) (model.Reply, []model.SearchHit) {
	hits := []model.SearchHit{}
	if vector := s.searchService.Embed(ctx, query); vector != nil {
		hits = s.searchService.Search(ctx, vector, s.topK)
	} else {
		log.Warnf("[ChatService] 查询向量化失败，跳过检索")
	}

	messages := s.prompt.BuildMessages(query, hits, history)
	return s.Generate(ctx, messages), hits
}

func (s *chatService) Generate(ctx context.Context, messages []llm.Message) model.Reply {
	raw, err := s.llmClient.CreateChatCompletion(ctx, messages, nil)
	if err != nil {
		log.Errorf("[ChatService] 调用语言模型失败: %v", err)
		return model.Reply{Title: errorFallbackTitle, Points: []string{errorFallbackPoint}}
	}

	reply, err := ParseReply(raw)
	if err != nil {
		log.Warnf("[ChatService] 模型输出不是合法的结构化回复: %v", err)
		return model.Reply{Title: parseFallbackTitle, Points: []string{raw}}
	}
	return reply
}

// ParseReply 把模型输出解析为 Reply。
// 允许外层 ```json 围栏；必须同时包含 title 与 points（字符串数组，不允许 null 元素），
// 且不允许出现其他字段或对象之后的任何内容。
func ParseReply(raw string) (model.Reply, error) {
	text := stripCodeFence(strings.TrimSpace(raw))

	var payload struct {
		Title  *string    `json:"title"`
		Points *[]*string `json:"points"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return model.Reply{}, fmt.Errorf("failed to decode reply: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return model.Reply{}, errors.New("trailing data after reply object")
	}
	if payload.Title == nil {
		return model.Reply{}, errors.New("reply is missing title")
	}
	if payload.Points == nil {
		return model.Reply{}, errors.New("reply is missing points")
	}
	points := make([]string, 0, len(*payload.Points))
	for i, p := range *payload.Points {
		if p == nil {
			return model.Reply{}, fmt.Errorf("reply point %d is null", i)
		}
		points = append(points, *p)
	}
	return model.Reply{Title: *payload.Title, Points: points}, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
