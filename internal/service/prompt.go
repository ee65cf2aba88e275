package service

import (
	"fmt"
	"strings"

	"fashion-muse-go/internal/config"
	"fashion-muse-go/internal/model"
	"fashion-muse-go/pkg/llm"
)

// DefaultSystemPrompt 定义助手人设、JSON 输出约定以及无法直接满足请求时的处理方式。
const DefaultSystemPrompt = `You are FashionMuse, a helpful and knowledgeable AI design assistant specializing in historical fashion.
Hold a friendly, insightful conversation with the user about garments, eras, silhouettes, fabrics and styling, building on what was said earlier in the conversation.

You MUST answer with a single JSON object and nothing else, using exactly this shape:
{"title": "<a short title for your answer>", "points": ["<first point>", "<second point>", "..."]}
Each point is one or two plain-text sentences. Do not wrap the JSON in markdown.

If the user asks for something you cannot literally do (for example drawing a sketch, generating an image, shopping or browsing), the first point must briefly acknowledge that limitation, and the remaining points must still answer the request as helpfully as possible in text.

The user's message may be followed by reference items. Use them naturally as inspiration and mention one or two when relevant, but never reveal that you searched a collection, a database or were given reference material.`

// PromptBuilder 根据系统提示、历史消息与检索结果组装模型请求。
type PromptBuilder struct {
	rules           string
	refStart        string
	refEnd          string
	maxContextItems int
}

// NewPromptBuilder 创建一个 PromptBuilder，未配置的项使用默认值。
func NewPromptBuilder(cfg config.LLMPromptConfig) *PromptBuilder {
	b := &PromptBuilder{
		rules:           cfg.Rules,
		refStart:        cfg.RefStart,
		refEnd:          cfg.RefEnd,
		maxContextItems: cfg.MaxContextItems,
	}
	if b.rules == "" {
		b.rules = DefaultSystemPrompt
	}
	if b.refStart == "" {
		b.refStart = "--- CONTEXT ---"
	}
	if b.refEnd == "" {
		b.refEnd = "--- END CONTEXT ---"
	}
	if b.maxContextItems <= 0 {
		b.maxContextItems = 4
	}
	return b
}

// BuildMessages 组装：系统消息 + 展平后的历史 + 本轮用户消息（有检索结果时附带上下文块）。
func (b *PromptBuilder) BuildMessages(query string, hits []model.SearchHit, history []model.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: b.rules})
	for _, t := range history {
		role := llm.RoleUser
		if t.Role == model.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content()})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: query + b.contextBlock(hits)})
	return msgs
}

// contextBlock 列出前 maxContextItems 条结果的标题与作者；没有结果时返回空串。
func (b *PromptBuilder) contextBlock(hits []model.SearchHit) string {
	if len(hits) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(b.refStart)
	sb.WriteString("\n")
	for i, h := range hits {
		if i >= b.maxContextItems {
			break
		}
		sb.WriteString(fmt.Sprintf("Item %d: A piece titled '%s' by %s.\n", i+1, h.Title, h.Creator()))
	}
	sb.WriteString(b.refEnd)
	return sb.String()
}
