package model

import (
	"strings"
	"time"
)

// Role 标识对话消息的发送方。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Reply 是助手的结构化回复：一个标题加若干有序要点。
type Reply struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// Flatten 把结构化回复还原成纯文本，用于作为历史上下文重新发送给模型。
func (r Reply) Flatten() string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(r.Title)
	for _, p := range r.Points {
		b.WriteString("\n- ")
		b.WriteString(p)
	}
	return b.String()
}

// Turn 代表存储在会话中的单条对话消息。
// 用户消息只填 Text，助手消息只填 Reply。
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text,omitempty"`
	Reply     *Reply    `json:"reply,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserTurn 构造一条用户消息。
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text, Timestamp: time.Now()}
}

// AssistantTurn 构造一条助手消息。
func AssistantTurn(reply Reply) Turn {
	return Turn{Role: RoleAssistant, Reply: &reply, Timestamp: time.Now()}
}

// Content 返回该消息的纯文本形式，助手消息会被展平。
func (t Turn) Content() string {
	if t.Role == RoleAssistant && t.Reply != nil {
		return t.Reply.Flatten()
	}
	return t.Text
}
