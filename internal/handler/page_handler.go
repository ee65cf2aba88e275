// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"context"
	"net/http"
	"strings"

	"fashion-muse-go/internal/middleware"
	"fashion-muse-go/internal/model"
	"fashion-muse-go/internal/repository"
	"fashion-muse-go/internal/service"
	"fashion-muse-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// Outcome 枚举了首页请求的全部终态。
type Outcome int

const (
	// OutcomeFresh GET 请求：清空历史，渲染空对话。
	OutcomeFresh Outcome = iota
	// OutcomeUnchanged POST 空查询：原样渲染当前历史。
	OutcomeUnchanged
	// OutcomeAnswered POST 非空查询：执行检索生成，追加两条消息后渲染。
	OutcomeAnswered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFresh:
		return "fresh"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeAnswered:
		return "answered"
	default:
		return "unknown"
	}
}

// PageView 是首页模板的渲染数据。
type PageView struct {
	Outcome Outcome
	History []model.Turn
	Hits    []model.SearchHit
}

// PageHandler 负责渲染对话页面以及静态页面。
type PageHandler struct {
	chatService service.ChatService
	sessionRepo repository.SessionRepository
}

// NewPageHandler 创建一个新的 PageHandler 实例。
func NewPageHandler(chatService service.ChatService, sessionRepo repository.SessionRepository) *PageHandler {
	return &PageHandler{
		chatService: chatService,
		sessionRepo: sessionRepo,
	}
}

// Index 处理 GET /，每次打开页面都开始一段新的对话。
func (h *PageHandler) Index(c *gin.Context) {
	view := h.fresh(c.Request.Context(), middleware.SessionID(c))
	c.HTML(http.StatusOK, "index.html", view)
}

// Submit 处理 POST /（表单字段 query）。
func (h *PageHandler) Submit(c *gin.Context) {
	query := strings.TrimSpace(c.PostForm("query"))
	sessionID := middleware.SessionID(c)
	ctx := c.Request.Context()

	history, err := h.sessionRepo.GetHistory(ctx, sessionID)
	if err != nil {
		log.Errorf("[PageHandler] 读取会话历史失败, sessionID: %s, error: %v", sessionID, err)
		history = []model.Turn{}
	}

	var view PageView
	if query == "" {
		view = PageView{Outcome: OutcomeUnchanged, History: history}
	} else {
		view = h.answer(ctx, sessionID, query, history)
	}
	c.HTML(http.StatusOK, "index.html", view)
}

// About 渲染关于页面。
func (h *PageHandler) About(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", nil)
}

// Explore 渲染示例查询页面。
func (h *PageHandler) Explore(c *gin.Context) {
	c.HTML(http.StatusOK, "explore.html", nil)
}

func (h *PageHandler) fresh(ctx context.Context, sessionID string) PageView {
	if err := h.sessionRepo.ClearHistory(ctx, sessionID); err != nil {
		log.Errorf("[PageHandler] 清空会话历史失败, sessionID: %s, error: %v", sessionID, err)
	}
	return PageView{Outcome: OutcomeFresh, History: []model.Turn{}}
}

func (h *PageHandler) answer(ctx context.Context, sessionID, query string, history []model.Turn) PageView {
	log.Infof("[PageHandler] 收到查询, sessionID: %s, query: %s, 历史消息数: %d", sessionID, query, len(history))
	reply, hits := h.chatService.Answer(ctx, query, history)

	turns := []model.Turn{model.UserTurn(query), model.AssistantTurn(reply)}
	stored, err := h.sessionRepo.AppendTurns(ctx, sessionID, turns...)
	if err != nil {
		// 存储不可用时按本次请求内存中的历史渲染
		log.Errorf("[PageHandler] 保存会话历史失败, sessionID: %s, error: %v", sessionID, err)
		stored = make([]model.Turn, 0, len(history)+len(turns))
		stored = append(stored, history...)
		stored = append(stored, turns...)
	}
	return PageView{Outcome: OutcomeAnswered, History: stored, Hits: hits}
}
