package handler

import (
	"net/http"

	"fashion-muse-go/internal/middleware"
	"fashion-muse-go/internal/repository"
	"fashion-muse-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 以 JSON 形式暴露当前会话的对话历史。
type ConversationHandler struct {
	sessionRepo repository.SessionRepository
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(sessionRepo repository.SessionRepository) *ConversationHandler {
	return &ConversationHandler{sessionRepo: sessionRepo}
}

// GetConversation 处理获取当前会话对话历史的请求。
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	history, err := h.sessionRepo.GetHistory(c.Request.Context(), sessionID)
	if err != nil {
		log.Errorf("[ConversationHandler] 读取会话历史失败, sessionID: %s, error: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to retrieve conversation history",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    history,
	})
}
