package handler

import (
	"net/http"
	"strconv"
	"strings"

	"fashion-muse-go/internal/service"
	"fashion-muse-go/pkg/log"

	"github.com/gin-gonic/gin"
)

const maxSearchTopK = 50

// SearchHandler 结构体定义了搜索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
	defaultTopK   int
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService, defaultTopK int) *SearchHandler {
	if defaultTopK <= 0 {
		defaultTopK = 12
	}
	return &SearchHandler{
		searchService: searchService,
		defaultTopK:   defaultTopK,
	}
}

// Search 是处理向量搜索请求的 Gin 处理函数。
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	log.Infof("[SearchHandler] 收到搜索请求, query: %s", query)

	if query == "" {
		log.Warnf("[SearchHandler] 搜索请求失败: query 参数为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}
	topK, err := strconv.Atoi(c.DefaultQuery("topK", strconv.Itoa(h.defaultTopK)))
	if err != nil || topK <= 0 {
		topK = h.defaultTopK
	}
	if topK > maxSearchTopK {
		topK = maxSearchTopK
	}
	log.Infof("[SearchHandler] 解析参数, topK: %d", topK)

	ctx := c.Request.Context()
	results := h.searchService.Search(ctx, h.searchService.Embed(ctx, query), topK)

	log.Infof("[SearchHandler] 搜索完成, query: '%s', 返回 %d 条结果", query, len(results))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}

// Healthz 用于存活探测。
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
