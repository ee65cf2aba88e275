package handler

import (
	"net/http"

	"fashion-muse-go/internal/middleware"
	"fashion-muse-go/pkg/token"
	"fashion-muse-go/web"

	"github.com/gin-gonic/gin"
)

// NewRouter 创建路由引擎并注册全部路由。
func NewRouter(pages *PageHandler, search *SearchHandler, conversation *ConversationHandler, jwtManager *token.JWTManager, sessionOpts middleware.SessionOptions) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))
	r.GET("/healthz", Healthz)

	session := middleware.SessionMiddleware(jwtManager, sessionOpts)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/search", search.Search)
		apiV1.GET("/conversation", session, conversation.GetConversation)
	}

	site := r.Group("/")
	site.Use(session)
	{
		site.GET("/", pages.Index)
		site.POST("/", pages.Submit)
		site.GET("/about", pages.About)
		site.GET("/explore", pages.Explore)
	}
	return r, nil
}
