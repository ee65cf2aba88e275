package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fashion-muse-go/pkg/log"
	"fashion-muse-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newSessionRouter(m *token.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), SessionMiddleware(m, SessionOptions{CookieName: "sid", MaxAge: 3600}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionID(c)) })
	r.GET("/json", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"sid": SessionID(c)}) })
	r.GET("/fail", func(c *gin.Context) { c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"}) })
	return r
}

func TestSessionMiddleware_IssuesAndReuses(t *testing.T) {
	m := token.NewJWTManager("secret", time.Hour)
	r := newSessionRouter(m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	sid := w.Body.String()
	require.NotEmpty(t, sid)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, sid, w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestSessionMiddleware_RejectsForeignToken(t *testing.T) {
	foreign, err := token.NewJWTManager("other", time.Hour).GenerateSessionToken("stolen")
	require.NoError(t, err)
	r := newSessionRouter(token.NewJWTManager("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: foreign})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "stolen", w.Body.String())
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	r := newSessionRouter(token.NewJWTManager("secret", time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/json?query=gown", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sid"`)
}

func TestRequestLogger_ServerError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log.SetLogger(zap.New(core))
	t.Cleanup(func() { log.SetLogger(zap.NewNop()) })
	r := newSessionRouter(token.NewJWTManager("secret", time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/json", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("HTTP Request Log").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
}
