package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-user-service/internal/core/server"
	mdw "go-user-service/internal/transport/http/middleware"
)

// NewAPIEngine 组装引擎：通用中间件链 + 运维端点 + 已注册的业务模块。
// 路由直接挂在根上（POST /users、GET /users/me 等）
func NewAPIEngine(l *zap.Logger) *gin.Engine {
	r := server.NewEngine(l)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	MountAllAPI(r.Group(""))

	return r
}
