package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-user-service/internal/domain"
	"go-user-service/internal/service"
	resp "go-user-service/internal/transport/http/response"
)

const (
	CtxUser  = "authUser"
	CtxToken = "authToken"
)

// AuthBearer 解析 Authorization: Bearer，并要求令牌仍在用户的令牌集合里。
// 通过后把用户与本次令牌放进 context，供 /me、logout 等 handler 使用
func AuthBearer(svc *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.AbortErr(c, http.StatusUnauthorized, "please authenticate")
			return
		}
		token := strings.TrimPrefix(ah, "Bearer ")
		u, err := svc.Authenticate(token)
		if err != nil {
			resp.AbortErr(c, http.StatusUnauthorized, "please authenticate")
			return
		}
		c.Set(CtxUser, u)
		c.Set(CtxToken, token)
		c.Next()
	}
}

// CurrentUser 取鉴权中间件放入的用户；必须挂在 AuthBearer 之后
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func CurrentToken(c *gin.Context) string { return c.GetString(CtxToken) }
