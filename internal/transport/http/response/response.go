package response

import "github.com/gin-gonic/gin"

// Body 统一错误响应体：{"error": "..."}
type Body struct {
	Error string `json:"error"`
}

func Err(c *gin.Context, status int, msg string) {
	c.JSON(status, Body{Error: msg})
}

// AbortErr 中间件里用：写错误体并终止后续 handler
func AbortErr(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Body{Error: msg})
}
