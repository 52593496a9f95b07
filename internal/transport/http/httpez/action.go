package httpez

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-user-service/internal/service"
	resp "go-user-service/internal/transport/http/response"
)

// AErr 带 HTTP 状态的业务错误
type AErr struct {
	Status int
	Msg    string
	Err    error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Status: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Status: http.StatusUnauthorized, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Status: http.StatusNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Status: http.StatusInternalServerError, Msg: msg, Err: err}
}

// WriteError 统一错误映射：AErr 按自带状态；校验错 400；鉴权错 401；其余 500
func WriteError(c *gin.Context, err error) {
	var ae *AErr
	switch {
	case errors.As(err, &ae):
		resp.Err(c, ae.Status, ae.Error())
	case service.IsValidation(err):
		resp.Err(c, http.StatusBadRequest, err.Error())
	case service.IsAuthentication(err):
		resp.Err(c, http.StatusUnauthorized, err.Error())
	default:
		resp.Err(c, http.StatusInternalServerError, "internal error")
	}
}

// 绑定方式
type Binder string

const (
	BindJSON Binder = "json" // 从 JSON body 绑定
	BindNone Binder = "none" // 不绑定，handler 自己从 c 里取
)

// Action I 入参 O 出参；一行注册一个非 CRUD 接口
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Status  int // 成功状态码，默认 200
	Handler func(c *gin.Context, in *I) (O, error)
}

func Register[I any, O any](g *gin.RouterGroup, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		if a.Binder == BindJSON {
			if err := c.ShouldBindJSON(&in); err != nil {
				resp.Err(c, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			WriteError(c, err)
			return
		}

		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		g.GET(a.Path, h)
	case http.MethodPatch:
		g.PATCH(a.Path, h)
	case http.MethodPut:
		g.PUT(a.Path, h)
	case http.MethodDelete:
		g.DELETE(a.Path, h)
	default:
		g.POST(a.Path, h)
	}
}

// RegisterFile multipart/form-data 单文件上传接口
func RegisterFile(g *gin.RouterGroup, path, field string, h func(c *gin.Context, fh *multipart.FileHeader) error) {
	g.POST(path, func(c *gin.Context) {
		fh, err := c.FormFile(field)
		if err != nil {
			resp.Err(c, http.StatusBadRequest, "missing file field "+field)
			return
		}
		if err := h(c, fh); err != nil {
			WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{})
	})
}

// ReadFile 把上传文件整块读入内存（头像这种小文件够用）
func ReadFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
