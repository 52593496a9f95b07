package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-user-service/internal/core/cache"
	"go-user-service/internal/service"
	"go-user-service/internal/transport/http/httpez"
	mdw "go-user-service/internal/transport/http/middleware"
)

const avatarCacheTTL = 5 * time.Minute

// UserHandler 账号生命周期 + 头像接口。实现 router.APIModule
type UserHandler struct {
	svc   *service.UserService
	cache *cache.Cache // 可为 nil（未配置 redis 时直连 DB）
	log   *zap.Logger
}

func NewUserHandler(svc *service.UserService, c *cache.Cache, l *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, cache: c, log: l}
}

// MountAPI 挂载 /users 下的全部路由；鉴权接口走自建的 bearer 子分组
func (h *UserHandler) MountAPI(root *gin.RouterGroup) {
	users := root.Group("/users")
	authed := users.Group("")
	authed.Use(mdw.AuthBearer(h.svc))

	// --- 公共接口 ---

	type signupIn struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	httpez.Register(users, httpez.Action[signupIn, gin.H]{
		Method: http.MethodPost,
		Path:   "",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *signupIn) (gin.H, error) {
			u, token, err := h.svc.Signup(in.Name, in.Email, in.Password)
			if err != nil {
				return nil, err
			}
			h.log.Info("user signed up", zap.String("uid", u.ID))
			return gin.H{"user": u.Public(), "token": token}, nil
		},
	})

	type loginIn struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	httpez.Register(users, httpez.Action[loginIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (gin.H, error) {
			u, token, err := h.svc.Login(in.Email, in.Password)
			if err != nil {
				// 登录失败统一 400，不区分用户不存在/密码错误
				if service.IsAuthentication(err) {
					return nil, httpez.BadRequest(err.Error())
				}
				return nil, err
			}
			return gin.H{"user": u.Public(), "token": token}, nil
		},
	})

	// 公共头像读取；配置了 redis 则走读穿缓存
	users.GET("/:id/avatar", h.serveAvatar)

	// --- 鉴权接口 ---

	httpez.Register(authed, httpez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			return gin.H{"user": mdw.CurrentUser(c).Public()}, nil
		},
	})

	httpez.Register(authed, httpez.Action[map[string]any, gin.H]{
		Method: http.MethodPatch,
		Path:   "/me",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *map[string]any) (gin.H, error) {
			u, err := h.svc.Update(mdw.CurrentUser(c), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"user": u.Public()}, nil
		},
	})

	httpez.Register(authed, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u := mdw.CurrentUser(c)
			if err := h.svc.Delete(u.ID); err != nil {
				return nil, err
			}
			h.invalidateAvatar(c, u.ID)
			h.log.Info("user deleted", zap.String("uid", u.ID))
			return gin.H{"user": u.Public()}, nil
		},
	})

	httpez.Register(authed, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/logout",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u := mdw.CurrentUser(c)
			if err := h.svc.Logout(u.ID, mdw.CurrentToken(c)); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})

	httpez.Register(authed, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/logoutAll",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := h.svc.LogoutAll(mdw.CurrentUser(c).ID); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})

	httpez.RegisterFile(authed, "/me/avatar", "avatar", func(c *gin.Context, fh *multipart.FileHeader) error {
		u := mdw.CurrentUser(c)
		data, err := httpez.ReadFile(fh)
		if err != nil {
			return httpez.BadRequest("unreadable upload")
		}
		if err := h.svc.SetAvatar(u.ID, fh.Filename, data); err != nil {
			return err
		}
		h.invalidateAvatar(c, u.ID)
		return nil
	})

	httpez.Register(authed, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/me/avatar",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u := mdw.CurrentUser(c)
			if err := h.svc.ClearAvatar(u.ID); err != nil {
				return nil, err
			}
			h.invalidateAvatar(c, u.ID)
			return gin.H{}, nil
		},
	})
}

type avatarBlob struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

func (h *UserHandler) serveAvatar(c *gin.Context) {
	blob, err := h.loadAvatar(c, c.Param("id"))
	if err != nil {
		httpez.WriteError(c, err)
		return
	}
	if blob == nil || len(blob.Data) == 0 {
		httpez.WriteError(c, httpez.NotFound("avatar not found"))
		return
	}
	ct := blob.Type
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Data(http.StatusOK, ct, blob.Data)
}

func (h *UserHandler) loadAvatar(c *gin.Context, id string) (*avatarBlob, error) {
	fromDB := func() (*avatarBlob, error) {
		data, ct, err := h.svc.Avatar(id)
		if err != nil {
			return nil, err
		}
		if data == nil {
			return nil, nil
		}
		return &avatarBlob{Type: ct, Data: data}, nil
	}
	if h.cache == nil {
		return fromDB()
	}
	return cache.GetOrLoadJSON(h.cache, c.Request.Context(), avatarKey(id), avatarCacheTTL,
		func(context.Context) (*avatarBlob, error) { return fromDB() })
}

func (h *UserHandler) invalidateAvatar(c *gin.Context, id string) {
	if h.cache != nil {
		h.cache.Invalidate(c.Request.Context(), avatarKey(id))
	}
}

func avatarKey(id string) string { return "avatar:" + id }
