package service

import (
	"net/http"
	"path"
	"strings"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/domain"
	"go-user-service/internal/repo"
	"go-user-service/pkg/utils"
)

const DefaultAvatarMaxBytes = 1 << 20 // 1MB

type UserService struct {
	repo           domain.UserRepository
	jwter          *auth.JWTer
	avatarMaxBytes int64
}

func NewUserService(r domain.UserRepository, jwter *auth.JWTer) *UserService {
	return &UserService{repo: r, jwter: jwter, avatarMaxBytes: DefaultAvatarMaxBytes}
}

// WithAvatarLimit 覆盖头像大小上限（字节）
func (s *UserService) WithAvatarLimit(n int64) *UserService {
	if n > 0 {
		s.avatarMaxBytes = n
	}
	return s
}

// Signup 注册：校验 → 查重 → 落库（哈希密码）→ 签发首个令牌
func (s *UserService) Signup(name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if err := checkName(name); err != nil {
		return nil, "", err
	}
	if err := checkEmail(email); err != nil {
		return nil, "", err
	}
	if err := checkPassword(password); err != nil {
		return nil, "", err
	}

	if existing, err := s.repo.FindByEmail(email); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", Invalid("email already in use")
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: utils.HashPassword(password),
	}
	if err := s.repo.Create(u); err != nil {
		// 并发注册撞唯一索引：输家同样按重复邮箱处理
		if repo.IsDupKey(err) {
			return nil, "", Invalid("email already in use")
		}
		return nil, "", err
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login 登录成功则在令牌集合里追加一个新令牌；失败原因不区分，防账号探测
func (s *UserService) Login(email, password string) (*domain.User, string, error) {
	u, err := s.repo.FindByEmail(NormalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, "", AuthFailed("unable to login")
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *UserService) issueToken(uid string) (string, error) {
	token, err := s.jwter.Issue(uid)
	if err != nil {
		return "", err
	}
	if err := s.repo.AddToken(uid, token); err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate 解析 bearer 令牌并确认其仍在该用户的令牌集合中
func (s *UserService) Authenticate(token string) (*domain.User, error) {
	claims, err := s.jwter.Parse(token)
	if err != nil {
		return nil, AuthFailed("invalid token")
	}
	u, err := s.repo.FindByIDWithTokens(claims.UID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.HasToken(token) {
		return nil, AuthFailed("invalid token")
	}
	return u, nil
}

// Logout 只吊销本次请求携带的令牌，其余会话不受影响
func (s *UserService) Logout(userID, token string) error {
	return s.repo.RemoveToken(userID, token)
}

func (s *UserService) LogoutAll(userID string) error {
	return s.repo.RemoveAllTokens(userID)
}

// 可通过 PATCH 修改的字段白名单
var updatableFields = map[string]bool{"name": true, "email": true, "password": true}

// Update 全有或全无：任何未知键直接整体拒绝，不做部分写入
func (s *UserService) Update(u *domain.User, fields map[string]any) (*domain.User, error) {
	if len(fields) == 0 {
		return nil, Invalid("no updatable fields")
	}
	for k := range fields {
		if !updatableFields[k] {
			return nil, Invalid("invalid update field: " + k)
		}
	}

	str := func(k string) (string, error) {
		v, ok := fields[k].(string)
		if !ok {
			return "", Invalid(k + " must be a string")
		}
		return v, nil
	}

	if _, ok := fields["name"]; ok {
		name, err := str("name")
		if err != nil {
			return nil, err
		}
		name = strings.TrimSpace(name)
		if err := checkName(name); err != nil {
			return nil, err
		}
		u.Name = name
	}
	if _, ok := fields["email"]; ok {
		email, err := str("email")
		if err != nil {
			return nil, err
		}
		email = NormalizeEmail(email)
		if err := checkEmail(email); err != nil {
			return nil, err
		}
		if email != u.Email {
			if existing, err := s.repo.FindByEmail(email); err != nil {
				return nil, err
			} else if existing != nil {
				return nil, Invalid("email already in use")
			}
		}
		u.Email = email
	}
	if _, ok := fields["password"]; ok {
		pw, err := str("password")
		if err != nil {
			return nil, err
		}
		if err := checkPassword(pw); err != nil {
			return nil, err
		}
		u.PasswordHash = utils.HashPassword(pw)
	}

	if err := s.repo.Update(u); err != nil {
		if repo.IsDupKey(err) {
			return nil, Invalid("email already in use")
		}
		return nil, err
	}
	return u, nil
}

// Delete 硬删除账号，令牌随之级联清除
func (s *UserService) Delete(userID string) error {
	return s.repo.Delete(userID)
}

// SetAvatar 校验类型与大小后整块覆盖旧头像
func (s *UserService) SetAvatar(userID, filename string, data []byte) error {
	if int64(len(data)) > s.avatarMaxBytes {
		return Invalid("avatar too large")
	}
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return Invalid("avatar must be a jpg, jpeg or png image")
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return Invalid("avatar must be an image")
	}
	return s.repo.SetAvatar(userID, data, ct)
}

func (s *UserService) ClearAvatar(userID string) error {
	return s.repo.ClearAvatar(userID)
}

// Avatar 公共读取；无头像与无此人统一返回 nil
func (s *UserService) Avatar(userID string) ([]byte, string, error) {
	u, err := s.repo.FindByID(userID)
	if err != nil {
		return nil, "", err
	}
	if u == nil || len(u.Avatar) == 0 {
		return nil, "", nil
	}
	return u.Avatar, u.AvatarType, nil
}
