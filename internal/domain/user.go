package domain

import "time"

// User 账号主档。密码只存哈希；头像与令牌不参与 JSON 序列化
type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Email        string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string `gorm:"size:64;not null" json:"name"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`

	Avatar     []byte `json:"-"`
	AvatarType string `gorm:"size:64" json:"-"`

	Tokens []AuthToken `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// AuthToken 用户已签发的会话令牌，登录追加、登出逐个吊销
type AuthToken struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"index;size:36;not null"`
	Token     string    `gorm:"uniqueIndex;size:512;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuthToken) TableName() string { return "auth_tokens" }

// Public 对外可见字段（响应里排除密码、令牌、头像）
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Public() Public {
	return Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// HasToken 判断令牌是否仍在该用户的令牌集合里
func (u *User) HasToken(token string) bool {
	for i := range u.Tokens {
		if u.Tokens[i].Token == token {
			return true
		}
	}
	return false
}

type UserRepository interface {
	Create(u *User) error
	FindByID(id string) (*User, error)
	FindByEmail(email string) (*User, error)
	// FindByIDWithTokens 带令牌集合加载，鉴权用
	FindByIDWithTokens(id string) (*User, error)
	// Update 持久化资料字段（name/email/password_hash）
	Update(u *User) error
	// Delete 硬删除，级联清掉令牌（头像随行内字段一并消失）
	Delete(id string) error

	AddToken(userID, token string) error
	RemoveToken(userID, token string) error
	RemoveAllTokens(userID string) error

	SetAvatar(userID string, data []byte, contentType string) error
	ClearAvatar(userID string) error
}
