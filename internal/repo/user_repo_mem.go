package repo

import (
	"errors"
	"sync"
	"time"

	"go-user-service/internal/domain"
	"go-user-service/pkg/utils"
)

// Memory 内存版 UserRepository，测试与本地联调用；语义对齐 gorm 版：
// 不带 Preload 的查询不加载令牌集合，邮箱唯一冲突返回 duplicate 错误
type Memory struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

var _ domain.UserRepository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{users: make(map[string]*domain.User)}
}

var errDuplicateEmail = errors.New("duplicate key: users.email")

func (m *Memory) Create(u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.Email == u.Email {
			return errDuplicateEmail
		}
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) FindByID(id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(m.users[id], false), nil
}

func (m *Memory) FindByEmail(email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return m.snapshot(u, false), nil
		}
	}
	return nil, nil
}

func (m *Memory) FindByIDWithTokens(id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(m.users[id], true), nil
}

func (m *Memory) Update(u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return errors.New("user not found")
	}
	for id, e := range m.users {
		if id != u.ID && e.Email == u.Email {
			return errDuplicateEmail
		}
	}
	cur.Name = u.Name
	cur.Email = u.Email
	cur.PasswordHash = u.PasswordHash
	cur.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *Memory) AddToken(userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.Tokens = append(u.Tokens, domain.AuthToken{
		ID:        utils.NewID(),
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *Memory) RemoveToken(userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

func (m *Memory) RemoveAllTokens(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Tokens = nil
	}
	return nil
}

func (m *Memory) SetAvatar(userID string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.Avatar = append([]byte(nil), data...)
	u.AvatarType = contentType
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) ClearAvatar(userID string) error {
	return m.SetAvatar(userID, nil, "")
}

func (m *Memory) snapshot(u *domain.User, withTokens bool) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Tokens = nil
	if withTokens {
		cp.Tokens = append([]domain.AuthToken(nil), u.Tokens...)
	}
	cp.Avatar = append([]byte(nil), u.Avatar...)
	return &cp
}
