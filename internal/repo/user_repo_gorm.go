package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-user-service/internal/domain"
	"go-user-service/pkg/utils"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(u *domain.User) error { return r.db.Create(u).Error }

func (r *UserRepo) FindByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByIDWithTokens(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Preload("Tokens").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

// Update 只写资料字段，避免把令牌/头像关联一并回写
func (r *UserRepo) Update(u *domain.User) error {
	return r.db.Model(&domain.User{}).Where("id = ?", u.ID).
		Updates(map[string]any{
			"name":          u.Name,
			"email":         u.Email,
			"password_hash": u.PasswordHash,
		}).Error
}

// Delete 硬删除用户并级联清令牌；不依赖外键定义，显式删子表
func (r *UserRepo) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.AuthToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.User{}).Error
	})
}

func (r *UserRepo) AddToken(userID, token string) error {
	return r.db.Create(&domain.AuthToken{
		ID:     utils.NewID(),
		UserID: userID,
		Token:  token,
	}).Error
}

func (r *UserRepo) RemoveToken(userID, token string) error {
	return r.db.Where("user_id = ? AND token = ?", userID, token).
		Delete(&domain.AuthToken{}).Error
}

func (r *UserRepo) RemoveAllTokens(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&domain.AuthToken{}).Error
}

func (r *UserRepo) SetAvatar(userID string, data []byte, contentType string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Updates(map[string]any{"avatar": data, "avatar_type": contentType}).Error
}

func (r *UserRepo) ClearAvatar(userID string) error {
	return r.SetAvatar(userID, nil, "")
}

// IsDupKey 唯一键冲突判定（并发注册时兜底用），不依赖具体驱动错误类型
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
