package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword 生成 bcrypt 哈希；明文永不落库
func HashPassword(pw string) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b)
}

// CheckPassword 校验明文与哈希是否匹配
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
