package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const passwordMinLen = 7

// NormalizeEmail 统一小写 + 去空白，入库与查询前都要走这里
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkName(name string) error {
	if err := validate.Var(name, "required,max=64"); err != nil {
		return Invalid("name is required and must be at most 64 characters")
	}
	return nil
}

func checkEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return Invalid("email is invalid")
	}
	return nil
}

func checkPassword(pw string) error {
	if len(pw) < passwordMinLen {
		return Invalid("password must be at least 7 characters")
	}
	if strings.Contains(strings.ToLower(pw), "password") {
		return Invalid(`password cannot contain "password"`)
	}
	return nil
}
