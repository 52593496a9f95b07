package service

import "errors"

// ValidationError 输入不合法：格式错误、禁用字段、重复邮箱、坏头像等 → 400
type ValidationError struct{ msg string }

func (e *ValidationError) Error() string { return e.msg }

func Invalid(msg string) error { return &ValidationError{msg: msg} }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AuthenticationError 凭证/令牌无效。登录阶段映射 400，令牌鉴权阶段映射 401
type AuthenticationError struct{ msg string }

func (e *AuthenticationError) Error() string { return e.msg }

func AuthFailed(msg string) error { return &AuthenticationError{msg: msg} }

func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}
