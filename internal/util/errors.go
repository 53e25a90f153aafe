package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrJourneyNotFound    = errors.New("journey not found")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrJourneyQuotaUsed   = errors.New("free journey quota exhausted")
	ErrInvalidTopic       = errors.New("topic is empty or a placeholder")
	ErrJourneyInProgress  = errors.New("journey is already being processed")
)
