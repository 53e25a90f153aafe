package service

import (
	"testing"
	"time"

	"journey_backend/internal/config"
	"journey_backend/internal/repository"
	"journey_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(newTestDB(t)), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestAuthService(t)

	user, err := s.Register("a@example.com", "password123", "Alice")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", user.PasswordHash)

	token, logged, err := s.Login("a@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := util.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestAuthService(t)

	_, err := s.Register("a@example.com", "password123", "Alice")
	require.NoError(t, err)

	_, err = s.Register("a@example.com", "password456", "Alice Again")
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestLoginBadCredentials(t *testing.T) {
	s := newTestAuthService(t)

	_, err := s.Register("a@example.com", "password123", "Alice")
	require.NoError(t, err)

	// 用户不存在和密码错误返回同一个错误
	_, _, err = s.Login("missing@example.com", "password123")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, _, err = s.Login("a@example.com", "wrong-password")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}
