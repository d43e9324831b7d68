package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"todoapi/backend/internal/auth"
	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/storage"
)

var (
	// ErrInvalidCredentials 邮箱或密码不正确
	//
	// 用户不存在和密码错误返回同一个错误，不给凭证猜测提供线索
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserInactive 用户已被停用
	ErrUserInactive = errors.New("user is inactive")
)

// AuthService 登录与令牌签发服务
type AuthService struct {
	store storage.Store
	codec *auth.TokenCodec
	clock clock.Clock
	log   *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(store storage.Store, codec *auth.TokenCodec, clk clock.Clock, log *zap.Logger) *AuthService {
	return &AuthService{
		store: store,
		codec: codec,
		clock: clk,
		log:   log,
	}
}

// Login 校验邮箱密码并签发访问令牌
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// 仍然执行一次哈希比较，拉平存在与不存在用户的响应时间
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login failed", zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", nil, ErrUserInactive
	}

	token, err := s.codec.Sign(user.ID, user.RoleLevel)
	if err != nil {
		return "", nil, err
	}

	now := s.clock.Now()
	user.LastLoginAt = &now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// 登录时间更新失败不影响登录本身
		s.log.Warn("failed to update last login time", zap.Error(err))
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return token, user, nil
}
