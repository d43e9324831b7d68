package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todoapi/backend/internal/auth"
	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/storage"
)

var (
	// ErrAPIKeyNotFound API Key 不存在或不属于当前用户
	ErrAPIKeyNotFound = errors.New("api key not found")
	// ErrAPIKeyDisabled API Key 已被禁用，不能再轮换
	ErrAPIKeyDisabled = errors.New("api key already disabled")
)

// APIKeyService API Key 业务逻辑服务
type APIKeyService struct {
	store      storage.Store
	clock      clock.Clock
	defaultTTL time.Duration
	log        *zap.Logger
}

// NewAPIKeyService 创建 API Key 服务
func NewAPIKeyService(store storage.Store, clk clock.Clock, defaultTTL time.Duration, log *zap.Logger) *APIKeyService {
	return &APIKeyService{
		store:      store,
		clock:      clk,
		defaultTTL: defaultTTL,
		log:        log,
	}
}

// CreateAPIKeyInput 创建 API Key 的输入参数
type CreateAPIKeyInput struct {
	UserID      string
	Description string
	ExpiresAt   *time.Time // 过期时间（可选，默认取配置的 TTL）
}

// CreateAPIKey 创建新的 API Key
//
// 返回值中的原始密钥只在这里出现一次，之后系统只保留哈希，
// 无法再次取回
func (s *APIKeyService) CreateAPIKey(ctx context.Context, input CreateAPIKeyInput) (*domain.APIKey, string, error) {
	if _, err := s.store.GetUserByID(ctx, input.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", errors.New("user not found")
		}
		return nil, "", err
	}

	raw, err := generateAPIKey()
	if err != nil {
		return nil, "", err
	}

	now := s.clock.Now()
	expiresAt := input.ExpiresAt
	if expiresAt == nil {
		t := now.Add(s.defaultTTL)
		expiresAt = &t
	}
	if !expiresAt.After(now) {
		return nil, "", errors.New("expiration must be in the future")
	}

	key := &domain.APIKey{
		ID:           uuid.New().String(),
		KeyHash:      auth.HashAPIKey(raw),
		UserID:       input.UserID,
		Description:  input.Description,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		AccessRead:   true,
		AccessModify: false,
	}

	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, "", err
	}

	s.log.Info("api key created",
		zap.String("key_id", key.ID),
		zap.String("user_id", input.UserID),
	)

	return key, raw, nil
}

// ListAPIKeys 列出用户的全部 API Key（不含哈希）
func (s *APIKeyService) ListAPIKeys(ctx context.Context, userID string) ([]domain.APIKey, error) {
	return s.store.ListAPIKeysByUser(ctx, userID)
}

// RotationResult 轮换结果
type RotationResult struct {
	NewKey     *domain.APIKey
	RawKey     string // 新密钥原文，只返回这一次
	OldKeyID   string
	RotatedAt  time.Time
	GraceUntil time.Time // 旧密钥失效时间
}

// RotateAPIKey 轮换一个 API Key
//
// 对凭证存储是单个原子操作：禁用旧记录、写入 rotated_at、
// 插入同所有者同访问位的新记录并通过 superseded_by 关联。
// 之后的 24 小时内（配置的宽限期）新旧密钥都可用，
// 给在途客户端留出切换时间。
func (s *APIKeyService) RotateAPIKey(ctx context.Context, userID, keyID, description string, grace time.Duration) (*RotationResult, error) {
	old, err := s.store.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	if old.UserID != userID {
		return nil, ErrAPIKeyNotFound
	}
	if old.Disabled {
		return nil, ErrAPIKeyDisabled
	}

	raw, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if description == "" {
		description = fmt.Sprintf("Rotated from key %s - %s", old.ID, now.Format("2006-01-02"))
	}

	expiresAt := now.Add(s.defaultTTL)
	newKey := &domain.APIKey{
		ID:           uuid.New().String(),
		KeyHash:      auth.HashAPIKey(raw),
		UserID:       old.UserID,
		Description:  description,
		CreatedAt:    now,
		ExpiresAt:    &expiresAt,
		AccessRead:   old.AccessRead,
		AccessModify: old.AccessModify,
	}

	if err := s.store.RotateAPIKey(ctx, old.ID, now, newKey); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}

	s.log.Info("api key rotated",
		zap.String("old_key_id", old.ID),
		zap.String("new_key_id", newKey.ID),
		zap.String("user_id", userID),
	)

	return &RotationResult{
		NewKey:     newKey,
		RawKey:     raw,
		OldKeyID:   old.ID,
		RotatedAt:  now,
		GraceUntil: now.Add(grace),
	}, nil
}

// DisableAPIKey 直接禁用密钥
//
// 管理员或所有者主动禁用走这条路径：不设置轮换字段，
// 因此密钥立即失效，没有宽限期
func (s *APIKeyService) DisableAPIKey(ctx context.Context, userID, keyID string) error {
	if err := s.store.DisableAPIKey(ctx, keyID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAPIKeyNotFound
		}
		return err
	}

	s.log.Info("api key disabled",
		zap.String("key_id", keyID),
		zap.String("user_id", userID),
	)
	return nil
}

// generateAPIKey 生成随机密钥
//
// 格式为 5 组 8 位十六进制字符，组间以连字符分隔
func generateAPIKey() (string, error) {
	groups := make([]string, 5)
	for i := range groups {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate api key: %w", err)
		}
		groups[i] = hex.EncodeToString(buf)
	}
	return strings.Join(groups, "-"), nil
}
