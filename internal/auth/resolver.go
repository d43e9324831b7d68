package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/storage"
)

// HashAPIKey 计算 API Key 的单向哈希
//
// 存储和查找都只使用哈希，原始密钥不落库也不参与比较
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// APIKeyResolver 解析请求携带的 API Key 并产出身份
type APIKeyResolver struct {
	store storage.CredentialStore
	clock clock.Clock
	grace time.Duration
	log   *zap.Logger
}

// NewAPIKeyResolver 创建 API Key 解析器
//
// 参数:
//   - grace: 轮换后旧密钥的宽限期
func NewAPIKeyResolver(store storage.CredentialStore, clk clock.Clock, grace time.Duration, log *zap.Logger) *APIKeyResolver {
	return &APIKeyResolver{
		store: store,
		clock: clk,
		grace: grace,
		log:   log,
	}
}

// Resolve 验证密钥并返回所有者身份
//
// 判定顺序：
//  1. 哈希查找不到 → ErrUnknownKey
//  2. 已过自然过期时间 → ErrExpiredKey（永久失效，不享受宽限）
//  3. 未禁用 → 有效，身份为所有者及其角色
//  4. 已禁用且为轮换产生的旧密钥（superseded_by 已设置）且
//     rotated_at 距今不超过宽限期 → 仍然有效，给在途客户端留出切换时间
//  5. 其余禁用情况 → ErrRevokedKey（软吊销，记录仍然保留）
func (r *APIKeyResolver) Resolve(ctx context.Context, presented string) (*domain.Identity, error) {
	hash := HashAPIKey(presented)

	record, err := r.store.FindAPIKeyByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownKey
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := r.clock.Now()

	if record.Expired(now) {
		return nil, ErrExpiredKey
	}

	if record.Disabled {
		if !record.InGrace(now, r.grace) {
			return nil, ErrRevokedKey
		}
		r.log.Info("accepted rotated api key within grace window",
			zap.String("key_id", record.ID),
			zap.Timep("rotated_at", record.RotatedAt),
		)
	}

	roleLevel, err := r.store.FindUserRole(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// 密钥指向的用户已不存在，等同于密钥无效
			return nil, ErrUnknownKey
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &domain.Identity{
		SubjectID: record.UserID,
		RoleLevel: roleLevel,
		Method:    domain.AuthMethodAPIKey,
	}, nil
}
