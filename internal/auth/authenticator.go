package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"todoapi/backend/internal/domain"
)

// Authenticator 把提取到的凭证解析为统一的身份
//
// 两套凭证方案（签名令牌和不透明密钥）在这里汇合，
// 通过授权门之后的代码只看到 Identity，不再区分认证方式。
// 除存储故障外，所有失败对调用方都表现为 ErrUnauthenticated，
// 具体原因只进日志，不泄露给客户端。
type Authenticator struct {
	codec    *TokenCodec
	resolver *APIKeyResolver
	log      *zap.Logger
}

// NewAuthenticator 创建认证器
func NewAuthenticator(codec *TokenCodec, resolver *APIKeyResolver, log *zap.Logger) *Authenticator {
	return &Authenticator{
		codec:    codec,
		resolver: resolver,
		log:      log,
	}
}

// Authenticate 按凭证类型走状态机，产出身份或认证错误
//
// 参数:
//   - cred: 提取器产出的凭证候选
//   - requireAuth: 路由是否要求认证；不要求时无凭证的请求
//     以匿名身份（角色级别 0）继续
func (a *Authenticator) Authenticate(ctx context.Context, cred domain.Credential, requireAuth bool) (*domain.Identity, error) {
	switch cred.Kind {
	case domain.CredentialNone:
		if requireAuth {
			return nil, ErrUnauthenticated
		}
		return &domain.Identity{
			RoleLevel: domain.RoleLevelAnonymous,
			Method:    domain.AuthMethodAnonymous,
		}, nil

	case domain.CredentialBearer, domain.CredentialCookie:
		claims, err := a.codec.Verify(cred.Value)
		if err != nil {
			a.log.Warn("token verification failed", zap.Error(err))
			return nil, ErrUnauthenticated
		}
		return &domain.Identity{
			SubjectID: claims.Subject,
			RoleLevel: claims.RoleLevel,
			Method:    domain.AuthMethodToken,
		}, nil

	case domain.CredentialAPIKey:
		identity, err := a.resolver.Resolve(ctx, cred.Value)
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return nil, err
			}
			a.log.Warn("api key resolution failed", zap.Error(err))
			return nil, ErrUnauthenticated
		}
		return identity, nil

	default:
		return nil, ErrUnauthenticated
	}
}
