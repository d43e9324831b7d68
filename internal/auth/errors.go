package auth

import "errors"

// 令牌验证错误
//
// 每种失败原因是独立的错误值，认证器在对外折叠为 ErrUnauthenticated
// 之前会按原因记录日志，便于运维区分时钟偏移和篡改。
var (
	// ErrInvalidToken 令牌格式错误或无法解析
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidSignature 签名校验失败
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired 令牌已过期
	ErrTokenExpired = errors.New("token expired")
	// ErrIssuerMismatch 签发者与配置不符
	ErrIssuerMismatch = errors.New("token issuer mismatch")
	// ErrAudienceMismatch 受众与配置不符
	ErrAudienceMismatch = errors.New("token audience mismatch")
)

// API Key 验证错误
var (
	// ErrUnknownKey 哈希查找不到对应记录
	ErrUnknownKey = errors.New("unknown api key")
	// ErrExpiredKey 密钥已过自然过期时间，永久失效
	ErrExpiredKey = errors.New("api key expired")
	// ErrRevokedKey 密钥已被吊销（禁用且不在宽限期内）
	ErrRevokedKey = errors.New("api key revoked")
)

// 管道对外错误
var (
	// ErrUnauthenticated 所有认证失败对外折叠为这一种，
	// 避免向调用方泄露失败的具体凭证类型和原因
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden 身份有效但角色不在路由允许的集合内
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable 凭证存储不可达，按 5xx 处理而非 401，
	// 让运维能区分"攻击者"和"故障"
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
