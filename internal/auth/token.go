package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/config"
)

// Claims JWT 自定义声明
type Claims struct {
	RoleLevel int `json:"role_level"`
	jwt.RegisteredClaims
}

// TokenCodec 负责签发和验证 Bearer 令牌
//
// 使用对称密钥 HS256 签名。过期判断通过注入的时钟完成，
// now == expires_at 视为已过期，使边界条件可以被确定性测试。
type TokenCodec struct {
	secret   []byte
	issuer   string
	audience string
	cfg      config.JWTConfig
	clock    clock.Clock
}

// NewTokenCodec 创建令牌编解码器
func NewTokenCodec(cfg config.JWTConfig, clk clock.Clock) *TokenCodec {
	return &TokenCodec{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		cfg:      cfg,
		clock:    clk,
	}
}

// Sign 为主体签发携带角色级别的访问令牌
func (c *TokenCodec) Sign(subjectID string, roleLevel int) (string, error) {
	now := c.clock.Now()

	claims := Claims{
		RoleLevel: roleLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.AccessExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify 验证令牌并返回声明
//
// 失败时返回具体的错误种类（签名/过期/签发者/受众），
// 不在这里合并成笼统的失败，由认证器决定对外暴露什么。
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithTimeFunc(c.clock.Now),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithIssuedAt(),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrIssuerMismatch
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, ErrAudienceMismatch
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// ParseWithClaims 在声明缺少 exp 时不会报错，这里显式要求
	if claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
