package auth

import (
	"net/http"
	"strings"

	"todoapi/backend/internal/config"
	"todoapi/backend/internal/domain"
)

// Extractor 从请求中提取归一化凭证
//
// 提取规则（按优先级）：
//  1. 专用 API Key 头存在时优先，忽略 Bearer 和 Cookie
//  2. 仅 Cookie 模式下只检查配置的 Cookie（浏览器客户端不向脚本暴露令牌）
//  3. 否则先查 Authorization 头，再查 Cookie（若允许 Cookie 认证）
//
// 找不到凭证本身不是错误，由认证器根据路由要求决定如何处理。
type Extractor struct {
	apiKeyHeader    string
	cookieName      string
	allowCookieAuth bool
	forceCookieAuth bool
}

// NewExtractor 创建凭证提取器
func NewExtractor(jwtCfg config.JWTConfig, apiKeyCfg config.APIKeyConfig) *Extractor {
	return &Extractor{
		apiKeyHeader:    apiKeyCfg.Header,
		cookieName:      jwtCfg.CookieName,
		allowCookieAuth: jwtCfg.AllowCookieAuth,
		forceCookieAuth: jwtCfg.ForceCookieAuth,
	}
}

// Extract 从请求中提取一个凭证候选
func (e *Extractor) Extract(r *http.Request) domain.Credential {
	if key := r.Header.Get(e.apiKeyHeader); key != "" {
		return domain.Credential{Kind: domain.CredentialAPIKey, Value: key}
	}

	if e.forceCookieAuth {
		if token := e.tokenFromCookie(r); token != "" {
			return domain.Credential{Kind: domain.CredentialCookie, Value: token}
		}
		return domain.Credential{Kind: domain.CredentialNone}
	}

	if token := e.tokenFromHeader(r); token != "" {
		return domain.Credential{Kind: domain.CredentialBearer, Value: token}
	}

	if e.allowCookieAuth {
		if token := e.tokenFromCookie(r); token != "" {
			return domain.Credential{Kind: domain.CredentialCookie, Value: token}
		}
	}

	return domain.Credential{Kind: domain.CredentialNone}
}

// tokenFromHeader 从 Authorization 头提取 Bearer 令牌
func (e *Extractor) tokenFromHeader(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// tokenFromCookie 从配置的 Cookie 提取令牌
func (e *Extractor) tokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(e.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
