package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todoapi/backend/internal/config"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/service"
)

// AuthHandler 登录注册相关处理器
type AuthHandler struct {
	auth   *service.AuthService
	users  *service.UserService
	jwtCfg config.JWTConfig
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(auth *service.AuthService, users *service.UserService, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		users:  users,
		jwtCfg: jwtCfg,
	}
}

// loginRequest 登录请求体
type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// loginResponse 登录响应体
type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"` // 秒
	User        *domain.User `json:"user"`
}

// Login 处理登录请求
//
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "邮箱或密码格式不正确")
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrUserInactive) {
			// 统一返回 401，不区分用户不存在、密码错误和已停用
			Fail(c, http.StatusUnauthorized, CodeUnauthorized, "邮箱或密码错误")
			return
		}
		InternalError(c)
		return
	}

	// 允许 Cookie 认证时同时下发 HttpOnly Cookie，浏览器端不需要接触令牌
	if h.jwtCfg.AllowCookieAuth {
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(h.jwtCfg.CookieName, token, int(h.jwtCfg.AccessExpiry.Seconds()), "/", "", true, true)
	}

	Success(c, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.jwtCfg.AccessExpiry.Seconds()),
		User:        user,
	})
}

// registerRequest 注册请求体
type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register 处理注册请求
//
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "注册参数不正确")
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), service.CreateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		RoleLevel: domain.RoleLevelUser,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			Conflict(c, "邮箱已被注册")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	Created(c, user)
}

// Logout 处理登出请求（清除认证 Cookie）
//
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.jwtCfg.AllowCookieAuth {
		c.SetCookie(h.jwtCfg.CookieName, "", -1, "/", "", true, true)
	}
	Success(c, nil)
}
