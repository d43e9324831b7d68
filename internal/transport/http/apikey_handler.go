package httptransport

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"todoapi/backend/internal/config"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/middleware"
	"todoapi/backend/internal/service"
)

// APIKeyHandler API Key 管理处理器
type APIKeyHandler struct {
	apiKeys *service.APIKeyService
	cfg     config.APIKeyConfig
}

// NewAPIKeyHandler 创建 API Key 处理器
func NewAPIKeyHandler(apiKeys *service.APIKeyService, cfg config.APIKeyConfig) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeys: apiKeys,
		cfg:     cfg,
	}
}

// createAPIKeyRequest 创建 API Key 的请求体
type createAPIKeyRequest struct {
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// apiKeyCreatedResponse 创建/轮换的响应体
//
// Key 字段是密钥原文，只在这一次响应中出现
type apiKeyCreatedResponse struct {
	ID          string     `json:"id"`
	Key         string     `json:"key"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Create 创建新的 API Key
//
// POST /apikeys
func (h *APIKeyHandler) Create(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数不正确")
		return
	}

	key, raw, err := h.apiKeys.CreateAPIKey(c.Request.Context(), service.CreateAPIKeyInput{
		UserID:      identity.SubjectID,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	Created(c, apiKeyCreatedResponse{
		ID:          key.ID,
		Key:         raw,
		Description: key.Description,
		CreatedAt:   key.CreatedAt,
		ExpiresAt:   key.ExpiresAt,
	})
}

// List 列出当前用户的 API Key（不返回哈希）
//
// GET /apikeys
func (h *APIKeyHandler) List(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	keys, err := h.apiKeys.ListAPIKeys(c.Request.Context(), identity.SubjectID)
	if err != nil {
		InternalError(c)
		return
	}
	if keys == nil {
		keys = []domain.APIKey{}
	}
	Success(c, keys)
}

// rotateAPIKeyRequest 轮换请求体
type rotateAPIKeyRequest struct {
	Description string `json:"description"`
}

// rotateAPIKeyResponse 轮换响应体
type rotateAPIKeyResponse struct {
	apiKeyCreatedResponse
	RotationInfo struct {
		OriginalKey string    `json:"originalKey"`
		RotatedAt   time.Time `json:"rotatedAt"`
		GraceUntil  time.Time `json:"graceUntil"`
	} `json:"rotationInfo"`
}

// Rotate 轮换一个 API Key
//
// POST /apikeys/:id/rotate
//
// 旧密钥在宽限期内仍然可用，宽限期结束后只有新密钥有效
func (h *APIKeyHandler) Rotate(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	keyID := c.Param("id")

	var req rotateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, "请求参数不正确")
		return
	}

	result, err := h.apiKeys.RotateAPIKey(c.Request.Context(), identity.SubjectID, keyID, req.Description, h.cfg.GraceWindow)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAPIKeyNotFound):
			NotFound(c, "API Key 不存在")
		case errors.Is(err, service.ErrAPIKeyDisabled):
			Conflict(c, "API Key 已被禁用")
		default:
			InternalError(c)
		}
		return
	}

	resp := rotateAPIKeyResponse{
		apiKeyCreatedResponse: apiKeyCreatedResponse{
			ID:          result.NewKey.ID,
			Key:         result.RawKey,
			Description: result.NewKey.Description,
			CreatedAt:   result.NewKey.CreatedAt,
			ExpiresAt:   result.NewKey.ExpiresAt,
		},
	}
	resp.RotationInfo.OriginalKey = result.OldKeyID
	resp.RotationInfo.RotatedAt = result.RotatedAt
	resp.RotationInfo.GraceUntil = result.GraceUntil

	Success(c, resp)
}

// Delete 禁用一个 API Key（立即生效，没有宽限期）
//
// DELETE /apikeys/:id
func (h *APIKeyHandler) Delete(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	keyID := c.Param("id")

	if err := h.apiKeys.DisableAPIKey(c.Request.Context(), identity.SubjectID, keyID); err != nil {
		if errors.Is(err, service.ErrAPIKeyNotFound) {
			NotFound(c, "API Key 不存在")
			return
		}
		InternalError(c)
		return
	}
	NoContent(c)
}
