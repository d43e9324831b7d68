package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"

	"todoapi/backend/internal/middleware"
	"todoapi/backend/internal/service"
)

// UserHandler 用户管理处理器（管理员路由）
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List 列出全部用户
//
// GET /users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		InternalError(c)
		return
	}
	Success(c, users)
}

// Get 查看单个用户
//
// GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			NotFound(c, "用户不存在")
			return
		}
		InternalError(c)
		return
	}
	Success(c, user)
}

// Me 查看当前登录用户
//
// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	user, err := h.users.GetUser(c.Request.Context(), identity.SubjectID)
	if err != nil {
		InternalError(c)
		return
	}
	Success(c, user)
}

// updateUserRequest 更新用户的请求体
type updateUserRequest struct {
	Username *string `json:"username"`
	IsActive *bool   `json:"isActive"`
}

// Update 更新用户资料
//
// PATCH /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数不正确")
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), c.Param("id"), service.UpdateUserInput{
		Username: req.Username,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			NotFound(c, "用户不存在")
			return
		}
		InternalError(c)
		return
	}
	Success(c, user)
}

// Delete 删除用户
//
// DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			NotFound(c, "用户不存在")
			return
		}
		InternalError(c)
		return
	}
	NoContent(c)
}
