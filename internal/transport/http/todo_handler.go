package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"

	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/middleware"
	"todoapi/backend/internal/service"
)

// TodoHandler 待办事项处理器
type TodoHandler struct {
	todos *service.TodoService
}

// NewTodoHandler 创建待办事项处理器
func NewTodoHandler(todos *service.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// createTodoRequest 创建待办事项的请求体
type createTodoRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// Create 创建待办事项
//
// POST /todos
func (h *TodoHandler) Create(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "标题不能为空")
		return
	}

	todo, err := h.todos.CreateTodo(c.Request.Context(), identity.SubjectID, req.Title, req.Description)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, todo)
}

// List 列出当前用户的待办事项
//
// GET /todos
func (h *TodoHandler) List(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	todos, err := h.todos.ListTodos(c.Request.Context(), identity.SubjectID)
	if err != nil {
		InternalError(c)
		return
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	Success(c, todos)
}

// updateTodoRequest 更新待办事项的请求体
type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

// Update 更新待办事项
//
// PATCH /todos/:id
func (h *TodoHandler) Update(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数不正确")
		return
	}

	todo, err := h.todos.UpdateTodo(c.Request.Context(), identity.SubjectID, c.Param("id"), service.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Done:        req.Done,
	})
	if err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			NotFound(c, "待办事项不存在")
			return
		}
		InternalError(c)
		return
	}
	Success(c, todo)
}

// Delete 删除待办事项
//
// DELETE /todos/:id
func (h *TodoHandler) Delete(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	if err := h.todos.DeleteTodo(c.Request.Context(), identity.SubjectID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			NotFound(c, "待办事项不存在")
			return
		}
		InternalError(c)
		return
	}
	NoContent(c)
}
