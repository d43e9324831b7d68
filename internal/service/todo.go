package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/storage"
)

// ErrTodoNotFound 待办事项不存在或不属于当前用户
var ErrTodoNotFound = errors.New("todo not found")

// TodoService 待办事项业务逻辑服务
type TodoService struct {
	store storage.Store
	clock clock.Clock
	log   *zap.Logger
}

// NewTodoService 创建待办事项服务
func NewTodoService(store storage.Store, clk clock.Clock, log *zap.Logger) *TodoService {
	return &TodoService{
		store: store,
		clock: clk,
		log:   log,
	}
}

// CreateTodo 创建待办事项
func (s *TodoService) CreateTodo(ctx context.Context, userID, title, description string) (*domain.Todo, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}

	now := s.clock.Now()
	todo := &domain.Todo{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateTodo(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// ListTodos 列出用户的全部待办事项
func (s *TodoService) ListTodos(ctx context.Context, userID string) ([]domain.Todo, error) {
	return s.store.ListTodosByUser(ctx, userID)
}

// UpdateTodoInput 更新待办事项的输入参数
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Done        *bool
}

// UpdateTodo 更新待办事项
func (s *TodoService) UpdateTodo(ctx context.Context, userID, id string, input UpdateTodoInput) (*domain.Todo, error) {
	todo, err := s.store.GetTodoByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	if todo.UserID != userID {
		return nil, ErrTodoNotFound
	}

	if input.Title != nil {
		todo.Title = *input.Title
	}
	if input.Description != nil {
		todo.Description = *input.Description
	}
	if input.Done != nil {
		todo.Done = *input.Done
	}
	todo.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateTodo(ctx, todo); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}

// DeleteTodo 删除待办事项
func (s *TodoService) DeleteTodo(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTodo(ctx, id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTodoNotFound
		}
		return err
	}
	return nil
}
