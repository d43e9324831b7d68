package storage

import (
	"context"
	"errors"
	"time"

	"todoapi/backend/internal/domain"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists 记录已存在（唯一约束冲突）
	ErrAlreadyExists = errors.New("record already exists")
)

// CredentialStore 认证管道消费的凭证查询契约
//
// 管道只读取凭证记录，查询失败（存储不可达）必须与"未找到"区分开，
// 前者向上返回存储错误，后者返回 ErrNotFound。
type CredentialStore interface {
	// FindAPIKeyByHash 按密钥哈希查找 API Key 记录
	FindAPIKeyByHash(ctx context.Context, hash string) (*domain.APIKey, error)
	// FindUserRole 返回用户的角色级别
	FindUserRole(ctx context.Context, userID string) (int, error)
}

// EventSink 用量事件的批量写入契约
type EventSink interface {
	// AppendBatch 一次性写入一批用量事件
	AppendBatch(ctx context.Context, events []domain.UsageEvent) error
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// APIKeyRepository API Key 数据访问接口
type APIKeyRepository interface {
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*domain.APIKey, error)
	ListAPIKeysByUser(ctx context.Context, userID string) ([]domain.APIKey, error)
	// DisableAPIKey 直接禁用密钥（硬吊销，不设置轮换字段，因此没有宽限期）
	DisableAPIKey(ctx context.Context, id, userID string) error
	// RotateAPIKey 原子地完成一次轮换：禁用旧记录、写入 rotated_at、
	// 插入新记录并通过 superseded_by 关联旧记录指向新记录。
	// 任一步失败则整体回滚。
	RotateAPIKey(ctx context.Context, oldID string, rotatedAt time.Time, newKey *domain.APIKey) error
}

// TodoRepository 待办事项数据访问接口
type TodoRepository interface {
	CreateTodo(ctx context.Context, todo *domain.Todo) error
	GetTodoByID(ctx context.Context, id string) (*domain.Todo, error)
	ListTodosByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	UpdateTodo(ctx context.Context, todo *domain.Todo) error
	DeleteTodo(ctx context.Context, id, userID string) error
}

// UsageRepository 用量数据查询接口
type UsageRepository interface {
	ListUsageByUser(ctx context.Context, userID string, since time.Time) ([]domain.UsageEvent, error)
}

// Store 聚合所有持久化操作的存储接口
type Store interface {
	CredentialStore
	EventSink
	UserRepository
	APIKeyRepository
	TodoRepository
	UsageRepository

	// Ping 检查存储是否可达
	Ping(ctx context.Context) error
	// Close 释放底层资源
	Close() error
}
