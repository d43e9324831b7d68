package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/storage"
)

// Store 内存存储实现
//
// 用于开发环境和测试，进程退出后数据丢失。
// 所有方法都在读写锁保护下操作，可以被并发的请求协程安全调用。
type Store struct {
	mu      sync.RWMutex
	users   map[string]*domain.User   // 按 ID 索引
	emails  map[string]string         // email → user ID
	apiKeys map[string]*domain.APIKey // 按 ID 索引
	hashes  map[string]string         // key hash → key ID
	todos   map[string]*domain.Todo   // 按 ID 索引
	usage   []domain.UsageEvent
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*domain.User),
		emails:  make(map[string]string),
		apiKeys: make(map[string]*domain.APIKey),
		hashes:  make(map[string]string),
		todos:   make(map[string]*domain.Todo),
	}
}

// ========== 凭证查询 ==========

// FindAPIKeyByHash 按密钥哈希查找 API Key 记录
func (s *Store) FindAPIKeyByHash(_ context.Context, hash string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.hashes[hash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	key := *s.apiKeys[id]
	return &key, nil
}

// FindUserRole 返回用户的角色级别
func (s *Store) FindUserRole(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok || !user.IsActive {
		return 0, storage.ErrNotFound
	}
	return user.RoleLevel, nil
}

// ========== 用户 ==========

// CreateUser 创建用户
func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[user.Email]; exists {
		return storage.ErrAlreadyExists
	}
	u := *user
	s.users[u.ID] = &u
	s.emails[u.Email] = u.ID
	return nil
}

// GetUserByID 按 ID 查找用户
func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := *user
	return &u, nil
}

// GetUserByEmail 按邮箱查找用户
func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := *s.users[id]
	return &u, nil
}

// UpdateUser 更新用户
func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if old.Email != user.Email {
		delete(s.emails, old.Email)
		s.emails[user.Email] = user.ID
	}
	u := *user
	s.users[u.ID] = &u
	return nil
}

// DeleteUser 删除用户
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.emails, user.Email)
	delete(s.users, id)
	return nil
}

// ListUsers 列出全部用户
func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ========== API Key ==========

// CreateAPIKey 创建 API Key 记录
func (s *Store) CreateAPIKey(_ context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.hashes[key.KeyHash]; exists {
		return storage.ErrAlreadyExists
	}
	k := *key
	s.apiKeys[k.ID] = &k
	s.hashes[k.KeyHash] = k.ID
	return nil
}

// GetAPIKeyByID 按 ID 查找 API Key 记录
func (s *Store) GetAPIKeyByID(_ context.Context, id string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.apiKeys[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	k := *key
	return &k, nil
}

// ListAPIKeysByUser 列出用户的全部 API Key
func (s *Store) ListAPIKeysByUser(_ context.Context, userID string) ([]domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.APIKey, 0)
	for _, k := range s.apiKeys {
		if k.UserID == userID {
			out = append(out, *k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DisableAPIKey 直接禁用密钥（硬吊销，不设置轮换字段）
func (s *Store) DisableAPIKey(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.apiKeys[id]
	if !ok || key.UserID != userID {
		return storage.ErrNotFound
	}
	key.Disabled = true
	return nil
}

// RotateAPIKey 原子地完成一次轮换
//
// 整个操作在同一把锁内完成：禁用旧记录、写入 rotated_at、
// 插入新记录并关联 superseded_by，任一检查失败都不留下半成品状态
func (s *Store) RotateAPIKey(_ context.Context, oldID string, rotatedAt time.Time, newKey *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.apiKeys[oldID]
	if !ok || old.UserID != newKey.UserID || old.Disabled {
		return storage.ErrNotFound
	}
	if _, exists := s.hashes[newKey.KeyHash]; exists {
		return storage.ErrAlreadyExists
	}

	k := *newKey
	s.apiKeys[k.ID] = &k
	s.hashes[k.KeyHash] = k.ID

	old.Disabled = true
	old.RotatedAt = &rotatedAt
	old.SupersededBy = &k.ID
	return nil
}

// ========== 待办事项 ==========

// CreateTodo 创建待办事项
func (s *Store) CreateTodo(_ context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := *todo
	s.todos[t.ID] = &t
	return nil
}

// GetTodoByID 按 ID 查找待办事项
func (s *Store) GetTodoByID(_ context.Context, id string) (*domain.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, ok := s.todos[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	t := *todo
	return &t, nil
}

// ListTodosByUser 列出用户的全部待办事项
func (s *Store) ListTodosByUser(_ context.Context, userID string) ([]domain.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Todo, 0)
	for _, t := range s.todos {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateTodo 更新待办事项
func (s *Store) UpdateTodo(_ context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.todos[todo.ID]
	if !ok || old.UserID != todo.UserID {
		return storage.ErrNotFound
	}
	t := *todo
	s.todos[t.ID] = &t
	return nil
}

// DeleteTodo 删除待办事项
func (s *Store) DeleteTodo(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || todo.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.todos, id)
	return nil
}

// ========== 用量 ==========

// AppendBatch 一次性写入一批用量事件
func (s *Store) AppendBatch(_ context.Context, events []domain.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage = append(s.usage, events...)
	return nil
}

// ListUsageByUser 查询用户自 since 以来的用量记录
func (s *Store) ListUsageByUser(_ context.Context, userID string, since time.Time) ([]domain.UsageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UsageEvent, 0)
	for _, e := range s.usage {
		if e.UserID == userID && !e.OccurredAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Ping 检查存储是否可达（内存存储恒为可达）
func (s *Store) Ping(_ context.Context) error { return nil }

// Close 释放底层资源
func (s *Store) Close() error { return nil }
