package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"todoapi/backend/internal/config"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/storage"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）
type Store struct {
	db         *gorm.DB
	driverName string // "mysql" or "postgres"
}

// NewStore 创建 SQL 数据库存储
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Type {
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.DSN), gormConfig)
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &Store{
		db:         db,
		driverName: cfg.Type,
	}

	// 自动执行数据库迁移
	if err := store.Migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Migrate 执行数据库迁移（使用 GORM AutoMigrate）
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&domain.User{},
		&domain.APIKey{},
		&domain.Todo{},
		&domain.UsageEvent{},
	)
}

// ========== 凭证查询 ==========

// FindAPIKeyByHash 按密钥哈希查找 API Key 记录
func (s *Store) FindAPIKeyByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := s.db.WithContext(ctx).Where("key_hash = ?", hash).First(&key).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &key, nil
}

// FindUserRole 返回用户的角色级别
func (s *Store) FindUserRole(ctx context.Context, userID string) (int, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Select("role_level", "is_active").Where("id = ?", userID).First(&user).Error
	if err != nil {
		return 0, translateError(err)
	}
	if !user.IsActive {
		return 0, storage.ErrNotFound
	}
	return user.RoleLevel, nil
}

// ========== 用户 ==========

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrAlreadyExists
	}
	return err
}

// GetUserByID 按 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetUserByEmail 按邮箱查找用户
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// UpdateUser 更新用户
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).Updates(user)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteUser 删除用户
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListUsers 列出全部用户
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ========== API Key ==========

// CreateAPIKey 创建 API Key 记录
func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	err := s.db.WithContext(ctx).Create(key).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrAlreadyExists
	}
	return err
}

// GetAPIKeyByID 按 ID 查找 API Key 记录
func (s *Store) GetAPIKeyByID(ctx context.Context, id string) (*domain.APIKey, error) {
	var key domain.APIKey
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&key).Error; err != nil {
		return nil, translateError(err)
	}
	return &key, nil
}

// ListAPIKeysByUser 列出用户的全部 API Key
func (s *Store) ListAPIKeysByUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	var keys []domain.APIKey
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// DisableAPIKey 直接禁用密钥（硬吊销，不设置轮换字段）
func (s *Store) DisableAPIKey(ctx context.Context, id, userID string) error {
	result := s.db.WithContext(ctx).Model(&domain.APIKey{}).
		Where("id = ? AND user_id = ? AND disabled = ?", id, userID, false).
		Update("disabled", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RotateAPIKey 原子地完成一次轮换
//
// 在单个事务内：插入新记录、禁用旧记录并写入 rotated_at 和
// superseded_by。事务失败整体回滚，不留下半成品状态。
func (s *Store) RotateAPIKey(ctx context.Context, oldID string, rotatedAt time.Time, newKey *domain.APIKey) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newKey).Error; err != nil {
			return err
		}

		result := tx.Model(&domain.APIKey{}).
			Where("id = ? AND user_id = ? AND disabled = ?", oldID, newKey.UserID, false).
			Updates(map[string]interface{}{
				"disabled":      true,
				"rotated_at":    rotatedAt,
				"superseded_by": newKey.ID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// ========== 待办事项 ==========

// CreateTodo 创建待办事项
func (s *Store) CreateTodo(ctx context.Context, todo *domain.Todo) error {
	return s.db.WithContext(ctx).Create(todo).Error
}

// GetTodoByID 按 ID 查找待办事项
func (s *Store) GetTodoByID(ctx context.Context, id string) (*domain.Todo, error) {
	var todo domain.Todo
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&todo).Error; err != nil {
		return nil, translateError(err)
	}
	return &todo, nil
}

// ListTodosByUser 列出用户的全部待办事项
func (s *Store) ListTodosByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}

// UpdateTodo 更新待办事项
func (s *Store) UpdateTodo(ctx context.Context, todo *domain.Todo) error {
	result := s.db.WithContext(ctx).Model(&domain.Todo{}).
		Where("id = ? AND user_id = ?", todo.ID, todo.UserID).
		Updates(map[string]interface{}{
			"title":       todo.Title,
			"description": todo.Description,
			"done":        todo.Done,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteTodo 删除待办事项
func (s *Store) DeleteTodo(ctx context.Context, id, userID string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Todo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ========== 用量 ==========

// AppendBatch 一次性写入一批用量事件
func (s *Store) AppendBatch(ctx context.Context, events []domain.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(events, len(events)).Error
}

// ListUsageByUser 查询用户自 since 以来的用量记录
func (s *Store) ListUsageByUser(ctx context.Context, userID string, since time.Time) ([]domain.UsageEvent, error) {
	var events []domain.UsageEvent
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND occurred_at >= ?", userID, since).
		Order("occurred_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Ping 检查存储是否可达
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError 把 GORM 错误翻译为存储层错误
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}
