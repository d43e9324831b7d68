package domain

import "time"

// 角色级别
//
// 角色为整数级别，但授权按集合成员判断，不做阈值比较：
// 更高的级别不会自动获得低级别路由的访问权，
// 以便未来加入平级角色（例如审计员）而不改变现有路由的行为。
const (
	// RoleLevelAnonymous 匿名访客，仅用于不要求认证的路由
	RoleLevelAnonymous = 0
	// RoleLevelUser 普通用户
	RoleLevelUser = 1
	// RoleLevelAdmin 管理员
	RoleLevelAdmin = 2
	// RoleLevelSuper 超级管理员
	RoleLevelSuper = 3
)

// User 表示注册用户的业务实体
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Username     string     `json:"username,omitempty" gorm:"type:varchar(100)"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255)"` // 不返回给前端
	RoleLevel    int        `json:"roleLevel" gorm:"default:1;index"`
	IsActive     bool       `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// IsAdmin 判断用户是否为管理员
func (u *User) IsAdmin() bool {
	return u.RoleLevel == RoleLevelAdmin || u.RoleLevel == RoleLevelSuper
}
