package domain

import "time"

// APIKey 表示一条 API Key 记录
//
// 记录中只保存密钥的单向哈希，原始密钥只在创建或轮换时返回一次。
// disabled 为 true 的记录默认不可用，唯一的例外是轮换宽限期（见 InGrace）。
type APIKey struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	KeyHash      string     `json:"-" gorm:"uniqueIndex;type:varchar(64);not null"`
	UserID       string     `json:"userId" gorm:"type:varchar(36);index;not null"`
	Description  string     `json:"description,omitempty" gorm:"type:varchar(255)"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	Disabled     bool       `json:"disabled" gorm:"default:false;index"`
	AccessRead   bool       `json:"accessRead" gorm:"default:true"`
	AccessModify bool       `json:"accessModify" gorm:"default:false"`
	SupersededBy *string    `json:"supersededBy,omitempty" gorm:"type:varchar(36)"`
	RotatedAt    *time.Time `json:"rotatedAt,omitempty"`
}

// Expired 判断密钥是否已过自然过期时间
//
// 过期是永久性失效，不享受轮换宽限
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// InGrace 判断被禁用的密钥是否仍处于轮换宽限期内
//
// 只有轮换产生的旧密钥（superseded_by 已设置）才享受宽限，
// 管理员直接禁用的密钥立即失效。宽限期从 rotated_at 起算。
func (k *APIKey) InGrace(now time.Time, grace time.Duration) bool {
	if k.SupersededBy == nil || k.RotatedAt == nil {
		return false
	}
	return now.Sub(*k.RotatedAt) <= grace
}
