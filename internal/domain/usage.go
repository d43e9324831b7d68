package domain

import "time"

// UsageEvent 表示一次已完成的授权请求产生的用量记录
//
// 事件创建后不再修改，先在内存中缓冲，再批量写入存储。
// 用量数据仅作统计参考，进程异常退出导致缓冲丢失是可接受的。
type UsageEvent struct {
	ID         uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	Endpoint   string    `json:"endpoint" gorm:"type:varchar(255);not null"`
	UserID     string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	OccurredAt time.Time `json:"occurredAt" gorm:"index"`
}
